package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zzenonn/skyferry/internal/domain"
	"github.com/zzenonn/skyferry/internal/planner"
	"github.com/zzenonn/skyferry/internal/service"
)

var planCmd = &cobra.Command{
	Use:   "plan [src-bucket-url] [dst-bucket-url ...]",
	Short: "Plan an overlay topology for a transfer",
	Long:  "Builds a transfer job from bucket URLs (s3://name or gs://name, optionally name@region), plans the gateway topology and stores the per-region programs",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		srcURL, dstURLs := args[0], args[1:]
		ctx := context.Background()

		instances, _ := cmd.Flags().GetInt("instances")
		connections, _ := cmd.Flags().GetInt("connections")
		strategy, _ := cmd.Flags().GetString("strategy")
		throughput, _ := cmd.Flags().GetFloat64("throughput")
		prefixes, _ := cmd.Flags().GetStringSlice("prefix")
		if instances == 0 {
			instances = cfg.NumInstances
		}
		if connections == 0 {
			connections = cfg.NumConnections
		}
		if strategy == "" {
			strategy = cfg.Strategy
		}
		if throughput == 0 {
			throughput = cfg.RequiredThroughputGbits
		}

		p, err := buildPlanner(strategy, instances, connections, throughput, len(dstURLs))
		if err != nil {
			fmt.Printf("Error building planner: %v\n", err)
			return
		}

		svc := service.NewTransferService(p, factory, &planRepo)
		job, err := svc.BuildJob(ctx, srcURL, dstURLs, prefixes)
		if err != nil {
			fmt.Printf("Error resolving endpoints: %v\n", err)
			return
		}

		plan, err := svc.PlanTransfer(ctx, []domain.TransferJob{job})
		if err != nil {
			fmt.Printf("Error planning transfer: %v\n", err)
			return
		}

		fmt.Printf("Transfer %s planned, estimated $%.4f/GB\n", job.ID, plan.CostPerGB())
		for _, region := range plan.GatewayRegions() {
			doc, err := plan.Document(region)
			if err != nil {
				fmt.Printf("Error serializing plan for %s: %v\n", region, err)
				return
			}
			out, _ := json.MarshalIndent(doc, "", "  ")
			fmt.Println(string(out))
		}
	},
}

// buildPlanner maps the direct strategy to unicast or multicast from the
// destination count; solver strategies pass straight through.
func buildPlanner(strategy string, instances, connections int, throughput float64, nDsts int) (planner.Planner, error) {
	if strategy == planner.StrategyDirect && nDsts > 1 {
		return planner.NewMulticastDirectPlanner(instances, connections, costModel)
	}
	return planner.ForStrategy(strategy, instances, connections, throughput, costModel)
}

var costCmd = &cobra.Command{
	Use:   "cost [src-region-tag] [dst-region-tag]",
	Short: "Look up the per-GB egress cost between two regions",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cost, err := costModel.TransferCost(args[0], args[1])
		if err != nil {
			fmt.Printf("Error looking up cost: %v\n", err)
			return
		}
		fmt.Printf("%s -> %s: $%.4f/GB\n", args[0], args[1], cost)
	},
}

func init() {
	planCmd.Flags().Int("instances", 0, "Gateway instances per region")
	planCmd.Flags().Int("connections", 0, "Parallel connections per link")
	planCmd.Flags().String("strategy", "", "Planning strategy (direct, ilp, mdst, steiner)")
	planCmd.Flags().Float64("throughput", 0, "Required throughput in Gbit/s for capacity-aware strategies")
	planCmd.Flags().StringSlice("prefix", nil, "Destination key prefix, repeatable per destination")
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(costCmd)
}
