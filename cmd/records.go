package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [transfer-id]",
	Short: "Show the stored plan records of a transfer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		region, _ := cmd.Flags().GetString("region")

		if region != "" {
			record, err := planRepo.GetPlanRecord(ctx, args[0], region)
			if err != nil {
				fmt.Printf("Error fetching plan record: %v\n", err)
				return
			}
			out, _ := json.MarshalIndent(record, "", "  ")
			fmt.Println(string(out))
			return
		}

		records, err := planRepo.ListPlanRecords(ctx, args[0])
		if err != nil {
			fmt.Printf("Error listing plan records: %v\n", err)
			return
		}
		if len(records) == 0 {
			fmt.Printf("No plan stored for transfer %s\n", args[0])
			return
		}
		for _, record := range records {
			out, _ := json.MarshalIndent(record, "", "  ")
			fmt.Println(string(out))
		}
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget [transfer-id]",
	Short: "Delete the stored plan records of a transfer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := planRepo.DeletePlanRecords(context.Background(), args[0]); err != nil {
			fmt.Printf("Error deleting plan records: %v\n", err)
			return
		}
		fmt.Printf("Plan records for transfer %s deleted\n", args[0])
	},
}

func init() {
	showCmd.Flags().String("region", "", "Show only the record for one region tag")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(forgetCmd)
}
