package planner

import (
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/skyferry/internal/domain"
	skyerrors "github.com/zzenonn/skyferry/internal/errors"
	"github.com/zzenonn/skyferry/internal/gateway"
	"github.com/zzenonn/skyferry/internal/pricing"
	"github.com/zzenonn/skyferry/internal/topology"
)

// UnicastDirectPlanner routes single-destination jobs over a full bipartite
// send mesh: every source-region instance can forward to any destination
// instance, and every instance in a region runs the identical program.
type UnicastDirectPlanner struct {
	nInstances   int
	nConnections int
	costs        pricing.CostModel
}

// NewUnicastDirectPlanner validates the replica and connection counts.
func NewUnicastDirectPlanner(nInstances, nConnections int, costs pricing.CostModel) (*UnicastDirectPlanner, error) {
	if err := validateCounts(nInstances, nConnections); err != nil {
		return nil, err
	}
	return &UnicastDirectPlanner{nInstances: nInstances, nConnections: nConnections, costs: costs}, nil
}

// Plan implements Planner.
func (p *UnicastDirectPlanner) Plan(jobs []domain.TransferJob) (*topology.Plan, error) {
	if len(jobs) == 0 {
		return nil, skyerrors.ErrNoJobs
	}
	for _, job := range jobs {
		if len(job.Dsts) != 1 {
			return nil, skyerrors.Preconditionf("direct planner supports single destination per job, got %d", len(job.Dsts))
		}
		if len(job.DstPrefixes) < len(job.Dsts) {
			return nil, skyerrors.Preconditionf("job %s has %d destination prefixes for %d destinations", job.ID, len(job.DstPrefixes), len(job.Dsts))
		}
	}

	srcRegionTag := jobs[0].Src.RegionTag()
	dstRegionTag := jobs[0].Dsts[0].RegionTag()
	for _, job := range jobs[1:] {
		if job.Src.RegionTag() != srcRegionTag || job.Dsts[0].RegionTag() != dstRegionTag {
			return nil, skyerrors.Preconditionf("jobs must share source/destination region, want %s -> %s, got %s -> %s",
				srcRegionTag, dstRegionTag, job.Src.RegionTag(), job.Dsts[0].RegionTag())
		}
	}

	plan := topology.NewPlan(srcRegionTag, []string{dstRegionTag})
	for i := 0; i < p.nInstances; i++ {
		plan.AddGateway(srcRegionTag)
		plan.AddGateway(dstRegionTag)
	}
	dstGateways := plan.RegionGateways(dstRegionTag)

	srcProgram := gateway.NewProgram()
	dstProgram := gateway.NewProgram()

	for partition, job := range jobs {
		read, err := srcProgram.AddOperator(gateway.ReadObjectStore{
			Bucket:         job.Src.Bucket(),
			Region:         srcRegionTag,
			NumConnections: p.nConnections,
		}, "", partition)
		if err != nil {
			return nil, err
		}
		// any destination replica may take the stream
		muxOr, err := srcProgram.AddOperator(gateway.MuxOr{}, read, partition)
		if err != nil {
			return nil, err
		}
		for _, gw := range dstGateways {
			if _, err := srcProgram.AddOperator(gateway.Send{
				TargetGatewayID: gw.ID,
				Region:          dstRegionTag,
				NumConnections:  p.nConnections,
			}, muxOr, partition); err != nil {
				return nil, err
			}
		}

		recv, err := dstProgram.AddOperator(gateway.Receive{}, "", partition)
		if err != nil {
			return nil, err
		}
		if _, err := dstProgram.AddOperator(gateway.WriteObjectStore{
			Bucket:         job.Dsts[0].Bucket(),
			Region:         dstRegionTag,
			NumConnections: p.nConnections,
			KeyPrefix:      job.DstPrefixes[0],
		}, recv, partition); err != nil {
			return nil, err
		}

		cost, err := p.costs.TransferCost(srcRegionTag, dstRegionTag)
		if err != nil {
			return nil, err
		}
		plan.AddCost(cost)
	}

	if err := plan.SetGatewayProgram(srcRegionTag, srcProgram); err != nil {
		return nil, err
	}
	if err := plan.SetGatewayProgram(dstRegionTag, dstProgram); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"jobs":        len(jobs),
		"src":         srcRegionTag,
		"dst":         dstRegionTag,
		"instances":   p.nInstances,
		"cost_per_gb": plan.CostPerGB(),
	}).Debug("planned unicast direct topology")

	return plan, nil
}

// MulticastDirectPlanner routes jobs whose data must reach several
// destination regions: each partition replicates at a MuxAnd, then selects
// one replica instance per destination region at a MuxOr.
type MulticastDirectPlanner struct {
	nInstances   int
	nConnections int
	costs        pricing.CostModel
}

// NewMulticastDirectPlanner validates the replica and connection counts.
func NewMulticastDirectPlanner(nInstances, nConnections int, costs pricing.CostModel) (*MulticastDirectPlanner, error) {
	if err := validateCounts(nInstances, nConnections); err != nil {
		return nil, err
	}
	return &MulticastDirectPlanner{nInstances: nInstances, nConnections: nConnections, costs: costs}, nil
}

// Plan implements Planner.
func (p *MulticastDirectPlanner) Plan(jobs []domain.TransferJob) (*topology.Plan, error) {
	if len(jobs) == 0 {
		return nil, skyerrors.ErrNoJobs
	}

	for _, job := range jobs {
		if len(job.DstPrefixes) < len(job.Dsts) {
			return nil, skyerrors.Preconditionf("job %s has %d destination prefixes for %d destinations", job.ID, len(job.DstPrefixes), len(job.Dsts))
		}
	}

	srcRegionTag := jobs[0].Src.RegionTag()
	dstRegionTags := destinationRegionTags(jobs[0])
	for _, job := range jobs[1:] {
		if job.Src.RegionTag() != srcRegionTag {
			return nil, skyerrors.Preconditionf("jobs must share source/destination region, want source %s, got %s",
				srcRegionTag, job.Src.RegionTag())
		}
		if !equalTags(destinationRegionTags(job), dstRegionTags) {
			return nil, skyerrors.Preconditionf("jobs must share source/destination region, destination sets %v and %v differ",
				dstRegionTags, destinationRegionTags(job))
		}
	}

	plan := topology.NewPlan(srcRegionTag, dstRegionTags)
	for i := 0; i < p.nInstances; i++ {
		plan.AddGateway(srcRegionTag)
		for _, tag := range dstRegionTags {
			plan.AddGateway(tag)
		}
	}

	srcProgram := gateway.NewProgram()
	dstPrograms := make(map[string]*gateway.Program, len(dstRegionTags))
	for _, tag := range dstRegionTags {
		dstPrograms[tag] = gateway.NewProgram()
	}

	for partition, job := range jobs {
		read, err := srcProgram.AddOperator(gateway.ReadObjectStore{
			Bucket:         job.Src.Bucket(),
			Region:         srcRegionTag,
			NumConnections: p.nConnections,
		}, "", partition)
		if err != nil {
			return nil, err
		}
		// every destination region must see the stream
		muxAnd, err := srcProgram.AddOperator(gateway.MuxAnd{}, read, partition)
		if err != nil {
			return nil, err
		}

		for i, dst := range job.Dsts {
			dstRegionTag := dst.RegionTag()
			dstGateways := plan.RegionGateways(dstRegionTag)

			muxOr, err := srcProgram.AddOperator(gateway.MuxOr{}, muxAnd, partition)
			if err != nil {
				return nil, err
			}
			for _, gw := range dstGateways {
				if _, err := srcProgram.AddOperator(gateway.Send{
					TargetGatewayID: gw.ID,
					Region:          dstRegionTag,
					NumConnections:  p.nConnections,
				}, muxOr, partition); err != nil {
					return nil, err
				}
			}

			recv, err := dstPrograms[dstRegionTag].AddOperator(gateway.Receive{}, "", partition)
			if err != nil {
				return nil, err
			}
			if _, err := dstPrograms[dstRegionTag].AddOperator(gateway.WriteObjectStore{
				Bucket:         dst.Bucket(),
				Region:         dstRegionTag,
				NumConnections: p.nConnections,
				KeyPrefix:      job.DstPrefixes[i],
			}, recv, partition); err != nil {
				return nil, err
			}

			cost, err := p.costs.TransferCost(srcRegionTag, dstRegionTag)
			if err != nil {
				return nil, err
			}
			plan.AddCost(cost)
		}
	}

	if err := plan.SetGatewayProgram(srcRegionTag, srcProgram); err != nil {
		return nil, err
	}
	for tag, prog := range dstPrograms {
		if err := plan.SetGatewayProgram(tag, prog); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"jobs":        len(jobs),
		"src":         srcRegionTag,
		"dsts":        dstRegionTags,
		"instances":   p.nInstances,
		"cost_per_gb": plan.CostPerGB(),
	}).Debug("planned multicast direct topology")

	return plan, nil
}

func destinationRegionTags(job domain.TransferJob) []string {
	tags := make([]string, len(job.Dsts))
	for i, dst := range job.Dsts {
		tags[i] = dst.RegionTag()
	}
	return tags
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
