// Package planner decides how a batch of transfer jobs flows through the
// gateway overlay: how many instances per region, how they interconnect, and
// the dataflow program each region runs.
package planner

import (
	"fmt"

	"github.com/zzenonn/skyferry/internal/domain"
	skyerrors "github.com/zzenonn/skyferry/internal/errors"
	"github.com/zzenonn/skyferry/internal/pricing"
	"github.com/zzenonn/skyferry/internal/topology"
)

// Planner turns a non-empty batch of transfer jobs into one topology plan.
// Planning is synchronous and side-effect free; a failed precondition aborts
// before any gateway is provisioned and no partial plan is ever returned.
type Planner interface {
	Plan(jobs []domain.TransferJob) (*topology.Plan, error)
}

// Strategy names accepted by ForStrategy.
const (
	StrategyDirect  = "direct"
	StrategyILP     = "ilp"
	StrategyMDST    = "mdst"
	StrategySteiner = "steiner"
)

// ForStrategy builds a planner for the named strategy. Direct planning picks
// unicast or multicast from the job shape at plan time, so multicast is
// chosen by handing jobs with multiple destinations to the multicast variant
// explicitly; this constructor maps "direct" to unicast.
func ForStrategy(name string, nInstances, nConnections int, requiredThroughputGbits float64, costs pricing.CostModel) (Planner, error) {
	switch name {
	case StrategyDirect, "":
		return NewUnicastDirectPlanner(nInstances, nConnections, costs)
	case StrategyILP:
		return NewUnicastILPPlanner(nInstances, nConnections, requiredThroughputGbits)
	case StrategyMDST:
		return NewMulticastMDSTPlanner(nInstances, nConnections)
	case StrategySteiner:
		return NewMulticastSteinerTreePlanner(nInstances, nConnections)
	default:
		return nil, fmt.Errorf("unknown planning strategy %q", name)
	}
}

func validateCounts(nInstances, nConnections int) error {
	if nInstances <= 0 {
		return skyerrors.InvalidParameterError("n_instances", nInstances)
	}
	if nConnections <= 0 {
		return skyerrors.InvalidParameterError("n_connections", nConnections)
	}
	return nil
}
