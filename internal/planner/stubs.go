package planner

import (
	"fmt"

	"github.com/zzenonn/skyferry/internal/domain"
	skyerrors "github.com/zzenonn/skyferry/internal/errors"
	"github.com/zzenonn/skyferry/internal/topology"
)

// The solver-backed strategies share the Planner contract so they can be
// substituted for the direct planners without touching callers, but their
// algorithms are not implemented. Calling Plan reports
// skyerrors.ErrUnimplementedStrategy, never a silent fallback.

// UnicastILPPlanner will size the overlay with an integer linear program
// constrained by a required aggregate throughput.
type UnicastILPPlanner struct {
	nInstances              int
	nConnections            int
	requiredThroughputGbits float64
}

func NewUnicastILPPlanner(nInstances, nConnections int, requiredThroughputGbits float64) (*UnicastILPPlanner, error) {
	if err := validateCounts(nInstances, nConnections); err != nil {
		return nil, err
	}
	if requiredThroughputGbits <= 0 {
		return nil, skyerrors.InvalidParameterError("required_throughput_gbits", requiredThroughputGbits)
	}
	return &UnicastILPPlanner{nInstances, nConnections, requiredThroughputGbits}, nil
}

func (p *UnicastILPPlanner) Plan(jobs []domain.TransferJob) (*topology.Plan, error) {
	return nil, fmt.Errorf("unicast ILP planner: %w", skyerrors.ErrUnimplementedStrategy)
}

// MulticastILPPlanner is the multi-destination counterpart of
// UnicastILPPlanner.
type MulticastILPPlanner struct {
	nInstances              int
	nConnections            int
	requiredThroughputGbits float64
}

func NewMulticastILPPlanner(nInstances, nConnections int, requiredThroughputGbits float64) (*MulticastILPPlanner, error) {
	if err := validateCounts(nInstances, nConnections); err != nil {
		return nil, err
	}
	if requiredThroughputGbits <= 0 {
		return nil, skyerrors.InvalidParameterError("required_throughput_gbits", requiredThroughputGbits)
	}
	return &MulticastILPPlanner{nInstances, nConnections, requiredThroughputGbits}, nil
}

func (p *MulticastILPPlanner) Plan(jobs []domain.TransferJob) (*topology.Plan, error) {
	return nil, fmt.Errorf("multicast ILP planner: %w", skyerrors.ErrUnimplementedStrategy)
}

// MulticastMDSTPlanner will route over a minimum-degree spanning tree.
type MulticastMDSTPlanner struct {
	nInstances   int
	nConnections int
}

func NewMulticastMDSTPlanner(nInstances, nConnections int) (*MulticastMDSTPlanner, error) {
	if err := validateCounts(nInstances, nConnections); err != nil {
		return nil, err
	}
	return &MulticastMDSTPlanner{nInstances, nConnections}, nil
}

func (p *MulticastMDSTPlanner) Plan(jobs []domain.TransferJob) (*topology.Plan, error) {
	return nil, fmt.Errorf("multicast MDST planner: %w", skyerrors.ErrUnimplementedStrategy)
}

// MulticastSteinerTreePlanner will route over a Steiner tree spanning the
// destination regions.
type MulticastSteinerTreePlanner struct {
	nInstances   int
	nConnections int
}

func NewMulticastSteinerTreePlanner(nInstances, nConnections int) (*MulticastSteinerTreePlanner, error) {
	if err := validateCounts(nInstances, nConnections); err != nil {
		return nil, err
	}
	return &MulticastSteinerTreePlanner{nInstances, nConnections}, nil
}

func (p *MulticastSteinerTreePlanner) Plan(jobs []domain.TransferJob) (*topology.Plan, error) {
	return nil, fmt.Errorf("multicast Steiner tree planner: %w", skyerrors.ErrUnimplementedStrategy)
}
