package topology

import (
	"fmt"

	"github.com/zzenonn/skyferry/internal/gateway"
)

// Validate checks the structural invariants a finished plan must satisfy
// before it is handed to the runtime:
//
//   - every program region holds at least one gateway,
//   - every partition tree is rooted at a Read or Receive operator,
//   - leaves are Send or WriteObjectStore operators,
//   - parent/child edges never cross partitions,
//   - MuxOr children are mutually equivalent delivery targets,
//   - Send operators target gateways that exist in their region.
func (p *Plan) Validate() error {
	for region, prog := range p.programs {
		if len(p.gateways[region]) == 0 {
			return fmt.Errorf("program region %s has no provisioned gateways", region)
		}
		if err := p.validateProgram(region, prog); err != nil {
			return fmt.Errorf("region %s: %w", region, err)
		}
	}
	return nil
}

func (p *Plan) validateProgram(region string, prog *gateway.Program) error {
	knownGateways := make(map[string]string) // gateway id -> region
	for gwRegion, gws := range p.gateways {
		for _, gw := range gws {
			knownGateways[gw.ID] = gwRegion
		}
	}

	for _, partition := range prog.Partitions() {
		rootHandle, _ := prog.Root(partition)
		rootNode, ok := prog.Node(rootHandle)
		if !ok {
			return fmt.Errorf("partition %d root %s is missing", partition, rootHandle)
		}
		switch rootNode.Op.Kind() {
		case gateway.OpReadObjectStore, gateway.OpReceive:
		default:
			return fmt.Errorf("partition %d is rooted at %s, want read or receive", partition, rootNode.Op.Kind())
		}
	}

	for _, n := range prog.Nodes() {
		root, _ := prog.Root(n.Partition)
		isRoot := root == n.Handle

		switch op := n.Op.(type) {
		case gateway.ReadObjectStore, gateway.Receive:
			if !isRoot {
				return fmt.Errorf("operator %s (%s) must be a partition root", n.Handle, n.Op.Kind())
			}
		case gateway.WriteObjectStore:
			if len(n.Children) != 0 {
				return fmt.Errorf("write operator %s must be a leaf", n.Handle)
			}
		case gateway.Send:
			if len(n.Children) != 0 {
				return fmt.Errorf("send operator %s must be a leaf", n.Handle)
			}
			targetRegion, ok := knownGateways[op.TargetGatewayID]
			if !ok {
				return fmt.Errorf("send operator %s targets unknown gateway %s", n.Handle, op.TargetGatewayID)
			}
			if targetRegion != op.Region {
				return fmt.Errorf("send operator %s targets gateway %s outside region %s", n.Handle, op.TargetGatewayID, op.Region)
			}
		case gateway.MuxAnd, gateway.MuxOr:
			if len(n.Children) == 0 {
				return fmt.Errorf("mux operator %s has no children", n.Handle)
			}
		}

		for _, child := range n.Children {
			cn, ok := prog.Node(child)
			if !ok {
				return fmt.Errorf("operator %s references missing child %s", n.Handle, child)
			}
			if cn.Partition != n.Partition {
				return fmt.Errorf("edge %s -> %s crosses partitions %d and %d", n.Handle, child, n.Partition, cn.Partition)
			}
		}

		if n.Op.Kind() == gateway.OpMuxOr {
			if err := validateMuxOrTargets(prog, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateMuxOrTargets enforces the exactly-one-of contract: all branches of
// a MuxOr must be interchangeable. Send branches must address distinct
// gateways within one region; write branches must address one bucket.
func validateMuxOrTargets(prog *gateway.Program, mux *gateway.Node) error {
	var sendRegion, writeTarget string
	seenTargets := make(map[string]bool)

	for _, child := range mux.Children {
		cn, _ := prog.Node(child)
		switch op := cn.Op.(type) {
		case gateway.Send:
			if sendRegion == "" {
				sendRegion = op.Region
			} else if op.Region != sendRegion {
				return fmt.Errorf("mux_or %s mixes send regions %s and %s", mux.Handle, sendRegion, op.Region)
			}
			if seenTargets[op.TargetGatewayID] {
				return fmt.Errorf("mux_or %s sends twice to gateway %s", mux.Handle, op.TargetGatewayID)
			}
			seenTargets[op.TargetGatewayID] = true
		case gateway.WriteObjectStore:
			target := op.Region + "/" + op.Bucket
			if writeTarget == "" {
				writeTarget = target
			} else if target != writeTarget {
				return fmt.Errorf("mux_or %s mixes write targets %s and %s", mux.Handle, writeTarget, target)
			}
		default:
			return fmt.Errorf("mux_or %s has non-equivalent child %s (%s)", mux.Handle, cn.Handle, cn.Op.Kind())
		}
	}
	if sendRegion != "" && writeTarget != "" {
		return fmt.Errorf("mux_or %s mixes send and write children", mux.Handle)
	}
	return nil
}
