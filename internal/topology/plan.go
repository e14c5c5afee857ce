// Package topology holds the planner's output: which regions take part in a
// transfer, the gateway instances provisioned per region, the program each
// region's fleet executes, and the running cost estimate.
package topology

import (
	"fmt"

	"github.com/zzenonn/skyferry/internal/gateway"
)

// Gateway is one provisioned relay instance.
type Gateway struct {
	ID        string `json:"id"`
	RegionTag string `json:"region_tag"`
}

// Plan aggregates the full routing decision for one transfer. It is built in
// a single planner call through AddGateway/SetGatewayProgram/AddCost and must
// not be mutated afterwards.
type Plan struct {
	SrcRegionTag   string
	DestRegionTags []string

	gateways  map[string][]Gateway
	programs  map[string]*gateway.Program
	costPerGB float64
}

// NewPlan starts an empty plan. Duplicate destination region tags collapse,
// first occurrence wins the ordering.
func NewPlan(srcRegionTag string, destRegionTags []string) *Plan {
	seen := make(map[string]bool, len(destRegionTags))
	dests := make([]string, 0, len(destRegionTags))
	for _, tag := range destRegionTags {
		if !seen[tag] {
			seen[tag] = true
			dests = append(dests, tag)
		}
	}
	return &Plan{
		SrcRegionTag:   srcRegionTag,
		DestRegionTags: dests,
		gateways:       make(map[string][]Gateway),
		programs:       make(map[string]*gateway.Program),
	}
}

// AddGateway provisions one gateway instance in a region. Identifiers are
// assigned monotonically per region and never reused within a plan.
func (p *Plan) AddGateway(regionTag string) Gateway {
	gw := Gateway{
		ID:        fmt.Sprintf("%s:%d", regionTag, len(p.gateways[regionTag])),
		RegionTag: regionTag,
	}
	p.gateways[regionTag] = append(p.gateways[regionTag], gw)
	return gw
}

// RegionGateways returns the gateways provisioned in a region, in the order
// they were added. The order determines target assignment in send operators.
func (p *Plan) RegionGateways(regionTag string) []Gateway {
	gws := p.gateways[regionTag]
	out := make([]Gateway, len(gws))
	copy(out, gws)
	return out
}

// GatewayRegions returns every region with at least one provisioned gateway,
// source first, then destinations in plan order.
func (p *Plan) GatewayRegions() []string {
	regions := make([]string, 0, len(p.gateways))
	if len(p.gateways[p.SrcRegionTag]) > 0 {
		regions = append(regions, p.SrcRegionTag)
	}
	for _, tag := range p.DestRegionTags {
		if tag != p.SrcRegionTag && len(p.gateways[tag]) > 0 {
			regions = append(regions, tag)
		}
	}
	return regions
}

// SetGatewayProgram attaches the program a region's fleet will execute. Every
// program region must already hold at least one gateway, and a region's
// program is attached exactly once.
func (p *Plan) SetGatewayProgram(regionTag string, prog *gateway.Program) error {
	if len(p.gateways[regionTag]) == 0 {
		return fmt.Errorf("region %s has no provisioned gateways", regionTag)
	}
	if _, exists := p.programs[regionTag]; exists {
		return fmt.Errorf("region %s already has a gateway program", regionTag)
	}
	p.programs[regionTag] = prog
	return nil
}

// Program returns the program attached to a region.
func (p *Plan) Program(regionTag string) (*gateway.Program, bool) {
	prog, ok := p.programs[regionTag]
	return prog, ok
}

// AddCost accumulates an estimated dollars-per-gigabyte amount. The running
// total only grows.
func (p *Plan) AddCost(dollarsPerGB float64) {
	if dollarsPerGB > 0 {
		p.costPerGB += dollarsPerGB
	}
}

// CostPerGB returns the accumulated transfer cost estimate.
func (p *Plan) CostPerGB() float64 {
	return p.costPerGB
}

// RegionDoc is the per-region plan document handed to the gateway runtime:
// the provisioned gateway ids plus the serialized operator forest.
type RegionDoc struct {
	RegionTag  string                `json:"region_tag"`
	GatewayIDs []string              `json:"gateway_ids"`
	Operators  []gateway.OperatorDoc `json:"operators"`
}

// Document serializes one region's slice of the plan.
func (p *Plan) Document(regionTag string) (RegionDoc, error) {
	prog, ok := p.programs[regionTag]
	if !ok {
		return RegionDoc{}, fmt.Errorf("region %s has no gateway program", regionTag)
	}
	ops, err := prog.Document()
	if err != nil {
		return RegionDoc{}, err
	}
	gws := p.gateways[regionTag]
	ids := make([]string, len(gws))
	for i, gw := range gws {
		ids[i] = gw.ID
	}
	return RegionDoc{RegionTag: regionTag, GatewayIDs: ids, Operators: ops}, nil
}
