package topology_test

import (
	"math"
	"strings"
	"testing"

	"github.com/zzenonn/skyferry/internal/gateway"
	"github.com/zzenonn/skyferry/internal/topology"
)

func TestPlan_AddGateway(t *testing.T) {
	plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})

	first := plan.AddGateway("aws:us-east-1")
	second := plan.AddGateway("aws:us-east-1")
	other := plan.AddGateway("aws:us-west-2")

	if first.ID != "aws:us-east-1:0" || second.ID != "aws:us-east-1:1" {
		t.Errorf("gateway ids = %s, %s; want monotonic per region", first.ID, second.ID)
	}
	if other.ID != "aws:us-west-2:0" {
		t.Errorf("gateway id = %s, want aws:us-west-2:0", other.ID)
	}

	gws := plan.RegionGateways("aws:us-east-1")
	if len(gws) != 2 || gws[0].ID != first.ID || gws[1].ID != second.ID {
		t.Errorf("RegionGateways order = %v", gws)
	}
}

func TestPlan_DistinctDestRegions(t *testing.T) {
	plan := topology.NewPlan("aws:us-east-1", []string{"aws:eu-west-1", "aws:eu-west-1", "aws:ap-south-1"})
	if len(plan.DestRegionTags) != 2 {
		t.Errorf("DestRegionTags = %v, want duplicates collapsed", plan.DestRegionTags)
	}
	if plan.DestRegionTags[0] != "aws:eu-west-1" || plan.DestRegionTags[1] != "aws:ap-south-1" {
		t.Errorf("DestRegionTags order = %v", plan.DestRegionTags)
	}
}

func TestPlan_SetGatewayProgramRequiresGateways(t *testing.T) {
	plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})

	if err := plan.SetGatewayProgram("aws:us-east-1", gateway.NewProgram()); err == nil {
		t.Error("expected error attaching program to region without gateways")
	}

	plan.AddGateway("aws:us-east-1")
	if err := plan.SetGatewayProgram("aws:us-east-1", gateway.NewProgram()); err != nil {
		t.Errorf("SetGatewayProgram failed: %v", err)
	}

	if err := plan.SetGatewayProgram("aws:us-east-1", gateway.NewProgram()); err == nil {
		t.Error("expected error attaching a second program to the same region")
	}
}

func TestPlan_AddCostMonotonic(t *testing.T) {
	plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})
	plan.AddCost(0.02)
	plan.AddCost(-1)
	plan.AddCost(0.09)
	if got := plan.CostPerGB(); math.Abs(got-0.11) > 1e-9 {
		t.Errorf("CostPerGB() = %v, want 0.11", got)
	}
}

func TestPlan_Document(t *testing.T) {
	plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})
	gw := plan.AddGateway("aws:us-east-1")

	prog := gateway.NewProgram()
	prog.AddOperator(gateway.ReadObjectStore{Bucket: "b", Region: "aws:us-east-1", NumConnections: 2}, "", 0)
	if err := plan.SetGatewayProgram("aws:us-east-1", prog); err != nil {
		t.Fatalf("SetGatewayProgram failed: %v", err)
	}

	doc, err := plan.Document("aws:us-east-1")
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if len(doc.GatewayIDs) != 1 || doc.GatewayIDs[0] != gw.ID {
		t.Errorf("GatewayIDs = %v", doc.GatewayIDs)
	}
	if len(doc.Operators) != 1 || doc.Operators[0].Op != gateway.OpReadObjectStore {
		t.Errorf("Operators = %v", doc.Operators)
	}

	if _, err := plan.Document("aws:us-west-2"); err == nil {
		t.Error("expected error for region without a program")
	}
}

func TestPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *topology.Plan
		wantErr string
	}{
		{
			name: "valid one-hop plan",
			build: func() *topology.Plan {
				plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})
				plan.AddGateway("aws:us-east-1")
				dst := plan.AddGateway("aws:us-west-2")

				src := gateway.NewProgram()
				read, _ := src.AddOperator(gateway.ReadObjectStore{Bucket: "a", Region: "aws:us-east-1"}, "", 0)
				mux, _ := src.AddOperator(gateway.MuxOr{}, read, 0)
				src.AddOperator(gateway.Send{TargetGatewayID: dst.ID, Region: "aws:us-west-2"}, mux, 0)
				plan.SetGatewayProgram("aws:us-east-1", src)

				dstProg := gateway.NewProgram()
				recv, _ := dstProg.AddOperator(gateway.Receive{}, "", 0)
				dstProg.AddOperator(gateway.WriteObjectStore{Bucket: "b", Region: "aws:us-west-2"}, recv, 0)
				plan.SetGatewayProgram("aws:us-west-2", dstProg)
				return plan
			},
		},
		{
			name: "send targets unknown gateway",
			build: func() *topology.Plan {
				plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})
				plan.AddGateway("aws:us-east-1")

				src := gateway.NewProgram()
				read, _ := src.AddOperator(gateway.ReadObjectStore{Bucket: "a", Region: "aws:us-east-1"}, "", 0)
				src.AddOperator(gateway.Send{TargetGatewayID: "aws:us-west-2:7", Region: "aws:us-west-2"}, read, 0)
				plan.SetGatewayProgram("aws:us-east-1", src)
				return plan
			},
			wantErr: "unknown gateway",
		},
		{
			name: "mux_or duplicates a target",
			build: func() *topology.Plan {
				plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})
				plan.AddGateway("aws:us-east-1")
				dst := plan.AddGateway("aws:us-west-2")

				src := gateway.NewProgram()
				read, _ := src.AddOperator(gateway.ReadObjectStore{Bucket: "a", Region: "aws:us-east-1"}, "", 0)
				mux, _ := src.AddOperator(gateway.MuxOr{}, read, 0)
				src.AddOperator(gateway.Send{TargetGatewayID: dst.ID, Region: "aws:us-west-2"}, mux, 0)
				src.AddOperator(gateway.Send{TargetGatewayID: dst.ID, Region: "aws:us-west-2"}, mux, 0)
				plan.SetGatewayProgram("aws:us-east-1", src)
				return plan
			},
			wantErr: "sends twice",
		},
		{
			name: "mux_or mixes write targets",
			build: func() *topology.Plan {
				plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})
				plan.AddGateway("aws:us-west-2")

				prog := gateway.NewProgram()
				recv, _ := prog.AddOperator(gateway.Receive{}, "", 0)
				mux, _ := prog.AddOperator(gateway.MuxOr{}, recv, 0)
				prog.AddOperator(gateway.WriteObjectStore{Bucket: "b1", Region: "aws:us-west-2"}, mux, 0)
				prog.AddOperator(gateway.WriteObjectStore{Bucket: "b2", Region: "aws:us-west-2"}, mux, 0)
				plan.SetGatewayProgram("aws:us-west-2", prog)
				return plan
			},
			wantErr: "mixes write targets",
		},
		{
			name: "partition rooted at mux_or",
			build: func() *topology.Plan {
				plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})
				plan.AddGateway("aws:us-east-1")
				dst := plan.AddGateway("aws:us-west-2")

				src := gateway.NewProgram()
				mux, _ := src.AddOperator(gateway.MuxOr{}, "", 0)
				src.AddOperator(gateway.Send{TargetGatewayID: dst.ID, Region: "aws:us-west-2"}, mux, 0)
				plan.SetGatewayProgram("aws:us-east-1", src)
				return plan
			},
			wantErr: "rooted at mux_or",
		},
		{
			name: "empty mux",
			build: func() *topology.Plan {
				plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})
				plan.AddGateway("aws:us-east-1")

				prog := gateway.NewProgram()
				read, _ := prog.AddOperator(gateway.ReadObjectStore{Bucket: "a", Region: "aws:us-east-1"}, "", 0)
				prog.AddOperator(gateway.MuxAnd{}, read, 0)
				plan.SetGatewayProgram("aws:us-east-1", prog)
				return plan
			},
			wantErr: "no children",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
