package gateway_test

import (
	"testing"

	"github.com/zzenonn/skyferry/internal/gateway"
)

func TestProgram_AddOperator(t *testing.T) {
	prog := gateway.NewProgram()

	read, err := prog.AddOperator(gateway.ReadObjectStore{Bucket: "src", Region: "aws:us-east-1", NumConnections: 4}, "", 0)
	if err != nil {
		t.Fatalf("AddOperator(root) failed: %v", err)
	}
	mux, err := prog.AddOperator(gateway.MuxOr{}, read, 0)
	if err != nil {
		t.Fatalf("AddOperator(mux) failed: %v", err)
	}
	send, err := prog.AddOperator(gateway.Send{TargetGatewayID: "aws:us-west-2:0", Region: "aws:us-west-2", NumConnections: 4}, mux, 0)
	if err != nil {
		t.Fatalf("AddOperator(send) failed: %v", err)
	}

	root, ok := prog.Root(0)
	if !ok || root != read {
		t.Errorf("Root(0) = %q, want %q", root, read)
	}

	readNode, _ := prog.Node(read)
	if len(readNode.Children) != 1 || readNode.Children[0] != mux {
		t.Errorf("read children = %v, want [%s]", readNode.Children, mux)
	}
	muxNode, _ := prog.Node(mux)
	if len(muxNode.Children) != 1 || muxNode.Children[0] != send {
		t.Errorf("mux children = %v, want [%s]", muxNode.Children, send)
	}
	if prog.Len() != 3 {
		t.Errorf("Len() = %d, want 3", prog.Len())
	}
}

func TestProgram_AddOperatorErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(prog *gateway.Program) error
	}{
		{
			name: "second root in partition",
			build: func(prog *gateway.Program) error {
				if _, err := prog.AddOperator(gateway.Receive{}, "", 0); err != nil {
					return err
				}
				_, err := prog.AddOperator(gateway.Receive{}, "", 0)
				return err
			},
		},
		{
			name: "unknown parent handle",
			build: func(prog *gateway.Program) error {
				_, err := prog.AddOperator(gateway.MuxOr{}, "op_99", 0)
				return err
			},
		},
		{
			name: "parent in different partition",
			build: func(prog *gateway.Program) error {
				read, err := prog.AddOperator(gateway.ReadObjectStore{Bucket: "b", Region: "aws:us-east-1"}, "", 0)
				if err != nil {
					return err
				}
				_, err = prog.AddOperator(gateway.MuxOr{}, read, 1)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.build(gateway.NewProgram()); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestProgram_Partitions(t *testing.T) {
	prog := gateway.NewProgram()
	for _, partition := range []int{2, 0, 1} {
		if _, err := prog.AddOperator(gateway.Receive{}, "", partition); err != nil {
			t.Fatalf("AddOperator failed: %v", err)
		}
	}

	got := prog.Partitions()
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("Partitions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Partitions()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestProgram_Document(t *testing.T) {
	prog := gateway.NewProgram()
	read, _ := prog.AddOperator(gateway.ReadObjectStore{Bucket: "src-bucket", Region: "aws:us-east-1", NumConnections: 8}, "", 0)
	mux, _ := prog.AddOperator(gateway.MuxAnd{}, read, 0)
	prog.AddOperator(gateway.Send{TargetGatewayID: "gcp:us-central1:0", Region: "gcp:us-central1", NumConnections: 8}, mux, 0)
	recv, _ := prog.AddOperator(gateway.Receive{}, "", 1)
	prog.AddOperator(gateway.WriteObjectStore{Bucket: "dst-bucket", Region: "gcp:us-central1", NumConnections: 8, KeyPrefix: "mirror/"}, recv, 1)

	docs, err := prog.Document()
	if err != nil {
		t.Fatalf("Document() failed: %v", err)
	}
	if len(docs) != 5 {
		t.Fatalf("Document() returned %d operators, want 5", len(docs))
	}

	if docs[0].Op != gateway.OpReadObjectStore || docs[0].Bucket != "src-bucket" || docs[0].NumConnections != 8 {
		t.Errorf("read doc = %+v", docs[0])
	}
	if len(docs[0].Children) != 1 || docs[0].Children[0] != mux {
		t.Errorf("read doc children = %v, want [%s]", docs[0].Children, mux)
	}
	if docs[2].Op != gateway.OpSend || docs[2].TargetGatewayID != "gcp:us-central1:0" {
		t.Errorf("send doc = %+v", docs[2])
	}
	if docs[4].Op != gateway.OpWriteObjectStore || docs[4].KeyPrefix != "mirror/" || docs[4].Partition != 1 {
		t.Errorf("write doc = %+v", docs[4])
	}
}
