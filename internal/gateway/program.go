package gateway

import (
	"fmt"
	"sort"
)

// Node is one placed operator inside a program: the operator itself plus its
// handle, partition and outgoing edges. Edges are stored as handles rather
// than pointers so a program serializes without back-references.
type Node struct {
	Handle    string
	Op        Operator
	Partition int
	Children  []string
}

// Program is the operator forest one region's gateway instances execute, one
// tree per partition. Built once during planning, read-only afterwards.
type Program struct {
	nodes map[string]*Node
	order []string       // handles in insertion order
	roots map[int]string // partition -> root handle
	seq   int
}

// NewProgram creates an empty gateway program.
func NewProgram() *Program {
	return &Program{
		nodes: make(map[string]*Node),
		roots: make(map[int]string),
	}
}

// AddOperator places op in the given partition's tree as a child of
// parentHandle and returns the new operator's handle. An empty parentHandle
// makes op the partition root; a partition has exactly one root.
func (p *Program) AddOperator(op Operator, parentHandle string, partition int) (string, error) {
	if parentHandle == "" {
		if _, exists := p.roots[partition]; exists {
			return "", fmt.Errorf("partition %d already has a root operator", partition)
		}
	} else {
		parent, ok := p.nodes[parentHandle]
		if !ok {
			return "", fmt.Errorf("unknown parent handle %q", parentHandle)
		}
		if parent.Partition != partition {
			return "", fmt.Errorf("parent %q belongs to partition %d, not %d", parentHandle, parent.Partition, partition)
		}
	}

	handle := fmt.Sprintf("op_%d", p.seq)
	p.seq++

	p.nodes[handle] = &Node{
		Handle:    handle,
		Op:        op,
		Partition: partition,
	}
	p.order = append(p.order, handle)

	if parentHandle == "" {
		p.roots[partition] = handle
	} else {
		parent := p.nodes[parentHandle]
		parent.Children = append(parent.Children, handle)
	}
	return handle, nil
}

// Node returns the placed operator for a handle.
func (p *Program) Node(handle string) (*Node, bool) {
	n, ok := p.nodes[handle]
	return n, ok
}

// Root returns the root handle of a partition's tree.
func (p *Program) Root(partition int) (string, bool) {
	h, ok := p.roots[partition]
	return h, ok
}

// Partitions returns all partition ids in ascending order.
func (p *Program) Partitions() []int {
	ids := make([]int, 0, len(p.roots))
	for id := range p.roots {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Nodes returns every placed operator in insertion order.
func (p *Program) Nodes() []*Node {
	out := make([]*Node, 0, len(p.order))
	for _, h := range p.order {
		out = append(out, p.nodes[h])
	}
	return out
}

// Len returns the number of placed operators.
func (p *Program) Len() int {
	return len(p.order)
}
