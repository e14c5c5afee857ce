// Package gateway models the dataflow program one region's gateway fleet
// executes: typed operators connected into per-partition trees. The package
// only guarantees structural validity; executing a program is the runtime's
// concern.
package gateway

// OpKind tags the operator variants a gateway can execute.
type OpKind string

const (
	OpReadObjectStore  OpKind = "read_object_store"
	OpWriteObjectStore OpKind = "write_object_store"
	OpSend             OpKind = "send"
	OpReceive          OpKind = "receive"
	OpMuxAnd           OpKind = "mux_and"
	OpMuxOr            OpKind = "mux_or"
)

// Operator is one typed node of a gateway program.
type Operator interface {
	Kind() OpKind
}

// ReadObjectStore pulls objects out of a bucket. Always a partition root on
// the source side.
type ReadObjectStore struct {
	Bucket         string
	Region         string
	NumConnections int
}

func (ReadObjectStore) Kind() OpKind { return OpReadObjectStore }

// WriteObjectStore stores inbound data into a bucket, optionally rewriting
// the key namespace under KeyPrefix. Always a leaf.
type WriteObjectStore struct {
	Bucket         string
	Region         string
	NumConnections int
	KeyPrefix      string
}

func (WriteObjectStore) Kind() OpKind { return OpWriteObjectStore }

// Send forwards the stream to one specific gateway instance. NumConnections
// bounds how many parallel transport connections the runtime may open for
// this link.
type Send struct {
	TargetGatewayID string
	Region          string
	NumConnections  int
}

func (Send) Kind() OpKind { return OpSend }

// Receive accepts any inbound connection for its partition. Always a
// partition root on the destination side.
type Receive struct{}

func (Receive) Kind() OpKind { return OpReceive }

// MuxAnd replicates the stream to every child branch.
type MuxAnd struct{}

func (MuxAnd) Kind() OpKind { return OpMuxAnd }

// MuxOr delivers the stream to exactly one child branch, chosen by the
// runtime. Children must be equivalent delivery targets.
type MuxOr struct{}

func (MuxOr) Kind() OpKind { return OpMuxOr }
