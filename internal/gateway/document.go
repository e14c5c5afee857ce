package gateway

import "fmt"

// OperatorDoc is the serialized form of one placed operator, part of the
// wire contract between the planner and the gateway runtime.
type OperatorDoc struct {
	ID              string   `json:"id"`
	Op              OpKind   `json:"op"`
	Partition       int      `json:"partition"`
	Children        []string `json:"children"`
	Bucket          string   `json:"bucket,omitempty"`
	Region          string   `json:"region,omitempty"`
	NumConnections  int      `json:"num_connections,omitempty"`
	KeyPrefix       string   `json:"key_prefix,omitempty"`
	TargetGatewayID string   `json:"target_gateway_id,omitempty"`
}

// Document flattens the program into serializable operator records, in
// insertion order. The switch is exhaustive over the operator variant set so
// a new variant cannot silently serialize as an empty record.
func (p *Program) Document() ([]OperatorDoc, error) {
	docs := make([]OperatorDoc, 0, len(p.order))
	for _, n := range p.Nodes() {
		doc := OperatorDoc{
			ID:        n.Handle,
			Op:        n.Op.Kind(),
			Partition: n.Partition,
			Children:  append([]string(nil), n.Children...),
		}
		switch op := n.Op.(type) {
		case ReadObjectStore:
			doc.Bucket = op.Bucket
			doc.Region = op.Region
			doc.NumConnections = op.NumConnections
		case WriteObjectStore:
			doc.Bucket = op.Bucket
			doc.Region = op.Region
			doc.NumConnections = op.NumConnections
			doc.KeyPrefix = op.KeyPrefix
		case Send:
			doc.TargetGatewayID = op.TargetGatewayID
			doc.Region = op.Region
			doc.NumConnections = op.NumConnections
		case Receive, MuxAnd, MuxOr:
			// structural operators carry no extra fields
		default:
			return nil, fmt.Errorf("cannot serialize operator variant %T", n.Op)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
