package domain

import (
	"time"

	"github.com/google/uuid"
)

// StoreEndpoint is the planner's view of one object-store bucket: where it
// lives and what it is called. Provider adapters in the repository layer
// satisfy this interface.
type StoreEndpoint interface {
	// RegionTag returns the provider-qualified region, e.g. "aws:us-east-1".
	RegionTag() string
	// Bucket returns the bucket name.
	Bucket() string
}

// TransferJob is one logical copy operation from a source bucket to one or
// more destination buckets. Jobs are built by the caller and only read during
// planning.
type TransferJob struct {
	ID          uuid.UUID
	Src         StoreEndpoint
	Dsts        []StoreEndpoint
	// DstPrefixes rewrites the object key namespace per destination. Parallel
	// to Dsts; an empty string leaves keys unchanged.
	DstPrefixes []string
}

// NewTransferJob assigns a fresh job id. When prefixes is shorter than dsts
// the remaining destinations keep the source key namespace.
func NewTransferJob(src StoreEndpoint, dsts []StoreEndpoint, prefixes []string) TransferJob {
	padded := make([]string, len(dsts))
	copy(padded, prefixes)
	return TransferJob{
		ID:          uuid.New(),
		Src:         src,
		Dsts:        dsts,
		DstPrefixes: padded,
	}
}

// ObjectInfo describes one stored object returned by listing.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// PlanRecord - persisted form of one region's slice of a topology plan
type PlanRecord struct {
	TransferID string   `json:"transfer_id" dynamodbav:"transfer_id"` // Transfer UUID - Partition Key
	RegionTag  string   `json:"region_tag" dynamodbav:"region_tag"`   // Region - Sort Key
	GatewayIDs []string `json:"gateway_ids" dynamodbav:"gateway_ids"`
	Program    string   `json:"program" dynamodbav:"program"` // serialized operator forest
	CostPerGB  float64  `json:"cost_per_gb" dynamodbav:"cost_per_gb"`
}
