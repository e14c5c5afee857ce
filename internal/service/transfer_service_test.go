package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/zzenonn/skyferry/internal/domain"
	"github.com/zzenonn/skyferry/internal/gateway"
	"github.com/zzenonn/skyferry/internal/planner"
	"github.com/zzenonn/skyferry/internal/repository/objectstore"
	"github.com/zzenonn/skyferry/internal/service"
	"github.com/zzenonn/skyferry/internal/topology"
)

// mockStore is a mock implementation of the ObjectStore interface. Only the
// endpoint identity matters to planning; the data-path methods are inert.
type mockStore struct {
	region string
	bucket string
}

func (m *mockStore) RegionTag() string { return m.region }
func (m *mockStore) Bucket() string    { return m.bucket }

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (m *mockStore) ObjectSize(ctx context.Context, key string) (int64, error) {
	return 0, nil
}
func (m *mockStore) ListObjects(ctx context.Context, prefix, startAfter string, fn func(domain.ObjectInfo) error) error {
	return nil
}
func (m *mockStore) DeleteObjects(ctx context.Context, keys []string) error { return nil }
func (m *mockStore) Upload(ctx context.Context, key string, r io.Reader, quiet bool) (string, error) {
	return "", nil
}
func (m *mockStore) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	return nil, nil
}
func (m *mockStore) DownloadRange(ctx context.Context, key string, dst *os.File, offset, length int64) error {
	return nil
}
func (m *mockStore) UploadFile(ctx context.Context, srcPath, key string) error { return nil }
func (m *mockStore) InitiateMultipartUpload(ctx context.Context, key string) (string, error) {
	return "", nil
}
func (m *mockStore) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, srcPath string, offset, length int64) (objectstore.CompletedPart, error) {
	return objectstore.CompletedPart{}, nil
}
func (m *mockStore) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []objectstore.CompletedPart) error {
	return nil
}

// mockResolver is a mock implementation of the EndpointResolver interface.
type mockResolver struct {
	resolveFn func(ctx context.Context, bucketURL string) (objectstore.ObjectStore, error)
}

func (m *mockResolver) Resolve(ctx context.Context, bucketURL string) (objectstore.ObjectStore, error) {
	return m.resolveFn(ctx, bucketURL)
}

// mockPlanStore is a mock implementation of the PlanStore interface.
type mockPlanStore struct {
	createFn func(ctx context.Context, record domain.PlanRecord) (domain.PlanRecord, error)
	records  []domain.PlanRecord
}

func (m *mockPlanStore) CreatePlanRecord(ctx context.Context, record domain.PlanRecord) (domain.PlanRecord, error) {
	if m.createFn != nil {
		return m.createFn(ctx, record)
	}
	m.records = append(m.records, record)
	return record, nil
}

// mockPlanner is a mock implementation of the Planner interface.
type mockPlanner struct {
	planFn func(jobs []domain.TransferJob) (*topology.Plan, error)
}

func (m *mockPlanner) Plan(jobs []domain.TransferJob) (*topology.Plan, error) {
	return m.planFn(jobs)
}

// staticCosts prices every hop at the same rate.
type staticCosts struct {
	rate float64
}

func (c staticCosts) TransferCost(src, dst string) (float64, error) { return c.rate, nil }

func urlResolver(stores map[string]*mockStore) *mockResolver {
	return &mockResolver{
		resolveFn: func(ctx context.Context, bucketURL string) (objectstore.ObjectStore, error) {
			store, ok := stores[bucketURL]
			if !ok {
				return nil, fmt.Errorf("no such bucket %s", bucketURL)
			}
			return store, nil
		},
	}
}

func TestTransferService_BuildJob(t *testing.T) {
	resolver := urlResolver(map[string]*mockStore{
		"s3://src":   {region: "aws:us-east-1", bucket: "src"},
		"s3://dst-a": {region: "aws:us-west-2", bucket: "dst-a"},
		"gs://dst-b": {region: "gcp:us-central1", bucket: "dst-b"},
	})
	svc := service.NewTransferService(nil, resolver, nil)

	job, err := svc.BuildJob(context.Background(), "s3://src", []string{"s3://dst-a", "gs://dst-b"}, []string{"mirror/"})
	if err != nil {
		t.Fatalf("BuildJob failed: %v", err)
	}

	if job.Src.Bucket() != "src" || job.Src.RegionTag() != "aws:us-east-1" {
		t.Errorf("source endpoint = %s in %s", job.Src.Bucket(), job.Src.RegionTag())
	}
	if len(job.Dsts) != 2 {
		t.Fatalf("destinations = %d, want 2", len(job.Dsts))
	}
	if job.Dsts[1].RegionTag() != "gcp:us-central1" {
		t.Errorf("second destination region = %s", job.Dsts[1].RegionTag())
	}
	if len(job.DstPrefixes) != 2 || job.DstPrefixes[0] != "mirror/" || job.DstPrefixes[1] != "" {
		t.Errorf("prefixes = %v, want padded to destination count", job.DstPrefixes)
	}
}

func TestTransferService_BuildJobResolveError(t *testing.T) {
	resolver := urlResolver(map[string]*mockStore{
		"s3://src": {region: "aws:us-east-1", bucket: "src"},
	})
	svc := service.NewTransferService(nil, resolver, nil)

	if _, err := svc.BuildJob(context.Background(), "s3://missing", []string{"s3://src"}, nil); err == nil {
		t.Error("expected error for unresolvable source")
	}
	if _, err := svc.BuildJob(context.Background(), "s3://src", []string{"s3://missing"}, nil); err == nil {
		t.Error("expected error for unresolvable destination")
	}
}

func TestTransferService_PlanTransfer(t *testing.T) {
	costs := staticCosts{rate: 0.02}
	direct, err := planner.NewUnicastDirectPlanner(2, 8, costs)
	if err != nil {
		t.Fatalf("NewUnicastDirectPlanner failed: %v", err)
	}
	plans := &mockPlanStore{}
	svc := service.NewTransferService(direct, nil, plans)

	job := domain.NewTransferJob(
		&mockStore{region: "aws:us-east-1", bucket: "src"},
		[]domain.StoreEndpoint{&mockStore{region: "aws:us-west-2", bucket: "dst"}},
		nil,
	)

	plan, err := svc.PlanTransfer(context.Background(), []domain.TransferJob{job})
	if err != nil {
		t.Fatalf("PlanTransfer failed: %v", err)
	}

	if len(plans.records) != 2 {
		t.Fatalf("stored %d records, want one per region", len(plans.records))
	}
	for _, record := range plans.records {
		if record.TransferID != job.ID.String() {
			t.Errorf("record transfer id = %s, want %s", record.TransferID, job.ID)
		}
		if len(record.GatewayIDs) != 2 {
			t.Errorf("record for %s lists %d gateways, want 2", record.RegionTag, len(record.GatewayIDs))
		}
		if record.CostPerGB != plan.CostPerGB() {
			t.Errorf("record cost = %v, want %v", record.CostPerGB, plan.CostPerGB())
		}

		var ops []map[string]interface{}
		if err := json.Unmarshal([]byte(record.Program), &ops); err != nil {
			t.Fatalf("record program for %s is not valid JSON: %v", record.RegionTag, err)
		}
		if len(ops) == 0 {
			t.Errorf("record program for %s has no operators", record.RegionTag)
		}
	}
}

func TestTransferService_PlanTransferPlannerError(t *testing.T) {
	wantErr := errors.New("solver exploded")
	p := &mockPlanner{
		planFn: func(jobs []domain.TransferJob) (*topology.Plan, error) {
			return nil, wantErr
		},
	}
	plans := &mockPlanStore{}
	svc := service.NewTransferService(p, nil, plans)

	job := domain.NewTransferJob(
		&mockStore{region: "aws:us-east-1", bucket: "src"},
		[]domain.StoreEndpoint{&mockStore{region: "aws:us-west-2", bucket: "dst"}},
		nil,
	)
	if _, err := svc.PlanTransfer(context.Background(), []domain.TransferJob{job}); !errors.Is(err, wantErr) {
		t.Errorf("PlanTransfer error = %v, want %v", err, wantErr)
	}
	if len(plans.records) != 0 {
		t.Error("planner failure still stored records")
	}
}

func gatewayProgramWithDanglingSend(t *testing.T) *gateway.Program {
	t.Helper()
	prog := gateway.NewProgram()
	root, err := prog.AddOperator(gateway.ReadObjectStore{Bucket: "src", Region: "aws:us-east-1", NumConnections: 4}, "", 0)
	if err != nil {
		t.Fatalf("AddOperator failed: %v", err)
	}
	if _, err := prog.AddOperator(gateway.Send{TargetGatewayID: "aws:us-west-2:9", Region: "aws:us-west-2", NumConnections: 4}, root, 0); err != nil {
		t.Fatalf("AddOperator failed: %v", err)
	}
	return prog
}

func TestTransferService_PlanTransferRejectsInvalidTopology(t *testing.T) {
	p := &mockPlanner{
		planFn: func(jobs []domain.TransferJob) (*topology.Plan, error) {
			// A lone send with no matching gateway in its target region.
			plan := topology.NewPlan("aws:us-east-1", []string{"aws:us-west-2"})
			plan.AddGateway("aws:us-east-1")
			prog := gatewayProgramWithDanglingSend(t)
			if err := plan.SetGatewayProgram("aws:us-east-1", prog); err != nil {
				return nil, err
			}
			return plan, nil
		},
	}
	plans := &mockPlanStore{}
	svc := service.NewTransferService(p, nil, plans)

	job := domain.NewTransferJob(
		&mockStore{region: "aws:us-east-1", bucket: "src"},
		[]domain.StoreEndpoint{&mockStore{region: "aws:us-west-2", bucket: "dst"}},
		nil,
	)
	if _, err := svc.PlanTransfer(context.Background(), []domain.TransferJob{job}); err == nil {
		t.Error("expected validation to reject the topology")
	}
	if len(plans.records) != 0 {
		t.Error("invalid topology still stored records")
	}
}

func TestTransferService_PlanTransferStoreError(t *testing.T) {
	costs := staticCosts{rate: 0.02}
	direct, _ := planner.NewUnicastDirectPlanner(1, 4, costs)
	wantErr := errors.New("table offline")
	plans := &mockPlanStore{
		createFn: func(ctx context.Context, record domain.PlanRecord) (domain.PlanRecord, error) {
			return domain.PlanRecord{}, wantErr
		},
	}
	svc := service.NewTransferService(direct, nil, plans)

	job := domain.NewTransferJob(
		&mockStore{region: "aws:us-east-1", bucket: "src"},
		[]domain.StoreEndpoint{&mockStore{region: "aws:us-west-2", bucket: "dst"}},
		nil,
	)
	if _, err := svc.PlanTransfer(context.Background(), []domain.TransferJob{job}); !errors.Is(err, wantErr) {
		t.Errorf("PlanTransfer error = %v, want %v", err, wantErr)
	}
}
