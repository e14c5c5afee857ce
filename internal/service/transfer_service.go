// Package service wires endpoint resolution, planning and plan persistence
// into the operations the CLI exposes.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/skyferry/internal/domain"
	"github.com/zzenonn/skyferry/internal/planner"
	"github.com/zzenonn/skyferry/internal/repository/objectstore"
	"github.com/zzenonn/skyferry/internal/topology"
)

// EndpointResolver turns a bucket URL into a live object-store adapter.
type EndpointResolver interface {
	Resolve(ctx context.Context, bucketURL string) (objectstore.ObjectStore, error)
}

// PlanStore persists per-region plan documents.
type PlanStore interface {
	CreatePlanRecord(ctx context.Context, record domain.PlanRecord) (domain.PlanRecord, error)
}

// TransferService builds transfer jobs from bucket URLs, runs the configured
// planner over them, validates the result and persists the per-region
// documents the gateway runtime consumes.
type TransferService struct {
	planner  planner.Planner
	resolver EndpointResolver
	plans    PlanStore
}

// NewTransferService creates a new TransferService instance
func NewTransferService(p planner.Planner, resolver EndpointResolver, plans PlanStore) *TransferService {
	return &TransferService{
		planner:  p,
		resolver: resolver,
		plans:    plans,
	}
}

// BuildJob resolves source and destination bucket URLs into one transfer
// job. Resolution fails with a missing-bucket condition when a bucket cannot
// be located, before any planning happens.
func (s *TransferService) BuildJob(ctx context.Context, srcURL string, dstURLs []string, dstPrefixes []string) (domain.TransferJob, error) {
	src, err := s.resolver.Resolve(ctx, srcURL)
	if err != nil {
		return domain.TransferJob{}, fmt.Errorf("source %s: %w", srcURL, err)
	}

	dsts := make([]domain.StoreEndpoint, len(dstURLs))
	for i, dstURL := range dstURLs {
		dst, err := s.resolver.Resolve(ctx, dstURL)
		if err != nil {
			return domain.TransferJob{}, fmt.Errorf("destination %s: %w", dstURL, err)
		}
		dsts[i] = dst
	}

	return domain.NewTransferJob(src, dsts, dstPrefixes), nil
}

// PlanTransfer plans a batch of jobs, validates the produced topology and
// stores one record per participating region under the first job's id.
func (s *TransferService) PlanTransfer(ctx context.Context, jobs []domain.TransferJob) (*topology.Plan, error) {
	plan, err := s.planner.Plan(jobs)
	if err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("planner produced an invalid topology: %w", err)
	}

	transferID := jobs[0].ID.String()
	for _, region := range plan.GatewayRegions() {
		doc, err := plan.Document(region)
		if err != nil {
			return nil, err
		}
		program, err := json.Marshal(doc.Operators)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize program for %s: %w", region, err)
		}

		record := domain.PlanRecord{
			TransferID: transferID,
			RegionTag:  region,
			GatewayIDs: doc.GatewayIDs,
			Program:    string(program),
			CostPerGB:  plan.CostPerGB(),
		}
		if _, err := s.plans.CreatePlanRecord(ctx, record); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"transfer_id": transferID,
		"regions":     plan.GatewayRegions(),
		"cost_per_gb": plan.CostPerGB(),
	}).Info("stored topology plan")

	return plan, nil
}
