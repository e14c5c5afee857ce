package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zzenonn/skyferry/internal/domain"
	skyerrors "github.com/zzenonn/skyferry/internal/errors"
)

// PlanRepository manages DynamoDB interactions for per-region plan records,
// the serialized documents the gateway runtime consumes.
type PlanRepository struct {
	client    *dynamodb.Client
	tableName string
}

// NewPlanRepository initializes a new PlanRepository.
func NewPlanRepository(client *dynamodb.Client, tableName string) PlanRepository {
	return PlanRepository{
		client:    client,
		tableName: tableName,
	}
}

// CreatePlanRecord stores one region's slice of a topology plan.
func (repo *PlanRepository) CreatePlanRecord(ctx context.Context, record domain.PlanRecord) (domain.PlanRecord, error) {
	recordMap, err := attributevalue.MarshalMap(record)
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to marshal plan record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      recordMap,
	}

	if _, err := repo.client.PutItem(ctx, input); err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to create plan record: %w", err)
	}

	return record, nil
}

// GetPlanRecord retrieves one region's plan record for a transfer.
func (repo *PlanRepository) GetPlanRecord(ctx context.Context, transferID, regionTag string) (domain.PlanRecord, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(repo.tableName),
		Key: map[string]types.AttributeValue{
			"transfer_id": &types.AttributeValueMemberS{Value: transferID},
			"region_tag":  &types.AttributeValueMemberS{Value: regionTag},
		},
	}

	result, err := repo.client.GetItem(ctx, input)
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to get plan record: %w", err)
	}

	if result.Item == nil {
		return domain.PlanRecord{}, skyerrors.ErrPlanNotFound
	}

	var record domain.PlanRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to unmarshal plan record: %w", err)
	}

	return record, nil
}

// ListPlanRecords retrieves every region record of one transfer's plan.
func (repo *PlanRepository) ListPlanRecords(ctx context.Context, transferID string) ([]domain.PlanRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(repo.tableName),
		KeyConditionExpression: aws.String("transfer_id = :transfer_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":transfer_id": &types.AttributeValueMemberS{Value: transferID},
		},
	}

	result, err := repo.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan records: %w", err)
	}

	var records []domain.PlanRecord
	for _, item := range result.Items {
		var record domain.PlanRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

// DeletePlanRecords removes every region record of one transfer's plan.
func (repo *PlanRepository) DeletePlanRecords(ctx context.Context, transferID string) error {
	records, err := repo.ListPlanRecords(ctx, transferID)
	if err != nil {
		return err
	}
	for _, record := range records {
		input := &dynamodb.DeleteItemInput{
			TableName: aws.String(repo.tableName),
			Key: map[string]types.AttributeValue{
				"transfer_id": &types.AttributeValueMemberS{Value: record.TransferID},
				"region_tag":  &types.AttributeValueMemberS{Value: record.RegionTag},
			},
		}
		if _, err := repo.client.DeleteItem(ctx, input); err != nil {
			return fmt.Errorf("failed to delete plan record: %w", err)
		}
	}
	return nil
}
