package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/skyferry/internal/repository/migrate"
)

type DynamoDb struct {
	Client        *dynamodb.Client
	TaggingClient *resourcegroupstaggingapi.Client
}

func NewDatabase(awsConfig aws.Config) (*DynamoDb, error) {
	client := dynamodb.NewFromConfig(awsConfig)
	if client == nil {
		log.Fatal("Failed to create DynamoDB client")
	}

	taggingClient := resourcegroupstaggingapi.NewFromConfig(awsConfig)
	if taggingClient == nil {
		log.Fatal("Failed to create Resource Groups Tagging API client")
	}

	return &DynamoDb{
		Client:        client,
		TaggingClient: taggingClient,
	}, nil
}

// MigrateDb creates the plan table.
func (d *DynamoDb) MigrateDb(ctx context.Context) error {
	m := &migrate.CreateTopologyPlanTable{}
	return m.Up(ctx, d.Client)
}

// MigrateDown drops the plan table.
func (d *DynamoDb) MigrateDown(ctx context.Context) error {
	m := &migrate.CreateTopologyPlanTable{}
	return m.Down(ctx, d.Client)
}

// DiscoverTableByTag finds the DynamoDB table carrying a resource tag, used
// when the plan table name is not configured explicitly.
func (d *DynamoDb) DiscoverTableByTag(ctx context.Context, tagKey, tagValue string) (string, error) {
	out, err := d.TaggingClient.GetResources(ctx, &resourcegroupstaggingapi.GetResourcesInput{
		ResourceTypeFilters: []string{"dynamodb:table"},
		TagFilters: []types.TagFilter{
			{Key: aws.String(tagKey), Values: []string{tagValue}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to discover table by tag %s=%s: %w", tagKey, tagValue, err)
	}
	for _, mapping := range out.ResourceTagMappingList {
		arn := aws.ToString(mapping.ResourceARN)
		// table name is the last ARN segment: .../table/<name>
		for i := len(arn) - 1; i >= 0; i-- {
			if arn[i] == '/' {
				return arn[i+1:], nil
			}
		}
	}
	return "", fmt.Errorf("no table tagged %s=%s", tagKey, tagValue)
}
