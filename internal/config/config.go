package config

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	skyerrors "github.com/zzenonn/skyferry/internal/errors"
)

// Config holds the application configuration
type Config struct {
	LogLevel string `yaml:"log_level"`
	// AwsConfig: AWS SDK uses a shared configuration object that contains
	// credentials, region, retry policies, etc. Multiple AWS services
	// (S3, DynamoDB, tagging) are created from this single config.
	AwsConfig aws.Config
	// GcsClient: Google Cloud SDK uses individual service clients that
	// handle their own configuration internally via environment variables,
	// service account files, or metadata service. No shared config needed.
	GcsClient *storage.Client

	// PlanTable is the DynamoDB table holding per-region plan documents.
	// The value "auto" discovers the table through its resource tag.
	PlanTable string `yaml:"plan_table"`

	// Planner defaults, overridable per invocation by CLI flags.
	Strategy                string  `yaml:"strategy"`
	NumInstances            int     `yaml:"num_instances"`
	NumConnections          int     `yaml:"num_connections"`
	RequiredThroughputGbits float64 `yaml:"required_throughput_gbits"`
}

// LoadConfig loads configuration from config.yaml, environment variables, or CLI flags
// Priority: CLI flags > Environment variables > config.yaml > defaults
func LoadConfig(configPath string, rootCmd *cobra.Command) (*Config, error) {
	if err := setupViper(configPath, rootCmd); err != nil {
		return nil, err
	}

	awsConfig, err := loadAWSConfig()
	if err != nil {
		return nil, err
	}

	gcsClient, err := loadGCSClient()
	if err != nil {
		return nil, err
	}

	if viper.GetString("plan_table") == "" {
		return nil, skyerrors.ConfigNotSetError("plan_table")
	}

	return &Config{
		LogLevel:                viper.GetString("log_level"),
		AwsConfig:               awsConfig,
		GcsClient:               gcsClient,
		PlanTable:               viper.GetString("plan_table"),
		Strategy:                viper.GetString("strategy"),
		NumInstances:            viper.GetInt("num_instances"),
		NumConnections:          viper.GetInt("num_connections"),
		RequiredThroughputGbits: viper.GetFloat64("required_throughput_gbits"),
	}, nil
}

// setupViper configures Viper with defaults, paths, and bindings
func setupViper(configPath string, rootCmd *cobra.Command) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("plan_table", "topology_plans")
	viper.SetDefault("strategy", "direct")
	viper.SetDefault("num_instances", 1)
	viper.SetDefault("num_connections", 32)
	viper.SetDefault("required_throughput_gbits", 4.0)
}

// loadAWSConfig loads AWS SDK configuration
func loadAWSConfig() (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %v", err)
	}
	return cfg, nil
}

// loadGCSClient loads Google Cloud Storage client
func loadGCSClient() (*storage.Client, error) {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("unable to create GCS client: %v", err)
	}
	return client, nil
}
