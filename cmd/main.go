package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/skyferry/internal/config"
	"github.com/zzenonn/skyferry/internal/logging"
	"github.com/zzenonn/skyferry/internal/pricing"
	"github.com/zzenonn/skyferry/internal/repository/db"
	"github.com/zzenonn/skyferry/internal/repository/objectstore"
)

var (
	cfg       *config.Config
	factory   *objectstore.ObjectRepositoryFactory
	planRepo  db.PlanRepository
	costModel pricing.CostModel
)

var rootCmd = &cobra.Command{
	Use:   "skyferry",
	Short: "Overlay topology planner for bulk cloud-to-cloud transfers",
	Long:  "Plans gateway overlay topologies that route bulk object-store transfers through relay instances, accounting for per-hop egress cost",
}

func init() {
	cobra.OnInitialize(initConfig)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize and migrate the plan table",
	Run: func(cmd *cobra.Command, args []string) {
		dynamoDb, err := db.NewDatabase(cfg.AwsConfig)
		if err != nil {
			fmt.Printf("Failed to connect to the database: %v\n", err)
			return
		}

		if err := dynamoDb.MigrateDb(context.Background()); err != nil {
			fmt.Printf("Failed to migrate the database: %v\n", err)
			return
		}

		fmt.Println("Plan table initialized successfully")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the plan table migration",
	Run: func(cmd *cobra.Command, args []string) {
		dynamoDb, err := db.NewDatabase(cfg.AwsConfig)
		if err != nil {
			fmt.Printf("Failed to connect to the database: %v\n", err)
			return
		}

		if err := dynamoDb.MigrateDown(context.Background()); err != nil {
			fmt.Printf("Failed to roll back migrations: %v\n", err)
			return
		}

		fmt.Println("Plan table migration rolled back successfully")
	},
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(configPath, rootCmd)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logging.InitLogger(cfg)

	dynamoDb, err := db.NewDatabase(cfg.AwsConfig)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	tableName := cfg.PlanTable
	if tableName == "auto" {
		tableName, err = dynamoDb.DiscoverTableByTag(context.Background(), "Purpose", "TopologyPlans")
		if err != nil {
			log.Fatalf("Failed to discover plan table: %v", err)
		}
		log.WithField("table", tableName).Debug("discovered plan table by tag")
	}
	planRepo = db.NewPlanRepository(dynamoDb.Client, tableName)

	clients := objectstore.NewClients(cfg.AwsConfig, cfg.GcsClient)
	factory = objectstore.NewObjectRepositoryFactory(clients)
	costModel = pricing.NewStaticCostModel()
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(downCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
