package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zzenonn/skyferry/internal/domain"
)

var lsCmd = &cobra.Command{
	Use:   "ls [bucket-url] [prefix]",
	Short: "List objects in a bucket",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		prefix := ""
		if len(args) == 2 {
			prefix = args[1]
		}

		store, err := factory.Resolve(ctx, args[0])
		if err != nil {
			fmt.Printf("Error resolving bucket: %v\n", err)
			return
		}

		err = store.ListObjects(ctx, prefix, "", func(obj domain.ObjectInfo) error {
			fmt.Printf("%12d  %s  %s\n", obj.Size, obj.LastModified.Format("2006-01-02 15:04:05"), obj.Key)
			return nil
		})
		if err != nil {
			fmt.Printf("Error listing objects: %v\n", err)
		}
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [bucket-url] [key ...]",
	Short: "Delete objects from a bucket",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := factory.Resolve(ctx, args[0])
		if err != nil {
			fmt.Printf("Error resolving bucket: %v\n", err)
			return
		}

		if err := store.DeleteObjects(ctx, args[1:]); err != nil {
			fmt.Printf("Error deleting objects: %v\n", err)
			return
		}
		fmt.Printf("Deleted %d objects from %s\n", len(args)-1, store.Bucket())
	},
}

var statCmd = &cobra.Command{
	Use:   "stat [bucket-url] [key]",
	Short: "Show the size of a stored object",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := factory.Resolve(ctx, args[0])
		if err != nil {
			fmt.Printf("Error resolving bucket: %v\n", err)
			return
		}

		size, err := store.ObjectSize(ctx, args[1])
		if err != nil {
			fmt.Printf("Error fetching object: %v\n", err)
			return
		}
		fmt.Printf("%s: %d bytes (region %s)\n", args[1], size, store.RegionTag())
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(statCmd)
}
