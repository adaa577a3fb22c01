package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage persisted character snapshots",
	Long:  `List, inspect, and remove character snapshots stored in .avatar/snapshots.`,
}

var snapshotListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all stored characters",
	Run: func(cmd *cobra.Command, args []string) {
		store := getSnapshotStore(cmd)
		names, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing snapshots: %v\n", err)
			os.Exit(1)
		}

		if len(names) == 0 {
			fmt.Println("No snapshots found.")
			return
		}

		fmt.Println("Stored characters:")
		for _, n := range names {
			fmt.Println("- " + n)
		}
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:     "show <character>",
	Aliases: []string{"inspect"},
	Short:   "Show the stored state of a character",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		store := getSnapshotStore(cmd)

		snap, err := store.Load(cmd.Context(), name)
		if err != nil {
			fmt.Printf("Error loading snapshot '%s': %v\n", name, err)
			os.Exit(1)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling snapshot: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:     "delete <character>...",
	Aliases: []string{"rm"},
	Short:   "Remove one or more snapshots",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getSnapshotStore(cmd)
		hasError := false

		for _, name := range args {
			if err := store.Delete(cmd.Context(), name); err != nil {
				fmt.Printf("Error removing '%s': %v\n", name, err)
				hasError = true
			} else {
				fmt.Printf("Removed snapshot '%s'\n", name)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

// TODO: Add support for --all flag in delete command

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.PersistentFlags().String("store", "", "Snapshot directory (default: .avatar/snapshots)")
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
}

func getSnapshotStore(cmd *cobra.Command) *file.Store {
	dir, _ := cmd.Flags().GetString("store")
	return file.New(dir)
}
