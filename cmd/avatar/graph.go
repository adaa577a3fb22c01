package main

import (
	"fmt"
	"os"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/cli"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export a catalog visualization",
	Long: `Outputs a Mermaid diagram of the catalog: the expression conflict
table ('conflicts') or the motion groups clustered by body region
('regions').`,
	Run: func(cmd *cobra.Command, args []string) {
		view, _ := cmd.Flags().GetString("view")

		src, err := cli.ResolveSource(catalogPath(cmd, args))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		cat, err := src.Load(cmd.Context())
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}

		switch view {
		case "conflicts":
			fmt.Print(graph.GenerateConflictMermaid(cat, nil))
		case "regions":
			fmt.Print(graph.GenerateRegionMermaid(cat, nil))
		default:
			fmt.Printf("Unknown view %q. Supported: conflicts, regions\n", view)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("view", "conflicts", "Diagram to emit: 'conflicts' or 'regions'")
}
