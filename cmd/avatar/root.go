package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Avatar is a motion and expression engine for virtual characters",
	Long: `Avatar arbitrates motions, expressions and emotions for a virtual
character. Point it at a catalog (a YAML file or a Markdown repository)
and drive the character from the terminal, over HTTP or through MCP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("catalog", "", "Catalog source: a .yaml/.json file or a document directory (default: built-in)")
}

// catalogPath resolves the --catalog flag, letting a bare positional
// argument stand in for it.
func catalogPath(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("catalog")
	if !cmd.Flags().Changed("catalog") && len(args) > 0 {
		path = args[0]
	}
	return path
}
