package main

import (
	"fmt"
	"strings"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of avatar",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("avatar version %s\n", strings.TrimSpace(avatar.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
