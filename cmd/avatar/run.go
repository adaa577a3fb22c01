package main

import (
	"fmt"
	"os"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive character session",
	Long: `Starts a character in the terminal. A wall-clock ticker animates it
while your input becomes reactions and commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		character, _ := cmd.Flags().GetString("character")
		fps, _ := cmd.Flags().GetInt("fps")
		watchMode, _ := cmd.Flags().GetBool("watch")
		debug, _ := cmd.Flags().GetBool("debug")

		opts := cli.RunOptions{
			CatalogPath: catalogPath(cmd, args),
			Character:   character,
			FPS:         fps,
			Watch:       watchMode,
			Debug:       debug,
		}

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("character", "default", "Character name")
	runCmd.Flags().Int("fps", 30, "Tick rate in frames per second")
	runCmd.Flags().BoolP("watch", "w", false, "Hot-reload the catalog on changes")
	runCmd.Flags().Bool("debug", false, "Log engine internals to stderr")

	// Make 'run' the default if no command is provided.
	rootCmd.Run = runCmd.Run
}
