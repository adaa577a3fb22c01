package main

import (
	"fmt"
	"os"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/cli"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for consistency",
	Long: `Loads the catalog and reports dangling references: sequence steps and
rebound routes pointing at unknown expressions, reactions pointing at
unknown sequences, and asymmetric conflict pairs.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Catalog is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	src, err := cli.ResolveSource(catalogPath(cmd, args))
	if err != nil {
		return err
	}

	// Loam sources validate during Load; the error carries the details.
	cat, err := src.Load(cmd.Context())
	if err != nil {
		return err
	}

	if err := cat.Validate(); err != nil {
		if errs := catalog.ValidationErrors(err); len(errs) > 0 {
			for _, e := range errs {
				fmt.Printf("  - %v\n", e)
			}
			return fmt.Errorf("%d problem(s) found", len(errs))
		}
		return err
	}

	fmt.Printf("Checked %d motions, %d expressions, %d sequences, %d reactions.\n",
		len(cat.Motions()), len(cat.Expressions()), len(cat.Sequences()), len(cat.Reactions()))
	return nil
}
