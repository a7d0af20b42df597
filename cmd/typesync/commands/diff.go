package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackforge/typesync/errors"
	"github.com/stackforge/typesync/schema"
)

// DiffCmd compares two generated output directories.
var DiffCmd = &cobra.Command{
	Use:   "diff <dirA> <dirB>",
	Short: "Compare two generated output directories",
	Long: `Compare every file under dirA against the file at the same relative
path under dirB. Useful for checking generator idempotence across runs or
across machines. Exits non-zero when the directories differ.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	diff, err := schema.CompareDirectories(args[0], args[1])
	if err != nil {
		return err
	}

	if diff.Clean() {
		fmt.Println("✓ Directories match")
		return nil
	}

	for _, rel := range diff.MissingInB {
		fmt.Printf("missing in %s: %s\n", args[1], rel)
	}
	for _, fd := range diff.Different {
		fmt.Printf("differs: %s (first difference at line %d, %d vs %d lines)\n",
			fd.Path, fd.FirstDiffLine, fd.LinesA, fd.LinesB)
	}
	return errors.Newf("directories differ: %d missing, %d changed",
		len(diff.MissingInB), len(diff.Different))
}
