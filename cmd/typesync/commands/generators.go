package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackforge/typesync/generate"
)

// GeneratorsCmd lists the registered generators by dependency group.
var GeneratorsCmd = &cobra.Command{
	Use:   "generators",
	Short: "List registered generators",
	Long: `List the built-in generators in execution order. Groups run
sequentially (types, then client, then hooks); generators within a group
run concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		registry := generate.NewBuiltinRegistry()
		for _, group := range generate.Groups {
			gens := registry.ByGroup(group)
			if len(gens) == 0 {
				continue
			}
			fmt.Printf("%s:\n", group)
			for _, g := range gens {
				state := "enabled"
				if !cfg.GeneratorEnabled(g.ID()) {
					state = "disabled"
				}
				fmt.Printf("  %-8s %s\n", g.ID(), state)
			}
		}
		return nil
	},
}
