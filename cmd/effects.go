package cmd

import (
	"fmt"

	"github.com/smazurov/stripnode/internal/effects"
	"github.com/spf13/cobra"
)

// CreateEffectsCmd creates the effects command.
func CreateEffectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "effects",
		Short: "List effect names",
		Long:  `Lists every effect name accepted in effects.sequence and by the preview command.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range effects.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
