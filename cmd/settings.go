// Package cmd holds the sub-commands of the stripnode binary.
package cmd

import (
	"github.com/smazurov/stripnode/internal/config"
	"github.com/smazurov/stripnode/internal/led"
	"github.com/spf13/cobra"
)

// Settings is the slice of the root options a sub-command needs.
type Settings struct {
	Strip   led.Config
	Effects config.Effects
}

// RunFunc is a sub-command body that receives the parsed settings.
type RunFunc func(cmd *cobra.Command, args []string, s Settings)

// WithSettings adapts a RunFunc into a cobra Run function. The root command
// supplies it because only the root knows how options are parsed.
type WithSettings func(run RunFunc) func(*cobra.Command, []string)
