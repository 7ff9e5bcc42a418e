// Package cli wires the bsort subcommands: augment, train and infer. Each
// command loads the settings file given by --config and hands off to the
// matching runner package.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/bottlesort/bsort/internal/config"
)

// NewRoot builds the bsort command tree.
func NewRoot(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "bsort",
		Short:         "bottle-cap detection pipeline: dataset augmentation, training and inference",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAugmentCmd(), newTrainCmd(), newInferCmd())
	return root
}

// loadSettings is shared by every subcommand.
func loadSettings(configPath string) (*config.Settings, error) {
	return config.Load(configPath)
}
