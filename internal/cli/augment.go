package cli

import (
	"github.com/spf13/cobra"

	"github.com/bottlesort/bsort/internal/augment"
	"github.com/bottlesort/bsort/internal/dataset"
)

func newAugmentCmd() *cobra.Command {
	var (
		configPath string
		split      string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Generate augmented image/label pairs for a dataset split",
		Long: `Augment applies the configured transform pipeline to every labeled image
of a split, writing augmented copies with adjusted bounding-box labels.

Existing augmented artifacts are left untouched unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sp, err := dataset.ParseSplit(split)
			if err != nil {
				return err
			}
			settings, err := loadSettings(configPath)
			if err != nil {
				return err
			}
			runner := &augment.Runner{Settings: settings, Split: sp, Force: force}
			_, err = runner.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to settings.yaml")
	cmd.Flags().StringVarP(&split, "split", "s", "train", "dataset split to augment")
	cmd.Flags().BoolVar(&force, "force", false, "re-augment even if outputs exist")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
