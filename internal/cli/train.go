package cli

import (
	"github.com/spf13/cobra"

	"github.com/bottlesort/bsort/internal/config"
	"github.com/bottlesort/bsort/internal/train"
)

func newTrainCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.TrainOverrides
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run model training through the configured external trainer",
		Long: `Train merges command-line overrides onto the YAML training settings,
generates the dataset config (preferring augmented data when present) and
delegates the run to the configured trainer command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(configPath)
			if err != nil {
				return err
			}
			runner := &train.Runner{Settings: settings, Overrides: overrides}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to settings.yaml")
	cmd.Flags().IntVarP(&overrides.Epochs, "epochs", "e", 0, "override epochs from config")
	cmd.Flags().StringVarP(&overrides.Device, "device", "d", "", "device to use (e.g. 0, cpu)")
	cmd.Flags().IntVarP(&overrides.Batch, "batch", "b", 0, "batch size")
	cmd.Flags().IntVar(&overrides.ImgSz, "imgsz", 0, "image size")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
