package cli

import (
	"github.com/spf13/cobra"

	"github.com/bottlesort/bsort/internal/infer"
)

func newInferCmd() *cobra.Command {
	var (
		configPath string
		opts       infer.Options
	)

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run detection on an image or a directory of images",
		Long: `Infer loads the trained model and runs detection on a single image or
every image in a directory. Exactly one of --image and --dir is required.

Detections below the confidence threshold are discarded. With --save,
annotated copies and a predictions.json land under runs/detect/predict.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			settings, err := loadSettings(configPath)
			if err != nil {
				return err
			}
			runner := &infer.Runner{Settings: settings, Options: opts}
			_, err = runner.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to settings.yaml")
	cmd.Flags().StringVarP(&opts.Image, "image", "i", "", "path to a single image file")
	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "directory containing images")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "override model path from config")
	cmd.Flags().Float64Var(&opts.Conf, "conf", 0, "confidence threshold")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "save annotated results and predictions.json")
	cmd.Flags().BoolVar(&opts.Show, "show", false, "open annotated results in the system viewer")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
