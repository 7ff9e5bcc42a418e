// Package train assembles the training configuration and delegates the
// actual training run to an external trainer process.
//
// bsort owns override merging, dataset-config generation and run
// bookkeeping; epochs of gradient descent happen in whatever command
// training.command points at.
package train

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bottlesort/bsort/internal/config"
	"github.com/bottlesort/bsort/internal/logging"
)

// RunRecord is the bookkeeping document persisted for every training run.
type RunRecord struct {
	ID            string          `json:"id"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	Params        config.Training `json:"params"`
	DatasetConfig string          `json:"dataset_config"`
	Augmented     bool            `json:"augmented"`
	Success       bool            `json:"success"`
}

// Runner orchestrates one training run.
type Runner struct {
	Settings  *config.Settings
	Overrides config.TrainOverrides
}

// Run merges CLI overrides onto the YAML training block, writes the dynamic
// dataset config, launches the trainer and records the outcome. The trainer
// inherits stdout/stderr so its progress is visible; its exit error is
// propagated unchanged.
func (r *Runner) Run(ctx context.Context) error {
	log := logging.S()
	params := r.Settings.Training.Merged(r.Overrides)
	if len(params.Command) == 0 {
		return fmt.Errorf("training.command is not configured")
	}

	dataCfg, augmented, err := r.Settings.WriteDatasetConfig()
	if err != nil {
		return err
	}
	if augmented {
		log.Infow("using augmented training data", "config", dataCfg)
	} else {
		log.Infow("using raw training data (no augmentation found)", "config", dataCfg)
	}

	record := RunRecord{
		ID:            uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		Params:        params,
		DatasetConfig: dataCfg,
		Augmented:     augmented,
	}

	tracker := NewTracker(r.Settings.Tracking, record.ID)
	tracker.Start(ctx, map[string]any{
		"model":  params.Model,
		"epochs": params.Epochs,
		"imgsz":  params.ImgSz,
		"batch":  params.Batch,
		"device": deviceLabel(params.Device),
	})

	args := buildArgs(params, dataCfg)
	log.Infow("starting training",
		"run_id", record.ID,
		"command", params.Command[0],
		"model", params.Model,
		"epochs", params.Epochs,
		"imgsz", params.ImgSz,
		"batch", batchLabel(params.Batch),
		"device", deviceLabel(params.Device))

	cmd := exec.CommandContext(ctx, params.Command[0], append(params.Command[1:], args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	runErr := cmd.Run()

	record.FinishedAt = time.Now().UTC()
	record.Success = runErr == nil
	if err := r.writeRecord(record); err != nil {
		log.Warnw("failed to persist run record", "error", err)
	}
	tracker.Finish(ctx, record.Success)

	if runErr != nil {
		return fmt.Errorf("trainer failed: %w", runErr)
	}
	log.Infow("training completed", "run_id", record.ID)
	return nil
}

// buildArgs renders the merged parameters as key=value trainer arguments.
// Batch and device are omitted when left to the trainer's auto selection.
func buildArgs(t config.Training, dataCfg string) []string {
	args := []string{
		"model=" + t.Model,
		"data=" + dataCfg,
		fmt.Sprintf("epochs=%d", t.Epochs),
		fmt.Sprintf("imgsz=%d", t.ImgSz),
	}
	if t.Batch > 0 {
		args = append(args, fmt.Sprintf("batch=%d", t.Batch))
	}
	if t.Device != "" {
		args = append(args, "device="+t.Device)
	}
	if t.Project != "" {
		args = append(args, "project="+t.Project)
	}
	if t.Name != "" {
		args = append(args, "name="+t.Name)
	}
	return args
}

func (r *Runner) writeRecord(record RunRecord) error {
	dir := r.Settings.Resolve("runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "train-"+record.ID+".json"), data, 0o644)
}

func batchLabel(batch int) string {
	if batch <= 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", batch)
}

func deviceLabel(device string) string {
	if device == "" {
		return "auto"
	}
	return device
}
