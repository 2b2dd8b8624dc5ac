package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photocore/internal/editor"
	"github.com/MeKo-Tech/photocore/internal/relay"
	"github.com/MeKo-Tech/photocore/internal/worker"
)

var batchCmd = &cobra.Command{
	Use:   "batch <segment|correct|sharpen|render> <files or directories...>",
	Short: "Apply one operation to many photos in parallel",
	Long: `Apply one operation to many photos in parallel.

Directories are scanned (non-recursively) for .png, .jpg, .jpeg, .gif and
.webp files. Outputs go to --out-dir (default: --output-dir) and are named
after the input with an operation suffix. Existing outputs are skipped
unless --force is set.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("out-dir", "", "Output directory (defaults to --output-dir)")
	batchCmd.Flags().Int("workers", runtime.NumCPU(), "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("force", false, "Overwrite existing outputs")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some images fail")

	batchCmd.Flags().String("mode", string(relay.ModeAuto), "segment: removal mode (auto, direct, color)")
	batchCmd.Flags().Float64("tolerance", 0, "segment: color tolerance 0-100")
	batchCmd.Flags().String("target", "", "segment: target color for color mode")
	batchCmd.Flags().Float64("feather", 0, "segment: soften the cut-out edge over this many pixels")
	batchCmd.Flags().Bool("preview", false, "Work on downsized copies")
	batchCmd.Flags().String("filter", "", "render: filter preset id")
	batchCmd.Flags().String("adjust-preset", "", "render: named adjustment preset")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, batchCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("batch.out_dir", "out-dir")
	mustBind("batch.workers", "workers")
	mustBind("batch.progress", "progress")
	mustBind("batch.force", "force")
	mustBind("batch.allow_failures", "allow-failures")
}

// batchOp is one operation runnable over files.
type batchOp struct {
	Suffix string
	Ext    string
	Run    editor.FileOp
}

// imageExts are the extensions picked up when scanning directories.
var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

func runBatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	op, err := newBatchOp(cmd, svc, args[0])
	if err != nil {
		return err
	}

	inputs, err := collectInputs(args[1:])
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("no input images found")
	}

	outDir := viper.GetString("batch.out_dir")
	if outDir == "" {
		outDir = viper.GetString("output-dir")
	}
	tasks := worker.Plan(inputs, outDir, op.Suffix, op.Ext, viper.GetBool("batch.force"))

	workers := viper.GetInt("batch.workers")
	logger.Info("Starting batch",
		"op", args[0],
		"images", len(tasks),
		"workers", workers,
		"out_dir", outDir,
	)

	progress := worker.NewProgress(len(tasks), viper.GetBool("batch.progress"))
	pool := worker.New(worker.Config{
		Workers: workers,
		Processor: worker.ProcessorFunc(func(ctx context.Context, input, output string, force bool) (bool, error) {
			return svc.ProcessFile(ctx, input, output, force, op.Run)
		}),
		OnProgress: progress.Callback(),
	})

	ctx, stop := signalContext()
	defer stop()

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			logger.Error("Image failed", "input", r.Task.Input, "error", r.Err)
		case r.Skipped:
			logger.Debug("Output exists, skipped", "output", r.Task.Output)
		default:
			logger.Debug("Image done", "output", r.Task.Output, "elapsed", r.Elapsed)
		}
	}

	logger.Info(progress.Summary())

	if failed > 0 && !viper.GetBool("batch.allow_failures") {
		return fmt.Errorf("%d of %d images failed", failed, len(tasks))
	}
	return ctx.Err()
}

func newBatchOp(cmd *cobra.Command, svc *editor.Service, name string) (batchOp, error) {
	preview, _ := cmd.Flags().GetBool("preview")

	switch name {
	case "segment":
		mode, _ := cmd.Flags().GetString("mode")
		tol, _ := cmd.Flags().GetFloat64("tolerance")
		feather, _ := cmd.Flags().GetFloat64("feather")
		targetStr, _ := cmd.Flags().GetString("target")
		target, err := parseTarget(targetStr)
		if err != nil {
			return batchOp{}, err
		}
		req := editor.RemoveRequest{Mode: relay.Mode(mode), Tolerance: tol, Feather: feather, Target: target, Preview: preview}
		return batchOp{Suffix: "-cutout", Ext: ".png", Run: func(ctx context.Context, src []byte) ([]byte, error) {
			out, err := svc.RemoveBackground(ctx, src, req)
			return out.Data, err
		}}, nil

	case "correct":
		return batchOp{Suffix: "-corrected", Ext: ".png", Run: func(ctx context.Context, src []byte) ([]byte, error) {
			res, err := svc.Correct(ctx, src, preview)
			return res.Image.Data, err
		}}, nil

	case "sharpen":
		return batchOp{Suffix: "-sharp", Ext: ".jpg", Run: func(ctx context.Context, src []byte) ([]byte, error) {
			enc, err := svc.Sharpen(ctx, src, preview)
			return enc.Data, err
		}}, nil

	case "render":
		filterID, _ := cmd.Flags().GetString("filter")
		adjustPreset, _ := cmd.Flags().GetString("adjust-preset")
		// Validate once up front so a typo does not fail every image.
		if _, err := buildSession("", renderOptions{Filter: filterID, AdjustPreset: adjustPreset}); err != nil {
			return batchOp{}, err
		}
		suffix := "-edited"
		if filterID != "" {
			suffix = "-" + filterID
		}
		return batchOp{Suffix: suffix, Ext: ".png", Run: func(ctx context.Context, src []byte) ([]byte, error) {
			sess, err := buildSession("", renderOptions{Filter: filterID, AdjustPreset: adjustPreset})
			if err != nil {
				return nil, err
			}
			res, err := svc.Render(ctx, src, sess.Snapshot())
			return res.Image.Data, err
		}}, nil
	}
	return batchOp{}, fmt.Errorf("unknown operation %q (want segment, correct, sharpen or render)", name)
}

// collectInputs expands directories to the images they contain. Files are
// kept as given. The result is sorted and free of duplicates.
func collectInputs(args []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			add(filepath.Join(arg, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
