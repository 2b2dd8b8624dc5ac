package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileOp transforms encoded image bytes.
type FileOp func(ctx context.Context, src []byte) ([]byte, error)

// ProcessFile reads inPath, runs op and writes the result to outPath,
// creating parent directories. An existing output is kept unless force is
// set; skipped reports that case.
func (s *Service) ProcessFile(ctx context.Context, inPath, outPath string, force bool, op FileOp) (skipped bool, err error) {
	if !force {
		if _, err := os.Stat(outPath); err == nil {
			s.log().InfoContext(ctx, "Output already exists; skipping", "path", outPath)
			return true, nil
		}
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return false, fmt.Errorf("failed to read source: %w", err)
	}

	out, err := op(ctx, data)
	if err != nil {
		return false, fmt.Errorf("%s: %w", inPath, err)
	}

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return false, fmt.Errorf("failed to write output: %w", err)
	}
	s.log().InfoContext(ctx, "Wrote output", "path", outPath, "bytes", len(out))
	return false, nil
}
