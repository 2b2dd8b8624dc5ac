package editor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out", "final.png")
	require.NoError(t, os.WriteFile(in, squarePNG(t, 20, 10), 0o644))

	svc := New()
	var calls int
	op := func(ctx context.Context, src []byte) ([]byte, error) {
		calls++
		return svc.PreviewSharpen(ctx, src)
	}

	skipped, err := svc.ProcessFile(context.Background(), in, out, false, op)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.FileExists(t, out)

	skipped, err = svc.ProcessFile(context.Background(), in, out, false, op)
	require.NoError(t, err)
	assert.True(t, skipped, "existing output is kept without force")

	skipped, err = svc.ProcessFile(context.Background(), in, out, true, op)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, 2, calls)
}

func TestProcessFile_Errors(t *testing.T) {
	dir := t.TempDir()
	svc := New()

	_, err := svc.ProcessFile(context.Background(), filepath.Join(dir, "missing.png"), filepath.Join(dir, "o.png"), false, svc.AutoColorCorrection)
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	_, err = svc.ProcessFile(context.Background(), bad, filepath.Join(dir, "o.png"), false, svc.AutoColorCorrection)
	require.ErrorIs(t, err, ErrDecode)
	assert.NoFileExists(t, filepath.Join(dir, "o.png"))
}
