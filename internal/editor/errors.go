package editor

import (
	"context"
	"errors"

	"github.com/MeKo-Tech/photocore/internal/raster"
	"github.com/MeKo-Tech/photocore/internal/relay"
)

// Error kinds surfaced by the editor operations. Match them with errors.Is.
var (
	ErrDecode             = raster.ErrDecode
	ErrContextUnavailable = raster.ErrContextUnavailable
	ErrEncode             = raster.ErrEncode
	ErrRelayUnavailable   = relay.ErrUnavailable
	ErrTimeout            = relay.ErrTimeout
)

// Op produces encoded image bytes.
type Op func(ctx context.Context) ([]byte, error)

// Fallback returns an Op that runs primary and, when it fails with an error
// matching one of kinds, runs fallback exactly once. Other errors are
// returned unchanged.
func Fallback(primary, fallback Op, kinds ...error) Op {
	return func(ctx context.Context) ([]byte, error) {
		out, err := primary(ctx)
		if err == nil {
			return out, nil
		}
		for _, kind := range kinds {
			if errors.Is(err, kind) {
				return fallback(ctx)
			}
		}
		return nil, err
	}
}
