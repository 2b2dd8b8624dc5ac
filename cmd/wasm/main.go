//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/photocore/internal/editor"
	"github.com/MeKo-Tech/photocore/internal/raster"
	"github.com/MeKo-Tech/photocore/internal/relay"
	"github.com/MeKo-Tech/photocore/internal/session"
	"github.com/MeKo-Tech/photocore/internal/stats"
)

// RenderRequest is the scene passed from JS to photocoreRender.
type RenderRequest struct {
	Image string `json:"image"`
	session.State
}

// RemoveRequest is the payload of photocoreRemoveBackground.
type RemoveRequest struct {
	Image       string             `json:"image"`
	Mode        relay.Mode         `json:"mode"`
	Tolerance   float64            `json:"tolerance"`
	TargetColor *relay.TargetColor `json:"targetColor"`
	Preview     bool               `json:"preview"`
}

// No relay in the browser: background removal always runs locally.
var svc = editor.New(editor.WithCounter(stats.NewMemory(editor.DefaultCounters())))

// promise runs fn in a goroutine and settles a JS Promise with its result.
// Callbacks must not block the event loop, so all work happens off it.
func promise(fn func() (any, error)) any {
	handler := js.FuncOf(func(this js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			v, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	defer handler.Release()
	return js.Global().Get("Promise").New(handler)
}

func decodeArg(args []js.Value, v any) error {
	if len(args) < 1 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal([]byte(args[0].String()), v); err != nil {
		return fmt.Errorf("failed to parse request: %w", err)
	}
	return nil
}

// imageOp wraps an operation taking one data URL and returning encoded bytes.
func imageOp(fn func(ctx context.Context, img []byte) (raster.Encoded, error)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		return promise(func() (any, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("missing image")
			}
			img, err := raster.ParseDataURL(args[0].String())
			if err != nil {
				return nil, err
			}
			enc, err := fn(context.Background(), img)
			if err != nil {
				return nil, err
			}
			return enc.DataURL(), nil
		})
	})
}

func removeBackground(this js.Value, args []js.Value) any {
	return promise(func() (any, error) {
		var req RemoveRequest
		if err := decodeArg(args, &req); err != nil {
			return nil, err
		}
		img, err := raster.ParseDataURL(req.Image)
		if err != nil {
			return nil, err
		}
		out, err := svc.RemoveBackground(context.Background(), img, editor.RemoveRequest{
			Mode:      req.Mode,
			Tolerance: req.Tolerance,
			Target:    req.TargetColor,
			Preview:   req.Preview,
		})
		if err != nil {
			return nil, err
		}
		return raster.DataURL(out.Data, raster.PNG.MIME()), nil
	})
}

func render(this js.Value, args []js.Value) any {
	return promise(func() (any, error) {
		var req RenderRequest
		if err := decodeArg(args, &req); err != nil {
			return nil, err
		}
		img, err := raster.ParseDataURL(req.Image)
		if err != nil {
			return nil, err
		}
		res, err := svc.Render(context.Background(), img, req.State)
		if err != nil {
			return nil, err
		}
		return res.Image.DataURL(), nil
	})
}

func main() {
	c := make(chan struct{})

	js.Global().Set("photocoreRemoveBackground", js.FuncOf(removeBackground))
	js.Global().Set("photocoreCorrect", imageOp(func(ctx context.Context, img []byte) (raster.Encoded, error) {
		res, err := svc.Correct(ctx, img, false)
		return res.Image, err
	}))
	js.Global().Set("photocorePreviewCorrect", imageOp(func(ctx context.Context, img []byte) (raster.Encoded, error) {
		res, err := svc.Correct(ctx, img, true)
		return res.Image, err
	}))
	js.Global().Set("photocoreSharpen", imageOp(func(ctx context.Context, img []byte) (raster.Encoded, error) {
		return svc.Sharpen(ctx, img, false)
	}))
	js.Global().Set("photocorePreviewSharpen", imageOp(func(ctx context.Context, img []byte) (raster.Encoded, error) {
		return svc.Sharpen(ctx, img, true)
	}))
	js.Global().Set("photocoreRender", js.FuncOf(render))

	fmt.Println("photocore WASM module loaded")
	<-c
}
