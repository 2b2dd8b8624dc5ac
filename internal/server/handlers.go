package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MeKo-Tech/photocore/internal/composite"
	"github.com/MeKo-Tech/photocore/internal/correction"
	"github.com/MeKo-Tech/photocore/internal/editor"
	"github.com/MeKo-Tech/photocore/internal/filter"
	"github.com/MeKo-Tech/photocore/internal/pipeline"
	"github.com/MeKo-Tech/photocore/internal/raster"
	"github.com/MeKo-Tech/photocore/internal/relay"
	"github.com/MeKo-Tech/photocore/internal/session"
)

type imageRequest struct {
	Image string `json:"image"`
}

func decodeImage(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: No image data provided", errBadRequest)
	}
	return raster.ParseDataURL(s)
}

// ColorResponse is the answer of the color correction routes.
type ColorResponse struct {
	Resolution  relay.Resolution    `json:"resolution"`
	Result      string              `json:"result"`
	Mode        correction.Mode     `json:"mode"`
	Description string              `json:"description"`
	Analysis    correction.Analysis `json:"analysis"`
	Params      correction.Params   `json:"params"`
	Magnitude   float64             `json:"magnitude"`
	Success     bool                `json:"success"`
}

// ImageResponse is the answer of the sharpening routes.
type ImageResponse struct {
	Resolution relay.Resolution `json:"resolution"`
	Result     string           `json:"result"`
	Success    bool             `json:"success"`
}

// RenderRequest is the body of /api/render.
type RenderRequest struct {
	Image    string                   `json:"image"`
	Filter   string                   `json:"filter"`
	Texts    []session.TextElement    `json:"texts"`
	Stickers []session.StickerElement `json:"stickers"`
	Adjust   filter.AdjustSettings    `json:"adjust"`
}

// RenderResponse is the answer of /api/render.
type RenderResponse struct {
	Result     string           `json:"result"`
	States     []pipeline.State `json:"states"`
	Skipped    []string         `json:"skipped,omitempty"`
	Resolution relay.Resolution `json:"resolution"`
	Success    bool             `json:"success"`
}

// CatalogResponse is the answer of /api/filters.
type CatalogResponse struct {
	AdjustPresets map[string]filter.AdjustSettings `json:"adjustPresets"`
	Filters       []filter.Preset                  `json:"filters"`
	Categories    []filter.Category                `json:"categories"`
	Stickers      []composite.Sticker              `json:"stickers"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, relay.Health{Status: "ok", Message: "photocore background removal API is running."})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	a.writeJSON(w, http.StatusOK, a.Status())
}

func (a *API) handleFilters(w http.ResponseWriter, r *http.Request) {
	adjust := make(map[string]filter.AdjustSettings, len(filter.AdjustPresetNames))
	for _, name := range filter.AdjustPresetNames {
		adjust[name], _ = filter.AdjustPreset(name)
	}
	a.writeJSON(w, http.StatusOK, CatalogResponse{
		Filters:       filter.Presets(),
		Categories:    filter.Categories(),
		AdjustPresets: adjust,
		Stickers:      composite.Stickers(),
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := a.svc.Stats(r.Context())
	if err != nil {
		a.log().Error("failed to read stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	a.writeJSON(w, http.StatusOK, snap)
}

func (a *API) handleRemove(preview bool) http.HandlerFunc {
	route := "bg/remove"
	if preview {
		route = "bg/preview"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req relay.Request
		if err := a.readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.process(w, r, route, func(ctx context.Context) (any, error) {
			img, err := decodeImage(req.Image)
			if err != nil {
				return nil, err
			}
			out, err := a.svc.RemoveBackground(ctx, img, editor.RemoveRequest{
				Mode:      relay.ParseMode(string(req.Mode)),
				Tolerance: req.Tolerance,
				Feather:   req.Feather,
				Target:    req.TargetColor,
				Preview:   preview,
			})
			if err != nil {
				return nil, err
			}
			resp := relay.Response{
				Success: true,
				Result:  raster.DataURL(out.Data, raster.PNG.MIME()),
				Mode:    out.Mode,
			}
			if preview {
				resp.Resolution = &relay.Resolution{Width: out.Width, Height: out.Height}
			}
			return resp, nil
		})
	}
}

func (a *API) handleColor(preview bool) http.HandlerFunc {
	route := "color/correct"
	if preview {
		route = "color/preview"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if err := a.readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.process(w, r, route, func(ctx context.Context) (any, error) {
			img, err := decodeImage(req.Image)
			if err != nil {
				return nil, err
			}
			c, err := a.svc.Correct(ctx, img, preview)
			if err != nil {
				return nil, err
			}
			return ColorResponse{
				Success:     true,
				Result:      c.Image.DataURL(),
				Mode:        c.Analysis.Mode,
				Description: c.Analysis.Mode.Description(),
				Analysis:    c.Analysis,
				Params:      c.Params,
				Magnitude:   c.Magnitude,
				Resolution:  relay.Resolution{Width: c.Image.Width, Height: c.Image.Height},
			}, nil
		})
	}
}

func (a *API) handleSharpen(preview bool) http.HandlerFunc {
	route := "sharpen/enhance"
	if preview {
		route = "sharpen/preview"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if err := a.readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.process(w, r, route, func(ctx context.Context) (any, error) {
			img, err := decodeImage(req.Image)
			if err != nil {
				return nil, err
			}
			enc, err := a.svc.Sharpen(ctx, img, preview)
			if err != nil {
				return nil, err
			}
			return ImageResponse{
				Success:    true,
				Result:     enc.DataURL(),
				Resolution: relay.Resolution{Width: enc.Width, Height: enc.Height},
			}, nil
		})
	}
}

func (a *API) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := a.readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.process(w, r, "render", func(ctx context.Context) (any, error) {
		img, err := decodeImage(req.Image)
		if err != nil {
			return nil, err
		}
		res, err := a.svc.Render(ctx, img, session.State{
			FilterID: req.Filter,
			Adjust:   req.Adjust,
			Texts:    req.Texts,
			Stickers: req.Stickers,
		})
		if err != nil {
			return nil, err
		}
		return RenderResponse{
			Success:    true,
			Result:     res.Image.DataURL(),
			States:     res.States,
			Skipped:    res.Skipped,
			Resolution: relay.Resolution{Width: res.Image.Width, Height: res.Image.Height},
		}, nil
	})
}
