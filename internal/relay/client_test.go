package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/photocore/internal/raster"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\nrest")

func relayServer(t *testing.T, handle func(w http.ResponseWriter, req Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Health{Status: "ok"}) // nolint:errcheck
	})
	h := func(w http.ResponseWriter, r *http.Request) {
		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handle(w, req)
	}
	mux.HandleFunc(PreviewPath, h)
	mux.HandleFunc(RemovePath, h)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Remove(t *testing.T) {
	var got Request
	srv := relayServer(t, func(w http.ResponseWriter, req Request) {
		got = req
		json.NewEncoder(w).Encode(Response{ // nolint:errcheck
			Success: true,
			Result:  raster.DataURL([]byte("cutout"), "image/png"),
			Mode:    req.Mode,
		})
	})

	c := NewClient(srv.URL + "/")
	out, err := c.Remove(context.Background(), pngMagic, Options{Mode: ModeColor, Tolerance: 30, Feather: 3, Target: &TargetColor{R: 1, G: 2, B: 3}})
	require.NoError(t, err)
	assert.Equal(t, []byte("cutout"), out)

	assert.Equal(t, ModeColor, got.Mode)
	assert.InDelta(t, 30, got.Tolerance, 0)
	assert.InDelta(t, 3, got.Feather, 0)
	require.NotNil(t, got.TargetColor)
	assert.Equal(t, TargetColor{R: 1, G: 2, B: 3}, *got.TargetColor)
	assert.Equal(t, raster.DataURL(pngMagic, "image/png"), got.Image)
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestClient_PreviewDefaultsToAuto(t *testing.T) {
	srv := relayServer(t, func(w http.ResponseWriter, req Request) {
		assert.Equal(t, ModeAuto, req.Mode)
		json.NewEncoder(w).Encode(Response{Success: true, Result: "Y3V0"}) // nolint:errcheck
	})

	out, err := NewClient(srv.URL).Preview(context.Background(), pngMagic, Options{})
	require.NoError(t, err)
	assert.Equal(t, []byte("cut"), out)
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		body   Response
		status int
	}{
		{name: "server error", status: http.StatusInternalServerError, body: Response{Error: "Background removal failed", Message: "boom"}},
		{name: "bad request", status: http.StatusBadRequest, body: Response{Error: "No image data provided"}},
		{name: "not successful", status: http.StatusOK, body: Response{Error: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := relayServer(t, func(w http.ResponseWriter, _ Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body) // nolint:errcheck
			})

			_, err := NewClient(srv.URL).Remove(context.Background(), pngMagic, Options{})
			require.ErrorIs(t, err, ErrUnavailable)
			assert.NotErrorIs(t, err, ErrTimeout)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url).Health(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewClient(url).Remove(context.Background(), pngMagic, Options{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_UnreadableResponse(t *testing.T) {
	srv := relayServer(t, func(w http.ResponseWriter, _ Request) {
		w.Write([]byte("<html>gateway</html>")) // nolint:errcheck
	})

	_, err := NewClient(srv.URL).Preview(context.Background(), pngMagic, Options{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_HealthStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.ErrorIs(t, NewClient(srv.URL).Health(context.Background()), ErrUnavailable)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, WithTimeouts(50*time.Millisecond, 0))
	assert.ErrorIs(t, c.Health(context.Background()), ErrTimeout)
}

func TestClient_HealthTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := http.NewResponseController(w).Hijack()
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\nshort")
		_ = buf.Flush()
	}))
	defer srv.Close()

	var logs bytes.Buffer
	l := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	require.NoError(t, NewClient(srv.URL, WithLogger(l)).Health(context.Background()))
	assert.Contains(t, logs.String(), "Failed to drain health response")
}

func TestClient_CallerCancel(t *testing.T) {
	srv := relayServer(t, func(w http.ResponseWriter, _ Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL).Remove(ctx, pngMagic, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"":        ModeAuto,
		"auto":    ModeAuto,
		"DIRECT":  ModeDirect,
		" color ": ModeColor,
		"magic":   ModeAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseMode(in), in)
	}
}

func TestTargetColor_Unmarshal(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"image":"x","targetColor":"{\"r\":10,\"g\":20,\"b\":300}"}`), &req))
	require.NotNil(t, req.TargetColor)
	assert.Equal(t, TargetColor{R: 10, G: 20, B: 300}, *req.TargetColor)
	assert.Equal(t, uint8(255), req.TargetColor.RGB().B)

	req = Request{}
	require.NoError(t, json.Unmarshal([]byte(`{"targetColor":{"r":1,"g":2,"b":3}}`), &req))
	assert.Equal(t, TargetColor{R: 1, G: 2, B: 3}, *req.TargetColor)

	assert.Error(t, json.Unmarshal([]byte(`{"targetColor":"red"}`), &req))
}
