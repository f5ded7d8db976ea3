package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"propintel-console/internal/console"
	"propintel-console/internal/pkg/logger"
	"propintel-console/internal/pkg/serverutils"
	"propintel-console/internal/repository/memory"
	"propintel-console/internal/service"
	"propintel-console/pkg/analysis"
	"propintel-console/pkg/capture"
	"propintel-console/pkg/tiles"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	kind  analysis.Kind
	image chan string
}

func (f *fakeClient) Kind() analysis.Kind { return f.kind }

func (f *fakeClient) Configured() error { return nil }

func (f *fakeClient) Start(ctx context.Context, imageDataURL string) (*analysis.StartResponse, error) {
	select {
	case f.image <- imageDataURL:
	default:
	}
	return &analysis.StartResponse{JobID: "job-42", Status: analysis.StatusQueued}, nil
}

func (f *fakeClient) Poll(ctx context.Context, jobID string) (*analysis.PollResponse, error) {
	return &analysis.PollResponse{
		Status: analysis.StatusCompleted,
		Result: json.RawMessage(`{"building_analysis": {"construction_type": {"construction_class": "Frame"}}}`),
	}, nil
}

func (f *fakeClient) DownloadReport(ctx context.Context, jobID string) (*analysis.ReportFile, error) {
	return &analysis.ReportFile{Filename: "construction-" + jobID + ".pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}, nil
}

type consoleFixture struct {
	app    *fiber.App
	client *fakeClient
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	return buildConsoleFixture(t, true)
}

func buildConsoleFixture(t *testing.T, withErrorHandler bool) *consoleFixture {
	t.Helper()
	log := logger.NewNopLogger()
	client := &fakeClient{kind: analysis.KindConstruction, image: make(chan string, 1)}
	frames := capture.NewFrameStore()
	catalogue := tiles.NewCatalogue(tiles.Bases{Flood: "https://tiles.example.com/flood", Imagery: "https://imagery.example.com"})

	coordinator := console.New(
		console.Config{Tracker: analysis.TrackerConfig{PollInterval: 5 * time.Millisecond}},
		[]analysis.Client{client},
		capture.NewFrameRasterizer(frames),
		catalogue,
		nil,
		log,
	)
	t.Cleanup(coordinator.Close)

	imagery := service.NewImageryService("", "", memory.NewImageryRepository(0), catalogue, log)

	app := fiber.New()
	if withErrorHandler {
		app.Use(serverutils.ErrorHandlerMiddleware())
	}
	api := app.Group("/api")
	NewConsoleController(coordinator, frames, catalogue, imagery, nil, log).RegisterRoutes(api)
	NewHealthController(service.NewTileService(""), nil).RegisterRoutes(api)

	return &consoleFixture{app: app, client: client}
}

func (f *consoleFixture) do(t *testing.T, method, path string, body interface{}) (*http.Response, serverutils.BaseResponse[json.RawMessage]) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var out serverutils.BaseResponse[json.RawMessage]
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func pngDataURL(t *testing.T, w, h int) string {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	url, err := capture.EncodeDataURL(img)
	require.NoError(t, err)
	return url
}

func TestConsoleConstructionFlow(t *testing.T) {
	f := newConsoleFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/console/jobs/construction/report/download", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/console/mode", map[string]string{"mode": "construction-draw"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPut, "/api/console/element", map[string]float64{"left": 0, "top": 0, "width": 400, "height": 300})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/api/console/frame", map[string]interface{}{"image_data": pngDataURL(t, 400, 300), "width": 400, "height": 300})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPut, "/api/console/view", map[string]interface{}{"street_view": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/api/console/mode", map[string]string{"mode": "construction-draw"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, out := f.do(t, http.MethodPost, "/api/console/pointer", map[string]interface{}{"type": "down", "pointer_id": 1, "x": 20, "y": 20})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"handled": true}`, string(out.Data))
	f.do(t, http.MethodPost, "/api/console/pointer", map[string]interface{}{"type": "move", "pointer_id": 1, "x": 120, "y": 90})
	f.do(t, http.MethodPost, "/api/console/pointer", map[string]interface{}{"type": "up", "pointer_id": 1, "x": 120, "y": 90})

	select {
	case uploaded := <-f.client.image:
		img, err := capture.DecodeDataURL(uploaded)
		require.NoError(t, err)
		assert.Equal(t, 100, img.Bounds().Dx())
		assert.Equal(t, 70, img.Bounds().Dy())
	case <-time.After(2 * time.Second):
		t.Fatal("selection was never uploaded")
	}

	require.Eventually(t, func() bool {
		resp, _ := f.do(t, http.MethodGet, "/api/console/jobs/construction/report", nil)
		return resp.StatusCode == fiber.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	_, out = f.do(t, http.MethodGet, "/api/console/jobs/construction/report", nil)
	assert.Contains(t, string(out.Data), `"construction_type"`)

	resp, _ = f.do(t, http.MethodGet, "/api/console/jobs/construction/report/download", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "construction-job-42.pdf")
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.4", string(data))

	resp, _ = f.do(t, http.MethodDelete, "/api/console/jobs/construction", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/api/console/jobs/construction/report", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestConsoleRejectsBadInput(t *testing.T) {
	f := newConsoleFixture(t)

	resp, out := f.do(t, http.MethodPost, "/api/console/pointer", map[string]interface{}{"type": "hover"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, out.Success)

	resp, _ = f.do(t, http.MethodPost, "/api/console/mode", map[string]string{"mode": "fly"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPut, "/api/console/view", map[string]interface{}{"zoom": 30})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/console/frame", map[string]interface{}{"image_data": "data:text/plain,hello"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// No roof service is wired into this fixture.
	resp, _ = f.do(t, http.MethodDelete, "/api/console/jobs/roof", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/api/console/jobs/attic/redraw", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestConsoleErrorBodiesWithoutMiddleware(t *testing.T) {
	f := buildConsoleFixture(t, false)

	resp, out := f.do(t, http.MethodPost, "/api/console/mode", map[string]string{"mode": "fly"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, out.Success)
	assert.Equal(t, fiber.StatusBadRequest, out.Code)
	assert.NotEmpty(t, out.Message)

	resp, out = f.do(t, http.MethodDelete, "/api/console/jobs/roof", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.False(t, out.Success)
	assert.Equal(t, fiber.StatusNotFound, out.Code)
	assert.NotEmpty(t, out.Message)

	resp, out = f.do(t, http.MethodGet, "/api/console/jobs/construction/report", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, out.Code)
	assert.Equal(t, "No analysis result yet", out.Message)
}

func TestConsoleMeasurementOverHTTP(t *testing.T) {
	f := newConsoleFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/console/mode", map[string]string{"mode": "measure-distance"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	f.do(t, http.MethodPost, "/api/console/map/click", map[string]float64{"lat": 0, "lng": 0})
	_, out := f.do(t, http.MethodPost, "/api/console/map/click", map[string]float64{"lat": 0, "lng": 1})

	var click struct {
		Result struct {
			Meters float64 `json:"meters"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &click))
	assert.InDelta(t, 111195, click.Result.Meters, 1)

	_, out = f.do(t, http.MethodPost, "/api/console/map/contextmenu", nil)
	assert.Contains(t, string(out.Data), `"open":true`)

	resp, _ = f.do(t, http.MethodPost, "/api/console/escape", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodDelete, "/api/console/measurement", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestConsoleViewQueryRoundTrip(t *testing.T) {
	f := newConsoleFixture(t)

	_, out := f.do(t, http.MethodPost, "/api/console/view/query", map[string]string{"query": "lat=25.774252&lng=-80.190262&zoom=19&address=Miami"})
	var view struct {
		Query string `json:"query"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &view))
	assert.Equal(t, "address=Miami&lat=25.774252&lng=-80.190262&zoom=19", view.Query)

	resp, _ := f.do(t, http.MethodPost, "/api/console/view/query", map[string]string{"query": "lat=123"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestConsoleOverlaysAndImagery(t *testing.T) {
	f := newConsoleFixture(t)

	resp, _ := f.do(t, http.MethodPut, "/api/console/overlays/flood", map[string]bool{"enabled": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPut, "/api/console/overlays/wildfire", map[string]bool{"enabled": true})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	_, out := f.do(t, http.MethodPost, "/api/console/overlays/flood/tile", map[string]interface{}{
		"descriptor": map[string]interface{}{"tile": map[string]int{"x": 3, "y": 5}},
		"zoom":       12,
	})
	var tile struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &tile))
	assert.Contains(t, tile.URL, "/12/3/5")

	_, out = f.do(t, http.MethodPost, "/api/console/overlays/imagery/tile", map[string]interface{}{
		"descriptor": map[string]int{"x": 1, "y": 2, "z": 20},
		"urn":        "urn:ortho:1",
	})
	require.NoError(t, json.Unmarshal(out.Data, &tile))
	assert.Equal(t, "https://imagery.example.com/api/v1/eagleview/tiles/urn:ortho:1/20/1/2", tile.URL)

	resp, _ = f.do(t, http.MethodGet, "/api/console/imagery?lat=25.77&lng=-80.19", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/api/console/imagery?lat=25.77&lng=-80.19&direction=up", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	_, out = f.do(t, http.MethodGet, "/api/health", nil)
	assert.JSONEq(t, `{"status":"ok","tile_server":"disabled","connections":0}`, string(out.Data))
}
