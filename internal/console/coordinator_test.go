package console

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propintel-console/internal/pkg/logger"
	"propintel-console/pkg/analysis"
	"propintel-console/pkg/capture"
	"propintel-console/pkg/events"
	"propintel-console/pkg/measure"
	"propintel-console/pkg/tiles"
)

type stubClient struct {
	kind      analysis.Kind
	configErr error
	poll      *analysis.PollResponse

	mu     sync.Mutex
	starts int
}

func (s *stubClient) Kind() analysis.Kind { return s.kind }

func (s *stubClient) Configured() error { return s.configErr }

func (s *stubClient) Start(ctx context.Context, image string) (*analysis.StartResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	return &analysis.StartResponse{JobID: "job-" + string(s.kind), Status: analysis.StatusProcessing}, nil
}

func (s *stubClient) Poll(ctx context.Context, jobID string) (*analysis.PollResponse, error) {
	if s.poll != nil {
		return s.poll, nil
	}
	return &analysis.PollResponse{Status: analysis.StatusProcessing}, nil
}

func (s *stubClient) DownloadReport(ctx context.Context, jobID string) (*analysis.ReportFile, error) {
	return &analysis.ReportFile{Filename: jobID + ".pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, nil
}

func (s *stubClient) startCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

type stubRasterizer struct {
	mu      sync.Mutex
	regions []capture.CaptureRegion
	block   bool
}

func (r *stubRasterizer) Rasterize(ctx context.Context, region capture.CaptureRegion) (string, error) {
	r.mu.Lock()
	r.regions = append(r.regions, region)
	r.mu.Unlock()
	if r.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "data:image/png;base64,AAAA", nil
}

func (r *stubRasterizer) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regions)
}

type fixture struct {
	c            *Coordinator
	roof         *stubClient
	construction *stubClient
	raster       *stubRasterizer

	mu     sync.Mutex
	events []events.Event
}

func newFixture(t *testing.T, interval time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		roof:         &stubClient{kind: analysis.KindRoof},
		construction: &stubClient{kind: analysis.KindConstruction},
		raster:       &stubRasterizer{},
	}
	notifier := NotifierFunc(func(e events.Event) {
		f.mu.Lock()
		f.events = append(f.events, e)
		f.mu.Unlock()
	})
	cfg := Config{Tracker: analysis.TrackerConfig{PollInterval: interval}}
	f.c = New(cfg, []analysis.Client{f.roof, f.construction}, f.raster, tiles.NewCatalogue(tiles.Bases{}), notifier, logger.NewNopLogger())
	f.c.SetElementRect(capture.ElementRect{Left: 0, Top: 0, Width: 800, Height: 600})
	t.Cleanup(f.c.Close)
	return f
}

func (f *fixture) eventCount(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

func (f *fixture) drag(from, to capture.Point) {
	f.c.PointerDown(1, from)
	f.c.PointerMove(1, to)
	f.c.PointerUp(1, to)
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) waitPhase(t *testing.T, kind analysis.Kind, phase analysis.Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, err := f.c.Job(kind)
		return err == nil && snap.Phase == phase
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRoofDrawingSurvivesConstructionJob(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.c.SetView(ViewUpdate{StreetView: ptr(true), Zoom: ptr(21.0)})

	require.NoError(t, f.c.SetMode(ModeConstructionDraw))
	f.drag(capture.Point{X: 10, Y: 10}, capture.Point{X: 200, Y: 150})
	f.waitPhase(t, analysis.KindConstruction, analysis.PhaseProcessing)

	require.NoError(t, f.c.SetMode(ModeRoofDraw))

	st := f.c.State()
	assert.Equal(t, ModeRoofDraw, st.Mode)
	assert.Equal(t, MapSatellite, st.View.MapType)
	assert.False(t, st.Surfaces[analysis.KindConstruction].Active)
	assert.True(t, st.Surfaces[analysis.KindRoof].Active)
	assert.Equal(t, analysis.PhaseProcessing, st.Jobs[analysis.KindConstruction].Phase)
	assert.Equal(t, "job-construction", st.Jobs[analysis.KindConstruction].ID)
	assert.Equal(t, analysis.PhaseIdle, st.Jobs[analysis.KindRoof].Phase)

	require.Equal(t, 1, f.raster.calls())
	assert.Equal(t, capture.CaptureRegion{X: 10, Y: 10, Width: 190, Height: 140}, f.raster.regions[0])
	assert.Positive(t, f.eventCount(events.JobUpdated))
}

func TestSelectionOutsideMapFailsWithoutUpload(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.c.SetElementRect(capture.ElementRect{Left: 100, Top: 100, Width: 400, Height: 300})
	f.c.SetView(ViewUpdate{StreetView: ptr(true)})
	require.NoError(t, f.c.SetMode(ModeConstructionDraw))

	f.drag(capture.Point{X: 0, Y: 0}, capture.Point{X: 50, Y: 50})

	snap, err := f.c.Job(analysis.KindConstruction)
	require.NoError(t, err)
	assert.Equal(t, analysis.PhaseError, snap.Phase)
	assert.Contains(t, snap.Error, analysis.MsgOutsideMap)
	assert.Zero(t, f.construction.startCount())
	assert.Zero(t, f.raster.calls())
	assert.Nil(t, f.c.State().Surfaces[analysis.KindConstruction].Highlight)
}

func TestSmallSelectionIsIgnored(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.c.SetView(ViewUpdate{Zoom: ptr(21.0)})
	require.NoError(t, f.c.SetMode(ModeRoofDraw))

	f.drag(capture.Point{X: 10, Y: 10}, capture.Point{X: 15, Y: 300})

	snap, _ := f.c.Job(analysis.KindRoof)
	assert.Equal(t, analysis.PhaseIdle, snap.Phase)
	assert.Zero(t, f.raster.calls())
}

func TestMissingConfigurationShortCircuits(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.roof.configErr = fmt.Errorf("%w: roof base URL is empty", analysis.ErrConfig)
	f.c.SetView(ViewUpdate{Zoom: ptr(21.0)})
	require.NoError(t, f.c.SetMode(ModeRoofDraw))

	f.drag(capture.Point{X: 10, Y: 10}, capture.Point{X: 100, Y: 100})

	snap, _ := f.c.Job(analysis.KindRoof)
	assert.Equal(t, analysis.PhaseError, snap.Phase)
	assert.Contains(t, snap.Error, "not configured")
	assert.Zero(t, f.roof.startCount())
	assert.Zero(t, f.raster.calls())
}

func TestRoofGate(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.c.SetView(ViewUpdate{Zoom: ptr(18.0)})

	err := f.c.SetMode(ModeRoofDraw)
	assert.ErrorIs(t, err, ErrZoomTooLow)
	assert.Equal(t, ModeNone, f.c.State().Mode)

	f.c.SetView(ViewUpdate{Zoom: ptr(21.0), MapType: ptr(MapRoadmap)})
	require.NoError(t, f.c.SetMode(ModeRoofDraw))
	assert.Equal(t, MapSatellite, f.c.State().View.MapType)

	f.c.SetView(ViewUpdate{MapType: ptr(MapHybrid)})
	st := f.c.State()
	assert.Equal(t, ModeNone, st.Mode)
	assert.False(t, st.Surfaces[analysis.KindRoof].Active)

	require.NoError(t, f.c.SetMode(ModeRoofDraw))
	f.c.SetView(ViewUpdate{Zoom: ptr(20.0)})
	assert.Equal(t, ModeNone, f.c.State().Mode)
}

func TestStreetViewClosingCancelsPendingCapture(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.raster.block = true
	f.c.SetView(ViewUpdate{StreetView: ptr(true)})

	require.NoError(t, f.c.SetMode(ModeConstructionDraw))

	f.drag(capture.Point{X: 10, Y: 10}, capture.Point{X: 100, Y: 100})
	snap, _ := f.c.Job(analysis.KindConstruction)
	require.Equal(t, analysis.PhaseCapturing, snap.Phase)

	f.c.SetView(ViewUpdate{StreetView: ptr(false)})

	st := f.c.State()
	assert.Equal(t, ModeNone, st.Mode)
	assert.False(t, st.Surfaces[analysis.KindConstruction].Active)
	assert.Equal(t, analysis.PhaseIdle, st.Jobs[analysis.KindConstruction].Phase)
	assert.Empty(t, st.Jobs[analysis.KindConstruction].Error)
	assert.Zero(t, f.construction.startCount())
}

func TestConstructionRequiresStreetView(t *testing.T) {
	f := newFixture(t, time.Hour)
	assert.ErrorIs(t, f.c.SetMode(ModeConstructionDraw), ErrStreetViewRequired)

	bare := New(Config{View: ViewState{StreetView: true, MapType: MapRoadmap}}, nil, nil, nil, nil, nil)
	defer bare.Close()
	assert.ErrorIs(t, bare.SetMode(ModeConstructionDraw), ErrUnknownKind)
}

func TestContextMenuSuppressedWhileDrawing(t *testing.T) {
	f := newFixture(t, time.Hour)

	menu := f.c.ContextMenu()
	assert.True(t, menu.Open)
	assert.Equal(t, []Mode{ModeMeasureArea, ModeMeasureDistance, ModeConstructionDraw, ModeRoofDraw}, menu.Modes)

	f.c.SetView(ViewUpdate{Zoom: ptr(21.0)})
	require.NoError(t, f.c.SetMode(ModeRoofDraw))
	assert.False(t, f.c.ContextMenu().Open)

	require.NoError(t, f.c.SetMode(ModeMeasureArea))
	assert.True(t, f.c.ContextMenu().Open)
}

func TestMeasurementRouting(t *testing.T) {
	f := newFixture(t, time.Hour)

	assert.Nil(t, f.c.MapClick(measure.LatLng{}), "no mode, no measurement")

	require.NoError(t, f.c.SetMode(ModeMeasureDistance))
	assert.Nil(t, f.c.MapClick(measure.LatLng{Lat: 0, Lng: 0}))
	res := f.c.MapClick(measure.LatLng{Lat: 0, Lng: 0.001})
	require.NotNil(t, res)
	assert.InDelta(t, 111.19, res.Meters, 0.01)
	assert.Positive(t, f.eventCount(events.MeasurementUpdated))

	f.c.ClearMeasurement()
	assert.Nil(t, f.c.State().Measurement.Result)
	assert.Equal(t, ModeMeasureDistance, f.c.State().Mode)

	require.NoError(t, f.c.SetMode(ModeMeasureArea))
	f.c.MapClick(measure.LatLng{Lat: 1, Lng: 1})
	f.c.MapClick(measure.LatLng{Lat: 1, Lng: 2})

	f.c.Escape()
	st := f.c.State()
	assert.Equal(t, ModeMeasureArea, st.Mode, "first escape only drops the points")
	assert.Empty(t, st.Measurement.Points)

	f.c.Escape()
	assert.Equal(t, ModeNone, f.c.State().Mode)
}

func TestLeavingMeasureModeKeepsResult(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.c.SetView(ViewUpdate{Zoom: ptr(22.0)})

	require.NoError(t, f.c.SetMode(ModeMeasureDistance))
	f.c.MapClick(measure.LatLng{Lat: 0, Lng: 0})
	require.NotNil(t, f.c.MapClick(measure.LatLng{Lat: 0, Lng: 0.001}))

	f.c.Escape()
	st := f.c.State()
	assert.Equal(t, ModeNone, st.Mode)
	require.NotNil(t, st.Measurement.Result)
	assert.InDelta(t, 111.19, st.Measurement.Result.Meters, 0.01)

	require.NoError(t, f.c.SetMode(ModeRoofDraw))
	assert.NotNil(t, f.c.State().Measurement.Result, "drawing keeps the finished measurement")

	f.c.ClearMeasurement()
	assert.Nil(t, f.c.State().Measurement.Result)
}

func TestEscapeAbandonsDragThenLeavesMode(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.c.SetView(ViewUpdate{Zoom: ptr(22.0)})
	require.NoError(t, f.c.SetMode(ModeRoofDraw))

	require.True(t, f.c.PointerDown(7, capture.Point{X: 5, Y: 5}))
	f.c.PointerMove(7, capture.Point{X: 90, Y: 90})

	f.c.Escape()
	st := f.c.State()
	assert.Equal(t, ModeRoofDraw, st.Mode)
	assert.False(t, st.Surfaces[analysis.KindRoof].Dragging)

	f.c.PointerUp(7, capture.Point{X: 90, Y: 90})
	assert.Zero(t, f.raster.calls())

	f.c.Escape()
	assert.Equal(t, ModeNone, f.c.State().Mode)
}

func TestSurfaceDisabledWhileJobBusy(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.c.SetView(ViewUpdate{Zoom: ptr(21.0)})
	require.NoError(t, f.c.SetMode(ModeRoofDraw))

	f.drag(capture.Point{X: 10, Y: 10}, capture.Point{X: 100, Y: 100})
	f.waitPhase(t, analysis.KindRoof, analysis.PhaseProcessing)

	st := f.c.State()
	assert.True(t, st.Surfaces[analysis.KindRoof].Disabled)
	assert.NotNil(t, st.Surfaces[analysis.KindRoof].Highlight)
	assert.False(t, f.c.PointerDown(2, capture.Point{X: 1, Y: 1}))

	require.NoError(t, f.c.DrawAgain(analysis.KindRoof))
	st = f.c.State()
	assert.Equal(t, analysis.PhaseIdle, st.Jobs[analysis.KindRoof].Phase)
	assert.False(t, st.Surfaces[analysis.KindRoof].Disabled)
	assert.Nil(t, st.Surfaces[analysis.KindRoof].Highlight)
	assert.True(t, f.c.PointerDown(2, capture.Point{X: 1, Y: 1}))
}

func TestCompletedConstructionReport(t *testing.T) {
	f := newFixture(t, 5*time.Millisecond)
	f.construction.poll = &analysis.PollResponse{
		Status: analysis.StatusCompleted,
		Result: json.RawMessage(`{"building_analysis": {"risk_factors": {"fire_risk_level": "low"}}}`),
	}

	_, err := f.c.DownloadReport(context.Background(), analysis.KindConstruction)
	assert.ErrorIs(t, err, ErrJobNotCompleted)

	f.c.SetView(ViewUpdate{StreetView: ptr(true)})
	require.NoError(t, f.c.SetMode(ModeConstructionDraw))
	f.drag(capture.Point{X: 10, Y: 10}, capture.Point{X: 100, Y: 100})
	f.waitPhase(t, analysis.KindConstruction, analysis.PhaseCompleted)

	r, err := f.c.Report(analysis.KindConstruction)
	require.NoError(t, err)
	require.Len(t, r.Sections, 1)
	assert.Equal(t, "risk_factors", r.Sections[0].Key)

	file, err := f.c.DownloadReport(context.Background(), analysis.KindConstruction)
	require.NoError(t, err)
	assert.Equal(t, "job-construction.pdf", file.Filename)

	_, err = f.c.DownloadReport(context.Background(), analysis.KindRoof)
	assert.ErrorIs(t, err, ErrDownloadUnsupported)

	require.NoError(t, f.c.ClearJob(analysis.KindConstruction))
	snap, _ := f.c.Job(analysis.KindConstruction)
	assert.Equal(t, analysis.PhaseIdle, snap.Phase)
	assert.Nil(t, snap.Result)
}

func TestOverlayToggles(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.c.SetOverlay(tiles.Flood, true))
	assert.ErrorIs(t, f.c.SetOverlay(tiles.Name("wildfire"), true), tiles.ErrUnknownOverlay)

	enabled := map[tiles.Name]bool{}
	for _, o := range f.c.Overlays() {
		enabled[o.Name] = o.Enabled
	}
	assert.True(t, enabled[tiles.Flood])
	assert.False(t, enabled[tiles.Fema])
	assert.Positive(t, f.eventCount(events.ConsoleUpdated))
}
