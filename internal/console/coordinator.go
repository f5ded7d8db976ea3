// Package console owns the single-session interaction state: the active mode, the shared
// viewport, the drawing surfaces, the analysis jobs, the measurement and the overlay toggles.
package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"propintel-console/internal/pkg/logger"
	"propintel-console/pkg/analysis"
	"propintel-console/pkg/capture"
	"propintel-console/pkg/events"
	"propintel-console/pkg/measure"
	"propintel-console/pkg/report"
	"propintel-console/pkg/tiles"
)

const DefaultRoofMinZoom = 21

var (
	ErrZoomTooLow          = errors.New("zoom in further to analyze a roof")
	ErrStreetViewRequired  = errors.New("open street view to analyze construction")
	ErrUnknownKind         = errors.New("unknown analysis kind")
	ErrJobNotCompleted     = errors.New("analysis has not completed")
	ErrDownloadUnsupported = errors.New("only construction reports can be downloaded")
)

// Notifier receives console events. It must not block and must not call back into the coordinator.
type Notifier interface {
	Notify(event events.Event)
}

type NotifierFunc func(events.Event)

func (f NotifierFunc) Notify(e events.Event) { f(e) }

type Config struct {
	MinBoxSize   float64
	CloseEpsilon float64
	RoofMinZoom  float64
	Tracker      analysis.TrackerConfig
	View         ViewState
}

type OverlayState struct {
	tiles.Overlay
	Enabled bool `json:"enabled"`
}

type ContextMenu struct {
	Open  bool   `json:"open"`
	Modes []Mode `json:"modes,omitempty"`
}

type State struct {
	Mode        Mode                                   `json:"mode"`
	View        ViewState                              `json:"view"`
	Query       string                                 `json:"query"`
	Surfaces    map[analysis.Kind]capture.SurfaceState `json:"surfaces"`
	Jobs        map[analysis.Kind]analysis.Snapshot    `json:"jobs"`
	Measurement measure.Snapshot                       `json:"measurement"`
	Overlays    []OverlayState                         `json:"overlays"`
}

// Coordinator serialises every console interaction. Lock order is coordinator, then tracker,
// then surface; trackers and surfaces never call back into the coordinator asynchronously.
type Coordinator struct {
	mu     sync.Mutex
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mode     Mode
	view     ViewState
	rect     *capture.ElementRect
	raster   capture.Rasterizer
	surfaces map[analysis.Kind]*capture.Surface
	trackers map[analysis.Kind]*analysis.Tracker
	engine   *measure.Engine

	catalogue *tiles.Catalogue
	overlays  map[tiles.Name]bool

	notifier Notifier
	logger   logger.ILogger
}

func New(cfg Config, clients []analysis.Client, raster capture.Rasterizer, catalogue *tiles.Catalogue, notifier Notifier, log logger.ILogger) *Coordinator {
	if cfg.MinBoxSize <= 0 {
		cfg.MinBoxSize = capture.DefaultMinSize
	}
	if cfg.RoofMinZoom <= 0 {
		cfg.RoofMinZoom = DefaultRoofMinZoom
	}
	if cfg.View.MapType == "" {
		cfg.View = DefaultView
	}
	if notifier == nil {
		notifier = NotifierFunc(func(events.Event) {})
	}
	if catalogue == nil {
		catalogue = tiles.NewCatalogue(tiles.Bases{})
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		mode:      ModeNone,
		view:      cfg.View,
		raster:    raster,
		surfaces:  map[analysis.Kind]*capture.Surface{},
		trackers:  map[analysis.Kind]*analysis.Tracker{},
		engine:    measure.NewEngine(cfg.CloseEpsilon),
		catalogue: catalogue,
		overlays:  map[tiles.Name]bool{},
		notifier:  notifier,
		logger:    log,
	}

	for _, client := range clients {
		kind := client.Kind()
		c.trackers[kind] = analysis.NewTracker(client, cfg.Tracker, func(s analysis.Snapshot) {
			c.notifier.Notify(events.New(events.JobUpdated, map[string]interface{}{"job": s}))
		})
		c.surfaces[kind] = capture.NewSurface(
			capture.WithMinSize(cfg.MinBoxSize),
			capture.OnPreview(func(box *capture.BoundingBox) {
				c.notifier.Notify(events.New(events.SelectionPreview, map[string]interface{}{"kind": kind, "box": box}))
			}),
			// Surfaces emit synchronously from PointerUp, which runs with c.mu held.
			capture.OnDrawComplete(func(box capture.BoundingBox) {
				c.drawCompleteLocked(kind, box)
			}),
		)
	}
	return c
}

// SetMode switches the active interaction mode. Entering roof drawing forces satellite view;
// a gate that does not hold leaves the current mode untouched.
func (c *Coordinator) SetMode(m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setModeLocked(m); err != nil {
		return err
	}
	c.publishLocked()
	return nil
}

func (c *Coordinator) setModeLocked(m Mode) error {
	if m == c.mode {
		return nil
	}
	if kind, ok := m.Kind(); ok {
		if _, exists := c.trackers[kind]; !exists {
			return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
		}
	}
	switch m {
	case ModeRoofDraw:
		if c.view.Zoom < c.cfg.RoofMinZoom {
			return fmt.Errorf("%w (zoom %.1f, need %.0f)", ErrZoomTooLow, c.view.Zoom, c.cfg.RoofMinZoom)
		}
	case ModeConstructionDraw:
		if !c.view.StreetView {
			return ErrStreetViewRequired
		}
	}

	c.leaveLocked()
	c.mode = m

	switch {
	case m.Drawing():
		kind, _ := m.Kind()
		if m == ModeRoofDraw {
			c.view.MapType = MapSatellite
			c.view.StreetView = false
		}
		c.surfaces[kind].Open()
		c.syncSurfaceLocked(kind)
	case m.Measuring():
		if err := c.engine.Start(m.measureMode()); err != nil {
			return err
		}
	}

	c.logger.Info("Console", "Mode changed", map[string]interface{}{"mode": m})
	return nil
}

// leaveLocked tears down the active mode. Pending captures are cancelled; uploaded,
// running and finished jobs are left alone. A finished measurement stays until cleared.
func (c *Coordinator) leaveLocked() {
	switch {
	case c.mode.Drawing():
		kind, _ := c.mode.Kind()
		c.surfaces[kind].Close()
		if c.trackers[kind].CancelPending() {
			c.logger.Info("Console", "Pending capture cancelled", map[string]interface{}{"kind": kind})
		}
	case c.mode.Measuring():
		c.engine.Leave()
	}
	c.mode = ModeNone
}

// Escape abandons the gesture in progress, or leaves the mode when nothing is in progress.
func (c *Coordinator) Escape() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.mode.Drawing():
		kind, _ := c.mode.Kind()
		s := c.surfaces[kind]
		if s.State().Dragging {
			s.Cancel()
		} else {
			c.leaveLocked()
		}
	case c.mode.Measuring():
		if c.engine.InProgress() {
			c.engine.Cancel()
		} else {
			c.leaveLocked()
		}
	default:
		return
	}
	c.publishLocked()
}

func (c *Coordinator) activeSurfaceLocked() (*capture.Surface, analysis.Kind, bool) {
	kind, ok := c.mode.Kind()
	if !ok {
		return nil, "", false
	}
	return c.surfaces[kind], kind, true
}

// PointerDown starts a drag on the active drawing surface. It reports whether the drag began.
func (c *Coordinator) PointerDown(pointerID int, p capture.Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, kind, ok := c.activeSurfaceLocked()
	if !ok {
		return false
	}
	c.syncSurfaceLocked(kind)
	return s.PointerDown(pointerID, p)
}

func (c *Coordinator) PointerMove(pointerID int, p capture.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, _, ok := c.activeSurfaceLocked(); ok {
		s.PointerMove(pointerID, p)
	}
}

// PointerUp finishes a drag. A large enough selection starts the analysis job for the mode.
func (c *Coordinator) PointerUp(pointerID int, p capture.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, _, ok := c.activeSurfaceLocked(); ok {
		s.PointerUp(pointerID, p)
		c.publishLocked()
	}
}

func (c *Coordinator) PointerLeave(pointerID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, _, ok := c.activeSurfaceLocked(); ok {
		s.PointerLeave(pointerID)
	}
}

func (c *Coordinator) LostCapture(pointerID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, _, ok := c.activeSurfaceLocked(); ok {
		s.LostCapture(pointerID)
	}
}

func (c *Coordinator) drawCompleteLocked(kind analysis.Kind, box capture.BoundingBox) {
	t := c.trackers[kind]
	s := c.surfaces[kind]

	if err := t.Client().Configured(); err != nil {
		t.Fail(err)
		return
	}
	if c.rect == nil {
		t.Fail(fmt.Errorf("%w: %s", analysis.ErrCapture, analysis.MsgMapUnavailable))
		return
	}
	region, ok := capture.ToCaptureRegion(box, *c.rect)
	if !ok {
		s.SetHighlight(nil)
		t.Fail(fmt.Errorf("%w: %s", analysis.ErrCapture, analysis.MsgOutsideMap))
		return
	}
	if c.raster == nil {
		t.Fail(fmt.Errorf("%w: %s", analysis.ErrCapture, analysis.MsgMapUnavailable))
		return
	}

	raster := c.raster
	t.Run(c.ctx, func(ctx context.Context) (string, error) {
		return raster.Rasterize(ctx, region)
	})
	s.SetDisabled(true)

	c.logger.Info("Console", "Selection accepted", map[string]interface{}{
		"kind":   kind,
		"region": region,
	})
}

// syncSurfaceLocked disables a surface while its job has work outstanding.
func (c *Coordinator) syncSurfaceLocked(kind analysis.Kind) {
	s := c.surfaces[kind]
	busy := c.trackers[kind].Snapshot().Phase.Busy()
	if busy != s.State().Disabled {
		s.SetDisabled(busy)
	}
}

// MapClick advances the measurement when a measuring mode is active.
func (c *Coordinator) MapClick(p measure.LatLng) *measure.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mode.Measuring() {
		return nil
	}
	res := c.engine.Click(p)
	c.notifier.Notify(events.New(events.MeasurementUpdated, map[string]interface{}{"measurement": c.engine.Snapshot()}))
	return res
}

// ContextMenu opens the mode menu unless a drawing surface is showing.
func (c *Coordinator) ContextMenu() ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, _, ok := c.activeSurfaceLocked(); ok && s.Active() {
		return ContextMenu{}
	}
	modes := []Mode{ModeMeasureArea, ModeMeasureDistance}
	for _, kind := range c.kindsLocked() {
		modes = append(modes, DrawModeFor(kind))
	}
	return ContextMenu{Open: true, Modes: modes}
}

// SetView applies a viewport change and tears the drawing mode down when its gate stops holding.
func (c *Coordinator) SetView(u ViewUpdate) ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view = c.view.apply(u)
	c.enforceGatesLocked()
	c.publishLocked()
	return c.view
}

func (c *Coordinator) enforceGatesLocked() {
	var reason string
	switch c.mode {
	case ModeRoofDraw:
		switch {
		case c.view.MapType != MapSatellite:
			reason = "map left satellite view"
		case c.view.StreetView:
			reason = "street view opened"
		case c.view.Zoom < c.cfg.RoofMinZoom:
			reason = "zoomed out below roof gate"
		}
	case ModeConstructionDraw:
		if !c.view.StreetView {
			reason = "street view closed"
		}
	}
	if reason == "" {
		return
	}
	c.logger.Info("Console", "Drawing torn down", map[string]interface{}{"mode": c.mode, "reason": reason})
	c.leaveLocked()
}

func (c *Coordinator) SetElementRect(rect capture.ElementRect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rect = &rect
}

// ClearJob returns the job to idle and drops the kept selection.
func (c *Coordinator) ClearJob(kind analysis.Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.trackerLocked(kind)
	if err != nil {
		return err
	}
	t.Clear()
	s := c.surfaces[kind]
	s.SetHighlight(nil)
	s.SetDisabled(false)
	c.publishLocked()
	return nil
}

// DrawAgain discards the job and reopens the drawing surface for kind.
func (c *Coordinator) DrawAgain(kind analysis.Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.trackerLocked(kind)
	if err != nil {
		return err
	}
	t.Clear()
	s := c.surfaces[kind]
	s.SetHighlight(nil)
	s.SetDisabled(false)

	if c.mode == DrawModeFor(kind) {
		s.Open()
	} else if err := c.setModeLocked(DrawModeFor(kind)); err != nil {
		c.publishLocked()
		return err
	}
	c.publishLocked()
	return nil
}

func (c *Coordinator) ClearMeasurement() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.engine.Reset()
	c.notifier.Notify(events.New(events.MeasurementUpdated, map[string]interface{}{"measurement": c.engine.Snapshot()}))
}

func (c *Coordinator) SetOverlay(name tiles.Name, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.catalogue.Get(name); err != nil {
		return err
	}
	c.overlays[name] = enabled
	c.publishLocked()
	return nil
}

func (c *Coordinator) Overlays() []OverlayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlaysLocked()
}

func (c *Coordinator) overlaysLocked() []OverlayState {
	list := c.catalogue.List()
	out := make([]OverlayState, len(list))
	for i, o := range list {
		out[i] = OverlayState{Overlay: o, Enabled: c.overlays[o.Name]}
	}
	return out
}

func (c *Coordinator) Job(kind analysis.Kind) (analysis.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.trackerLocked(kind)
	if err != nil {
		return analysis.Snapshot{}, err
	}
	return t.Snapshot(), nil
}

// Report renders whatever result the job holds. A nil report means no result yet.
func (c *Coordinator) Report(kind analysis.Kind) (*report.Report, error) {
	snap, err := c.Job(kind)
	if err != nil {
		return nil, err
	}
	return report.Render(kind, snap.Result)
}

// DownloadReport fetches the generated document of a completed construction job.
func (c *Coordinator) DownloadReport(ctx context.Context, kind analysis.Kind) (*analysis.ReportFile, error) {
	if kind != analysis.KindConstruction {
		return nil, ErrDownloadUnsupported
	}
	c.mu.Lock()
	t, err := c.trackerLocked(kind)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	snap := t.Snapshot()
	if snap.Phase != analysis.PhaseCompleted || snap.ID == "" {
		return nil, ErrJobNotCompleted
	}
	return t.Client().DownloadReport(ctx, snap.ID)
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Coordinator) stateLocked() State {
	st := State{
		Mode:        c.mode,
		View:        c.view,
		Query:       c.view.Query().Encode(),
		Surfaces:    map[analysis.Kind]capture.SurfaceState{},
		Jobs:        map[analysis.Kind]analysis.Snapshot{},
		Measurement: c.engine.Snapshot(),
		Overlays:    c.overlaysLocked(),
	}
	for kind, t := range c.trackers {
		if c.surfaces[kind].Active() {
			c.syncSurfaceLocked(kind)
		}
		st.Surfaces[kind] = c.surfaces[kind].State()
		st.Jobs[kind] = t.Snapshot()
	}
	return st
}

func (c *Coordinator) publishLocked() {
	c.notifier.Notify(events.New(events.ConsoleUpdated, map[string]interface{}{"state": c.stateLocked()}))
}

func (c *Coordinator) trackerLocked(kind analysis.Kind) (*analysis.Tracker, error) {
	t, ok := c.trackers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return t, nil
}

func (c *Coordinator) kindsLocked() []analysis.Kind {
	kinds := make([]analysis.Kind, 0, len(c.trackers))
	for k := range c.trackers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Close aborts every job and waits for their goroutines.
func (c *Coordinator) Close() {
	c.cancel()
	c.mu.Lock()
	trackers := make([]*analysis.Tracker, 0, len(c.trackers))
	for _, t := range c.trackers {
		trackers = append(trackers, t)
	}
	c.mu.Unlock()

	for _, t := range trackers {
		t.Close()
	}
}
