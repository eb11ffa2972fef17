// Package engine owns all map state on a single goroutine and applies typed
// commands to it one at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/saferoute/saferoute/internal/asset"
	"github.com/saferoute/saferoute/internal/mapdata"
	"github.com/saferoute/saferoute/internal/mode"
	"github.com/saferoute/saferoute/internal/render"
	"github.com/saferoute/saferoute/internal/route"
	"github.com/saferoute/saferoute/internal/telemetry"
)

// ErrStopped is returned by Submit once Run has returned.
var ErrStopped = errors.New("engine stopped")

// Notices for mode changes and admin actions.
const (
	NoticeEditMode     = "Edit Mode Enabled: Click on map to add assets. Click existing assets to delete."
	NoticeCustomize    = "Customize Mode: Click anywhere on the map to force the route to go through that point."
	NoticeReset        = "Map data reset."
	NoticeUrgentActive = "Urgent help requested. Follow the red route to "
)

// Gateway persists snapshots. Save must not block on the network.
type Gateway interface {
	Save(ctx context.Context, snap asset.Snapshot)
	Load(ctx context.Context) (*asset.Snapshot, error)
	Reload(ctx context.Context) (*asset.Snapshot, error)
}

// Alerter sends urgent help reports without blocking.
type Alerter interface {
	Notify(ctx context.Context, report mapdata.UrgentReportRequest)
}

// Config holds the engine's dependencies.
type Config struct {
	// Renderer draws the map. Required.
	Renderer render.Adapter

	// Gateway persists assets (optional; without it nothing is saved or loaded).
	Gateway Gateway

	// Alerter sends urgent reports (optional).
	Alerter Alerter

	// Seed is drawn before the first load (default: asset.Seed()).
	Seed *asset.Snapshot

	// Places resolves typed endpoints (default: route.DefaultPlaces()).
	Places route.Places

	// QueueSize is the command buffer size (default: 64).
	QueueSize int

	// Now returns the current time (default: time.Now).
	Now func() time.Time

	// Logger for engine operations.
	Logger zerolog.Logger
}

type envelope struct {
	ctx   context.Context
	cmd   Command
	reply chan Result
}

// Engine is the explicit state object of the map. All fields below are
// touched only by the goroutine running Run.
type Engine struct {
	renderer render.Adapter
	gateway  Gateway
	alerter  Alerter
	places   route.Places
	now      func() time.Time
	logger   zerolog.Logger

	store    *asset.Store
	modes    *mode.Controller
	composer *route.Composer
	layer    *route.Layer

	start     string
	end       string
	waypoints []route.Waypoint
	urgent    bool
	seed      asset.Snapshot

	cmds chan envelope
	done chan struct{}

	// loading counts fetches whose applySnapshot has not run yet; idle
	// waiters are released when it drops to zero.
	loading int
	idle    []chan struct{}

	processed metric.Int64Counter
}

// New creates an engine. Call Run to start it.
func New(cfg Config) *Engine {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	places := cfg.Places
	if places == nil {
		places = route.DefaultPlaces()
	}
	seed := asset.Seed()
	if cfg.Seed != nil {
		seed = cfg.Seed.Clone()
	}

	e := &Engine{
		renderer: cfg.Renderer,
		gateway:  cfg.Gateway,
		alerter:  cfg.Alerter,
		places:   places,
		now:      now,
		logger:   cfg.Logger,
		modes:    mode.NewController(cfg.Logger),
		composer: route.NewComposer(route.ComposerConfig{Logger: cfg.Logger}),
		layer:    route.NewLayer(cfg.Renderer),
		seed:     seed,
		cmds:     make(chan envelope, queueSize),
		done:     make(chan struct{}),
	}

	e.store = asset.NewStore(asset.StoreConfig{
		Renderer: cfg.Renderer,
		Logger:   cfg.Logger,
	})
	if e.gateway != nil {
		e.store.SetSaver(storeSaver{e})
	}

	e.processed, _ = telemetry.Meter("saferoute/engine").Int64Counter(
		"engine.commands.processed",
		metric.WithDescription("Commands applied by the engine"),
	)

	return e
}

// storeSaver hands the store's current contents to the gateway. It runs on
// the engine goroutine, so reading the store here is safe.
type storeSaver struct{ e *Engine }

func (s storeSaver) Save(ctx context.Context) {
	s.e.gateway.Save(ctx, s.e.store.Snapshot())
}

// Run draws the seed assets, starts the initial load and applies commands
// until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	e.store.ReplaceAll(e.seed)
	e.renderer.SetLayerVisible(render.LayerAssets, false)
	e.loadAsync(ctx)

	e.logger.Info().
		Int("cctv", e.store.Counts().CCTV).
		Int("safe", e.store.Counts().Safe).
		Msg("engine started")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("engine stopped")
			return ctx.Err()
		case env := <-e.cmds:
			res := e.apply(env.ctx, env.cmd)
			if e.processed != nil {
				e.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("command", commandName(env.cmd))))
			}
			env.reply <- res
		}
	}
}

// Submit hands cmd to the engine and waits for its Result.
func (e *Engine) Submit(ctx context.Context, cmd Command) (Result, error) {
	env := envelope{ctx: ctx, cmd: cmd, reply: make(chan Result, 1)}

	select {
	case e.cmds <- env:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		return Result{}, ErrStopped
	}

	select {
	case res := <-env.reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		return Result{}, ErrStopped
	}
}

// Sync waits until every background load started so far has been applied.
// It may be called before Run; it then waits for the initial load.
func (e *Engine) Sync(ctx context.Context) error {
	idle := make(chan struct{})
	if _, err := e.Submit(ctx, awaitIdle{idle: idle}); err != nil {
		return err
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

// loadAsync fetches the snapshot off the engine goroutine; the result comes
// back as an applySnapshot command.
func (e *Engine) loadAsync(ctx context.Context) {
	if e.gateway == nil {
		return
	}
	e.fetchAsync(ctx, e.gateway.Load)
}

// reloadAsync waits for queued saves before loading.
func (e *Engine) reloadAsync(ctx context.Context) {
	if e.gateway == nil {
		return
	}
	e.fetchAsync(ctx, e.gateway.Reload)
}

// fetchAsync must run on the engine goroutine.
func (e *Engine) fetchAsync(ctx context.Context, fetch func(context.Context) (*asset.Snapshot, error)) {
	// Detach from the caller's request; the engine context still bounds it.
	loadCtx := context.WithoutCancel(ctx)

	e.loading++
	go func() {
		snap, err := fetch(loadCtx)
		_, _ = e.Submit(loadCtx, applySnapshot{snap: snap, err: err})
	}()
}

func (e *Engine) apply(ctx context.Context, cmd Command) Result {
	var res Result

	switch c := cmd.(type) {
	case AddAsset:
		res.Err = e.addAsset(ctx, c)
	case RemoveAsset:
		if removed, ok := e.store.Remove(ctx, c.Position); ok {
			res.Removed = &removed
		}
	case ToggleAdmin:
		if e.modes.ToggleAdmin() {
			e.renderer.SetLayerVisible(render.LayerAssets, true)
			res.Notice = NoticeEditMode
		}
		res.Route = e.recompose()
		res.background = true
	case SelectAssetType:
		res.Err = e.modes.SelectAssetType(c.Type)
	case SetRadius:
		res.Err = e.modes.SetRadius(c.Meters)
	case ToggleCustomize:
		if e.modes.ToggleCustomize() {
			res.Notice = NoticeCustomize
		}
		res.Route = e.recompose()
		res.background = true
	case AddWaypoint:
		res.Route = e.addWaypoint(c.Position)
	case ClearWaypoints:
		e.waypoints = nil
		e.layer.ClearViaPoints()
		res.Route = e.findRoute(false)
		if res.Route.Drawn() {
			res.Notice = route.NoticeWaypointsCleared
		}
	case MapClick:
		res = e.mapClick(ctx, c)
	case SetEndpoints:
		e.start, e.end = c.Start, c.End
		if p, ok := e.resolvePlace(c.Start); ok {
			e.layer.SetStart(p.Position)
		}
		res.Route = e.recompose()
		res.background = true
	case UseMyLocation:
		e.start = route.OriginName
		e.layer.SetStart(route.Origin)
		res.Route = e.recompose()
		res.background = true
	case FindRoute:
		res.Route = e.findRoute(c.Silent)
	case SaveUrgent:
		res.Notice, res.Err = e.saveUrgent(ctx)
	case ToggleUrgent:
		res.Route, res.Notice = e.toggleUrgent(ctx, c.On)
	case ResetAll:
		// The empty snapshot is queued here, on the engine goroutine, so the
		// reload cannot overtake it or a later save.
		e.store.ResetAll(ctx)
		e.reloadAsync(ctx)
		res.Notice = NoticeReset
	case Reload:
		e.loadAsync(ctx)
	case Inspect:
	case awaitIdle:
		if e.loading == 0 {
			close(c.idle)
		} else {
			e.idle = append(e.idle, c.idle)
		}
	case applySnapshot:
		e.applySnapshot(c)
	default:
		res.Err = fmt.Errorf("unknown command %T", cmd)
	}

	if res.Route != nil && res.Route.Err != nil && res.Err == nil && !res.background {
		res.Err = res.Route.Err
		if res.Notice == "" {
			res.Notice = res.Route.Notice
		}
	}
	res.State = e.state()
	return res
}

func (e *Engine) mapClick(ctx context.Context, c MapClick) Result {
	action := e.modes.Dispatch(c.Position)
	res := Result{Action: &action}

	switch action.Kind {
	case mode.ActionAddWaypoint:
		res.Route = e.addWaypoint(c.Position)
	case mode.ActionPlaceAsset:
		res.Err = e.addAsset(ctx, AddAsset{Type: action.AssetType, Position: c.Position, Radius: action.Radius})
	case mode.ActionSetStart:
		e.start = c.Position.Label()
		e.layer.SetStart(c.Position)
		res.Route = e.recompose()
		res.background = true
	}
	return res
}

// resolvePlace finds a typed endpoint: an exact name, or else the only
// place whose name contains the text.
func (e *Engine) resolvePlace(text string) (route.Place, bool) {
	if text == "" {
		return route.Place{}, false
	}
	if p, ok := e.places.Lookup(text); ok {
		return p, true
	}
	if matches := e.places.Search(text); len(matches) == 1 {
		return matches[0], true
	}
	return route.Place{}, false
}

// addAsset places an asset and saves.
func (e *Engine) addAsset(ctx context.Context, c AddAsset) error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", mode.ErrUnknownAssetType, c.Type)
	}
	if err := c.Position.Validate(); err != nil {
		return err
	}

	switch c.Type {
	case asset.TypeCCTV:
		id := c.Label
		if id == "" {
			id = fmt.Sprintf("CCTV-%d", e.now().UnixMilli())
		}
		e.store.AddCCTV(asset.CCTV{ID: id, Position: c.Position})
	case asset.TypeDanger:
		radius := c.Radius
		if radius == 0 {
			radius = e.modes.Radius()
		}
		if radius < asset.MinDangerRadius || radius > asset.MaxDangerRadius {
			return fmt.Errorf("%w: %d", mode.ErrInvalidRadius, radius)
		}
		label := c.Label
		if label == "" {
			label = "Manual Report"
		}
		e.store.AddDangerZone(asset.DangerZone{Label: label, Position: c.Position, RadiusMeters: radius})
	default:
		kind, name := safeDefaults(c.Type)
		if c.Label != "" {
			name = c.Label
		}
		e.store.AddSafeLocation(asset.SafeLocation{Name: name, Kind: kind, Position: c.Position})
	}

	e.logger.Info().
		Str("type", string(c.Type)).
		Float64("lat", c.Position.Lat).
		Float64("lng", c.Position.Lng).
		Msg("asset added")

	e.store.Save(ctx)
	return nil
}

func safeDefaults(t asset.Type) (asset.SafeKind, string) {
	switch t {
	case asset.TypeChauki:
		return asset.KindChauki, "New Chauki"
	case asset.TypePatrol:
		return asset.KindPatrol, "New Patrol"
	default:
		return asset.KindPolice, "New Police Station"
	}
}

func (e *Engine) addWaypoint(pos route.Waypoint) *route.Result {
	e.waypoints = append(e.waypoints, pos)
	e.layer.AddViaPoint(pos)
	return e.findRoute(true)
}

// recompose redraws the route after an input change. It is silent, and a
// rejection is reported in the Result without becoming a command error.
func (e *Engine) recompose() *route.Result {
	return e.findRoute(true)
}

func (e *Engine) findRoute(silent bool) *route.Result {
	res := e.composer.Compose(route.Request{
		Start:       e.start,
		End:         e.end,
		UrgentRoute: e.store.UrgentRoute(),
		Waypoints:   e.waypoints,
		Silent:      silent,
	})
	if res.Drawn() {
		e.renderer.SetLayerVisible(render.LayerAssets, true)
		e.layer.Draw(res, render.SearchLine)
	}
	return &res
}

func (e *Engine) saveUrgent(ctx context.Context) (string, error) {
	if !e.layer.HasRoute() {
		return route.NoticeNoRoute, route.ErrNoRoute
	}
	e.store.SetUrgentRoute(ctx, e.layer.Path())
	return route.NoticeUrgentSaved, nil
}

func (e *Engine) toggleUrgent(ctx context.Context, on bool) (*route.Result, string) {
	e.urgent = on
	if !on {
		e.renderer.SetLayerVisible(render.LayerAssets, false)
		e.start, e.end = "", ""
		e.layer.Clear()
		return nil, ""
	}

	e.renderer.SetLayerVisible(render.LayerAssets, true)
	e.start, e.end = route.OriginName, route.DestinationName

	res := e.composer.Compose(route.Request{
		Start:       e.start,
		End:         e.end,
		UrgentRoute: e.store.UrgentRoute(),
		Silent:      true,
	})
	e.layer.Draw(res, render.UrgentLine)

	if e.alerter != nil {
		e.alerter.Notify(ctx, mapdata.UrgentReportRequest{
			CurrentLocation: route.OriginName,
			Destination:     route.DestinationName,
			Coords: &mapdata.ReportLocation{
				Name: route.OriginName,
				Lat:  route.Origin.Lat,
				Lng:  route.Origin.Lng,
			},
		})
	}

	e.logger.Warn().
		Str("destination", route.DestinationName).
		Msg("urgent mode activated")
	return &res, NoticeUrgentActive + route.DestinationName
}

func (e *Engine) applySnapshot(c applySnapshot) {
	defer e.releaseIdle()

	if c.err != nil {
		// Already logged by the gateway; the UI keeps what it shows.
		e.logger.Debug().Err(c.err).Msg("load failed, keeping current assets")
		return
	}
	if c.snap == nil {
		return
	}
	e.store.ReplaceAll(*c.snap)
}

// releaseIdle marks one fetch as applied and wakes Sync callers once none
// are outstanding.
func (e *Engine) releaseIdle() {
	if e.loading > 0 {
		e.loading--
	}
	if e.loading > 0 {
		return
	}
	for _, ch := range e.idle {
		close(ch)
	}
	e.idle = nil
}

func (e *Engine) state() State {
	st := State{
		Mode:        e.modes.Mode(),
		AssetType:   e.modes.AssetType(),
		Radius:      e.modes.Radius(),
		Counts:      e.store.Counts(),
		Start:       e.start,
		End:         e.end,
		Waypoints:   append([]route.Waypoint(nil), e.waypoints...),
		Urgent:      e.urgent,
		RouteDrawn:  e.layer.HasRoute(),
		RoutePath:   e.layer.Path(),
		RouteMeters: e.layer.Path().Length(),
		UrgentRoute: e.store.UrgentRoute(),
	}
	return st
}

func commandName(cmd Command) string {
	switch cmd.(type) {
	case applySnapshot:
		return "apply_snapshot"
	case awaitIdle:
		return "await_idle"
	default:
		return fmt.Sprintf("%T", cmd)
	}
}
