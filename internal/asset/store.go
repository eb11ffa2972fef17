package asset

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/render"
)

// Saver persists the store's current contents. Save must not block on the
// network; failures are the saver's to report.
type Saver interface {
	Save(ctx context.Context)
}

// StoreConfig holds configuration for the asset store.
type StoreConfig struct {
	// Renderer draws the asset layer. Required.
	Renderer render.Adapter

	// Saver is notified after Remove and ResetAll (optional).
	Saver Saver

	// Logger for store operations.
	Logger zerolog.Logger
}

type cctvEntry struct {
	CCTV
	marker render.Handle
}

type safeEntry struct {
	SafeLocation
	marker render.Handle
}

type dangerEntry struct {
	DangerZone
	marker render.Handle
	circle render.Handle
}

// Store is the single source of truth for what the asset layer shows.
// Every mutation updates the renderer in the same call, so store membership
// and the drawn layer always agree.
//
// Store is not safe for concurrent use; it is owned by the engine loop.
type Store struct {
	renderer render.Adapter
	saver    Saver
	logger   zerolog.Logger

	cctv   []cctvEntry
	danger []dangerEntry
	safe   []safeEntry
	urgent geo.Path
}

// NewStore creates an empty store.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		renderer: cfg.Renderer,
		saver:    cfg.Saver,
		logger:   cfg.Logger,
	}
}

// SetSaver attaches the saver notified by mutating operations.
func (s *Store) SetSaver(saver Saver) {
	s.saver = saver
}

// AddCCTV appends a camera and draws it.
func (s *Store) AddCCTV(c CCTV) {
	s.cctv = append(s.cctv, cctvEntry{CCTV: c, marker: s.drawCCTV(c)})
}

// AddSafeLocation appends a safe location and draws it.
func (s *Store) AddSafeLocation(l SafeLocation) {
	s.safe = append(s.safe, safeEntry{SafeLocation: l, marker: s.drawSafe(l)})
}

// AddDangerZone appends a danger zone and draws its marker and circle.
func (s *Store) AddDangerZone(d DangerZone) {
	if d.RadiusMeters <= 0 {
		d.RadiusMeters = DefaultDangerRadius
	}
	marker, circle := s.drawDanger(d)
	s.danger = append(s.danger, dangerEntry{DangerZone: d, marker: marker, circle: circle})
}

// Remove deletes the first asset whose position equals pos within geo.Epsilon.
// Cameras are searched first, then danger zones, then safe locations. A
// removed danger zone takes its circle with it. When something was removed
// the saver is notified; no match is a no-op.
func (s *Store) Remove(ctx context.Context, pos geo.Coordinate) (Removed, bool) {
	removed, ok := s.removeFirst(pos)
	if !ok {
		s.logger.Debug().
			Float64("lat", pos.Lat).
			Float64("lng", pos.Lng).
			Msg("no asset at position, nothing removed")
		return Removed{}, false
	}

	s.logger.Info().
		Str("collection", string(removed.Collection)).
		Str("label", removed.Label).
		Float64("lat", pos.Lat).
		Float64("lng", pos.Lng).
		Msg("asset removed")

	s.save(ctx)
	return removed, true
}

func (s *Store) removeFirst(pos geo.Coordinate) (Removed, bool) {
	for i, e := range s.cctv {
		if e.Position.Equal(pos) {
			s.renderer.Remove(e.marker)
			s.cctv = append(s.cctv[:i], s.cctv[i+1:]...)
			return Removed{Collection: CollectionCCTV, Position: e.Position, Label: e.ID}, true
		}
	}
	for i, e := range s.danger {
		if e.Position.Equal(pos) {
			s.renderer.Remove(e.marker)
			s.renderer.Remove(e.circle)
			s.danger = append(s.danger[:i], s.danger[i+1:]...)
			return Removed{Collection: CollectionCriminal, Position: e.Position, Label: e.Label}, true
		}
	}
	for i, e := range s.safe {
		if e.Position.Equal(pos) {
			s.renderer.Remove(e.marker)
			s.safe = append(s.safe[:i], s.safe[i+1:]...)
			return Removed{Collection: CollectionSafe, Position: e.Position, Label: e.Name}, true
		}
	}
	return Removed{}, false
}

// ReplaceAll merges a loaded snapshot into the store: every present (non-nil)
// field replaces the current one, absent fields are kept. The asset layer is
// redrawn from scratch. It does not notify the saver.
func (s *Store) ReplaceAll(snap Snapshot) {
	current := s.Snapshot()
	if snap.CCTV != nil {
		current.CCTV = snap.CCTV
	}
	if snap.Criminal != nil {
		current.Criminal = snap.Criminal
	}
	if snap.Safe != nil {
		current.Safe = snap.Safe
	}
	if snap.UrgentRoute != nil {
		current.UrgentRoute = snap.UrgentRoute
	}

	s.renderer.ClearLayer(render.LayerAssets)
	s.cctv, s.danger, s.safe = nil, nil, nil
	s.urgent = current.UrgentRoute.Clone()

	for _, c := range current.CCTV {
		s.AddCCTV(c)
	}
	for _, d := range current.Criminal {
		s.AddDangerZone(d)
	}
	for _, l := range current.Safe {
		s.AddSafeLocation(l)
	}

	counts := s.Counts()
	s.logger.Debug().
		Int("cctv", counts.CCTV).
		Int("criminal", counts.Criminal).
		Int("safe", counts.Safe).
		Bool("urgent_route", s.urgent != nil).
		Msg("asset store replaced")
}

// ResetAll empties every collection and the urgent route, clears the layer and
// asks the saver to persist the empty snapshot.
func (s *Store) ResetAll(ctx context.Context) {
	s.renderer.ClearLayer(render.LayerAssets)
	s.cctv, s.danger, s.safe = nil, nil, nil
	s.urgent = nil

	s.logger.Warn().Msg("asset store reset")
	s.save(ctx)
}

// SetUrgentRoute promotes path to the saved urgent route and notifies the saver.
func (s *Store) SetUrgentRoute(ctx context.Context, path geo.Path) {
	s.urgent = path.Clone()
	s.save(ctx)
}

// UrgentRoute returns the saved urgent route, or nil.
func (s *Store) UrgentRoute() geo.Path {
	return s.urgent.Clone()
}

// Save asks the saver to persist the current contents.
func (s *Store) Save(ctx context.Context) {
	s.save(ctx)
}

func (s *Store) save(ctx context.Context) {
	if s.saver != nil {
		s.saver.Save(ctx)
	}
}

// Snapshot returns a deep copy of the current contents.
func (s *Store) Snapshot() Snapshot {
	snap := Empty()
	for _, e := range s.cctv {
		snap.CCTV = append(snap.CCTV, e.CCTV)
	}
	for _, e := range s.danger {
		snap.Criminal = append(snap.Criminal, e.DangerZone)
	}
	for _, e := range s.safe {
		snap.Safe = append(snap.Safe, e.SafeLocation)
	}
	snap.UrgentRoute = s.urgent.Clone()
	return snap
}

// Counts returns the number of assets per collection.
func (s *Store) Counts() Counts {
	return Counts{CCTV: len(s.cctv), Criminal: len(s.danger), Safe: len(s.safe)}
}

func (s *Store) drawCCTV(c CCTV) render.Handle {
	return s.renderer.PlaceMarker(render.LayerAssets, render.MarkerSpec{
		Position:  c.Position,
		Icon:      render.IconCCTV,
		Popup:     c.ID + "\nStatus: Active",
		Deletable: true,
	})
}

func (s *Store) drawSafe(l SafeLocation) render.Handle {
	icon := render.IconPolice
	switch l.Kind {
	case KindPatrol:
		icon = render.IconPatrol
	case KindChauki:
		icon = render.IconChauki
	}
	return s.renderer.PlaceMarker(render.LayerAssets, render.MarkerSpec{
		Position:  l.Position,
		Icon:      icon,
		Popup:     l.Name + "\n" + strings.ToUpper(string(l.Kind)),
		Deletable: true,
	})
}

func (s *Store) drawDanger(d DangerZone) (marker, circle render.Handle) {
	marker = s.renderer.PlaceMarker(render.LayerAssets, render.MarkerSpec{
		Position:  d.Position,
		Icon:      render.IconDanger,
		Popup:     fmt.Sprintf("DANGER: %s\nAvoid this area", d.Label),
		Deletable: true,
	})
	circle = s.renderer.PlaceCircle(render.LayerAssets, d.Position, d.RadiusMeters)
	return marker, circle
}
