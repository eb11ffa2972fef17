// Package mode tracks which interaction mode the map is in and decides what
// a map click means in that mode.
package mode

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/asset"
	"github.com/saferoute/saferoute/internal/geo"
)

// Sentinel errors for mode changes.
var (
	ErrInvalidRadius    = errors.New("danger radius out of range")
	ErrUnknownAssetType = errors.New("unknown asset type")
)

// Mode is the current interaction mode.
type Mode int

const (
	Normal Mode = iota
	AdminEdit
	Customize
)

func (m Mode) String() string {
	switch m {
	case AdminEdit:
		return "admin_edit"
	case Customize:
		return "customize"
	default:
		return "normal"
	}
}

// ActionKind says which handler a click is routed to.
type ActionKind int

const (
	// ActionSetStart fills the start input with the clicked position.
	ActionSetStart ActionKind = iota
	// ActionPlaceAsset places an asset of the selected type.
	ActionPlaceAsset
	// ActionAddWaypoint appends a via-point to the custom route.
	ActionAddWaypoint
)

func (k ActionKind) String() string {
	switch k {
	case ActionPlaceAsset:
		return "place_asset"
	case ActionAddWaypoint:
		return "add_waypoint"
	default:
		return "set_start"
	}
}

// Action is the outcome of dispatching a click.
type Action struct {
	Kind     ActionKind
	Position geo.Coordinate

	// AssetType and Radius are set for ActionPlaceAsset.
	AssetType asset.Type
	Radius    int
}

// Controller holds the interaction mode. Admin settings (asset type and
// radius) survive leaving admin mode, the way the form inputs keep their
// values.
//
// Controller is not safe for concurrent use.
type Controller struct {
	mode      Mode
	assetType asset.Type
	radius    int
	logger    zerolog.Logger
}

// NewController creates a controller in Normal mode with CCTV selected and
// the default danger radius.
func NewController(logger zerolog.Logger) *Controller {
	return &Controller{
		mode:      Normal,
		assetType: asset.TypeCCTV,
		radius:    asset.DefaultDangerRadius,
		logger:    logger,
	}
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode { return c.mode }

// AssetType returns the asset type placed by admin clicks.
func (c *Controller) AssetType() asset.Type { return c.assetType }

// Radius returns the danger radius placed by admin clicks.
func (c *Controller) Radius() int { return c.radius }

// EnterAdmin switches to admin edit mode, leaving customize if active.
func (c *Controller) EnterAdmin() {
	c.set(AdminEdit)
}

// ExitAdmin returns to Normal. It does nothing when admin mode is not active.
func (c *Controller) ExitAdmin() {
	if c.mode == AdminEdit {
		c.set(Normal)
	}
}

// ToggleAdmin flips admin edit mode and reports whether it is now active.
func (c *Controller) ToggleAdmin() bool {
	if c.mode == AdminEdit {
		c.ExitAdmin()
		return false
	}
	c.EnterAdmin()
	return true
}

// ToggleCustomize flips customize mode and reports whether it is now active.
// Entering customize leaves admin edit.
func (c *Controller) ToggleCustomize() bool {
	if c.mode == Customize {
		c.set(Normal)
		return false
	}
	c.set(Customize)
	return true
}

// SelectAssetType sets the type placed by admin clicks.
func (c *Controller) SelectAssetType(t asset.Type) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAssetType, t)
	}
	c.assetType = t
	return nil
}

// SetRadius sets the danger zone radius. Values outside 50..500 are rejected
// and the previous radius is kept.
func (c *Controller) SetRadius(meters int) error {
	if meters < asset.MinDangerRadius || meters > asset.MaxDangerRadius {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidRadius, meters, asset.MinDangerRadius, asset.MaxDangerRadius)
	}
	c.radius = meters
	return nil
}

// Dispatch routes a map click. Customize takes priority over admin edit;
// with the modes exclusive only one can be active anyway.
func (c *Controller) Dispatch(pos geo.Coordinate) Action {
	switch c.mode {
	case Customize:
		return Action{Kind: ActionAddWaypoint, Position: pos}
	case AdminEdit:
		return Action{Kind: ActionPlaceAsset, Position: pos, AssetType: c.assetType, Radius: c.radius}
	default:
		return Action{Kind: ActionSetStart, Position: pos}
	}
}

func (c *Controller) set(m Mode) {
	if c.mode == m {
		return
	}
	c.logger.Info().
		Str("from", c.mode.String()).
		Str("to", m.String()).
		Msg("mode changed")
	c.mode = m
}
