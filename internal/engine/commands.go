package engine

import (
	"github.com/saferoute/saferoute/internal/asset"
	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/mode"
	"github.com/saferoute/saferoute/internal/route"
)

// Command is an input to the engine. Every user gesture and every network
// response becomes a Command applied on the engine goroutine.
type Command interface {
	command()
}

// AddAsset places an asset regardless of mode. Label and Radius are
// optional; defaults follow the admin form.
type AddAsset struct {
	Type     asset.Type
	Position geo.Coordinate
	Label    string
	Radius   int
}

// RemoveAsset deletes the asset at Position.
type RemoveAsset struct {
	Position geo.Coordinate
}

// ToggleAdmin flips admin edit mode.
type ToggleAdmin struct{}

// SelectAssetType sets the type placed by admin clicks.
type SelectAssetType struct {
	Type asset.Type
}

// SetRadius sets the danger radius placed by admin clicks.
type SetRadius struct {
	Meters int
}

// ToggleCustomize flips customize mode.
type ToggleCustomize struct{}

// AddWaypoint appends a via-point and recomposes the route silently.
type AddWaypoint struct {
	Position geo.Coordinate
}

// ClearWaypoints drops every via-point and recomposes the route.
type ClearWaypoints struct{}

// MapClick is a click on the map, routed by the current mode.
type MapClick struct {
	Position geo.Coordinate
}

// SetEndpoints sets the start and end inputs.
type SetEndpoints struct {
	Start string
	End   string
}

// UseMyLocation fills the start input with the origin anchor.
type UseMyLocation struct{}

// FindRoute composes and draws the route.
type FindRoute struct {
	Silent bool
}

// SaveUrgent promotes the drawn route to the urgent route.
type SaveUrgent struct{}

// ToggleUrgent turns urgent help on or off.
type ToggleUrgent struct {
	On bool
}

// ResetAll clears every asset, saves and reloads.
type ResetAll struct{}

// Reload fetches the stored snapshot and merges it into the store.
type Reload struct{}

// Inspect changes nothing; its Result carries the current State.
type Inspect struct{}

// awaitIdle closes idle once no load is outstanding.
type awaitIdle struct {
	idle chan struct{}
}

// applySnapshot carries a load result back onto the engine goroutine.
type applySnapshot struct {
	snap *asset.Snapshot
	err  error
}

func (AddAsset) command()        {}
func (RemoveAsset) command()     {}
func (ToggleAdmin) command()     {}
func (SelectAssetType) command() {}
func (SetRadius) command()       {}
func (ToggleCustomize) command() {}
func (AddWaypoint) command()     {}
func (ClearWaypoints) command()  {}
func (MapClick) command()        {}
func (SetEndpoints) command()    {}
func (UseMyLocation) command()   {}
func (FindRoute) command()       {}
func (SaveUrgent) command()      {}
func (ToggleUrgent) command()    {}
func (ResetAll) command()        {}
func (Reload) command()          {}
func (Inspect) command()         {}
func (awaitIdle) command()       {}
func (applySnapshot) command()   {}

// State is a read-only view of the engine after a command.
type State struct {
	Mode        mode.Mode
	AssetType   asset.Type
	Radius      int
	Counts      asset.Counts
	Start       string
	End         string
	Waypoints   []route.Waypoint
	Urgent      bool
	RouteDrawn  bool
	RoutePath   []geo.Coordinate
	RouteMeters float64
	UrgentRoute []geo.Coordinate
}

// Result is the outcome of one command.
type Result struct {
	// Err is a user-input error; network errors never appear here.
	Err error

	// Notice is the message shown to the user, if any.
	Notice string

	// Action is set for MapClick.
	Action *mode.Action

	// Route is set when the command composed a route.
	Route *route.Result

	// Removed is set when RemoveAsset removed something.
	Removed *asset.Removed

	State State

	// background marks a route recomputed as a side effect; its rejection
	// is not an error of the command.
	background bool
}
