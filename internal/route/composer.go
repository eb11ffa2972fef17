package route

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/pkg/polyline"
)

// ComposerConfig holds configuration for the composer.
type ComposerConfig struct {
	// BasePath is used when the request carries no urgent route
	// (default: DefaultPath).
	BasePath geo.Path

	// Logger for composer operations.
	Logger zerolog.Logger
}

// Composer derives the displayed path and its marker roles. It does not
// search for paths; the geometry is the base path plus user waypoints.
type Composer struct {
	basePath geo.Path
	logger   zerolog.Logger
}

// NewComposer creates a composer.
func NewComposer(cfg ComposerConfig) *Composer {
	base := cfg.BasePath
	if len(base) == 0 {
		base = DefaultPath()
	}
	return &Composer{
		basePath: base.Clone(),
		logger:   cfg.Logger,
	}
}

// Compose builds the route for req. Rejections are reported in the Result,
// never as a panic or partial draw.
func (c *Composer) Compose(req Request) Result {
	if strings.TrimSpace(req.Start) == "" || strings.TrimSpace(req.End) == "" {
		return c.reject(req, ErrMissingEndpoints, NoticeMissingEndpoints)
	}

	base := c.basePath
	if len(req.UrgentRoute) > 0 {
		base = req.UrgentRoute
	}

	path := make(geo.Path, 0, len(base)+len(req.Waypoints))
	path = append(path, base...)
	path = append(path, req.Waypoints...)

	if len(path) < 2 {
		return c.reject(req, ErrTooFewPoints, "")
	}

	c.logger.Debug().
		Int("points", len(path)).
		Int("waypoints", len(req.Waypoints)).
		Bool("urgent_base", len(req.UrgentRoute) > 0).
		Msg("route composed")

	return Result{
		Status:  StatusDrawn,
		Path:    path,
		Points:  Roles(path),
		Encoded: Encode(path),
	}
}

func (c *Composer) reject(req Request, err error, notice string) Result {
	c.logger.Debug().
		Err(err).
		Bool("silent", req.Silent).
		Msg("route rejected")

	res := Result{Status: StatusRejected, Err: err}
	if !req.Silent {
		res.Notice = notice
	}
	return res
}

// Roles assigns a marker role to every point of path: the first point gets
// none, the last is the destination and everything between is a waypoint.
func Roles(path geo.Path) []Point {
	points := make([]Point, len(path))
	last := len(path) - 1
	for i, p := range path {
		role := RoleWaypoint
		switch i {
		case last:
			role = RoleDestination
		case 0:
			role = RoleNone
		}
		points[i] = Point{Position: p, Role: role}
	}
	return points
}

// Encode returns path as an encoded polyline.
func Encode(path geo.Path) string {
	coords := make([]polyline.Coordinate, len(path))
	for i, p := range path {
		coords[i] = polyline.Coordinate{Lat: p.Lat, Lng: p.Lng}
	}
	return polyline.Encode(coords)
}
