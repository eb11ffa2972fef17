package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saferoute/saferoute/internal/asset"
	"github.com/saferoute/saferoute/internal/geo"
)

// ErrUnknownCommand is returned by DecodeCommand for an unrecognized op.
var ErrUnknownCommand = errors.New("unknown command")

// wireCommand is the JSON form of a command, one object per line:
//
//	{"op":"map_click","lat":19.1,"lng":72.84}
//	{"op":"set_endpoints","start":"DJ Sanghvi College","end":"Juhu Police Station"}
type wireCommand struct {
	Op     string  `json:"op"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Type   string  `json:"type"`
	Label  string  `json:"label"`
	Radius int     `json:"radius"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	On     bool    `json:"on"`
	Silent bool    `json:"silent"`
}

// DecodeCommand parses one JSON command.
func DecodeCommand(data []byte) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding command: %w", err)
	}

	pos := geo.Coordinate{Lat: w.Lat, Lng: w.Lng}

	switch w.Op {
	case "add_asset":
		return AddAsset{Type: asset.Type(w.Type), Position: pos, Label: w.Label, Radius: w.Radius}, nil
	case "remove_asset":
		return RemoveAsset{Position: pos}, nil
	case "toggle_admin":
		return ToggleAdmin{}, nil
	case "select_asset_type":
		return SelectAssetType{Type: asset.Type(w.Type)}, nil
	case "set_radius":
		return SetRadius{Meters: w.Radius}, nil
	case "toggle_customize":
		return ToggleCustomize{}, nil
	case "add_waypoint":
		return AddWaypoint{Position: pos}, nil
	case "clear_waypoints":
		return ClearWaypoints{}, nil
	case "map_click":
		return MapClick{Position: pos}, nil
	case "set_endpoints":
		return SetEndpoints{Start: w.Start, End: w.End}, nil
	case "use_my_location":
		return UseMyLocation{}, nil
	case "find_route":
		return FindRoute{Silent: w.Silent}, nil
	case "save_urgent":
		return SaveUrgent{}, nil
	case "toggle_urgent":
		return ToggleUrgent{On: w.On}, nil
	case "reset_all":
		return ResetAll{}, nil
	case "reload":
		return Reload{}, nil
	case "inspect":
		return Inspect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, w.Op)
	}
}
