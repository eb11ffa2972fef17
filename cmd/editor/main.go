// Package main provides a headless SafeRoute map editor. It reads one JSON
// command per line from stdin, applies it to the map engine and writes one
// JSON result per line to stdout.
//
//	{"op":"toggle_admin"}
//	{"op":"map_click","lat":19.1,"lng":72.84}
//	{"op":"set_endpoints","start":"DJ Sanghvi College","end":"Juhu Police Station"}
//	{"op":"find_route"}
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/engine"
	"github.com/saferoute/saferoute/internal/persistence"
	"github.com/saferoute/saferoute/internal/render"
	"github.com/saferoute/saferoute/internal/resilience"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

type output struct {
	Error      string       `json:"error,omitempty"`
	Notice     string       `json:"notice,omitempty"`
	Mode       string       `json:"mode"`
	AssetType  string       `json:"asset_type"`
	Radius     int          `json:"radius"`
	CCTV       int          `json:"cctv"`
	Criminal   int          `json:"criminal"`
	Safe       int          `json:"safe"`
	Start      string       `json:"start,omitempty"`
	End        string       `json:"end,omitempty"`
	Waypoints  int          `json:"waypoints"`
	Urgent     bool         `json:"urgent"`
	RouteDrawn bool         `json:"route_drawn"`
	RouteKM    float64      `json:"route_km,omitempty"`
	Route      [][2]float64 `json:"route,omitempty"`
	Polyline   string       `json:"polyline,omitempty"`
	Scene      sceneSummary `json:"scene"`
}

type sceneSummary struct {
	AssetsVisible bool `json:"assets_visible"`
	Markers       int  `json:"markers"`
	Circles       int  `json:"circles"`
	Polylines     int  `json:"polylines"`
}

func main() {
	log := zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("service", "saferoute-editor").
		Str("version", Version).
		Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scene := render.NewScene()
	cfg := engine.Config{Renderer: scene, Logger: log}

	var gateway *persistence.Gateway
	var alerter *persistence.Alerter
	if os.Getenv("EDITOR_OFFLINE") != "true" {
		pcfg := persistence.ConfigFromEnv()
		registry := resilience.NewRegistry()
		gateway = persistence.NewGateway(persistence.GatewayConfig{Config: pcfg, Registry: registry, Logger: log})
		alerter = persistence.NewAlerter(persistence.AlerterConfig{Config: pcfg, Registry: registry, Logger: log})
		cfg.Gateway = gateway
		cfg.Alerter = alerter
		log.Info().Str("base_url", pcfg.BaseURL).Msg("map data server configured")
	}

	eng := engine.New(cfg)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = eng.Run(runCtx)
	}()

	if err := eng.Sync(ctx); err != nil {
		log.Fatal().Err(err).Msg("engine did not start")
	}

	enc := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		cmd, err := engine.DecodeCommand(line)
		if err != nil {
			_ = enc.Encode(output{Error: err.Error()})
			continue
		}

		res, err := eng.Submit(ctx, cmd)
		if err != nil {
			log.Error().Err(err).Msg("engine unavailable")
			break
		}
		// Let loads triggered by the command land before reporting.
		syncCtx, syncCancel := context.WithTimeout(ctx, 30*time.Second)
		_ = eng.Sync(syncCtx)
		syncCancel()

		if res.Err == nil {
			if inspected, err := eng.Submit(ctx, engine.Inspect{}); err == nil {
				res.State = inspected.State
			}
		}
		_ = enc.Encode(newOutput(res, scene))
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("reading commands")
	}

	stop()
	<-done

	if gateway != nil {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := gateway.Flush(flushCtx); err != nil {
			log.Error().Err(err).Msg("unsaved map data")
		}
		flushCancel()
		gateway.Close()
		alerter.Wait()

		stats := gateway.Stats()
		log.Info().
			Int64("saves_sent", stats.SavesSent).
			Int64("loads", stats.Loads).
			Msg("editor stopped")
	}
}

func newOutput(res engine.Result, scene *render.Scene) output {
	s := res.State
	out := output{
		Notice:     res.Notice,
		Mode:       s.Mode.String(),
		AssetType:  string(s.AssetType),
		Radius:     s.Radius,
		CCTV:       s.Counts.CCTV,
		Criminal:   s.Counts.Criminal,
		Safe:       s.Counts.Safe,
		Start:      s.Start,
		End:        s.End,
		Waypoints:  len(s.Waypoints),
		Urgent:     s.Urgent,
		RouteDrawn: s.RouteDrawn,
		RouteKM:    math.Round(s.RouteMeters) / 1000,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	for _, p := range s.RoutePath {
		out.Route = append(out.Route, [2]float64{p.Lat, p.Lng})
	}
	if res.Route != nil && res.Route.Drawn() {
		out.Polyline = res.Route.Encoded
	}

	out.Scene.AssetsVisible = scene.Visible(render.LayerAssets)
	for _, layer := range []render.Layer{render.LayerAssets, render.LayerRoute, render.LayerWaypoints, render.LayerUser} {
		out.Scene.Markers += len(scene.Markers(layer))
		out.Scene.Circles += len(scene.Circles(layer))
		out.Scene.Polylines += len(scene.Polylines(layer))
	}
	return out
}
