// Command export compiles a flight plan file into a PDF without running the
// API server. The input is a JSON array of waypoints:
//
//	[{"name":"Departure","lat":59.87,"lon":10.52}, ...]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/skyplanhq/skyplan/internal/adapters/imagecache"
	"github.com/skyplanhq/skyplan/internal/adapters/pdf"
	"github.com/skyplanhq/skyplan/internal/adapters/staticmaps"
	"github.com/skyplanhq/skyplan/internal/core/domain"
	"github.com/skyplanhq/skyplan/internal/core/ports"
	"github.com/skyplanhq/skyplan/internal/core/usecases"
	"github.com/skyplanhq/skyplan/internal/pkg/config"
	"github.com/skyplanhq/skyplan/internal/pkg/logging"
)

type waypointFile struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

func main() {
	var (
		inPath  = flag.String("in", "", "path to waypoints JSON file (required)")
		outPath = flag.String("out", "flight-plan.pdf", "output PDF path")
		title   = flag.String("title", "", "report title")
		speedKt = flag.Float64("speed", 0, "cruise speed in knots (0 = configured default)")
	)
	flag.Parse()

	logging.Setup("skyplan-export", os.Getenv("LOG_LEVEL"), "text")

	if *inPath == "" {
		log.Fatal("-in is required")
	}

	cfg, err := config.Load("skyplan-export")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Maps.APIKey == "" {
		log.Fatal("maps.api_key is required (SKYPLAN_MAPS_API_KEY)")
	}

	raw, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("read waypoints: %v", err)
	}
	var entries []waypointFile
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Fatalf("parse waypoints: %v", err)
	}

	coll := domain.NewCollection()
	for _, e := range entries {
		if _, err := coll.Add(e.Name, domain.GeoPoint{Lat: e.Lat, Lon: e.Lon}); err != nil {
			log.Fatalf("waypoint %q: %v", e.Name, err)
		}
	}
	wps := coll.Waypoints()

	routeSvc := usecases.NewRouteService()
	route := routeSvc.ComputeRoute(wps)

	maps := staticmaps.NewGoogle(cfg.Maps.APIKey, cfg.Maps.BaseURL)
	fetcher := staticmaps.NewHTTPFetcher(time.Duration(cfg.Maps.FetchTimeout) * time.Second)
	// One-shot run, unbounded cache is fine
	images := imagecache.NewMemory(fetcher)

	reportSvc := usecases.NewReportService(maps, images,
		func() ports.DocumentBuilder { return pdf.NewBuilder() },
		cfg.Report.CruiseSpeedKt)

	sink := ports.ProgressFunc(func(percent float64) {
		slog.Info("compiling", "percent", percent)
	})

	out, err := reportSvc.Compile(context.Background(),
		usecases.ExportRequest{Title: *title, CruiseSpeedKt: *speedKt},
		wps, route, sink)
	if err != nil {
		log.Fatalf("compile: %v", err)
	}

	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		log.Fatalf("write pdf: %v", err)
	}
	slog.Info("report written", "path", *outPath, "waypoints", len(wps), "distance_nm", route.TotalDistanceNM)
}
