package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lintang-b-s/bike-route-planner/pkg/route"
	"github.com/lintang-b-s/bike-route-planner/pkg/routing"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
)

var (
	routeFrom     string
	routeTo       string
	routeGeoJSON  bool
	routePolyline bool

	routeCmd = &cobra.Command{
		Use:   "route",
		Short: "Compute the fast and safe routes between two points",
		Example: "  bikeroute route --from 609800.5,7796500.2 --to 611200,7797850\n" +
			"  bikeroute route --from -43.9378,-19.9191 --to -43.9345,-19.9320 --geojson",
		RunE: runRoute,
	}
)

func init() {
	routeCmd.Flags().StringVar(&routeFrom, "from", "", "origin as x,y (lon,lat for geodesic graphs)")
	routeCmd.Flags().StringVar(&routeTo, "to", "", "destination as x,y")
	routeCmd.Flags().BoolVar(&routeGeoJSON, "geojson", false, "emit each route as a GeoJSON FeatureCollection")
	routeCmd.Flags().BoolVar(&routePolyline, "polyline", false, "add an encoded polyline of each route")
	_ = routeCmd.MarkFlagRequired("from")
	_ = routeCmd.MarkFlagRequired("to")
}

func parsePoint(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return orb.Point{x, y}, nil
}

type routeOutput struct {
	Route    any    `json:"route"`
	Polyline string `json:"polyline,omitempty"`
}

type routeResponse struct {
	Origin      uint32       `json:"origin_vertex"`
	Destination uint32       `json:"destination_vertex"`
	Fast        *routeOutput `json:"fast,omitempty"`
	Safe        *routeOutput `json:"safe,omitempty"`
	FastError   string       `json:"fast_error,omitempty"`
	SafeError   string       `json:"safe_error,omitempty"`
}

func render(r *route.Route) *routeOutput {
	if r == nil {
		return nil
	}
	out := &routeOutput{Route: r.Rounded()}
	if routeGeoJSON {
		out.Route = r.FeatureCollection()
	}
	if routePolyline {
		out.Polyline = r.Polyline()
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func runRoute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	origin, err := parsePoint(routeFrom)
	if err != nil {
		return err
	}
	destination, err := parsePoint(routeTo)
	if err != nil {
		return err
	}

	store, release, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer release()
	g, err := store.Load(ctx)
	if err != nil {
		return err
	}

	opts, err := cfg.RouterOptions()
	if err != nil {
		return err
	}
	router, err := routing.NewRouter(g, opts, log)
	if err != nil {
		return err
	}

	res, err := router.FindRoute(ctx, origin, destination)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(routeResponse{
		Origin:      uint32(res.Origin),
		Destination: uint32(res.Destination),
		Fast:        render(res.Fast),
		Safe:        render(res.Safe),
		FastError:   errString(res.FastErr),
		SafeError:   errString(res.SafeErr),
	})
}
