package main

import (
	"encoding/json"
	"os"

	"github.com/lintang-b-s/bike-route-planner/pkg"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print vertex, edge and classification counts of the stored graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, release, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer release()

		g, err := store.Load(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(describe(g))
	},
}

type graphInfo struct {
	Vertices          int `json:"vertices"`
	Edges             int `json:"edges"`
	Components        int `json:"components"`
	VerticesElevation int `json:"vertices_with_elevation"`
	HighwayEdges      int `json:"highway_edges"`
	StructureEdges    int `json:"structure_edges"`
	BikeLaneEdges     int `json:"bike_lane_edges"`
}

func describe(g *datastructure.Graph) graphInfo {
	info := graphInfo{
		Vertices:   g.NumberOfVertices(),
		Edges:      g.NumberOfEdges(),
		Components: g.NumberOfComponents(),
	}
	g.ForEachVertices(func(v *datastructure.Vertex, _ datastructure.Index) {
		if v.GetElevation() != pkg.UNKNOWN_ELEVATION {
			info.VerticesElevation++
		}
	})
	g.ForEachEdges(func(e *datastructure.Edge, _ datastructure.Index) {
		if e.IsHighway() {
			info.HighwayEdges++
		}
		if e.IsStructure() {
			info.StructureEdges++
		}
		if e.IsBikeLane() {
			info.BikeLaneEdges++
		}
	})
	return info
}
