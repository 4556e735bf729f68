package datastructure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/paulmach/orb/encoding/wkt"
)

var ErrMalformedGraph = errors.New("malformed graph file")

// WriteGraph writes g as bzip2-compressed text: a header line with the vertex and
// edge counts, one space-separated line per vertex and one tab-separated line per
// edge (geometry as WKT). Incident lists and components are rebuilt on read.
func (g *Graph) WriteGraph(out io.Writer) error {
	bz, err := bzip2.NewWriter(out, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}

	w := bufio.NewWriter(bz)

	fmt.Fprintf(w, "%d %d\n", len(g.vertices), len(g.edges))

	for _, v := range g.vertices {
		fmt.Fprintf(w, "%d %s %s %s\n", v.id,
			formatFloat(v.point[0]), formatFloat(v.point[1]), formatFloat(v.elevation))
	}

	for _, e := range g.edges {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\t%t\t%t\t%t\t%s\t%s\t%s\t%s\t%s\n",
			e.id, e.source, e.target,
			formatFloat(e.length), formatFloat(e.elevationAtSource), formatFloat(e.elevationAtTarget),
			e.highway, e.structure, e.bikeLane,
			formatFloat(e.forwardCost), formatFloat(e.reverseCost),
			strconv.Quote(e.name), strconv.Quote(e.roadType),
			wkt.MarshalString(e.geometry))
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return bz.Close()
}

// ReadGraph reads a graph written by WriteGraph.
func ReadGraph(in io.Reader) (*Graph, error) {
	bz, err := bzip2.NewReader(in, nil)
	if err != nil {
		return nil, err
	}
	defer bz.Close()

	br := bufio.NewReader(bz)

	lineNo := 0
	readLine := func() (string, error) {
		lineNo++
		line, err := br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("line %d: unexpected end of file: %w", lineNo, ErrMalformedGraph)
			}
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	line, err := readLine()
	if err != nil {
		return nil, err
	}
	tokens := fields(line)
	if len(tokens) != 2 {
		return nil, fmt.Errorf("header: expected 2 fields, got %d: %w", len(tokens), ErrMalformedGraph)
	}
	numVertices, err := parseIndex(tokens[0])
	if err != nil {
		return nil, err
	}
	numEdges, err := parseIndex(tokens[1])
	if err != nil {
		return nil, err
	}

	vertices := make([]*Vertex, numVertices)
	for i := 0; i < int(numVertices); i++ {
		vertexLine, err := readLine()
		if err != nil {
			return nil, err
		}
		vertices[i], err = parseVertex(vertexLine)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	edges := make([]*Edge, numEdges)
	for i := 0; i < int(numEdges); i++ {
		edgeLine, err := readLine()
		if err != nil {
			return nil, err
		}
		edges[i], err = parseEdge(edgeLine)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	return NewGraph(vertices, edges)
}

func parseVertex(line string) (*Vertex, error) {
	tokens := fields(line)
	if len(tokens) != 4 {
		return nil, fmt.Errorf("vertex: expected 4 fields, got %d: %w", len(tokens), ErrMalformedGraph)
	}
	id, err := parseIndex(tokens[0])
	if err != nil {
		return nil, err
	}
	floats, err := parseFloats(tokens[1:])
	if err != nil {
		return nil, err
	}
	v := NewVertex(id, [2]float64{floats[0], floats[1]})
	v.SetElevation(floats[2])
	return v, nil
}

func parseEdge(line string) (*Edge, error) {
	tokens := strings.Split(line, "\t")
	if len(tokens) != 14 {
		return nil, fmt.Errorf("edge: expected 14 fields, got %d: %w", len(tokens), ErrMalformedGraph)
	}

	ids := make([]Index, 3)
	for i := range ids {
		id, err := parseIndex(tokens[i])
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	measures, err := parseFloats(tokens[3:6])
	if err != nil {
		return nil, err
	}

	flags := make([]bool, 3)
	for i := range flags {
		flags[i], err = strconv.ParseBool(tokens[6+i])
		if err != nil {
			return nil, err
		}
	}

	costs, err := parseFloats(tokens[9:11])
	if err != nil {
		return nil, err
	}

	name, err := strconv.Unquote(tokens[11])
	if err != nil {
		return nil, fmt.Errorf("edge name %s: %w", tokens[11], err)
	}
	roadType, err := strconv.Unquote(tokens[12])
	if err != nil {
		return nil, fmt.Errorf("edge road type %s: %w", tokens[12], err)
	}

	geometry, err := wkt.UnmarshalLineString(tokens[13])
	if err != nil {
		return nil, err
	}

	e := NewEdge(ids[0], ids[1], ids[2], geometry, measures[0], name, roadType)
	e.SetElevations(measures[1], measures[2])
	e.SetFlags(flags[0], flags[1], flags[2])
	e.SetCosts(costs[0], costs[1])
	return e, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloats(tokens []string) ([]float64, error) {
	out := make([]float64, len(tokens))
	for i, token := range tokens {
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func fields(s string) []string {
	return strings.Fields(s)
}

func parseIndex(s string) (Index, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if u > math.MaxUint32 {
		return 0, fmt.Errorf("value %s overflows uint32", s)
	}
	return Index(u), nil
}
