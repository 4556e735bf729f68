package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lintang-b-s/bike-route-planner/pkg/elevation"
	"github.com/lintang-b-s/bike-route-planner/pkg/network"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	ENCODING_AUTO   = "auto"
	ENCODING_UTF8   = "utf-8"
	ENCODING_LATIN1 = "latin1"
	ENCODING_CP1252 = "cp1252"

	DEFAULT_GEOMETRY_COLUMN = "geometria"

	sniffSize = 8192
)

var (
	ErrMissingColumn   = errors.New("column not found in header")
	ErrUnknownEncoding = errors.New("unknown text encoding")
)

// CSVLayer is a CSV export with one WKT geometry column per row. Column
// names are matched case-insensitively.
type CSVLayer struct {
	Path           string
	GeometryColumn string
	NameColumn     string
	TypeColumn     string
	ValueColumn    string
	// Encoding is auto, utf-8, latin1 or cp1252. auto picks utf-8 when the
	// first bytes are valid UTF-8 and latin1 otherwise.
	Encoding string
	Comma    rune
}

// StreetLayer matches the street network export (CIRCULACAO_VIARIA).
func StreetLayer(path string) CSVLayer {
	return CSVLayer{
		Path:           path,
		GeometryColumn: DEFAULT_GEOMETRY_COLUMN,
		NameColumn:     "logradouro",
		TypeColumn:     "tipo_logradouro",
		Encoding:       ENCODING_AUTO,
	}
}

// ContourLayer matches the contour export (CURVA_DE_NIVEL_5M).
func ContourLayer(path string) CSVLayer {
	return CSVLayer{
		Path:           path,
		GeometryColumn: DEFAULT_GEOMETRY_COLUMN,
		ValueColumn:    "cota",
		Encoding:       ENCODING_AUTO,
	}
}

// FeatureLayer matches any geometry-only layer (highway lanes, structures,
// bike routes).
func FeatureLayer(path string) CSVLayer {
	return CSVLayer{
		Path:           path,
		GeometryColumn: DEFAULT_GEOMETRY_COLUMN,
		Encoding:       ENCODING_AUTO,
	}
}

type row struct {
	line     int
	geometry orb.Geometry
	fields   []string
	header   map[string]int
}

func (r row) get(column string) string {
	if column == "" {
		return ""
	}
	i, ok := r.header[strings.ToLower(column)]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func decoder(encoding string, br *bufio.Reader) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", ENCODING_AUTO:
		head, err := br.Peek(sniffSize)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return nil, err
		}
		if utf8.Valid(trimPartialRune(head)) {
			return br, nil
		}
		return transform.NewReader(br, charmap.ISO8859_1.NewDecoder()), nil
	case ENCODING_UTF8, "utf8":
		return br, nil
	case ENCODING_LATIN1, "latin-1", "iso-8859-1":
		return transform.NewReader(br, charmap.ISO8859_1.NewDecoder()), nil
	case ENCODING_CP1252, "windows-1252":
		return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("%q: %w", encoding, ErrUnknownEncoding)
}

// trimPartialRune drops a multi-byte sequence cut off at the end of the
// sniffed prefix.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}

// scan calls handle for every row with a non-empty geometry.
func (l CSVLayer) scan(handle func(r row) error) error {
	f, err := os.Open(l.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, sniffSize*2)
	in, err := decoder(l.Encoding, br)
	if err != nil {
		return fmt.Errorf("%s: %w", l.Path, err)
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	if l.Comma != 0 {
		reader.Comma = l.Comma
	}

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%s: read header: %w", l.Path, err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	geomColumn := l.GeometryColumn
	if geomColumn == "" {
		geomColumn = DEFAULT_GEOMETRY_COLUMN
	}
	for _, c := range []string{geomColumn, l.NameColumn, l.TypeColumn, l.ValueColumn} {
		if c == "" {
			continue
		}
		if _, ok := columns[strings.ToLower(c)]; !ok {
			return fmt.Errorf("%s: %q: %w", l.Path, c, ErrMissingColumn)
		}
	}

	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", l.Path, err)
		}

		r := row{line: line, fields: fields, header: columns}
		text := r.get(geomColumn)
		if text == "" {
			continue
		}
		r.geometry, err = wkt.Unmarshal(stripSRID(text))
		if err != nil {
			return fmt.Errorf("%s line %d: %w", l.Path, line, err)
		}
		if err := handle(r); err != nil {
			return err
		}
	}
}

func (l CSVLayer) ReadSegments() ([]network.RawSegment, error) {
	segments := make([]network.RawSegment, 0)
	err := l.scan(func(r row) error {
		segments = append(segments, network.RawSegment{
			Geometry: r.geometry,
			Name:     r.get(l.NameColumn),
			RoadType: r.get(l.TypeColumn),
		})
		return nil
	})
	return segments, err
}

// ReadContours skips rows without an elevation value.
func (l CSVLayer) ReadContours() ([]elevation.ContourLine, error) {
	if l.ValueColumn == "" {
		return nil, fmt.Errorf("%s: elevation: %w", l.Path, ErrMissingColumn)
	}
	contours := make([]elevation.ContourLine, 0)
	err := l.scan(func(r row) error {
		text := r.get(l.ValueColumn)
		if text == "" {
			return nil
		}
		value, err := parseDecimal(text)
		if err != nil {
			return fmt.Errorf("%s line %d: %w", l.Path, r.line, err)
		}
		contours = append(contours, elevation.ContourLine{Geometry: r.geometry, Elevation: value})
		return nil
	})
	return contours, err
}

func (l CSVLayer) ReadFeatures() ([]orb.Geometry, error) {
	features := make([]orb.Geometry, 0)
	err := l.scan(func(r row) error {
		features = append(features, r.geometry)
		return nil
	})
	return features, err
}

// stripSRID drops an EWKT "SRID=n;" prefix.
func stripSRID(text string) string {
	if len(text) > 5 && strings.EqualFold(text[:5], "SRID=") {
		if i := strings.IndexByte(text, ';'); i >= 0 {
			return strings.TrimSpace(text[i+1:])
		}
	}
	return text
}

// parseDecimal accepts both "812.5" and "812,5".
func parseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, nil
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}
