package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestReadSegments(t *testing.T) {
	path := writeFile(t, "CIRCULACAO_VIARIA.csv", []byte(
		"fid,id_tcv,tipo_trecho,tipo_logradouro,logradouro,cod_logradouro,source,target,GEOMETRIA\n"+
			`1,10,Via,RUA,"Rua da Bahia",55,,,"MULTILINESTRING ((0 0, 10 0), (10 0, 20 0))"`+"\n"+
			`2,11,Via,AVE,Afonso Pena,56,,,`+"\n"+
			`3,12,Via,RUA,Rua Goiás,57,,,"SRID=31983;LINESTRING (20 0, 20 15)"`+"\n"))

	segments, err := StreetLayer(path).ReadSegments()
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, "Rua da Bahia", segments[0].Name)
	assert.Equal(t, "RUA", segments[0].RoadType)
	assert.Equal(t, orb.MultiLineString{{{0, 0}, {10, 0}}, {{10, 0}, {20, 0}}}, segments[0].Geometry)

	assert.Equal(t, "Rua Goiás", segments[1].Name)
	assert.Equal(t, orb.LineString{{20, 0}, {20, 15}}, segments[1].Geometry)
}

func TestReadLatin1(t *testing.T) {
	content := []byte("fid,tipo_logradouro,logradouro,geometria\n1,PCA,Pra\xe7a da Esta\xe7\xe3o,\"LINESTRING (0 0, 1 1)\"\n")

	for _, encoding := range []string{ENCODING_AUTO, ENCODING_LATIN1} {
		layer := StreetLayer(writeFile(t, "streets.csv", content))
		layer.Encoding = encoding

		segments, err := layer.ReadSegments()
		require.NoError(t, err)
		require.Len(t, segments, 1)
		assert.Equal(t, "Praça da Estação", segments[0].Name)
	}
}

func TestReadContours(t *testing.T) {
	path := writeFile(t, "CURVA_DE_NIVEL_5M.csv", []byte(
		"fid,id_cn5m,geometria,cota\n"+
			`1,1,"LINESTRING (0 0, 5 5)",850`+"\n"+
			`2,2,"LINESTRING (1 0, 6 5)",`+"\n"+
			`3,3,"LINESTRING (2 0, 7 5)","855,5"`+"\n"))

	contours, err := ContourLayer(path).ReadContours()
	require.NoError(t, err)
	require.Len(t, contours, 2)
	assert.Equal(t, 850.0, contours[0].Elevation)
	assert.Equal(t, 855.5, contours[1].Elevation)
	assert.Equal(t, orb.LineString{{2, 0}, {7, 5}}, contours[1].Geometry)
}

func TestReadFeatures(t *testing.T) {
	path := writeFile(t, "LOGRADOURO_OBRA_DE_ARTE.csv", []byte(
		"fid;id_obrart;tipo_obra;denominacao;geometria\n"+
			"1;7;VIADUTO;Santa Tereza;MULTIPOLYGON (((0 0, 4 0, 4 4, 0 0)))\n"))

	layer := FeatureLayer(path)
	layer.Comma = ';'
	features, err := layer.ReadFeatures()
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, orb.MultiPolygon{{{{0, 0}, {4, 0}, {4, 4}, {0, 0}}}}, features[0])
}

func TestReadErrors(t *testing.T) {
	missing := writeFile(t, "no_geom.csv", []byte("fid,nome\n1,x\n"))
	_, err := FeatureLayer(missing).ReadFeatures()
	assert.ErrorIs(t, err, ErrMissingColumn)

	badWKT := writeFile(t, "bad.csv", []byte("geometria\nCIRCLE (0 0)\n"))
	_, err = FeatureLayer(badWKT).ReadFeatures()
	assert.Error(t, err)

	noValue := FeatureLayer(badWKT)
	_, err = noValue.ReadContours()
	assert.ErrorIs(t, err, ErrMissingColumn)

	layer := FeatureLayer(missing)
	layer.Encoding = "ebcdic"
	_, err = layer.ReadFeatures()
	assert.ErrorIs(t, err, ErrUnknownEncoding)

	_, err = FeatureLayer(filepath.Join(t.TempDir(), "absent.csv")).ReadFeatures()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
