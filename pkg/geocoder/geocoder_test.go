package geocoder

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfarer/pkg/geocoder/ner"
	"wayfarer/pkg/spatial"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "suwalki", Fold("Suwałki"))
	assert.Equal(t, "bialystok", Fold("Białystok"))
	assert.Equal(t, "zazolc gesla jazn", Fold("Zażółć gęślą jaźń"))
	assert.Equal(t, "uber", Fold("Über"))
	assert.Equal(t, "strasse", Fold("Straße"))
	assert.Equal(t, "wiejska 35c", Fold("wiejska 35c"))
}

type recordingBackend struct {
	region     string
	components AddressComponents
	result     Result
}

func (b *recordingBackend) Lookup(_ context.Context, region string, c AddressComponents) (Result, error) {
	b.region = region
	b.components = c
	return b.result, nil
}

func testWorld(t *testing.T) *spatial.World {
	t.Helper()
	region, err := spatial.NewRegion("podlaskie", orb.Ring{
		{21.5, 52.2}, {24.0, 52.2}, {24.0, 54.5}, {21.5, 54.5}, {21.5, 52.2},
	})
	require.NoError(t, err)
	w := spatial.NewWorld()
	require.NoError(t, w.Insert(region))
	return w
}

func TestLookupDispatch(t *testing.T) {
	backend := &recordingBackend{result: Result{Hints: []AddressComponents{
		{City: "Białystok", Street: "Wiejska"},
	}}}
	labeler := tableLabeler{"wiejska": repeat(ner.City, 7)}
	g := New(testWorld(t), NewDecomposer(labeler), backend)
	bialystok := spatial.Coordinates{Latitude: 53.135278, Longitude: 23.145556}

	res, err := g.Lookup(context.Background(), bialystok, "wiejska", AddressComponents{})
	require.NoError(t, err)

	assert.Equal(t, "podlaskie", backend.region)
	// lone city reassigned to street by the practical adjust
	assert.Equal(t, AddressComponents{Street: "wiejska"}, backend.components)
	require.Len(t, res.Hints, 1)
	assert.Equal(t, "Wiejska", res.Hints[0].Street)
}

func TestLookupUnsupportedLocation(t *testing.T) {
	g := New(testWorld(t), NewDecomposer(tableLabeler{}), &recordingBackend{})

	_, err := g.Lookup(context.Background(),
		spatial.Coordinates{Latitude: 64.35, Longitude: 28.66}, "wiejska", AddressComponents{})
	assert.ErrorIs(t, err, ErrUnsupportedLocation)
}

func TestLookupOverridesBeforeAdjust(t *testing.T) {
	backend := &recordingBackend{}
	labeler := tableLabeler{"wiejska": repeat(ner.City, 7)}
	g := New(testWorld(t), NewDecomposer(labeler), backend)
	bialystok := spatial.Coordinates{Latitude: 53.135278, Longitude: 23.145556}

	// the override lands on city before the adjust runs, so the adjusted
	// shape keeps the street slot for the overridden value
	_, err := g.Lookup(context.Background(), bialystok, "wiejska",
		AddressComponents{City: "Suwałki", Building: "12"})
	require.NoError(t, err)

	assert.Equal(t, "Suwałki", backend.components.City)
	assert.Equal(t, "12", backend.components.Building)
	assert.Empty(t, backend.components.Street)
}
