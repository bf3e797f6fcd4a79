package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rectRegion(t *testing.T, name string, minLng, minLat, maxLng, maxLat float64) *Region {
	t.Helper()
	r, err := NewRegion(name, orb.Ring{
		{minLng, minLat},
		{maxLng, minLat},
		{maxLng, maxLat},
		{minLng, maxLat},
		{minLng, minLat},
	})
	require.NoError(t, err)
	return r
}

func podlaskie(t *testing.T) *Region {
	return rectRegion(t, "podlaskie", 21.5, 52.2, 24.0, 54.5)
}

func pomorskie(t *testing.T) *Region {
	return rectRegion(t, "pomorskie", 16.7, 53.5, 19.7, 54.9)
}

func TestRegionContains(t *testing.T) {
	r := podlaskie(t)

	assert.True(t, r.Contains(Coordinates{Latitude: 53.135278, Longitude: 23.145556}))
	assert.False(t, r.Contains(Coordinates{Latitude: 63.135278, Longitude: 23.145556}))
}

func TestNewRegionValidation(t *testing.T) {
	_, err := NewRegion("", orb.Ring{{0, 0}, {1, 0}, {1, 1}})
	assert.Error(t, err)

	_, err = NewRegion("tiny", orb.Ring{{0, 0}, {1, 1}})
	assert.Error(t, err)
}

func TestWorldLocate(t *testing.T) {
	w := NewWorld()
	require.NoError(t, w.Insert(podlaskie(t)))
	require.NoError(t, w.Insert(pomorskie(t)))
	require.Equal(t, 2, w.Len())

	t.Run("bialystok is in podlaskie", func(t *testing.T) {
		r := w.Locate(Coordinates{Latitude: 53.135278, Longitude: 23.145556})
		require.NotNil(t, r)
		assert.Equal(t, "podlaskie", r.Name())
	})

	t.Run("gdansk is in pomorskie", func(t *testing.T) {
		r := w.Locate(Coordinates{Latitude: 54.350823, Longitude: 18.665475})
		require.NotNil(t, r)
		assert.Equal(t, "pomorskie", r.Name())
	})

	t.Run("far north-east is nowhere", func(t *testing.T) {
		assert.Nil(t, w.Locate(Coordinates{Latitude: 64.350823, Longitude: 28.665475}))
	})
}

func TestWorldRejectsDuplicateNames(t *testing.T) {
	w := NewWorld()
	require.NoError(t, w.Insert(podlaskie(t)))
	assert.Error(t, w.Insert(podlaskie(t)))
}

func TestWorldOverlapResolvedByInsertionOrder(t *testing.T) {
	w := NewWorld()
	require.NoError(t, w.Insert(rectRegion(t, "first", 0, 0, 10, 10)))
	require.NoError(t, w.Insert(rectRegion(t, "second", 0, 0, 10, 10)))

	r := w.Locate(Coordinates{Latitude: 5, Longitude: 5})
	require.NotNil(t, r)
	assert.Equal(t, "first", r.Name())
}

func TestCoordinatesEmpty(t *testing.T) {
	assert.True(t, Coordinates{}.Empty())
	assert.True(t, Coordinates{Latitude: -1, Longitude: -2}.Empty())
	assert.False(t, Coordinates{Latitude: 53.1, Longitude: 23.1}.Empty())
}
