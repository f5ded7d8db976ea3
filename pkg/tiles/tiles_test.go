package tiles

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordFromDescriptor(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Coord
	}{
		{"flat", `{"x": 1, "y": 2, "z": 3}`, Coord{1, 2, 3}},
		{"nested tile", `{"tile": {"x": 4, "y": 5, "z": 6}}`, Coord{4, 5, 6}},
		{"nested index", `{"index": {"x": 7, "y": 8}}`, Coord{7, 8, 12}},
		{"flat wins", `{"x": 0, "y": 0, "tile": {"x": 9, "y": 9}}`, Coord{0, 0, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoordFromDescriptor(json.RawMessage(tt.raw), 12)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := CoordFromDescriptor(json.RawMessage(`{"tile": {"x": 1}}`), 3)
	assert.ErrorIs(t, err, ErrBadDescriptor)
	_, err = CoordFromDescriptor(json.RawMessage(`"nope"`), 3)
	assert.ErrorIs(t, err, ErrBadDescriptor)
}

func TestCatalogueTileURL(t *testing.T) {
	c := NewCatalogue(Bases{Flood: "https://tiles.example/flood/", Imagery: "https://img.example"})

	u, err := c.TileURL(Flood, Coord{X: 10, Y: 20, Z: 12})
	require.NoError(t, err)
	assert.Equal(t, "https://tiles.example/flood/tiles/12/10/20", u)

	u, err = c.TileURL(Slosh, Coord{X: 1, Y: 1, Z: 5})
	require.NoError(t, err)
	assert.Empty(t, u, "unconfigured overlay")

	u, err = c.TileURL(Flood, Coord{X: 1, Y: 1, Z: 19})
	require.NoError(t, err)
	assert.Empty(t, u, "outside zoom range")

	_, err = c.TileURL(Name("wildfire"), Coord{})
	assert.ErrorIs(t, err, ErrUnknownOverlay)

	assert.Equal(t, "https://img.example/api/v1/eagleview/tiles/urn:abc/18/3/4", c.ImageryTileURL("urn:abc", Coord{X: 3, Y: 4, Z: 18}))
	assert.Empty(t, c.ImageryTileURL("", Coord{}))
}

func TestCatalogueList(t *testing.T) {
	list := NewCatalogue(Bases{}).List()
	require.Len(t, list, 4)
	assert.Equal(t, Fema, list[0].Name)
	assert.Equal(t, Imagery, list[2].Name)
	assert.True(t, list[2].Dynamic)
	assert.False(t, list[1].Dynamic)
}
