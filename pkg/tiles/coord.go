package tiles

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrBadDescriptor = errors.New("invalid tile descriptor")

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

type rawCoord struct {
	X *int `json:"x"`
	Y *int `json:"y"`
	Z *int `json:"z"`
}

type descriptor struct {
	rawCoord
	Tile  *rawCoord `json:"tile"`
	Index *rawCoord `json:"index"`
}

// CoordFromDescriptor reads a tile coordinate from the rendering library's tile descriptor.
// Coordinates are taken from the top level, then "tile", then "index"; zoom is used when the
// descriptor carries no z.
func CoordFromDescriptor(raw json.RawMessage, zoom int) (Coord, error) {
	var d descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return Coord{}, fmt.Errorf("%w: %v", ErrBadDescriptor, err)
	}
	for _, rc := range []*rawCoord{&d.rawCoord, d.Tile, d.Index} {
		if rc == nil || rc.X == nil || rc.Y == nil {
			continue
		}
		c := Coord{X: *rc.X, Y: *rc.Y, Z: zoom}
		if rc.Z != nil {
			c.Z = *rc.Z
		}
		return c, nil
	}
	return Coord{}, fmt.Errorf("%w: no x/y found", ErrBadDescriptor)
}
