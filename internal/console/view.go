package console

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"propintel-console/pkg/measure"
)

type MapType string

const (
	MapRoadmap   MapType = "roadmap"
	MapSatellite MapType = "satellite"
	MapHybrid    MapType = "hybrid"
	MapTerrain   MapType = "terrain"
)

// ViewState is the shared viewport. Only the coordinator writes it.
type ViewState struct {
	Center     measure.LatLng `json:"center"`
	Zoom       float64        `json:"zoom"`
	MapType    MapType        `json:"map_type"`
	StreetView bool           `json:"street_view"`
	Address    string         `json:"address,omitempty"`
}

var DefaultView = ViewState{
	Center:  measure.LatLng{Lat: 39.8283, Lng: -98.5795},
	Zoom:    4,
	MapType: MapRoadmap,
}

// ViewUpdate carries the viewport fields a client event changed.
type ViewUpdate struct {
	Center     *measure.LatLng `json:"center,omitempty"`
	Zoom       *float64        `json:"zoom,omitempty" validate:"omitempty,gte=0,lte=23"`
	MapType    *MapType        `json:"map_type,omitempty" validate:"omitempty,oneof=roadmap satellite hybrid terrain"`
	StreetView *bool           `json:"street_view,omitempty"`
	Address    *string         `json:"address,omitempty"`
}

func (v ViewState) apply(u ViewUpdate) ViewState {
	if u.Center != nil {
		v.Center = *u.Center
	}
	if u.Zoom != nil {
		v.Zoom = *u.Zoom
	}
	if u.MapType != nil {
		v.MapType = *u.MapType
	}
	if u.StreetView != nil {
		v.StreetView = *u.StreetView
	}
	if u.Address != nil {
		v.Address = *u.Address
	}
	return v
}

// Query encodes the shareable part of the view: address, coordinates and zoom.
func (v ViewState) Query() url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(v.Center.Lat, 'f', 6, 64))
	q.Set("lng", strconv.FormatFloat(v.Center.Lng, 'f', 6, 64))
	q.Set("zoom", strconv.FormatFloat(v.Zoom, 'f', -1, 64))
	if v.Address != "" {
		q.Set("address", v.Address)
	}
	return q
}

// ViewFromQuery restores a view from URL query values, keeping base for anything absent.
func ViewFromQuery(q url.Values, base ViewState) (ViewState, error) {
	v := base
	parse := func(key string, dst *float64, lo, hi float64) error {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < lo || f > hi {
			return fmt.Errorf("invalid %s %q", key, raw)
		}
		*dst = f
		return nil
	}
	if err := parse("lat", &v.Center.Lat, -90, 90); err != nil {
		return base, err
	}
	if err := parse("lng", &v.Center.Lng, -180, 180); err != nil {
		return base, err
	}
	if err := parse("zoom", &v.Zoom, 0, 23); err != nil {
		return base, err
	}
	if addr := strings.TrimSpace(q.Get("address")); addr != "" {
		v.Address = addr
	}
	return v, nil
}
