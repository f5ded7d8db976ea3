// Package tiles describes the togglable map overlays and builds their tile URLs.
package tiles

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

type Name string

const (
	Flood   Name = "flood"
	Slosh   Name = "slosh"
	Fema    Name = "fema"
	Imagery Name = "imagery"
)

var ErrUnknownOverlay = errors.New("unknown overlay")

type Overlay struct {
	Name     Name    `json:"name"`
	Title    string  `json:"title"`
	Template string  `json:"template,omitempty"`
	MinZoom  int     `json:"min_zoom"`
	MaxZoom  int     `json:"max_zoom"`
	Opacity  float64 `json:"opacity"`
	// Dynamic overlays have no fixed template; their tiles depend on a discovery lookup.
	Dynamic bool `json:"dynamic"`
}

type Bases struct {
	Flood   string
	Slosh   string
	Fema    string
	Imagery string
}

type Catalogue struct {
	overlays map[Name]Overlay
	imagery  string
}

func NewCatalogue(b Bases) *Catalogue {
	c := &Catalogue{overlays: map[Name]Overlay{}, imagery: strings.TrimRight(b.Imagery, "/")}
	add := func(o Overlay, base string) {
		if base = strings.TrimRight(base, "/"); base != "" {
			o.Template = base + "/tiles/{z}/{x}/{y}"
		}
		c.overlays[o.Name] = o
	}
	add(Overlay{Name: Flood, Title: "Flood zones", MinZoom: 0, MaxZoom: 18, Opacity: 0.6}, b.Flood)
	add(Overlay{Name: Slosh, Title: "Storm surge (SLOSH)", MinZoom: 0, MaxZoom: 16, Opacity: 0.5}, b.Slosh)
	add(Overlay{Name: Fema, Title: "FEMA structures", MinZoom: 13, MaxZoom: 18, Opacity: 0.8}, b.Fema)
	c.overlays[Imagery] = Overlay{Name: Imagery, Title: "High-resolution imagery", MinZoom: 15, MaxZoom: 22, Opacity: 1, Dynamic: true}
	return c
}

func (c *Catalogue) List() []Overlay {
	out := make([]Overlay, 0, len(c.overlays))
	for _, o := range c.overlays {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Catalogue) Get(name Name) (Overlay, error) {
	o, ok := c.overlays[name]
	if !ok {
		return Overlay{}, fmt.Errorf("%w: %q", ErrUnknownOverlay, name)
	}
	return o, nil
}

// TileURL fills the overlay template for one tile. Dynamic or unconfigured overlays yield "".
func (c *Catalogue) TileURL(name Name, coord Coord) (string, error) {
	o, err := c.Get(name)
	if err != nil {
		return "", err
	}
	if o.Template == "" || coord.Z < o.MinZoom || coord.Z > o.MaxZoom {
		return "", nil
	}
	return coord.Fill(o.Template), nil
}

// ImageryTileURL builds the tile URL for a discovered imagery layer.
func (c *Catalogue) ImageryTileURL(urn string, coord Coord) string {
	t := c.ImageryTemplate(urn)
	if t == "" {
		return ""
	}
	return coord.Fill(t)
}

// ImageryTemplate is the {z}/{x}/{y} template for urn.
func (c *Catalogue) ImageryTemplate(urn string) string {
	if c.imagery == "" || urn == "" {
		return ""
	}
	return c.imagery + "/api/v1/eagleview/tiles/" + url.PathEscape(urn) + "/{z}/{x}/{y}"
}

func (c Coord) Fill(template string) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(c.Z),
		"{x}", strconv.Itoa(c.X),
		"{y}", strconv.Itoa(c.Y),
	).Replace(template)
}
