package dto

// Imagery discovery wire format, as returned by the imagery proxy.

type DiscoveryRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type DiscoveryResponse struct {
	Captures []ImageryCapture `json:"captures"`
}

type ImageryCapture struct {
	Orthos   ImageryView            `json:"orthos"`
	Obliques map[string]ImageryView `json:"obliques"`
}

type ImageryView struct {
	Images []ImageryImage `json:"images"`
}

type ImageryImage struct {
	URN           string           `json:"urn"`
	ShotTime      string           `json:"shot_time,omitempty"`
	CalculatedGSD *float64         `json:"calculated_gsd,omitempty"`
	Resources     ImageryResources `json:"resources"`
	LookAt        map[string]any   `json:"look_at,omitempty"`
}

type ImageryResources struct {
	Tilebox *Tilebox `json:"tilebox,omitempty"`
}

type Tilebox struct {
	Z      int `json:"z"`
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// ImageryQuery is the console's imagery lookup.
type ImageryQuery struct {
	Lat       float64 `query:"lat" validate:"gte=-90,lte=90"`
	Lng       float64 `query:"lng" validate:"gte=-180,lte=180"`
	Direction string  `query:"direction" validate:"omitempty,oneof=ortho north east south west"`
}

type ImageryLayer struct {
	URN          string   `json:"urn"`
	Direction    string   `json:"direction"`
	ShotTime     string   `json:"shot_time,omitempty"`
	GSD          *float64 `json:"gsd,omitempty"`
	TileTemplate string   `json:"tile_template"`
	Tilebox      *Tilebox `json:"tilebox,omitempty"`
}

type ImageryResponse struct {
	Key       string        `json:"key"`
	Requested string        `json:"requested"`
	Available []string      `json:"available"`
	Layer     *ImageryLayer `json:"layer,omitempty"`
	Cached    bool          `json:"cached"`
}
