package damage

import (
	"fmt"

	"github.com/mr1hm/go-quake-impact/internal/geo"
	"github.com/mr1hm/go-quake-impact/internal/models"
)

const (
	// shakeMapMinPGA drops cells too weak to plot.
	shakeMapMinPGA = 0.001
	// shakeMapWeight scales PGA into a heatmap weight.
	shakeMapWeight = 200.0
)

// Bounds is a lat/lon rectangle.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// RegionBounds covers the SF peninsula and San Mateo county.
var RegionBounds = Bounds{MinLat: 37.4, MaxLat: 37.85, MinLon: -122.55, MaxLon: -122.0}

// DefaultShakeMapSteps is the grid resolution along each axis.
const DefaultShakeMapSteps = 50

// Validate checks that the rectangle is non-empty and on the globe.
func (b Bounds) Validate() error {
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return fmt.Errorf("%w: empty bounds", models.ErrInvalidParameter)
	}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("%w: bounds off the globe", models.ErrInvalidParameter)
	}
	return nil
}

// GridCell is one shake map sample.
type GridCell struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PGA       float64 `json:"pga_g"`
	Weight    float64 `json:"weight"`
}

// ShakeMap samples ground acceleration on a steps×steps grid spanning bounds
// edge to edge. Cells at or below 0.001 g are omitted.
func ShakeMap(e models.Earthquake, bounds Bounds, steps int) []GridCell {
	if steps < 2 {
		steps = 2
	}
	latStep := (bounds.MaxLat - bounds.MinLat) / float64(steps-1)
	lonStep := (bounds.MaxLon - bounds.MinLon) / float64(steps-1)

	var cells []GridCell
	for i := range steps {
		lat := bounds.MinLat + float64(i)*latStep
		for j := range steps {
			lon := bounds.MinLon + float64(j)*lonStep
			d := geo.Distance(lat, lon, e.EpicenterLat, e.EpicenterLon)
			pga := e.GroundAcceleration(d)
			if pga <= shakeMapMinPGA {
				continue
			}
			cells = append(cells, GridCell{
				Latitude:  lat,
				Longitude: lon,
				PGA:       pga,
				Weight:    pga * shakeMapWeight,
			})
		}
	}
	return cells
}
