package api

import (
	"github.com/mr1hm/go-quake-impact/internal/damage"
	"github.com/mr1hm/go-quake-impact/internal/models"
	"github.com/mr1hm/go-quake-impact/internal/report"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders one point per building. Properties are the export row
// plus the map color for mode.
func toGeoJSON(results []models.Result, mode damage.ColorMode) FeatureCollection {
	features := make([]Feature, 0, len(results))

	for _, r := range results {
		props := report.Row(r)
		props["color"] = damage.ColorFor(mode, r)
		props["color_by"] = string(mode)

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{r.Building.Longitude, r.Building.Latitude},
			},
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
