package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mr1hm/go-quake-impact/internal/models"
)

type usgsResponse struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   usgsGeometry   `json:"geometry"`
}
type usgsProperties struct {
	Mag   *float64 `json:"mag"`
	Place string   `json:"place"`
	Time  int64    `json:"time"` // unix millis
	Title string   `json:"title"`
	Type  string   `json:"type"` // "earthquake", "quarry blast", ...
	URL   string   `json:"url"`
}
type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}

func (m *Manager) pollUSGS(ctx context.Context, url string) ([]*models.SeismicEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data usgsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	events := make([]*models.SeismicEvent, 0, len(data.Features))
	for _, f := range data.Features {
		if f.Properties.Type != "" && f.Properties.Type != "earthquake" {
			continue
		}
		if f.Properties.Mag == nil || len(f.Geometry.Coordinates) < 2 {
			continue
		}
		depth := m.cfg.Region.DefaultDepthKm
		if len(f.Geometry.Coordinates) > 2 {
			depth = f.Geometry.Coordinates[2]
		}
		raw, _ := json.Marshal(f)

		events = append(events, &models.SeismicEvent{
			ID:          "usgs_" + f.ID,
			Source:      models.SourceUSGS,
			Title:       f.Properties.Title,
			Description: f.Properties.Place,
			Magnitude:   *f.Properties.Mag,
			Longitude:   f.Geometry.Coordinates[0],
			Latitude:    f.Geometry.Coordinates[1],
			DepthKm:     depth,
			Timestamp:   time.UnixMilli(f.Properties.Time).UTC(),
			ReportURL:   f.Properties.URL,
			Raw:         raw,
			CreatedAt:   m.clock.Now(),
		})
	}

	return events, nil
}
