package ingestion

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/go-quake-impact/internal/models"
)

type gdacsRSS struct {
	Channel gdacsChannel `xml:"channel"`
}
type gdacsChannel struct {
	Items []gdacsItem `xml:"item"`
}
type gdacsItem struct {
	Title       string        `xml:"title"`
	Description string        `xml:"description"`
	Link        string        `xml:"link"`
	PubDate     string        `xml:"pubDate"`
	Lat         float64       `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# Point>lat"`
	Lon         float64       `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# Point>long"`
	EventType   string        `xml:"http://www.gdacs.org eventtype"`
	AlertLevel  string        `xml:"http://www.gdacs.org alertlevel"`
	EventID     string        `xml:"http://www.gdacs.org eventid"`
	Severity    gdacsSeverity `xml:"http://www.gdacs.org severity"`
}

// gdacsSeverity looks like <gdacs:severity unit="M" value="5.6">Magnitude 5.6M, Depth:10km</gdacs:severity>.
type gdacsSeverity struct {
	Unit  string  `xml:"unit,attr"`
	Value float64 `xml:"value,attr"`
	Text  string  `xml:",chardata"`
}

var gdacsDepth = regexp.MustCompile(`Depth:\s*([0-9.]+)\s*km`)

// depthKm extracts the depth from the severity text, if present.
func (s gdacsSeverity) depthKm() (float64, bool) {
	m := gdacsDepth.FindStringSubmatch(s.Text)
	if m == nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

// pollGDACS returns the earthquake items of the feed. Items whose severity
// text carries no depth get the configured default.
func (m *Manager) pollGDACS(ctx context.Context, url string) ([]*models.SeismicEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data gdacsRSS
	if err := xml.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	events := make([]*models.SeismicEvent, 0, len(data.Channel.Items))
	for _, item := range data.Channel.Items {
		if !strings.EqualFold(item.EventType, "EQ") {
			continue
		}
		depth, ok := item.Severity.depthKm()
		if !ok {
			depth = m.cfg.Region.DefaultDepthKm
		}
		timestamp, err := time.Parse(time.RFC1123, item.PubDate)
		if err != nil {
			slog.Warn("GDACS timestamp parsing failed", "id", item.EventID, "error", err.Error())
			timestamp = m.clock.Now()
		}

		events = append(events, &models.SeismicEvent{
			ID:          "gdacs_" + item.EventID,
			Source:      models.SourceGDACS,
			Title:       item.Title,
			Description: item.Description,
			Magnitude:   item.Severity.Value,
			Latitude:    item.Lat,
			Longitude:   item.Lon,
			DepthKm:     depth,
			Timestamp:   timestamp.UTC(),
			ReportURL:   item.Link,
			CreatedAt:   m.clock.Now(),
		})
	}

	return events, nil
}
