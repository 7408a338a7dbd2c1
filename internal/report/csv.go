// Package report flattens assessment results into the tabular export format.
// Column names are a stable contract.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mr1hm/go-quake-impact/internal/models"
)

// Columns is the per-building export header, in order.
var Columns = []string{
	"building_id",
	"building_name",
	"building_type",
	"stories",
	"year_built",
	"distance_km",
	"pga_g",
	"mmi",
	"physical_damage_percent",
	"damage_state",
	"structural_resistance",
	"social_vulnerability_multiplier",
	"combined_vulnerability_score",
	"elderly_percent",
	"poverty_percent",
	"population_density",
	"sovi_score",
	"estimated_recovery_days",
}

// BatchColumns appends the event identity to Columns.
var BatchColumns = append(append([]string{}, Columns...), "earthquake_id", "magnitude", "fault_name")

// Row returns the flat record for r. It carries every BatchColumns key plus
// location and height vulnerability.
func Row(r models.Result) map[string]any {
	b, a := r.Building, r.Assessment
	return map[string]any{
		"building_id":                     b.ID,
		"building_name":                   b.Name,
		"building_type":                   string(b.Type),
		"stories":                         b.Stories,
		"year_built":                      b.YearBuilt,
		"latitude":                        b.Latitude,
		"longitude":                       b.Longitude,
		"population_density":              b.PopulationDensity,
		"elderly_percent":                 b.ElderlyPercent,
		"poverty_percent":                 b.PovertyPercent,
		"sovi_score":                      b.SoVIScore,
		"distance_km":                     a.DistanceKm,
		"pga_g":                           a.PGA,
		"mmi":                             a.MMI,
		"structural_resistance":           a.StructuralResistance,
		"height_vulnerability":            a.HeightVulnerability,
		"physical_damage_percent":         a.PhysicalDamagePercent,
		"damage_state":                    string(a.DamageState),
		"social_vulnerability_multiplier": a.SocialVulnerabilityMultiplier,
		"combined_vulnerability_score":    a.CombinedVulnerabilityScore,
		"estimated_recovery_days":         a.EstimatedRecoveryDays,
		"earthquake_id":                   r.EarthquakeIndex,
		"magnitude":                       r.Magnitude,
		"fault_name":                      r.FaultName,
	}
}

// Record renders r as strings in the order of columns.
func Record(r models.Result, columns []string) []string {
	row := Row(r)
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = format(row[c])
	}
	return out
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// WriteCSV writes a header and one row per result using Columns.
func WriteCSV(w io.Writer, results []models.Result) error {
	return write(w, Columns, results)
}

// WriteBatchCSV writes a header and one row per result using BatchColumns.
func WriteBatchCSV(w io.Writer, results []models.Result) error {
	return write(w, BatchColumns, results)
}

func write(w io.Writer, columns []string, results []models.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(Record(r, columns)); err != nil {
			return fmt.Errorf("error writing building %d: %w", r.Building.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("error flushing csv: %w", err)
	}
	return nil
}
