// Package catalog holds the fixed building inventory and epicenter presets for
// the San Francisco and San Mateo region.
package catalog

import (
	"fmt"
	"slices"

	"github.com/mr1hm/go-quake-impact/internal/models"
)

// RegionCenter is the map center for the catalogue area.
var RegionCenter = models.Preset{Name: "Region Center", Latitude: 37.65, Longitude: -122.35}

// DefaultDepthKm is the hypocenter depth used by the stock scenarios.
const DefaultDepthKm = 10.0

var buildings = mustValidate([]models.Building{
	building(1, "Transamerica Pyramid", models.BuildingTypeModernSeismic, 48, 1972, 37.7952, -122.4028, 18, 9, 15000, 0.30),
	building(2, "Salesforce Tower", models.BuildingTypeModernSeismic, 61, 2018, 37.7897, -122.3968, 15, 8, 18000, 0.25),
	building(3, "Financial District Office", models.BuildingTypeSteel, 30, 1985, 37.7933, -122.3968, 16, 10, 16000, 0.30),
	building(4, "Bayview-Hunters Point Apartment", models.BuildingTypeMasonry, 4, 1955, 37.7299, -122.3880, 22, 28, 8500, 0.85),
	building(5, "Visitacion Valley Housing", models.BuildingTypeWood, 3, 1940, 37.7130, -122.4040, 26, 24, 9000, 0.82),
	building(6, "Chinatown Building", models.BuildingTypeMasonry, 5, 1910, 37.7948, -122.4078, 38, 20, 22000, 0.75),
	building(7, "Marina District House", models.BuildingTypeWood, 2, 1925, 37.8021, -122.4383, 28, 7, 12000, 0.55),
	building(8, "SOMA Warehouse", models.BuildingTypeConcrete, 3, 1960, 37.7758, -122.4128, 14, 12, 11000, 0.40),
	building(9, "Civic Center Building", models.BuildingTypeConcrete, 8, 1955, 37.7799, -122.4193, 32, 22, 9500, 0.72),
	building(10, "Modern Condo (SOMA)", models.BuildingTypeModernSeismic, 12, 2015, 37.7794, -122.4039, 12, 6, 13000, 0.28),
	building(11, "Sunset District Home", models.BuildingTypeWood, 2, 1950, 37.7536, -122.4663, 30, 11, 7500, 0.58),
	building(12, "Richmond District Duplex", models.BuildingTypeWood, 3, 1940, 37.7796, -122.4687, 29, 10, 8000, 0.56),
	building(13, "Hayes Valley Apartment", models.BuildingTypeMasonry, 4, 1915, 37.7755, -122.4238, 24, 16, 13500, 0.65),
	building(14, "Nob Hill High-rise", models.BuildingTypeSteel, 25, 1978, 37.7925, -122.4152, 35, 8, 14500, 0.48),
	building(15, "Embarcadero Office", models.BuildingTypeModernSeismic, 20, 2005, 37.7946, -122.3965, 17, 9, 15500, 0.32),
	building(16, "Pacifica Coastal Home", models.BuildingTypeWood, 2, 1965, 37.6139, -122.4869, 31, 9, 3800, 0.62),
	building(17, "Daly City Apartment", models.BuildingTypeConcrete, 5, 1970, 37.7058, -122.4664, 27, 11, 9500, 0.58),
	building(18, "South San Francisco Office", models.BuildingTypeSteel, 8, 1988, 37.6547, -122.4077, 23, 8, 7200, 0.45),
	building(19, "East Palo Alto Community Building", models.BuildingTypeMasonry, 3, 1962, 37.4688, -122.1411, 18, 19, 6500, 0.78),
	building(20, "San Bruno Residential", models.BuildingTypeWood, 3, 1955, 37.6305, -122.4111, 25, 10, 8800, 0.54),
	building(21, "Millbrae Station Area", models.BuildingTypeConcrete, 4, 1975, 37.5985, -122.3867, 28, 7, 6900, 0.48),
	building(22, "Half Moon Bay House", models.BuildingTypeWood, 2, 1968, 37.4636, -122.4286, 33, 8, 2100, 0.58),
	building(23, "Redwood City Apartment", models.BuildingTypeModernSeismic, 6, 2010, 37.4852, -122.2364, 21, 9, 5800, 0.38),
	building(24, "San Mateo Downtown Office", models.BuildingTypeSteel, 12, 1982, 37.5630, -122.3255, 24, 8, 7400, 0.42),
	building(25, "Foster City Condo", models.BuildingTypeModernSeismic, 8, 2008, 37.5585, -122.2711, 26, 5, 4900, 0.35),
})

// mustValidate panics on the first building that fails models.Building.Validate
// or carries an unknown type.
func mustValidate(bs []models.Building) []models.Building {
	for _, b := range bs {
		if err := b.Validate(); err != nil {
			panic(fmt.Sprintf("catalog: %v", err))
		}
		if !b.Type.Known() {
			panic(fmt.Sprintf("catalog: building %d: unknown type %q", b.ID, b.Type))
		}
	}
	return bs
}

func building(id int, name string, typ models.BuildingType, stories, year int, lat, lon, elderly, poverty, density, sovi float64) models.Building {
	return models.Building{
		ID:                id,
		Name:              name,
		Type:              typ,
		Stories:           stories,
		YearBuilt:         year,
		Latitude:          lat,
		Longitude:         lon,
		ElderlyPercent:    elderly,
		PovertyPercent:    poverty,
		PopulationDensity: density,
		SoVIScore:         sovi,
	}
}

var presets = []models.Preset{
	{Name: "Financial District (SF)", Latitude: 37.7949, Longitude: -122.4194},
	{Name: "San Andreas Fault", Latitude: 37.7089, Longitude: -122.4664},
	{Name: "Hayward Fault", Latitude: 37.6688, Longitude: -122.0808},
	{Name: "Pacifica Coastal", Latitude: 37.6139, Longitude: -122.4869},
	{Name: "South San Francisco", Latitude: 37.6547, Longitude: -122.4077},
}

// Buildings returns a fresh copy of the catalogue ordered by ID.
func Buildings() []models.Building {
	return slices.Clone(buildings)
}

// Building looks up a catalogue entry by ID.
func Building(id int) (models.Building, bool) {
	for _, b := range buildings {
		if b.ID == id {
			return b, true
		}
	}
	return models.Building{}, false
}

// Presets returns the named epicenters in display order.
func Presets() []models.Preset {
	return slices.Clone(presets)
}

// Preset looks up a named epicenter.
func Preset(name string) (models.Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return models.Preset{}, false
}

// DefaultScenarios are the three stock events under the Financial District.
func DefaultScenarios() []models.Earthquake {
	fd := presets[0]
	out := make([]models.Earthquake, 0, 3)
	for _, m := range []float64{5.5, 6.5, 7.0} {
		out = append(out, models.Earthquake{
			Magnitude:    m,
			EpicenterLat: fd.Latitude,
			EpicenterLon: fd.Longitude,
			DepthKm:      DefaultDepthKm,
			FaultName:    models.DefaultFaultName,
		})
	}
	return out
}
