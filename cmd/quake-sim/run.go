package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mr1hm/go-quake-impact/internal/batch"
	"github.com/mr1hm/go-quake-impact/internal/catalog"
	"github.com/mr1hm/go-quake-impact/internal/damage"
	"github.com/mr1hm/go-quake-impact/internal/models"
	"github.com/mr1hm/go-quake-impact/internal/report"
)

// earthquake resolves the flags into a validated event. Explicit --lat and
// --lon must be given together and take precedence over the preset.
func (f *quakeFlags) earthquake(latSet, lonSet bool) (models.Earthquake, error) {
	e := models.Earthquake{
		Magnitude: f.magnitude,
		DepthKm:   f.depth,
		FaultName: models.DefaultFaultName,
	}

	switch {
	case latSet && lonSet:
		e.EpicenterLat, e.EpicenterLon = f.lat, f.lon
	case latSet || lonSet:
		return models.Earthquake{}, fmt.Errorf("%w: --lat and --lon must be set together", models.ErrInvalidParameter)
	default:
		p, ok := catalog.Preset(f.preset)
		if !ok {
			return models.Earthquake{}, fmt.Errorf("%w: unknown preset %q", models.ErrInvalidParameter, f.preset)
		}
		e.EpicenterLat, e.EpicenterLon = p.Latitude, p.Longitude
	}

	if err := e.Validate(); err != nil {
		return models.Earthquake{}, err
	}
	return e, nil
}

func runScenarios(ctx context.Context, w io.Writer, out string, workers int) error {
	buildings := catalog.Buildings()
	quakes := catalog.DefaultScenarios()

	printBanner(w, len(buildings))
	for _, e := range quakes {
		printScenarioHeader(w, e)
	}

	results, err := batch.RunConcurrent(ctx, buildings, quakes, workers)
	if err != nil {
		return fmt.Errorf("running scenarios: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := report.WriteBatchCSV(f, results); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", out, err)
	}
	fmt.Fprintf(w, "\nResults saved: %s\n", out)

	printLargestEvent(w, results)
	return nil
}

func runAssess(w io.Writer, e models.Earthquake) error {
	buildings := catalog.Buildings()
	results := batch.Run(buildings, []models.Earthquake{e})

	printScenarioHeader(w, e)
	if err := printAssessmentTable(w, results); err != nil {
		return err
	}
	printSummary(w, damage.Summarize(results))
	return nil
}

// maxFrames bounds the number of timeline samples.
const maxFrames = 10000

func runTimeline(w io.Writer, e models.Earthquake, step float64) error {
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return fmt.Errorf("%w: --step must be a positive number of seconds", models.ErrInvalidParameter)
	}
	buildings := catalog.Buildings()
	duration := damage.AnimationDuration(buildings, e)

	if duration/step >= maxFrames {
		return fmt.Errorf("%w: --step %g gives %d or more frames over %.1fs", models.ErrInvalidParameter, step, maxFrames, duration)
	}
	n := int(math.Floor(duration/step)) + 1

	printScenarioHeader(w, e)
	frames := make([]frame, 0, n)
	for i := range n {
		t := float64(i) * step
		frames = append(frames, newFrame(t, damage.Timeline(buildings, e, t)))
	}
	return printFrames(w, frames, duration)
}

// frame condenses one timeline sample.
type frame struct {
	elapsed    float64
	shaking    int
	meanDamage float64
	maxState   models.DamageState
}

func newFrame(elapsed float64, snapshots []models.TemporalSnapshot) frame {
	f := frame{elapsed: elapsed, maxState: models.DamageNone}
	if len(snapshots) == 0 {
		return f
	}
	var total float64
	for _, s := range snapshots {
		if s.IsShaking {
			f.shaking++
		}
		total += s.DamagePercent
		if s.DamageState.Rank() > f.maxState.Rank() {
			f.maxState = s.DamageState
		}
	}
	f.meanDamage = total / float64(len(snapshots))
	return f
}
