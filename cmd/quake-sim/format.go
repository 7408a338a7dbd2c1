package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mr1hm/go-quake-impact/internal/models"
)

func printBanner(w io.Writer, buildings int) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "San Francisco & San Mateo Counties Earthquake Simulation")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nAnalyzing %d buildings\n", buildings)
}

func printScenarioHeader(w io.Writer, e models.Earthquake) {
	fmt.Fprintf(w, "\nSimulating Magnitude %.1f earthquake...\n", e.Magnitude)
	fmt.Fprintf(w, "Epicenter: %.4f, %.4f\n", e.EpicenterLat, e.EpicenterLon)
	fmt.Fprintf(w, "Depth: %g km\n", e.DepthKm)
}

// printLargestEvent reports the mean damage and Severe+ count of the highest
// magnitude in results.
func printLargestEvent(w io.Writer, results []models.Result) {
	if len(results) == 0 {
		return
	}
	largest := results[0].Magnitude
	for _, r := range results {
		largest = max(largest, r.Magnitude)
	}

	var (
		total  float64
		n      int
		severe int
	)
	for _, r := range results {
		if r.Magnitude != largest {
			continue
		}
		n++
		total += r.Assessment.PhysicalDamagePercent
		if st := r.Assessment.DamageState; st == models.DamageSevere || st == models.DamageCollapse {
			severe++
		}
	}
	fmt.Fprintf(w, "\nAverage Damage (M%.1f): %.1f%%\n", largest, total/float64(n))
	fmt.Fprintf(w, "Buildings with Severe+ Damage: %d\n", severe)
}

func printAssessmentTable(w io.Writer, results []models.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nID\tBUILDING\tTYPE\tDIST KM\tPGA G\tMMI\tDAMAGE %\tSTATE\tSOCIAL\tCOMBINED\tRECOVERY D")
	for _, r := range results {
		a := r.Assessment
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.4f\t%d\t%.1f\t%s\t%.2f\t%.1f\t%.0f\n",
			r.Building.ID, r.Building.Name, r.Building.Type,
			a.DistanceKm, a.PGA, a.MMI, a.PhysicalDamagePercent, a.DamageState,
			a.SocialVulnerabilityMultiplier, a.CombinedVulnerabilityScore, a.EstimatedRecoveryDays)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, s models.Summary) {
	fmt.Fprintf(w, "\nAverage Damage: %.1f%%\n", s.AvgPhysicalDamage)
	fmt.Fprintf(w, "Buildings with Severe+ Damage: %d\n", s.SevereOrWorse)
	fmt.Fprintf(w, "High-risk (combined > 50): %d\n", s.HighRiskCount)
	fmt.Fprintf(w, "Average Recovery: %.0f days\n", s.AvgRecoveryDays)
	fmt.Fprintf(w, "Max PGA: %.4f g (MMI %d)\n", s.MaxPGA, s.MaxMMI)
}

func printFrames(w io.Writer, frames []frame, duration float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\nT (S)\tSHAKING\tMEAN DAMAGE %\tWORST STATE\t")
	for _, f := range frames {
		fmt.Fprintf(tw, "%.1f\t%d\t%.2f\t%s\t\n", f.elapsed, f.shaking, f.meanDamage, f.maxState)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nAnimation duration: %.1f s\n", duration)
	return nil
}
