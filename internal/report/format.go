package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// FormatText writes the verdict in human-readable form.
func FormatText(w io.Writer, v *Verdict) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "membench - Stress & Invariant Report")
	fmt.Fprintln(w, "====================================")
	fmt.Fprintln(w, "")

	if v.Total == 0 {
		fmt.Fprintln(w, "No results collected")
		return
	}

	fmt.Fprintf(w, "Total Results:  %d\n", v.Total)
	fmt.Fprintf(w, "Success Rate:   %.1f%% (pass bar %.1f%%)\n", v.OverallRate*100, v.PassRate*100)
	fmt.Fprintf(w, "Verdict:        %s\n", passLabel(v.Passed))
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, "By Category:")
	for _, c := range v.ByCategory {
		fmt.Fprintf(w, "  %-18s %5d results  %5.1f%%  avg=%s min=%s max=%s\n",
			c.Category, c.Count, c.SuccessRate*100,
			FormatDuration(c.MeanLatency),
			FormatDuration(c.MinLatency),
			FormatDuration(c.MaxLatency))
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Business Metrics:")
	fmt.Fprintf(w, "  Upgrades:            %d\n", v.Business.Upgrades)
	fmt.Fprintf(w, "  Downgrades:          %d\n", v.Business.Downgrades)
	fmt.Fprintf(w, "  Revenue:             %.2f\n", v.Business.Revenue)
	fmt.Fprintf(w, "  Adjustment Total:    %.2f\n", v.Business.AdjustmentTotal)
	fmt.Fprintf(w, "  Pricing Validation:  %d pass / %d warn\n",
		v.Business.ValidationPass, v.Business.ValidationWarn)
	if len(v.Business.Transitions) > 0 {
		keys := make([]string, 0, len(v.Business.Transitions))
		for k := range v.Business.Transitions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "  Tier Transitions:")
		for _, k := range keys {
			fmt.Fprintf(w, "    %-22s %d\n", k, v.Business.Transitions[k])
		}
	}

	if v.Race.Total > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Race Probe:     %d accepted / %d rejected of %d attempts (entity readable: %v)\n",
			v.Race.Accepted, v.Race.Rejected, v.Race.Total, v.Race.Readable)
	}

	if len(v.Findings) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Business Findings:")
		for _, f := range v.Findings {
			fmt.Fprintf(w, "  [%s] %s (expected %.2f, observed %.2f)\n",
				f.Kind, f.Detail, f.Expected, f.Observed)
		}
	}

	if len(v.Phases) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Phases:")
		for _, p := range v.Phases {
			fmt.Fprintf(w, "  %-20s %s\n", p.Name, p.Took.Round(time.Millisecond))
		}
	}
}

// FormatJSON writes the verdict as indented JSON.
func FormatJSON(w io.Writer, v *Verdict) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v) // stdout errors are unrecoverable
}

// FormatDuration renders a latency compactly.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

func passLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
