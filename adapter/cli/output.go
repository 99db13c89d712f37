package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/pulse/internal/scoring/application/services"
	"github.com/olekukonko/tablewriter"
)

// ErrAppNotInitialized is returned by commands run without a wired application.
var ErrAppNotInitialized = errors.New("application not initialized - storage connection required")

// RequireApp returns the application or ErrAppNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrAppNotInitialized
	}
	return app, nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTable renders rows under header.
func PrintTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	cols := make([]any, len(header))
	for i, h := range header {
		cols[i] = h
	}
	table.Header(cols...)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// FormatScore renders a score with two decimals.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ShortID returns the first eight characters of an identifier.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ParseWeights parses repeated name=weight flags.
func ParseWeights(values []string) (map[string]float64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	weights := make(map[string]float64, len(values))
	for _, v := range values {
		name, raw, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid weight %q, use name=weight", v)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", v, err)
		}
		weights[name] = w
	}
	return weights, nil
}

// ParseMetricSpecs parses "name" or "name:low" / "name:high". Without a
// direction the scorer's own direction applies through lookup.
func ParseMetricSpecs(values []string, lookup func(name string) (services.MetricSpec, error)) ([]services.MetricSpec, error) {
	specs := make([]services.MetricSpec, 0, len(values))
	for _, v := range values {
		name, dir, _ := strings.Cut(strings.TrimSpace(v), ":")
		spec, err := lookup(name)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(dir) {
		case "":
		case "low", "lower", "asc":
			spec.HigherIsBetter = false
		case "high", "higher", "desc":
			spec.HigherIsBetter = true
		default:
			return nil, fmt.Errorf("invalid metric direction %q, use low or high", dir)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
