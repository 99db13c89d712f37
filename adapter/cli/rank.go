package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	scoringApp "github.com/felixgeelhaar/pulse/internal/scoring/application"
	"github.com/felixgeelhaar/pulse/internal/scoring/application/services"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	rankMetrics        []string
	rankTypes          []string
	rankMaxMinutes     float64
	rankExclude        []string
	rankMinScores      []string
	rankRequireHistory bool
	rankWeights        []string
	rankTop            int
	rankWindow         int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Recommend tasks to work on next",
	Long: `Rank tasks by the mean of their historical component scores.
Metrics where lower is better (such as stress) are inverted before they
are combined. Ties prefer the shorter estimate.

Examples:
  pulse rank
  pulse rank --metric relief --metric stress:low --top 5
  pulse rank --type work --max-minutes 30 --min execution=60`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		req, err := buildRankRequest(app.Scoring)
		if err != nil {
			return err
		}

		results, err := app.Scoring.Rank(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to rank tasks: %w", err)
		}

		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), results)
		}
		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, "No tasks match the filters.")
			return nil
		}
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{
				strconv.Itoa(r.Rank),
				r.Name,
				string(r.TaskType),
				FormatScore(r.EstimateMinutes),
				FormatScore(r.Score),
				formatBreakdown(r.Breakdown),
			})
		}
		if err := PrintTable(out, []string{"#", "Task", "Type", "Est (min)", "Score", "Breakdown"}, rows); err != nil {
			return err
		}
		if Verbose() {
			for _, r := range results {
				if len(r.Annotations) > 0 {
					fmt.Fprintf(out, "%d. %s: %s\n", r.Rank, r.Name, strings.Join(r.Annotations, "; "))
				}
			}
		}
		return nil
	},
}

func buildRankRequest(svc *scoringApp.Service) (scoringApp.RankRequest, error) {
	req := scoringApp.RankRequest{
		Filters: services.RankFilters{
			MaxEstimateMinutes: rankMaxMinutes,
			RequireHistory:     rankRequireHistory,
		},
		Options:    services.RankOptions{TopN: rankTop},
		WindowDays: rankWindow,
	}

	if len(rankMetrics) > 0 {
		specs, err := ParseMetricSpecs(rankMetrics, svc.MetricSpec)
		if err != nil {
			return req, err
		}
		req.Metrics = specs
	}
	for _, t := range rankTypes {
		if !telemetry.IsKnownTaskType(t) {
			return req, fmt.Errorf("unknown task type %q", t)
		}
		req.Filters.TaskTypes = append(req.Filters.TaskTypes, telemetry.TaskType(t))
	}
	for _, raw := range rankExclude {
		id, err := uuid.Parse(raw)
		if err != nil {
			return req, fmt.Errorf("invalid task ID %q: %w", raw, err)
		}
		req.Filters.ExcludeTaskIDs = append(req.Filters.ExcludeTaskIDs, id)
	}
	minScores, err := ParseWeights(rankMinScores)
	if err != nil {
		return req, err
	}
	req.Filters.MinScores = minScores
	weights, err := ParseWeights(rankWeights)
	if err != nil {
		return req, err
	}
	req.Options.Weights = weights
	return req, nil
}

func formatBreakdown(breakdown map[string]float64) string {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + FormatScore(breakdown[name])
	}
	return strings.Join(parts, " ")
}

func init() {
	rankCmd.Flags().StringArrayVarP(&rankMetrics, "metric", "m", nil, "ranking metric as name or name:low (repeatable)")
	rankCmd.Flags().StringArrayVarP(&rankTypes, "type", "t", nil, "only tasks of this type (repeatable)")
	rankCmd.Flags().Float64Var(&rankMaxMinutes, "max-minutes", 0, "skip tasks estimated longer than this")
	rankCmd.Flags().StringArrayVar(&rankExclude, "exclude", nil, "task ID to skip (repeatable)")
	rankCmd.Flags().StringArrayVar(&rankMinScores, "min", nil, "minimum metric score as name=value (repeatable)")
	rankCmd.Flags().BoolVar(&rankRequireHistory, "require-history", false, "skip tasks without completed instances")
	rankCmd.Flags().StringArrayVarP(&rankWeights, "weight", "w", nil, "metric weight as name=weight (repeatable)")
	rankCmd.Flags().IntVarP(&rankTop, "top", "n", 10, "number of recommendations (0 for all)")
	rankCmd.Flags().IntVar(&rankWindow, "window", 0, "history window in days (default from configuration)")
	rootCmd.AddCommand(rankCmd)
}
