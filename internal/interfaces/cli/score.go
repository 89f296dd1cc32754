package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/pkg/client"
)

var (
	scoreBatterID int64
	scoreUmpireID int64
	scoreSeason   int
	scoreSide     string
)

func addScoreFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&scoreBatterID, "batter", 0, "batter id filter")
	cmd.Flags().Int64Var(&scoreUmpireID, "umpire", 0, "umpire id filter")
	cmd.Flags().IntVar(&scoreSeason, "season", 0, "season filter (e.g. 2024)")
	cmd.Flags().StringVar(&scoreSide, "side", "", "batter side filter (L or R)")
}

func scoreFilter() client.ScoreFilter {
	return client.ScoreFilter{
		BatterID: scoreBatterID,
		UmpireID: scoreUmpireID,
		Season:   scoreSeason,
		Side:     strings.ToUpper(scoreSide),
	}
}

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the strike zone alignment score for a pitch selection",
		Long:  "Computes the composite alignment score comparing the rulebook zone,\nthe umpire's called zone, and the batter's swing-density zone over the\npitches selected by the filter flags.",
		RunE:  runScore,
	}
	addScoreFilterFlags(cmd)
	return cmd
}

func runScore(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	filter := scoreFilter()
	cliCtx.Logger.Debug("requesting score",
		logging.Int64("batter_id", filter.BatterID),
		logging.Int64("umpire_id", filter.UmpireID),
		logging.Int("season", filter.Season))

	result, err := cliCtx.Client.Score(cmd.Context(), filter)
	if err != nil {
		return err
	}

	return PrintResult(cmd, scoreView{result})
}

// scoreView adapts a ScoreResult for text and table rendering.
type scoreView struct {
	*client.ScoreResult
}

func (v scoreView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SZAS: %.3f\n", v.SZAS)
	fmt.Fprintf(&sb, "  IoU fixed/regression:   %.3f\n", v.IoU.FixedRegression)
	fmt.Fprintf(&sb, "  IoU fixed/density:      %.3f\n", v.IoU.FixedDensity)
	fmt.Fprintf(&sb, "  IoU regression/density: %.3f\n", v.IoU.RegressionDensity)
	fmt.Fprintf(&sb, "  Divergence regression:  %.3f\n", v.Divergence.Regression)
	fmt.Fprintf(&sb, "  Divergence density:     %.3f\n", v.Divergence.Density)
	fmt.Fprintf(&sb, "  Bias: %.3f (z=%.2f, significant=%t)\n", v.Bias.Value, v.Bias.ZScore, v.Bias.Significant)
	fmt.Fprintf(&sb, "  Pitches: %d total, %d takes, %d swings\n",
		v.Stats.TotalPitches, v.Stats.Takes, v.Stats.Swings)
	fmt.Fprintf(&sb, "\n%s\n", v.Interpretation)
	return sb.String()
}

func (v scoreView) TableHeaders() []string {
	return []string{"METRIC", "VALUE"}
}

func (v scoreView) TableRows() [][]string {
	return [][]string{
		{"szas", fmt.Sprintf("%.3f", v.SZAS)},
		{"iou_fixed_regression", fmt.Sprintf("%.3f", v.IoU.FixedRegression)},
		{"iou_fixed_density", fmt.Sprintf("%.3f", v.IoU.FixedDensity)},
		{"iou_regression_density", fmt.Sprintf("%.3f", v.IoU.RegressionDensity)},
		{"divergence_regression", fmt.Sprintf("%.3f", v.Divergence.Regression)},
		{"divergence_density", fmt.Sprintf("%.3f", v.Divergence.Density)},
		{"bias", fmt.Sprintf("%.3f", v.Bias.Value)},
		{"total_pitches", fmt.Sprintf("%d", v.Stats.TotalPitches)},
	}
}

// NewSurfacesCmd creates the surfaces command.
func NewSurfacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surfaces",
		Short: "Fetch the three zone surfaces for a pitch selection",
		Long:  "Fetches the evaluation grid, zone membership surfaces, and plotted\npitch locations for rendering. Output is JSON regardless of --output\nsince the payload is a set of dense grids.",
		RunE:  runSurfaces,
	}
	addScoreFilterFlags(cmd)
	return cmd
}

func runSurfaces(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	result, err := cliCtx.Client.Surfaces(cmd.Context(), scoreFilter())
	if err != nil {
		return err
	}

	return printJSON(cmd, result)
}
