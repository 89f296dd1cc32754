package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calledstrike/szas/pkg/client"
)

var (
	influenceSeason int
	batchIDs        []int64
	batchTopN       int
	batchSeason     int
)

// NewInfluenceCmd creates the influence command and its batch subcommand.
func NewInfluenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "influence <batter-id>",
		Short: "Estimate a batter's take influence on called strikes",
		Long:  "Fits the influence regression for one batter: how much a preceding\ntake by this batter shifts the odds of the next taken pitch being\ncalled a strike.",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfluence,
	}
	cmd.Flags().IntVar(&influenceSeason, "season", 0, "season filter (e.g. 2024)")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Run influence analysis over multiple batters",
		RunE:  runInfluenceBatch,
	}
	batchCmd.Flags().Int64SliceVar(&batchIDs, "ids", nil, "explicit batter ids (mutually exclusive with --top)")
	batchCmd.Flags().IntVar(&batchTopN, "top", 0, "analyze the N batters with the most pitches")
	batchCmd.Flags().IntVar(&batchSeason, "season", 0, "season filter (e.g. 2024)")

	cmd.AddCommand(batchCmd)
	return cmd
}

func runInfluence(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	batterID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || batterID <= 0 {
		return fmt.Errorf("batter id must be a positive integer, got %q", args[0])
	}

	result, err := cliCtx.Client.Influence(cmd.Context(), batterID, influenceSeason)
	if err != nil {
		return err
	}

	return PrintResult(cmd, influenceView{result})
}

func runInfluenceBatch(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	if len(batchIDs) == 0 && batchTopN == 0 {
		return fmt.Errorf("either --ids or --top must be provided")
	}
	if len(batchIDs) > 0 && batchTopN > 0 {
		return fmt.Errorf("--ids and --top are mutually exclusive, provide only one")
	}

	agg, err := cliCtx.Client.InfluenceBatch(cmd.Context(), client.BatchRequest{
		BatterIDs: batchIDs,
		TopN:      batchTopN,
		Season:    batchSeason,
	})
	if err != nil {
		return err
	}

	return PrintResult(cmd, aggregateView{agg})
}

// influenceView adapts a single-batter result for rendering.
type influenceView struct {
	*client.InfluenceResult
}

func (v influenceView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batter %d\n", v.SubjectID)
	fmt.Fprintf(&sb, "  Coefficient: %+.4f (odds ratio %.3f, z=%.2f)\n", v.Coefficient, v.OddsRatio, v.ZScore)
	fmt.Fprintf(&sb, "  Takes analyzed: %d over %d qualifying sequences\n", v.TakesAnalyzed, v.QualifyingSequences)
	fmt.Fprintf(&sb, "  Overall swing rate: %.3f\n", v.OverallSwingRate)
	switch {
	case v.Freeswinger:
		sb.WriteString("  Profile: freeswinger\n")
	case v.Patient:
		sb.WriteString("  Profile: patient\n")
	}
	return sb.String()
}

func (v influenceView) TableHeaders() []string {
	return []string{"BATTER", "COEFFICIENT", "ODDS_RATIO", "Z", "TAKES", "SEQUENCES"}
}

func (v influenceView) TableRows() [][]string {
	return [][]string{{
		strconv.FormatInt(v.SubjectID, 10),
		fmt.Sprintf("%+.4f", v.Coefficient),
		fmt.Sprintf("%.3f", v.OddsRatio),
		fmt.Sprintf("%.2f", v.ZScore),
		strconv.Itoa(v.TakesAnalyzed),
		strconv.Itoa(v.QualifyingSequences),
	}}
}

// aggregateView adapts a batch result for rendering.
type aggregateView struct {
	*client.InfluenceAggregate
}

func (v aggregateView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyzed %d batters (%d failed)\n", v.Succeeded, v.Failed)
	fmt.Fprintf(&sb, "  Mean coefficient: %+.4f (std %.4f)\n", v.MeanCoefficient, v.CoefficientStd)
	fmt.Fprintf(&sb, "  Mean odds ratio:  %.3f\n", v.MeanOddsRatio)
	fmt.Fprintf(&sb, "  Freeswingers: %d, patient: %d\n", v.Freeswingers, v.PatientBatters)
	if len(v.Results) > 0 {
		sb.WriteString("\n")
		sb.WriteString(FormatTable(
			[]string{"BATTER", "COEFFICIENT", "ODDS_RATIO", "Z"},
			aggregateRows(v.Results),
		))
	}
	for _, f := range v.Failures {
		fmt.Fprintf(&sb, "failed: batter %d: %s\n", f.SubjectID, f.Reason)
	}
	return sb.String()
}

func (v aggregateView) TableHeaders() []string {
	return []string{"BATTER", "COEFFICIENT", "ODDS_RATIO", "Z"}
}

func (v aggregateView) TableRows() [][]string {
	return aggregateRows(v.Results)
}

func aggregateRows(results []*client.InfluenceResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.FormatInt(r.SubjectID, 10),
			fmt.Sprintf("%+.4f", r.Coefficient),
			fmt.Sprintf("%.3f", r.OddsRatio),
			fmt.Sprintf("%.2f", r.ZScore),
		})
	}
	return rows
}
