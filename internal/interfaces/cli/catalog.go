package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calledstrike/szas/pkg/client"
)

var (
	catalogSeason int
	catalogLimit  int
)

// NewCatalogCmd creates the catalog command and its subcommands.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the pitch archive",
	}

	battersCmd := &cobra.Command{
		Use:   "batters",
		Short: "List batters ordered by pitch count",
		RunE:  runCatalogBatters,
	}
	umpiresCmd := &cobra.Command{
		Use:   "umpires",
		Short: "List umpires ordered by pitch count",
		RunE:  runCatalogUmpires,
	}
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show archive statistics for one season",
		RunE:  runCatalogSummary,
	}
	seasonsCmd := &cobra.Command{
		Use:   "seasons",
		Short: "List seasons present in the archive",
		RunE:  runCatalogSeasons,
	}
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Count the pitches a filter would select",
		RunE:  runCatalogPreview,
	}
	addScoreFilterFlags(previewCmd)

	for _, c := range []*cobra.Command{battersCmd, umpiresCmd, summaryCmd} {
		c.Flags().IntVar(&catalogSeason, "season", 0, "season filter (e.g. 2024)")
	}
	battersCmd.Flags().IntVar(&catalogLimit, "limit", 0, "maximum rows to return")
	umpiresCmd.Flags().IntVar(&catalogLimit, "limit", 0, "maximum rows to return")

	cmd.AddCommand(battersCmd, umpiresCmd, summaryCmd, seasonsCmd, previewCmd)
	return cmd
}

func runCatalogBatters(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	batters, err := cliCtx.Client.Batters(cmd.Context(), catalogSeason, catalogLimit)
	if err != nil {
		return err
	}
	return PrintResult(cmd, batterList(batters))
}

func runCatalogUmpires(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	umpires, err := cliCtx.Client.Umpires(cmd.Context(), catalogSeason, catalogLimit)
	if err != nil {
		return err
	}
	return PrintResult(cmd, umpireList(umpires))
}

func runCatalogSummary(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	summary, err := cliCtx.Client.Summary(cmd.Context(), catalogSeason)
	if err != nil {
		return err
	}
	return PrintResult(cmd, summaryView{summary})
}

func runCatalogSeasons(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	seasons, err := cliCtx.Client.Seasons(cmd.Context())
	if err != nil {
		return err
	}
	parts := make([]string, 0, len(seasons))
	for _, s := range seasons {
		parts = append(parts, strconv.Itoa(s))
	}
	return PrintResult(cmd, strings.Join(parts, "\n"))
}

func runCatalogPreview(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	count, err := cliCtx.Client.Preview(cmd.Context(), scoreFilter())
	if err != nil {
		return err
	}
	return PrintResult(cmd, fmt.Sprintf("%d pitches match", count))
}

type batterList []client.BatterInfo

func (l batterList) TableHeaders() []string {
	return []string{"BATTER", "PITCHES", "LONG_AT_BATS", "SIDES"}
}

func (l batterList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, b := range l {
		rows = append(rows, []string{
			strconv.FormatInt(b.BatterID, 10),
			strconv.Itoa(b.PitchCount),
			strconv.Itoa(b.LongAtBats),
			strings.Join(b.Sides, ","),
		})
	}
	return rows
}

func (l batterList) String() string {
	return FormatTable(l.TableHeaders(), l.TableRows())
}

type umpireList []client.UmpireInfo

func (l umpireList) TableHeaders() []string {
	return []string{"UMPIRE", "PITCHES"}
}

func (l umpireList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, u := range l {
		rows = append(rows, []string{
			strconv.FormatInt(u.UmpireID, 10),
			strconv.Itoa(u.PitchCount),
		})
	}
	return rows
}

func (l umpireList) String() string {
	return FormatTable(l.TableHeaders(), l.TableRows())
}

type summaryView struct {
	*client.SeasonSummary
}

func (v summaryView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Season %d\n", v.Season)
	fmt.Fprintf(&sb, "  Pitches: %d (%d takes, %d swings)\n", v.TotalPitches, v.Takes, v.Swings)
	fmt.Fprintf(&sb, "  Called strikes: %d, balls: %d\n", v.CalledStrikes, v.Balls)
	fmt.Fprintf(&sb, "  Batters: %d, umpires: %d\n", v.Batters, v.Umpires)
	return sb.String()
}

func (v summaryView) TableHeaders() []string {
	return []string{"SEASON", "PITCHES", "TAKES", "SWINGS", "CALLED_STRIKES", "BALLS", "BATTERS", "UMPIRES"}
}

func (v summaryView) TableRows() [][]string {
	return [][]string{{
		strconv.Itoa(v.Season),
		strconv.Itoa(v.TotalPitches),
		strconv.Itoa(v.Takes),
		strconv.Itoa(v.Swings),
		strconv.Itoa(v.CalledStrikes),
		strconv.Itoa(v.Balls),
		strconv.Itoa(v.Batters),
		strconv.Itoa(v.Umpires),
	}}
}
