package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calledstrike/szas/internal/application/scoring"
	"github.com/calledstrike/szas/internal/synthetic"
)

var (
	demoSeed    int64
	demoPitches int
	demoNoise   float64
)

// NewDemoCmd creates the demo command. It scores a deterministic synthetic
// season entirely in-process, so the tool can be tried without a server or
// any backing stores.
func NewDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Score a synthetic season without a server",
		Long:  "Generates a deterministic synthetic pitch collection with a simulated\numpire and scores it locally. Useful for trying the scoring pipeline\nwithout a running server or data archive.",
		RunE:  runDemo,
	}
	cmd.Flags().Int64Var(&demoSeed, "seed", 42, "random seed for the synthetic season")
	cmd.Flags().IntVar(&demoPitches, "pitches", 2000, "number of synthetic pitches")
	cmd.Flags().Float64Var(&demoNoise, "noise", 0.15, "umpire edge noise; higher blurs the called zone")
	return cmd
}

func runDemo(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	opts := synthetic.DefaultFixtureOptions()
	opts.Seed = demoSeed
	opts.Pitches = demoPitches
	opts.UmpireNoise = demoNoise

	repo := synthetic.NewMemoryRepository(synthetic.GeneratePitches(opts))
	service := scoring.NewService(repo, nil, cliCtx.Logger)

	result, err := service.Score(cmd.Context(), &scoring.Input{Season: opts.Season})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Synthetic season %d (%d pitches, seed %d, noise %.2f)\n\n",
		opts.Season, demoPitches, demoSeed, demoNoise)

	return PrintResult(cmd, demoView{result})
}

// demoView renders the in-process scoring result.
type demoView struct {
	*scoring.Result
}

func (v demoView) String() string {
	return fmt.Sprintf(
		"SZAS: %.3f\n  IoU fixed/regression:   %.3f\n  IoU fixed/density:      %.3f\n  IoU regression/density: %.3f\n  Bias: %.3f (z=%.2f)\n  Pitches: %d total, %d takes, %d swings\n\n%s\n",
		v.SZAS,
		v.IoU.FixedRegression, v.IoU.FixedDensity, v.IoU.RegressionDensity,
		v.Bias.Value, v.Bias.ZScore,
		v.Samples.TotalPitches, v.Samples.Takes, v.Samples.Swings,
		v.Interpretation)
}
