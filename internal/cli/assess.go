package cli

import (
	"github.com/spf13/cobra"

	"stress-backend/internal/stress"
)

func newAssessCommand(a *app) *cobra.Command {
	var factors stress.FactorRecord

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score one set of stress factors and print the recommendations.",
		Example: `  stressctl assess --stage undergraduate --peer 8 --home 6 --environment noisy \
    --coping "Social support (friends, family)" --bad-habits yes --competition 7`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			res, err := engine.Assess(cmd.Context(), factors)
			if err != nil {
				return err
			}
			if a.output() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeResult(cmd.OutOrStdout(), res, a.useColor())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&factors.AcademicStage, "stage", "", "academic stage, e.g. high school, undergraduate, post-graduate")
	flags.Float64Var(&factors.PeerPressure, "peer", 0, "peer pressure rating 0-10")
	flags.Float64Var(&factors.HomeAcademicPressure, "home", 0, "academic pressure from home 0-10")
	flags.StringVar(&factors.StudyEnvironment, "environment", "", "study environment, e.g. peaceful, noisy, disrupted")
	flags.StringVar(&factors.CopingStrategy, "coping", "", "coping strategy")
	flags.StringVar(&factors.HasBadHabits, "bad-habits", "", "bad habits: yes, no or prefer not to say")
	flags.Float64Var(&factors.AcademicCompetition, "competition", 0, "academic competition rating 0-10")
	return cmd
}
