package cli

import (
	"errors"

	"github.com/okian/incomelens/internal/domain/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// profileFlags binds the prediction input flags shared by estimate and predict.
type profileFlags struct {
	age        int
	education  string
	occupation string
	hours      int
	region     string
	minSalary  float64
	maxSalary  float64
}

func (p *profileFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&p.age, "age", 0, "Age in years (16-90)")
	fs.StringVar(&p.education, "education", "", "Education level, e.g. Bachelors")
	fs.StringVar(&p.occupation, "occupation", "", "Occupation, e.g. Prof-specialty")
	fs.IntVar(&p.hours, "hours", 40, "Hours worked per week (1-99)")
	fs.StringVar(&p.region, "region", "", "Cost-of-living region, e.g. Urban-Med")
	fs.Float64Var(&p.minSalary, "min-salary", 0, "Expected minimum salary")
	fs.Float64Var(&p.maxSalary, "max-salary", 0, "Expected maximum salary")
}

// input validates the flags and converts them to a prediction input.
func (p *profileFlags) input(fs *pflag.FlagSet) (model.PredictionInput, error) {
	in := model.PredictionInput{
		Age:          p.age,
		Education:    p.education,
		Occupation:   p.occupation,
		HoursPerWeek: p.hours,
		Region:       p.region,
	}
	if fs.Changed("min-salary") {
		v := p.minSalary
		in.ExpectedMinSalary = &v
	}
	if fs.Changed("max-salary") {
		v := p.maxSalary
		in.ExpectedMaxSalary = &v
	}
	return in, validateInput(in)
}

func newEstimateCommand(opts *globalOptions) *cobra.Command {
	flags := &profileFlags{}
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate a salary with the heuristic tables",
		Long: `Estimate a salary with the heuristic tables.

No network call is made; the estimate is fully determined by the flags and the
configured lookup tables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.input(cmd.Flags())
			if err != nil {
				return err
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, svc.Estimate(cmd.Context(), in))
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newPredictCommand(opts *globalOptions) *cobra.Command {
	flags := &profileFlags{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the income class of a profile",
		Long: `Predict the income class of a profile.

The prediction service at --ml-url is probed first. When it is unavailable or
fails, the heuristic fallback result is printed instead; the command still
succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.input(cmd.Flags())
			if err != nil {
				return err
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, svc.Predict(cmd.Context(), in))
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

var errInvalidInput = errors.New("invalid input")
