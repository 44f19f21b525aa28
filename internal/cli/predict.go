package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcules/student-success/internal/dataset"
	"github.com/mcules/student-success/internal/model"
	"github.com/mcules/student-success/internal/predict"
	"github.com/mcules/student-success/internal/report"
	"github.com/mcules/student-success/internal/student"
)

type PredictOptions struct {
	Input       string
	Set         []string
	ModelPath   string
	DatasetPath string
	Alignment   string
}

// staticModel serves one model loaded for the life of a command.
type staticModel struct{ m *model.Model }

func (s staticModel) Model() (*model.Model, error) { return s.m, nil }

func NewPredictCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PredictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict one student's outcome",
		Long: `Predict one student's outcome from a JSON object of field values
(--input, "-" for stdin) and/or field=value pairs (--set). Fields left out
take their form defaults.`,
		Example: `  student-success predict --set Course=9119 --set Admission_grade=133.1
  student-success predict --input student.json --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "JSON file of field values (- for stdin)")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "field=value, repeatable")
	cmd.Flags().StringVar(&opts.ModelPath, "model", "", "model artifact (default from config)")
	cmd.Flags().StringVar(&opts.DatasetPath, "dataset", "", "dataset for select options (default from config)")
	cmd.Flags().StringVar(&opts.Alignment, "alignment", "", "strict or pad (default from config)")
	return cmd
}

func readValues(cmd *cobra.Command, opts *PredictOptions) (map[string]string, error) {
	values := map[string]string{}
	if opts.Input != "" {
		var r io.Reader = cmd.InOrStdin()
		if opts.Input != "-" {
			f, err := os.Open(opts.Input)
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "open input", err)
			}
			defer f.Close()
			r = f
		}
		v, err := student.DecodeValues(r)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read input", err)
		}
		values = v
	}
	set, err := student.ParseAssignments(opts.Set)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "--set", err)
	}
	for k, v := range set {
		values[k] = v
	}
	return values, nil
}

func runPredict(rootOpts *RootOptions, opts *PredictOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	if opts.ModelPath == "" {
		opts.ModelPath = cfg.Model.Path
	}
	if opts.DatasetPath == "" {
		opts.DatasetPath = cfg.Dataset.Path
	}
	if opts.Alignment != "" {
		cfg.Model.Alignment = opts.Alignment
		if err := cfg.Validate(); err != nil {
			return WrapExitError(ExitCommandError, "--alignment", err)
		}
	}

	values, err := readValues(cmd, opts)
	if err != nil {
		return err
	}

	m, err := model.Load(opts.ModelPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load model", err)
	}
	d, err := dataset.Load(opts.DatasetPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load dataset", err)
	}

	rec, err := student.Parse(values, d.Options())
	var verrs student.ValidationErrors
	if errors.As(err, &verrs) {
		if rootOpts.Format == "json" {
			_ = writeJSON(cmd.OutOrStdout(), map[string]any{"error": "validation failed", "fields": verrs})
		}
		return WrapExitError(ExitFailure, "invalid student data", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "invalid student data", err)
	}

	svc := predict.NewService(staticModel{m}, predict.Options{Mode: cfg.AlignmentMode()})
	res, err := svc.Predict(cmd.Context(), rec)
	if err != nil {
		return WrapExitError(ExitFailure, "prediction failed", err)
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return writeJSON(out, res)
	}
	fmt.Fprint(out, report.Text(res.Input, res.Outcome))
	fmt.Fprintf(out, "\n%s\n", res.Headline)
	for _, p := range res.Probabilities {
		fmt.Fprintf(out, "  %-10s %5.1f%%\n", p.Label, p.Probability*100)
	}
	if res.Alignment.Fabricated() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", res.Alignment.Summary())
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
