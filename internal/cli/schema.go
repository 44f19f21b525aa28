package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mcules/student-success/internal/features"
	"github.com/mcules/student-success/internal/model"
	"github.com/mcules/student-success/internal/student"
)

type schemaOutput struct {
	Fields  []student.FieldSpec `json:"fields"`
	Derived []string            `json:"derived"`
	Model   *schemaModel        `json:"model,omitempty"`
}

type schemaModel struct {
	Path     string          `json:"path"`
	Version  string          `json:"version"`
	Kind     string          `json:"kind"`
	Task     string          `json:"task"`
	Classes  []string        `json:"classes"`
	Features features.Schema `json:"features"`
}

func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the form fields and the model's feature schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.Model.Path
			}

			out := schemaOutput{
				Fields:  student.Fields(),
				Derived: []string{student.ColRatio1stSem, student.ColRatio2ndSem},
			}
			m, err := model.Load(modelPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "load model", err)
			}
			out.Model = &schemaModel{
				Path:     modelPath,
				Version:  m.Version(),
				Kind:     m.Kind(),
				Task:     string(m.Task()),
				Classes:  m.Classes(),
				Features: m.Schema(),
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(w, out)
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tGROUP\tKIND\tRANGE\tDEFAULT")
			for _, f := range out.Fields {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Name, f.Group, f.Kind, valueRange(f), student.FormatValue(f, f.Default))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			s := out.Model.Features
			fmt.Fprintf(w, "\nmodel %s (%s, %s) classes %v\n", out.Model.Version, out.Model.Kind, out.Model.Task, out.Model.Classes)
			fmt.Fprintf(w, "width %d", s.NFeatures)
			if !s.Named() {
				fmt.Fprintf(w, " (unnamed; only pad alignment applies, legacy width %d)\n", features.LegacyWidth)
				return nil
			}
			fmt.Fprintln(w)
			for i, c := range s.Columns {
				fmt.Fprintf(w, "%4d  %s\n", i, c)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "model artifact (default from config)")
	return cmd
}

func valueRange(f student.FieldSpec) string {
	switch {
	case f.FromDataset:
		return "dataset codes"
	case len(f.Options) > 0:
		return fmt.Sprintf("%d options", len(f.Options))
	}
	return student.FormatValue(f, f.Min) + ".." + student.FormatValue(f, f.Max)
}
