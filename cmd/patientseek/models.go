package main

import (
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/patientseek/pkg/cli"
)

func newModelsCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Long: `List the built-in models and the models declared in the configuration file.

Examples:
  patientseek models
  patientseek models --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}

			plugin, err := a.newPlugin(nil)
			if err != nil {
				return cli.NewCommandError("models", err)
			}
			defer plugin.Close()

			reg := plugin.Registry()
			table := cli.Table{Headers: []string{"ID", "Label", "Output", "Structured"}}
			for _, m := range plugin.Models() {
				ref, err := m.Reference()
				if err != nil {
					continue
				}
				wire := ref.Name
				if ref.Version != "" {
					wire = ref.Version
				}

				outputs := make([]string, 0, len(ref.Info.Supports.Output))
				for _, f := range ref.Info.Supports.Output {
					outputs = append(outputs, string(f))
				}
				structured := "no"
				if reg.AllowsStructuredOutput(wire) {
					structured = "yes"
				}

				table.Rows = append(table.Rows, []string{
					m.ID(),
					ref.Info.Label,
					strings.Join(outputs, ","),
					structured,
				})
			}

			return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	return cmd
}
