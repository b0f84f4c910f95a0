package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/bartune/templates"
)

func newTemplatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates [NAME]",
		Short: "List the embedded parameter templates or print one",
		Long: `Without arguments, list the parameter templates built into bartune.
With a name, print that template so it can be saved and edited.

Examples:
  bartune templates
  bartune templates SpeedFirstTemplate.json > MyTemplate.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				data, err := templates.Read(args[0])
				if err != nil {
					return fmt.Errorf("unknown template %q", args[0])
				}
				_, err = out.Write(data)
				return err
			}
			names, err := templates.List()
			if err != nil {
				return err
			}
			for _, n := range names {
				if _, err := fmt.Fprintln(out, n); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
