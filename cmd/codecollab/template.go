package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/caffeineduck/codecollab/interp"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template [language]",
	Short: "Print the starter template for a language",
	Long: `Print the hello-world template a new editor buffer starts with.

Without an argument, list the supported languages.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, l := range interp.Languages() {
			fmt.Fprintf(w, "%s\t%s\t.%s\n", l.Value, l.Label, l.Extension)
		}
		return w.Flush()
	}

	lang, err := resolveLanguage(args[0], "")
	if err != nil {
		return err
	}
	code, ok := interp.Template(string(lang))
	if !ok {
		return fmt.Errorf("no template for %s", lang)
	}
	fmt.Fprintln(out, code)
	return nil
}
