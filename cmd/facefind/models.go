package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facefind/pkg/models"
)

var modelsFetch bool

var modelsCmd = &cobra.Command{
	Use:   "models [artifact ...]",
	Short: "List or fetch detection model artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModels(args)
	},
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsFetch, "fetch", false, "Download the named artifacts (all defaults when none named)")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(names []string) error {
	if modelsFetch {
		if err := models.Ensure(flagModelDir, names...); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ARTIFACT\tSTATUS\tPATH")
	fmt.Fprintln(w, "--------\t------\t----")
	for _, st := range models.Report(flagModelDir) {
		status := "missing"
		path := "-"
		if st.Present {
			status = "present"
			path = st.Path
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Name, status, path)
	}
	return w.Flush()
}
