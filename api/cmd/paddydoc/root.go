package main

import (
	"github.com/spf13/cobra"
)

var outputFormat string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "paddydoc",
		Short: "Paddy leaf disease reports from vision models",
		Long: `paddydoc turns the free-text answer of a vision model about a paddy (rice)
leaf photo into a structured report: an error, a healthy verdict, or titled
sections such as Disease Name, Severity, Symptoms and Treatment.

  paddydoc classify answer.txt      classify an existing model answer
  paddydoc analyze leaf.jpg         ask a vision model, then classify
  paddydoc purge --older-than 720h  drop old stored diagnoses`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "text", "output format: text, json or yaml",
	)
	root.AddCommand(newClassifyCmd(), newAnalyzeCmd(), newPurgeCmd())
	return root
}
