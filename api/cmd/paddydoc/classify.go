package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"paddydoc/api/internal/report"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify a model answer read from file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			text, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return writeReport(cmd.OutOrStdout(), outputFormat, report.Classify(string(text)))
		},
	}
}
