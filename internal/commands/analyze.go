package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/billwatch/billwatch/internal/domain/ingest/colmap"
	"github.com/billwatch/billwatch/internal/domain/ingest/sniffer"
)

func newAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Inspect an export's layout and guessed column mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			config, err := sniffer.DetectConfig(data)
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Delimiter:   %q\n", config.Delimiter)
			fmt.Fprintf(out, "Skip lines:  %d\n", config.SkipLines)
			fmt.Fprintf(out, "Fingerprint: %s\n", config.Fingerprint)
			fmt.Fprintf(out, "Headers:\n")
			for _, h := range config.Headers {
				fmt.Fprintf(out, "  - %s\n", h)
			}

			mapping, ok := colmap.Guess(config.Headers)
			if !ok {
				fmt.Fprintln(out, "Column guess: none (manual mapping required)")
				return nil
			}
			fmt.Fprintf(out, "Column guess:\n")
			fmt.Fprintf(out, "  date:        %s\n", mapping.Date)
			fmt.Fprintf(out, "  description: %s\n", mapping.Description)
			fmt.Fprintf(out, "  amount:      %s\n", mapping.Amount)
			return nil
		},
	}
}
