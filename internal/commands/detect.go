package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/billwatch/billwatch/internal/domain/common"
	"github.com/billwatch/billwatch/internal/domain/ingest/colmap"
	"github.com/billwatch/billwatch/internal/domain/ingest/service"
	"github.com/billwatch/billwatch/internal/domain/ingest/sniffer"
	"github.com/billwatch/billwatch/internal/domain/recurring"
	"github.com/billwatch/billwatch/internal/domain/session"
)

func newDetectCommand() *cobra.Command {
	var (
		minCount  int
		maxGroups int
		sign      string
		stateFile string
		asJSON    bool
		dateCol   string
		descCol   string
		amountCol string
	)

	cmd := &cobra.Command{
		Use:   "detect <files...>",
		Short: "Detect recurring bills and subscriptions in bank exports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-count") {
				minCount = viper.GetInt("min_count")
			}
			if !cmd.Flags().Changed("max-groups") {
				maxGroups = viper.GetInt("max_groups")
			}
			if !cmd.Flags().Changed("sign") {
				sign = viper.GetString("sign")
			}
			if stateFile == "" {
				stateFile = viper.GetString("state")
			}

			files := loadFiles(cmd.ErrOrStderr(), args)
			if len(files) == 0 {
				return fmt.Errorf("%w: none of the given files could be read as tabular data", common.ErrEmptyBatch)
			}

			mapping := common.ColumnMap{Date: dateCol, Description: descCol, Amount: amountCol}
			if mapping.Date == "" || mapping.Description == "" || mapping.Amount == "" {
				guessed, ok := colmap.Guess(files[0].Headers)
				if !ok {
					return fmt.Errorf("%w: pass --date-col, --desc-col, and --amount-col", common.ErrNoMapping)
				}
				mapping = guessed
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			parseSvc := service.NewParseService(logger)
			result, err := parseSvc.Parse(cmd.Context(), files, mapping, common.ExpenseSign(sign))
			if err != nil {
				return err
			}
			for _, fe := range result.FileErrors {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", fe.Error())
			}

			groups := recurring.Detect(result.Transactions, recurring.Options{
				MinCount:  minCount,
				MaxGroups: maxGroups,
			})

			state := session.NewState()
			if stateFile != "" {
				state, err = session.Load(stateFile)
				if err != nil {
					return err
				}
			}
			annotated := state.Annotate(groups)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(annotated)
			}
			printGroups(cmd.OutOrStdout(), annotated)
			return nil
		},
	}

	cmd.Flags().IntVar(&minCount, "min-count", recurring.DefaultMinCount, "minimum charges before a merchant counts as recurring")
	cmd.Flags().IntVar(&maxGroups, "max-groups", recurring.DefaultMaxGroups, "maximum number of groups to report")
	cmd.Flags().StringVar(&sign, "sign", string(common.SignAuto), "expense sign convention: auto, negative, or positive")
	cmd.Flags().StringVar(&stateFile, "state", "", "session state file with decisions and categories")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	cmd.Flags().StringVar(&dateCol, "date-col", "", "header of the date column (skips guessing)")
	cmd.Flags().StringVar(&descCol, "desc-col", "", "header of the description column (skips guessing)")
	cmd.Flags().StringVar(&amountCol, "amount-col", "", "header of the amount column (skips guessing)")

	return cmd
}

// loadFiles tabularizes each path, warning (not failing) per unreadable or
// structurally broken file.
func loadFiles(errOut io.Writer, paths []string) []common.File {
	var files []common.File
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(errOut, "warning: %v\n", err)
			continue
		}
		file, err := sniffer.Tabularize(path, data)
		if err != nil {
			fmt.Fprintf(errOut, "warning: %s: %v\n", path, err)
			continue
		}
		files = append(files, *file)
	}
	return files
}

func printGroups(out io.Writer, groups []recurring.AnnotatedGroup) {
	shown := 0
	for _, g := range groups {
		if g.Decision == recurring.DecisionDismissed {
			continue
		}
		shown++

		fmt.Fprintf(out, "%-32s %-9s %s", g.Merchant, g.Cadence, g.TypicalAmount.StringFixed(2))
		if g.AmountMAD.IsPositive() {
			fmt.Fprintf(out, " (±%s)", g.AmountMAD.StringFixed(2))
		}
		if g.UsualDayOfMonth != nil {
			fmt.Fprintf(out, "  day %d", *g.UsualDayOfMonth)
		}
		fmt.Fprintf(out, "  x%d", g.Count)
		if g.Category != "" {
			fmt.Fprintf(out, "  [%s]", g.Category)
		}
		fmt.Fprintln(out)
	}

	if shown == 0 {
		fmt.Fprintln(out, "No recurring merchants found.")
		return
	}
	fmt.Fprintf(out, "\n%d recurring merchant(s)\n", shown)
}
