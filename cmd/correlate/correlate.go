// Package correlate implements the bark/thunder correlation report command.
package correlate

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/correlation"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/errors"
)

// Command creates the correlate command.
func Command(settings *conf.Settings) *cobra.Command {
	var day string
	var from string
	var to string

	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Correlate barks with thunder",
		Long:  "Report which bark events fall within the correlation window of a thunder event.",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := resolveRange(day, from, to)
			if err != nil {
				return err
			}

			store := datastore.New(settings)
			if store == nil {
				return errors.Newf("no database output enabled").
					Component("correlate").
					Category(errors.CategoryConfiguration).
					Build()
			}
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			report, err := correlation.AnalyzeRange(store, settings, start, end)
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Restrict to one day (2006-01-02)")
	cmd.Flags().StringVar(&from, "from", "", "Start date inclusive (2006-01-02)")
	cmd.Flags().StringVar(&to, "to", "", "End date inclusive (2006-01-02)")
	cmd.Flags().IntVar(&settings.Correlation.WindowMinutes, "window", viper.GetInt("correlation.windowminutes"), "Correlation window in minutes")

	return cmd
}

func resolveRange(day, from, to string) (start, end time.Time, err error) {
	end = time.Date(9999, 1, 1, 0, 0, 0, 0, time.Local)

	if day != "" {
		if start, err = time.ParseInLocation("2006-01-02", day, time.Local); err != nil {
			return start, end, err
		}
		return start, start.AddDate(0, 0, 1), nil
	}
	if from != "" {
		if start, err = time.ParseInLocation("2006-01-02", from, time.Local); err != nil {
			return start, end, err
		}
	}
	if to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			return start, end, err
		}
		end = t.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func printReport(report *correlation.Report) {
	fmt.Printf("Correlation window: %v\n", report.Window)
	fmt.Printf("Barks: %d total, %d near thunder (%.0f%%)\n",
		report.TotalBarks, report.MatchedBarks, report.MatchedBarkRatio*100)
	fmt.Printf("Thunders: %d total, %d with barks nearby, %.1f barks per thunder\n",
		report.TotalThunders, report.MatchedThunders, report.AvgBarksPerThunder)

	for i := range report.Thunders {
		tc := &report.Thunders[i]
		fmt.Printf("\nThunder at %s (%d bark match(es)):\n",
			tc.Thunder.BeginTime.Local().Format("2006-01-02 15:04:05"), len(tc.Matches))
		for _, match := range tc.Matches {
			fmt.Printf("  bark %-6s %7s  at %s\n",
				match.Relation,
				formatDelta(match.Delta),
				match.Bark.BeginTime.Local().Format("15:04:05"))
		}
	}

	if len(report.Timeline) > 0 {
		fmt.Println("\nTimeline:")
		for _, entry := range report.Timeline {
			marker := " "
			if entry.Matched {
				marker = "*"
			}
			fmt.Printf("  %s %s %s\n",
				entry.Time.Local().Format("2006-01-02 15:04:05"), marker, entry.Class)
		}
	}
}

func formatDelta(delta time.Duration) string {
	if delta < 0 {
		return "-" + (-delta).Round(time.Second).String()
	}
	return "+" + delta.Round(time.Second).String()
}
