// Package events implements listing, exporting and deleting stored events.
package events

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/barkwatch/barkwatch-go/internal/analytics"
	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/datastore"
	"github.com/barkwatch/barkwatch-go/internal/errors"
	"github.com/barkwatch/barkwatch-go/internal/observation"
)

type options struct {
	class  string
	day    string
	from   string
	to     string
	format string
	output string
	all    bool
}

// Command creates the events command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect and manage stored events",
	}

	cmd.PersistentFlags().StringVar(&opts.class, "class", conf.ClassBark, "Event class (bark, thunder)")
	cmd.PersistentFlags().StringVar(&opts.day, "day", "", "Restrict to one day (2006-01-02)")
	cmd.PersistentFlags().StringVar(&opts.from, "from", "", "Start date inclusive (2006-01-02)")
	cmd.PersistentFlags().StringVar(&opts.to, "to", "", "End date inclusive (2006-01-02)")

	cmd.AddCommand(
		listCommand(settings, opts),
		daysCommand(settings, opts),
		exportCommand(settings, opts),
		deleteCommand(settings, opts),
		summaryCommand(settings, opts),
	)

	return cmd
}

func listCommand(settings *conf.Settings, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(settings, func(store datastore.Interface) error {
				events, err := queryRange(store, opts)
				if err != nil {
					return err
				}
				return observation.WriteTable(os.Stdout, events)
			})
		},
	}
}

func daysCommand(settings *conf.Settings, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "days",
		Short: "List days with stored events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(settings, func(store datastore.Interface) error {
				days, err := store.ListDays(opts.class)
				if err != nil {
					return err
				}
				for _, day := range days {
					count, err := store.CountForDay(opts.class, day)
					if err != nil {
						return err
					}
					fmt.Printf("%s  %d\n", day, count)
				}
				return nil
			})
		},
	}
}

func exportCommand(settings *conf.Settings, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(settings, func(store datastore.Interface) error {
				events, err := queryRange(store, opts)
				if err != nil {
					return err
				}

				out := os.Stdout
				if opts.output != "" {
					f, err := os.Create(opts.output)
					if err != nil {
						return err
					}
					defer f.Close()
					out = f
				}

				switch opts.format {
				case "csv":
					return observation.WriteCSV(out, events)
				case "json":
					return observation.WriteJSON(out, events)
				default:
					return errors.Newf("unsupported export format %q, use csv or json", opts.format).
						Component("events").
						Category(errors.CategoryValidation).
						Build()
				}
			})
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "Export format: csv, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file, defaults to stdout")
	return cmd
}

func deleteCommand(settings *conf.Settings, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete stored events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(settings, func(store datastore.Interface) error {
				if opts.all {
					if err := store.DeleteAll(opts.class); err != nil {
						return err
					}
					fmt.Printf("Deleted all %s events\n", opts.class)
					return nil
				}

				start, end, err := resolveRange(opts)
				if err != nil {
					return err
				}
				if start.IsZero() && opts.day == "" {
					return errors.Newf("refusing to delete without a range, pass --day, --from/--to or --all").
						Component("events").
						Category(errors.CategoryValidation).
						Build()
				}
				if err := store.DeleteRange(opts.class, start, end); err != nil {
					return err
				}
				fmt.Printf("Deleted %s events between %s and %s\n",
					opts.class, start.Format("2006-01-02"), end.Format("2006-01-02"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "Delete every event of the class")
	return cmd
}

func summaryCommand(settings *conf.Settings, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the daily summary for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := opts.day
			if day == "" {
				day = time.Now().Format("2006-01-02")
			}

			return withStore(settings, func(store datastore.Interface) error {
				service := analytics.NewService(store)
				summary, err := service.DailySummary(opts.class, day)
				if err != nil {
					return err
				}
				printSummary(&summary)
				return nil
			})
		},
	}
}

func printSummary(s *analytics.DailySummary) {
	fmt.Printf("%s events on %s: %d\n", s.Class, s.Date, s.Count)
	if s.Count == 0 {
		return
	}
	fmt.Printf("  total duration:   %v\n", s.TotalDuration.Round(time.Millisecond))
	fmt.Printf("  average duration: %v\n", s.AvgDuration.Round(time.Millisecond))
	fmt.Printf("  longest duration: %v\n", s.LongestDuration.Round(time.Millisecond))
	fmt.Printf("  peak confidence:  mean %.2f, max %.2f\n", s.MeanPeakConfidence, s.MaxPeakConfidence)
	fmt.Printf("  busiest hour:     %02d:00\n", s.PeakHour)

	fmt.Println("  hourly counts:")
	for hour, count := range s.Hourly {
		if count > 0 {
			fmt.Printf("    %02d:00  %d\n", hour, count)
		}
	}
}

// withStore opens the configured store, runs fn and closes the store.
func withStore(settings *conf.Settings, fn func(datastore.Interface) error) error {
	store := datastore.New(settings)
	if store == nil {
		return errors.Newf("no database output enabled").
			Component("events").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	return fn(store)
}

func queryRange(store datastore.Interface, opts *options) ([]datastore.Event, error) {
	if opts.day != "" {
		return store.EventsForDay(opts.class, opts.day)
	}
	start, end, err := resolveRange(opts)
	if err != nil {
		return nil, err
	}
	return store.QueryEvents(opts.class, start, end)
}

// resolveRange turns --day / --from / --to into a [start, end) interval.
// An omitted bound is open on that side.
func resolveRange(opts *options) (start, end time.Time, err error) {
	end = time.Date(9999, 1, 1, 0, 0, 0, 0, time.Local)

	if opts.day != "" {
		start, err = time.ParseInLocation("2006-01-02", opts.day, time.Local)
		if err != nil {
			return start, end, err
		}
		return start, start.AddDate(0, 0, 1), nil
	}

	if opts.from != "" {
		if start, err = time.ParseInLocation("2006-01-02", opts.from, time.Local); err != nil {
			return start, end, err
		}
	}
	if opts.to != "" {
		to, err := time.ParseInLocation("2006-01-02", opts.to, time.Local)
		if err != nil {
			return start, end, err
		}
		end = to.AddDate(0, 0, 1)
	}
	return start, end, nil
}
