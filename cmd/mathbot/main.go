package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mathbot/internal/bootstrap"
	progressdto "mathbot/internal/modules/progress/dto"
	"mathbot/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir string
	json    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "mathbot",
		Short:         "MathBot lesson catalog and study progress",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data", ".", "data directory (config, local storage, notes)")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "print JSON instead of text")

	root.AddCommand(newCatalogCmd(flags))
	root.AddCommand(newProgressCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newTUICmd(flags))
	return root
}

func withApp(flags *globalFlags, fn func(app *bootstrap.App) error) error {
	cfg, err := config.New(flags.dataDir)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(flags, bootstrap.RunTUI)
		},
	}
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	var syncEvery time.Duration
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and progress HTTP bridge for the browser frontend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				if addr != "" {
					app.Config.HTTPAddr = addr
				}
				every := app.Config.CatalogSyncEvery
				if cmd.Flags().Changed("sync-every") {
					every = syncEvery
				}
				ctx, stop := signalContext()
				defer stop()
				return app.Serve(ctx, every)
			})
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http.addr)")
	serve.Flags().DurationVar(&syncEvery, "sync-every", 0, "catalog refresh interval, 0 disables (defaults to catalog.sync_every)")
	return serve
}

func newCatalogCmd(flags *globalFlags) *cobra.Command {
	catalog := &cobra.Command{Use: "catalog", Short: "Lesson catalog commands"}

	var area string
	list := &cobra.Command{
		Use:   "list",
		Short: "List lessons",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				lessons, err := app.CatalogCLI.Lessons(cmd.Context())
				if err != nil {
					return err
				}
				if area != "" {
					key := strings.ToLower(strings.TrimSpace(area))
					filtered := lessons[:0]
					for _, lesson := range lessons {
						if lesson.AreaKey == key {
							filtered = append(filtered, lesson)
						}
					}
					lessons = filtered
				}
				if flags.json {
					return writeJSON(cmd.OutOrStdout(), lessons)
				}
				if len(lessons) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no lessons")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, lesson := range lessons {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", lesson.ID, lesson.Nombre, lesson.AreaLabel, lesson.UnitTitulo)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().StringVar(&area, "area", "", "only lessons of this area key")

	var unitArea string
	units := &cobra.Command{
		Use:   "units",
		Short: "List units",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				units, err := app.CatalogCLI.Units(cmd.Context(), unitArea)
				if err != nil {
					return err
				}
				if flags.json {
					return writeJSON(cmd.OutOrStdout(), units)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, unit := range units {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d topics\t%d lessons\n", unit.ID, unit.Titulo, unit.AreaLabel, unit.TopicsCount, unit.LessonsCount)
				}
				return tw.Flush()
			})
		},
	}
	units.Flags().StringVar(&unitArea, "area", "", "only units of this area key")

	areas := &cobra.Command{
		Use:   "areas",
		Short: "Summarise lessons per area",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				summary, err := app.CatalogCLI.Areas(cmd.Context())
				if err != nil {
					return err
				}
				if flags.json {
					return writeJSON(cmd.OutOrStdout(), summary)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, item := range summary {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%d units\t%d topics\t%d lessons\n", item.Key, item.Label, item.UnitCount, item.TopicCount, item.LessonCount)
				}
				return tw.Flush()
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <lesson-id>",
		Short: "Show one lesson",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				lesson, err := app.CatalogCLI.Lesson(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if flags.json {
					return writeJSON(cmd.OutOrStdout(), lesson)
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "%s  %s\n", lesson.ID, lesson.Nombre)
				_, _ = fmt.Fprintf(out, "area:  %s\nunit:  %s %s\ntopic: %s %s\n", lesson.AreaLabel, lesson.UnitNumero, lesson.UnitTitulo, lesson.TopicNumero, lesson.TopicTitulo)
				if lesson.Preview != "" {
					_, _ = fmt.Fprintf(out, "\n%s\n", lesson.Preview)
				}
				return nil
			})
		},
	}

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Reload the catalog from the lessons API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				status, err := app.CatalogCLI.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				if flags.json {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "catalog %s: %d units, %d topics, %d lessons\n", status.State, status.Totals.Units, status.Totals.Topics, status.Totals.Lessons)
				return nil
			})
		},
	}

	var limit int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search lessons by name, preview, unit or topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				lessons, err := app.CatalogCLI.Search(cmd.Context(), strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				if flags.json {
					return writeJSON(cmd.OutOrStdout(), lessons)
				}
				if len(lessons) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no matches")
					return nil
				}
				for _, lesson := range lessons {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s (%s)\n", lesson.ID, lesson.Nombre, lesson.UnitTitulo)
				}
				return nil
			})
		},
	}
	search.Flags().IntVar(&limit, "limit", 0, "maximum results (default 20)")

	var every time.Duration
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the catalog periodically until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				interval := app.Config.CatalogSyncEvery
				if cmd.Flags().Changed("every") {
					interval = every
				}
				ctx, stop := signalContext()
				defer stop()
				out := cmd.OutOrStdout()
				return app.Sync(ctx, interval, func(err error) {
					if err != nil {
						_, _ = fmt.Fprintf(out, "%s sync failed: %v\n", time.Now().Format(time.TimeOnly), err)
						return
					}
					_, _ = fmt.Fprintf(out, "%s synced\n", time.Now().Format(time.TimeOnly))
				})
			})
		},
	}
	syncCmd.Flags().DurationVar(&every, "every", 0, "refresh interval (defaults to catalog.sync_every)")

	catalog.AddCommand(list, units, areas, show, refresh, search, syncCmd)
	return catalog
}

func newProgressCmd(flags *globalFlags) *cobra.Command {
	progress := &cobra.Command{Use: "progress", Short: "Study progress commands"}

	printChange := func(cmd *cobra.Command, out progressdto.ChangeOutput) error {
		if flags.json {
			return writeJSON(cmd.OutOrStdout(), out)
		}
		state := "open"
		if out.Completed {
			state = "completed"
		}
		changed := "unchanged"
		if out.Changed {
			changed = "updated"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "lesson %s %s (%s)\n", out.LessonID, state, changed)
		return nil
	}

	open := &cobra.Command{
		Use:   "open <lesson-id>",
		Short: "Record that a lesson was opened and start its study timer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.ProgressCLI.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printChange(cmd, out)
			})
		},
	}

	var at string
	var force bool
	complete := &cobra.Command{
		Use:   "complete <lesson-id>",
		Short: "Mark a lesson completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				app.Warm(cmd.Context())
				out, err := app.ProgressCLI.Complete(cmd.Context(), args[0], at, force)
				if err != nil {
					return err
				}
				return printChange(cmd, out)
			})
		},
	}
	complete.Flags().StringVar(&at, "at", "", "completion time, RFC 3339 (defaults to now)")
	complete.Flags().BoolVar(&force, "force", false, "overwrite an existing completion")

	uncomplete := &cobra.Command{
		Use:   "uncomplete <lesson-id>",
		Short: "Clear a lesson's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.ProgressCLI.Uncomplete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printChange(cmd, out)
			})
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <lesson-id>",
		Short: "Flip a lesson between completed and open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				app.Warm(cmd.Context())
				out, err := app.ProgressCLI.Toggle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printChange(cmd, out)
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show totals, streak and study time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				app.Warm(cmd.Context())
				snap := app.ProgressCLI.Status(cmd.Context())
				if flags.json {
					return writeJSON(cmd.OutOrStdout(), snap)
				}
				return printSnapshot(cmd.OutOrStdout(), snap)
			})
		},
	}

	var days int
	activity := &cobra.Command{
		Use:   "activity",
		Short: "Completions per day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				values, err := app.ProgressCLI.Activity(cmd.Context(), days)
				if err != nil {
					return err
				}
				if flags.json {
					return writeJSON(cmd.OutOrStdout(), values)
				}
				for _, value := range values {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %d\n", value.Day, strings.Repeat("#", value.Value), value.Value)
				}
				return nil
			})
		},
	}
	activity.Flags().IntVar(&days, "days", 7, "number of trailing days")

	report := &cobra.Command{
		Use:   "report",
		Short: "Write the progress report note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				app.Warm(cmd.Context())
				out, err := app.ProgressCLI.Report(cmd.Context())
				if err != nil {
					return err
				}
				if flags.json {
					return writeJSON(cmd.OutOrStdout(), out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "report written: %s\n", out.Path)
				return nil
			})
		},
	}

	progress.AddCommand(open, complete, uncomplete, toggle, status, activity, report)
	return progress
}

func printSnapshot(w io.Writer, snap progressdto.Snapshot) error {
	streak := "none"
	if snap.Streak.LastDate != nil {
		streak = fmt.Sprintf("%d days (last %s)", snap.Streak.Count, *snap.Streak.LastDate)
	}
	_, _ = fmt.Fprintf(w, "lessons: %d/%d  units: %d  areas: %d\n", snap.Totals.LessonsCompleted, snap.Totals.Lessons, snap.Totals.UnitsCompleted, snap.Totals.AreasCompleted)
	_, _ = fmt.Fprintf(w, "streak:  %s\n", streak)
	_, _ = fmt.Fprintf(w, "study:   %d min total, %d min this week\n\n", snap.Study.TotalMinutes, snap.Study.ThisWeekMinutes)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, area := range snap.Areas {
		_, _ = fmt.Fprintf(tw, "%s\t%d/%d\n", area.Label, area.Completed, area.Total)
	}
	return tw.Flush()
}
