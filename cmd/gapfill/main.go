package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jerichosy/gapfill/internal/calendar"
	"github.com/jerichosy/gapfill/internal/clockify"
	"github.com/jerichosy/gapfill/internal/config"
	"github.com/jerichosy/gapfill/internal/gaps"
	"github.com/jerichosy/gapfill/internal/interval"
	"github.com/jerichosy/gapfill/internal/notify"
	"github.com/jerichosy/gapfill/internal/preview"
	"github.com/jerichosy/gapfill/internal/store"
	"github.com/jerichosy/gapfill/internal/tui"
	"github.com/jerichosy/gapfill/internal/week"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "gapfill",
	Short: "Preview and fill gaps in your Clockify week",
	Long: "gapfill fetches your Clockify entries for a week, computes the uncovered\n" +
		"stretches of each workday (lunch excluded), and can create filler entries\n" +
		"for them after an explicit confirmation.",
}

var previewCmd = &cobra.Command{
	Use:   "preview [date]",
	Short: "Show the week's gaps without creating anything",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPreview,
}

var fillCmd = &cobra.Command{
	Use:   "fill [date]",
	Short: "Preview the week's gaps, then create filler entries on confirmation",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFill,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List Clockify projects (handy for fill.default_project_id)",
	RunE:  runProjects,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently created filler entries",
	RunE:  runHistory,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open the config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	fillCmd.Flags().Bool("yes", false, "Create fillers without the interactive confirmation")
	historyCmd.Flags().Int("limit", 20, "Maximum entries to show")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveReference parses the optional date argument, falling back to
// today with a notice when it cannot be understood.
func resolveReference(args []string, loc *time.Location) time.Time {
	input := ""
	if len(args) > 0 {
		input = args[0]
	}
	ref, ok := week.ParseReference(input, time.Now(), loc)
	if !ok {
		fmt.Printf("Could not parse %q as a date; using today instead.\n", input)
	}
	return ref
}

func newOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger, history *store.DB, out io.Writer, ref time.Time) (*preview.Orchestrator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	work, err := cfg.WorkWindow()
	if err != nil {
		return nil, err
	}
	lunch, err := cfg.LunchWindow()
	if err != nil {
		return nil, err
	}

	var extraBusy []gaps.Span
	if cfg.Calendar.Enabled && cfg.Calendar.Source != "" {
		wr := week.Resolve(ref, loc)
		extraBusy, err = calendar.FetchBusy(ctx, cfg.Calendar.Source, wr.Start, wr.End)
		if err != nil {
			// The calendar is supplementary busy time; a fetch failure
			// degrades to entries-only gaps instead of aborting.
			fmt.Printf("Warning: calendar fetch failed: %v\n", err)
		}
	}

	client := clockify.NewClient(cfg.Clockify.APIKey, cfg.Clockify.BaseURL, logger)

	return preview.New(preview.Options{
		Source:           client,
		Sink:             client,
		History:          history,
		Logger:           logger,
		Out:              out,
		WorkspaceID:      cfg.Clockify.WorkspaceID,
		Location:         loc,
		Engine:           gaps.Engine{Window: work, Blocked: []interval.Interval{lunch}},
		Description:      cfg.Fill.Description,
		DefaultProjectID: cfg.Fill.DefaultProjectID,
		DefaultTaskID:    cfg.Fill.DefaultTaskID,
		ExtraBusy:        extraBusy,
	}), nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	logger := newLogger()
	ctx := context.Background()
	ref := resolveReference(args, loc)

	orch, err := newOrchestrator(ctx, cfg, logger, nil, os.Stdout, ref)
	if err != nil {
		return err
	}

	res, err := orch.Preview(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Println(res.Report.Render())
	return nil
}

func runFill(cmd *cobra.Command, args []string) error {
	assumeYes, _ := cmd.Flags().GetBool("yes")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	logger := newLogger()
	ctx := context.Background()
	ref := resolveReference(args, loc)

	history, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer history.Close()

	// Progress lines are buffered so they do not fight the TUI for the
	// terminal; they print once filling is done.
	var progress bytes.Buffer
	orch, err := newOrchestrator(ctx, cfg, logger, history, &progress, ref)
	if err != nil {
		return err
	}

	res, err := orch.Preview(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Println(res.Report.Render())

	if res.GapCount() == 0 {
		fmt.Println("Nothing to fill — the week is fully covered.")
		return nil
	}

	var sum preview.Summary
	if assumeYes {
		sum = orch.Fill(ctx, res)
	} else {
		prompt := fmt.Sprintf("Create %d filler entries across %d days?",
			res.GapCount(), res.Report.DaysWithGaps())

		confirm := tui.NewConfirm(prompt, func() preview.Summary {
			return orch.Fill(ctx, res)
		})
		if _, err := tea.NewProgram(confirm).Run(); err != nil {
			return fmt.Errorf("running confirmation: %w", err)
		}
		if !confirm.Confirmed() {
			fmt.Println("No entries created.")
			return nil
		}
		summary := confirm.Summary()
		if summary == nil {
			// The program ended before the batch reported back.
			if progress.Len() > 0 {
				fmt.Print(progress.String())
			}
			fmt.Println("Fill interrupted before completion; check 'gapfill history' for what was submitted.")
			return nil
		}
		sum = *summary
	}

	if progress.Len() > 0 {
		fmt.Print(progress.String())
	}
	fmt.Printf("Done: %d created, %d failed, %d days skipped.\n",
		sum.Created, sum.Failed, sum.SkippedDays)

	if cfg.Notifications.Enabled {
		msg := fmt.Sprintf("Created %d filler entries (%d failed)", sum.Created, sum.Failed)
		if err := notify.Send("gapfill", msg); err != nil {
			logger.Debug("desktop notification failed", "error", err)
		}
	}

	return nil
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger()
	client := clockify.NewClient(cfg.Clockify.APIKey, cfg.Clockify.BaseURL, logger)
	ctx := context.Background()

	workspaceID := cfg.Clockify.WorkspaceID
	if workspaceID == "" {
		user, err := client.GetUser(ctx)
		if err != nil {
			return fmt.Errorf("getting user info: %w", err)
		}
		workspaceID = user.DefaultWorkspace
	}

	projects, err := client.GetProjects(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("fetching projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	fmt.Printf("Found %d projects:\n\n", len(projects))
	for _, p := range projects {
		fmt.Printf("  %s  %s\n", p.ID, p.Name)
	}

	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	history, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer history.Close()

	fillers, err := history.GetRecentFillers(limit)
	if err != nil {
		return fmt.Errorf("fetching filler history: %w", err)
	}

	if len(fillers) == 0 {
		fmt.Println("No fillers recorded yet.")
		return nil
	}

	cfg, _ := config.Load()
	loc := time.Local
	if cfg != nil {
		if l, err := cfg.Location(); err == nil {
			loc = l
		}
	}

	fmt.Printf("Last %d fillers:\n\n", len(fillers))
	for _, f := range fillers {
		fmt.Printf("  %s  %s–%s  %dmin  %s  [%s]\n",
			f.Day,
			f.StartTime.In(loc).Format("15:04"),
			f.EndTime.In(loc).Format("15:04"),
			f.Minutes,
			f.Description,
			f.Status,
		)
	}

	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		var buf bytes.Buffer
		fmt.Fprintf(&buf, `[clockify]
api_key = "%s"
workspace_id = "%s"

[schedule]
timezone = "%s"
work_start = "%s"
work_end = "%s"
lunch_start = "%s"
lunch_end = "%s"

[fill]
description = "%s"
default_project_id = ""
default_task_id = ""

[calendar]
enabled = false
source = ""

[notifications]
enabled = %t
`,
			cfg.Clockify.APIKey,
			cfg.Clockify.WorkspaceID,
			cfg.Schedule.Timezone,
			cfg.Schedule.WorkStart,
			cfg.Schedule.WorkEnd,
			cfg.Schedule.LunchStart,
			cfg.Schedule.LunchEnd,
			cfg.Fill.Description,
			cfg.Notifications.Enabled,
		)
		if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
