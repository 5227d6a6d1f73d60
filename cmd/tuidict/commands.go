package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/tuidict/internal/config"
	"github.com/verte-zerg/tuidict/internal/model"
	"github.com/verte-zerg/tuidict/internal/stats"
	"github.com/verte-zerg/tuidict/internal/statsui"
)

const (
	defaultCurveWindow = 10
	ankiTimeout        = 10 * time.Second
)

var (
	savedVideo  string
	savedFormat string
	savedOut    string

	statsVideo       string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "List practiced videos",
		Args:  cobra.NoArgs,
		RunE:  runLibraryCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a video with its attempts and saved lines",
		Args:  cobra.ExactArgs(1),
		RunE:  runLibraryRmCmd,
	})
	return cmd
}

func runLibraryCmd(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	videos, err := st.ListVideos(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list videos: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(videos) == 0 {
		_, err := fmt.Fprintln(out, "Library is empty. Start with: tuidict --subs <file.srt> [--video <file>]")
		return err
	}
	return writeTable(out, []string{"ID", "Name", "Mode", "Progress", "Practiced", "Last"}, libraryRows(videos), map[int]bool{3: true, 4: true})
}

func libraryRows(videos []model.VideoRecord) [][]string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{
			shortID(v.ID),
			v.DisplayName,
			string(v.LearningMode),
			fmt.Sprintf("%.0f%%", v.CompletionRate*100),
			(time.Duration(v.PracticeSeconds) * time.Second).String(),
			v.LastPracticed.Local().Format("2006-01-02"),
		})
	}
	return rows
}

func runLibraryRmCmd(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	rec, err := st.GetVideo(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to find video %q: %w", args[0], err)
	}
	if err := st.DeleteVideo(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", rec.DisplayName, shortID(rec.ID))
	return err
}

func newSavedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "List saved lines",
		Args:  cobra.NoArgs,
		RunE:  runSavedCmd,
	}
	cmd.PersistentFlags().StringVar(&savedVideo, "video", "", "only lines from this video (id or prefix)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved lines as YAML or JSON",
		Args:  cobra.NoArgs,
		RunE:  runSavedExportCmd,
	}
	exportCmd.Flags().StringVar(&savedFormat, "format", "yaml", "output format: yaml or json")
	exportCmd.Flags().StringVarP(&savedOut, "out", "o", "", "output file (default: stdout)")
	cmd.AddCommand(exportCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a saved line",
		Args:  cobra.ExactArgs(1),
		RunE:  runSavedRmCmd,
	})
	return cmd
}

func loadSavedLines(ctx context.Context) ([]model.SavedLine, error) {
	st, closeStore, err := openStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()

	videoID := ""
	if savedVideo != "" {
		rec, err := st.GetVideo(ctx, savedVideo)
		if err != nil {
			return nil, fmt.Errorf("failed to find video %q: %w", savedVideo, err)
		}
		videoID = rec.ID
	}
	lines, err := st.ListSavedLines(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved lines: %w", err)
	}
	return lines, nil
}

func runSavedCmd(cmd *cobra.Command, _ []string) error {
	lines, err := loadSavedLines(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(lines) == 0 {
		_, err := fmt.Fprintln(out, "No saved lines.")
		return err
	}
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []string{shortID(l.ID), l.VideoName, l.TimeDisplay, l.Text})
	}
	return writeTable(out, []string{"ID", "Video", "Time", "Text"}, rows, nil)
}

func runSavedExportCmd(cmd *cobra.Command, _ []string) error {
	lines, err := loadSavedLines(cmd.Context())
	if err != nil {
		return err
	}
	if lines == nil {
		lines = []model.SavedLine{}
	}

	var data []byte
	switch strings.ToLower(savedFormat) {
	case "yaml", "yml":
		data, err = yaml.Marshal(lines)
	case "json":
		data, err = json.MarshalIndent(lines, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("--format must be yaml or json")
	}
	if err != nil {
		return fmt.Errorf("failed to encode saved lines: %w", err)
	}

	if savedOut == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(savedOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", savedOut, err)
	}
	logErrf("Exported %d saved lines to %s\n", len(lines), savedOut)
	return nil
}

func runSavedRmCmd(cmd *cobra.Command, args []string) error {
	lines, err := loadSavedLines(cmd.Context())
	if err != nil {
		return err
	}
	var match *model.SavedLine
	for i := range lines {
		if !strings.HasPrefix(lines[i].ID, args[0]) {
			continue
		}
		if match != nil {
			return fmt.Errorf("id prefix %q matches more than one saved line", args[0])
		}
		match = &lines[i]
	}
	if match == nil {
		return fmt.Errorf("no saved line matches %q", args[0])
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	if err := st.DeleteSavedLine(cmd.Context(), match.ID); err != nil {
		return fmt.Errorf("failed to delete saved line: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted saved line %q\n", match.Text)
	return err
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dictation stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsVideo, "video", "", "video filter (id or prefix)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N attempts")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print plain text instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	opts := stats.Options{Since: sinceTime, Last: statsLast, Window: statsCurveWindow}
	if statsVideo != "" {
		rec, err := st.GetVideo(ctx, statsVideo)
		if err != nil {
			return fmt.Errorf("failed to find video %q: %w", statsVideo, err)
		}
		opts.VideoID = rec.ID
	}

	if !statsPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		program := tea.NewProgram(statsui.NewModel(st, opts), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(ctx, st, opts)
	if err != nil {
		return fmt.Errorf("failed to build stats: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Videos); err != nil {
		return err
	}
	if err := stats.RenderCurve(out, report.Attempts, opts.Window, stats.TerminalWidth()); err != nil {
		return err
	}
	if err := stats.RenderVideoTable(out, report.Videos); err != nil {
		return err
	}
	return stats.RenderWeakLines(out, report.WeakLines, report.Names)
}

func newAnkiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anki",
		Short: "Manage the AnkiConnect connection",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Store the AnkiConnect API key in the system keyring",
			Args:  cobra.NoArgs,
			RunE:  runAnkiLoginCmd,
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Remove the stored AnkiConnect API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := config.DeleteAnkiKey(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
				return err
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Check that AnkiConnect is reachable",
			Args:  cobra.NoArgs,
			RunE:  runAnkiStatusCmd,
		},
		&cobra.Command{
			Use:   "decks",
			Short: "List deck names",
			Args:  cobra.NoArgs,
			RunE:  runAnkiDecksCmd,
		},
		&cobra.Command{
			Use:   "models",
			Short: "List note type names",
			Args:  cobra.NoArgs,
			RunE:  runAnkiModelsCmd,
		},
		&cobra.Command{
			Use:   "fields <model>",
			Short: "List the fields of a note type",
			Args:  cobra.ExactArgs(1),
			RunE:  runAnkiFieldsCmd,
		},
	)
	return cmd
}

func runAnkiLoginCmd(cmd *cobra.Command, _ []string) error {
	if _, err := fmt.Fprint(cmd.ErrOrStderr(), "AnkiConnect API key: "); err != nil {
		return err
	}
	var key string
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		logErrln()
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = string(raw)
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is empty")
	}
	if err := config.SaveAnkiKey(key); err != nil {
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
	return err
}

func ankiContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), ankiTimeout)
}

func loadAnkiClient() (ankiClient, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newAnkiClient(fileCfg)
}

// ankiClient is the query surface used by the anki subcommands.
type ankiClient interface {
	Version(ctx context.Context) (int, error)
	DeckNames(ctx context.Context) ([]string, error)
	ModelNames(ctx context.Context) ([]string, error)
	ModelFieldNames(ctx context.Context, model string) ([]string, error)
}

func runAnkiStatusCmd(cmd *cobra.Command, _ []string) error {
	client, err := loadAnkiClient()
	if err != nil {
		return err
	}
	ctx, cancel := ankiContext(cmd)
	defer cancel()
	version, err := client.Version(ctx)
	if err != nil {
		return fmt.Errorf("AnkiConnect is not reachable: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "AnkiConnect is reachable (API version %d)\n", version)
	return err
}

func runAnkiDecksCmd(cmd *cobra.Command, _ []string) error {
	return printAnkiList(cmd, func(ctx context.Context, c ankiClient) ([]string, error) {
		return c.DeckNames(ctx)
	})
}

func runAnkiModelsCmd(cmd *cobra.Command, _ []string) error {
	return printAnkiList(cmd, func(ctx context.Context, c ankiClient) ([]string, error) {
		return c.ModelNames(ctx)
	})
}

func runAnkiFieldsCmd(cmd *cobra.Command, args []string) error {
	return printAnkiList(cmd, func(ctx context.Context, c ankiClient) ([]string, error) {
		return c.ModelFieldNames(ctx, args[0])
	})
}

func printAnkiList(cmd *cobra.Command, fetch func(context.Context, ankiClient) ([]string, error)) error {
	client, err := loadAnkiClient()
	if err != nil {
		return err
	}
	ctx, cancel := ankiContext(cmd)
	defer cancel()
	names, err := fetch(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to query AnkiConnect: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, name := range names {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range stats.FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
