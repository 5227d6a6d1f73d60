// Package main provides the CLI entrypoint for tuidict.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuidict/internal/anki"
	"github.com/verte-zerg/tuidict/internal/capture"
	"github.com/verte-zerg/tuidict/internal/config"
	"github.com/verte-zerg/tuidict/internal/export"
	"github.com/verte-zerg/tuidict/internal/media"
	"github.com/verte-zerg/tuidict/internal/model"
	"github.com/verte-zerg/tuidict/internal/playback"
	"github.com/verte-zerg/tuidict/internal/reveal"
	"github.com/verte-zerg/tuidict/internal/store"
	"github.com/verte-zerg/tuidict/internal/subtitle"
	"github.com/verte-zerg/tuidict/internal/tokenize"
	"github.com/verte-zerg/tuidict/internal/tui"
)

const (
	defaultSectionMinutes = 5.0
	defaultMode           = string(model.LearningDictation)
	defaultRevealPlayback = string(model.RevealLineByLine)
	defaultVolume         = 100.0
	defaultSpeed          = 1.0
	debugEnv              = "TUIDICT_DEBUG"
)

var (
	practiceVideo          string
	practiceSubs           string
	practiceName           string
	practiceResume         string
	practiceSectionMinutes float64
	practiceMode           string
	practiceRevealPlayback string
	practiceSeekTolerance  float64
	practicePeekSeconds    float64
	practiceVolume         float64
	practiceSpeed          float64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuidict",
		Short:         "TUI dictation trainer for subtitled video",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadEnv(config.DefaultEnvPath(), ".env")
		},
	}
	addPracticeFlags(rootCmd)

	practiceCmd := &cobra.Command{
		Use:   "practice",
		Short: "Practice a video (same as the root command)",
		Args:  cobra.NoArgs,
		RunE:  runPracticeCmd,
	}
	addPracticeFlags(practiceCmd)

	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLibraryCmd())
	rootCmd.AddCommand(newSavedCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newAnkiCmd())

	return rootCmd
}

func addPracticeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&practiceVideo, "video", "", "video file played through mpv (omit to practice from subtitles alone)")
	cmd.Flags().StringVar(&practiceSubs, "subs", "", "subtitle file (.srt)")
	cmd.Flags().StringVar(&practiceName, "name", "", "display name (default: file name)")
	cmd.Flags().StringVar(&practiceResume, "resume", "", "resume a library record by id or id prefix")
	cmd.Flags().Float64Var(&practiceSectionMinutes, "section-minutes", defaultSectionMinutes, "section length in minutes (0 = whole video)")
	cmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "learning mode: dictation or reveal")
	cmd.Flags().StringVar(&practiceRevealPlayback, "reveal-playback", defaultRevealPlayback, "reveal playback: line or continuous")
	cmd.Flags().Float64Var(&practiceSeekTolerance, "seek-tolerance", playback.DefaultSeekTolerance, "seconds before a line start that skip the re-seek")
	cmd.Flags().Float64Var(&practicePeekSeconds, "peek-seconds", reveal.DefaultPeek.Seconds(), "how long a peeked word stays visible")
	cmd.Flags().Float64Var(&practiceVolume, "volume", defaultVolume, "initial volume (0-100)")
	cmd.Flags().Float64Var(&practiceSpeed, "speed", defaultSpeed, "initial playback speed")
}

type practiceSource struct {
	record   model.VideoRecord
	resume   bool
	subsText string
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFloatConfig(cmd, "section-minutes", &practiceSectionMinutes, fileCfg.Practice.SectionMinutes)
	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyStringConfig(cmd, "reveal-playback", &practiceRevealPlayback, fileCfg.Practice.RevealPlayback)
	applyFloatConfig(cmd, "seek-tolerance", &practiceSeekTolerance, fileCfg.Practice.SeekTolerance)
	applyFloatConfig(cmd, "peek-seconds", &practicePeekSeconds, fileCfg.Practice.PeekSeconds)
	applyFloatConfig(cmd, "volume", &practiceVolume, fileCfg.Practice.Volume)
	applyFloatConfig(cmd, "speed", &practiceSpeed, fileCfg.Practice.Speed)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	src, err := resolveSource(ctx, cmd, st)
	if err != nil {
		return err
	}
	rec := src.record
	if err := validatePractice(rec); err != nil {
		return err
	}

	lines, err := subtitle.Parse(src.subsText)
	if err != nil {
		return fmt.Errorf("failed to parse subtitles: %w", err)
	}
	sections := subtitle.Segment(lines, practiceSectionMinutes)
	rec.TotalLines = len(lines)
	rec.LastPracticed = time.Now()
	if err := st.UpsertVideo(ctx, rec); err != nil {
		return fmt.Errorf("failed to save video record: %w", err)
	}

	el, closeEl, err := openElement(ctx, rec.VideoPath, lines, fileCfg)
	if err != nil {
		return err
	}
	defer closeEl()

	sync := playback.New(el, sections, playback.Config{
		LearningMode:   rec.LearningMode,
		RevealPlayback: rec.RevealPlayback,
		SeekTolerance:  practiceSeekTolerance,
		Practicable: func(l model.Line) bool {
			return tokenize.WordCount(tokenize.Tokenize(l.Text)) > 0
		},
	})
	if src.resume {
		sync.Restore(rec.Progress.SectionIndex, rec.Progress.LineIndex)
	}

	exporter, err := newExporter(el, sync, fileCfg)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	m := tui.NewModel(sync, el, st, exporter, tui.Options{
		Record:       rec,
		PeekDuration: time.Duration(practicePeekSeconds * float64(time.Second)),
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveSource finds the record to practice: a resumed one, one already
// stored for the same files, or a new one.
func resolveSource(ctx context.Context, cmd *cobra.Command, st *store.Store) (practiceSource, error) {
	if practiceResume != "" {
		rec, err := st.GetVideo(ctx, practiceResume)
		if err != nil {
			return practiceSource{}, fmt.Errorf("failed to find video %q: %w", practiceResume, err)
		}
		if cmd.Flags().Changed("mode") {
			rec.LearningMode = model.LearningMode(practiceMode)
		}
		if cmd.Flags().Changed("reveal-playback") {
			rec.RevealPlayback = model.RevealPlayback(practiceRevealPlayback)
		}
		if cmd.Flags().Changed("video") {
			rec.VideoPath = practiceVideo
		}
		if rec.VideoPath != "" {
			if _, err := os.Stat(rec.VideoPath); err != nil {
				logErrf("video %s is unavailable, practicing from subtitles alone\n", rec.VideoPath)
				rec.VideoPath = ""
			}
		}
		return practiceSource{record: rec, resume: true, subsText: rec.SubtitleText}, nil
	}

	if practiceSubs == "" {
		return practiceSource{}, fmt.Errorf("--subs is required (or use --resume <id>)")
	}
	data, err := os.ReadFile(practiceSubs)
	if err != nil {
		return practiceSource{}, fmt.Errorf("failed to read subtitles: %w", err)
	}
	subsPath := absPath(practiceSubs)
	videoPath := ""
	if practiceVideo != "" {
		videoPath = absPath(practiceVideo)
	}

	now := time.Now()
	rec, err := st.FindVideoByPaths(ctx, videoPath, subsPath)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		rec = model.VideoRecord{ID: uuid.NewString(), DateAdded: now}
	default:
		return practiceSource{}, fmt.Errorf("failed to look up video: %w", err)
	}
	rec.VideoPath = videoPath
	rec.SubtitlePath = subsPath
	rec.SubtitleText = string(data)
	rec.LearningMode = model.LearningMode(practiceMode)
	rec.RevealPlayback = model.RevealPlayback(practiceRevealPlayback)
	rec.DisplayName = displayName(practiceName, videoPath, subsPath)
	return practiceSource{record: rec, subsText: rec.SubtitleText}, nil
}

func openElement(ctx context.Context, videoPath string, lines []model.Line, fileCfg config.FileConfig) (media.Element, func(), error) {
	if videoPath == "" {
		duration := 0.0
		for _, l := range lines {
			if l.EndTime > duration {
				duration = l.EndTime
			}
		}
		v := media.NewVirtual(duration+subtitle.FullSectionPadding, nil)
		_ = v.SetVolume(practiceVolume)
		_ = v.SetSpeed(practiceSpeed)
		return v, func() {}, nil
	}
	opts := media.MPVOptions{Volume: practiceVolume, Speed: practiceSpeed}
	if fileCfg.Player.MPV != nil {
		opts.Binary = *fileCfg.Player.MPV
	}
	if fileCfg.Player.FFmpeg != nil {
		opts.FFmpeg = *fileCfg.Player.FFmpeg
	}
	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	player, err := media.StartMPV(startCtx, videoPath, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start player: %w", err)
	}
	return player, func() {
		if cerr := player.Close(); cerr != nil {
			logErrf("failed to close player: %v\n", cerr)
		}
	}, nil
}

// newExporter wires the note sink when at least one card template is
// configured. It returns nil otherwise.
func newExporter(el media.Element, holder export.Holder, fileCfg config.FileConfig) (*export.Exporter, error) {
	templates := export.Templates{
		Audio: fileCfg.Anki.AudioCard.Template(),
		Word:  fileCfg.Anki.WordCard.Template(),
	}
	if !templates.Audio.Valid() && !templates.Word.Valid() {
		return nil, nil
	}
	client, err := newAnkiClient(fileCfg)
	if err != nil {
		return nil, err
	}
	capCfg := capture.DefaultConfig()
	applyMillis(&capCfg.StartPadding, fileCfg.Capture.StartPaddingMs)
	applyMillis(&capCfg.EndPadding, fileCfg.Capture.EndPaddingMs)
	applyMillis(&capCfg.Margin, fileCfg.Capture.MarginMs)
	return export.New(client, capture.New(el, capCfg), holder, templates), nil
}

func newAnkiClient(fileCfg config.FileConfig) (*anki.Client, error) {
	key, err := config.AnkiKey()
	if err != nil {
		logErrf("continuing without an API key: %v\n", err)
	}
	url := ""
	if fileCfg.Anki.URL != nil {
		url = *fileCfg.Anki.URL
	}
	return anki.NewClient(url, key), nil
}

// setupLogging routes the standard logger away from the terminal while the
// TUI owns it.
func setupLogging() (func(), error) {
	if os.Getenv(debugEnv) == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }, nil
	}
	path := config.DefaultDebugLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "tuidict")
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return func() {
		log.SetOutput(os.Stderr)
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close debug log: %v\n", cerr)
		}
	}, nil
}

func validatePractice(rec model.VideoRecord) error {
	if practiceSectionMinutes < 0 {
		return fmt.Errorf("--section-minutes must be >= 0")
	}
	switch rec.LearningMode {
	case model.LearningDictation, model.LearningReveal:
	default:
		return fmt.Errorf("--mode must be %q or %q", model.LearningDictation, model.LearningReveal)
	}
	switch rec.RevealPlayback {
	case model.RevealLineByLine, model.RevealContinuous:
	default:
		return fmt.Errorf("--reveal-playback must be %q or %q", model.RevealLineByLine, model.RevealContinuous)
	}
	if practiceSeekTolerance < 0 {
		return fmt.Errorf("--seek-tolerance must be >= 0")
	}
	if practicePeekSeconds <= 0 {
		return fmt.Errorf("--peek-seconds must be > 0")
	}
	if practiceVolume < 0 || practiceVolume > 100 {
		return fmt.Errorf("--volume must be between 0 and 100")
	}
	if practiceSpeed < media.MinSpeed || practiceSpeed > media.MaxSpeed {
		return fmt.Errorf("--speed must be between %.2f and %.2f", media.MinSpeed, media.MaxSpeed)
	}
	return nil
}

func displayName(name, videoPath, subsPath string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	base := subsPath
	if videoPath != "" {
		base = videoPath
	}
	base = filepath.Base(base)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyMillis(target *time.Duration, value *int) {
	if value == nil {
		return
	}
	*target = time.Duration(*value) * time.Millisecond
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuidict configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# section-minutes = %.1f    # Section length in minutes (0 = whole video)
# mode = %q          # dictation or reveal
# reveal-playback = %q      # line or continuous
# seek-tolerance = %.1f     # Seconds before a line start that skip the re-seek
# peek-seconds = %.1f       # How long a peeked word stays visible
# volume = %.0f              # Initial volume (0-100)
# speed = %.1f               # Initial playback speed (%.2f-%.2f)

[capture]
# start-padding-ms = %d     # Audio captured before the line start
# end-padding-ms = %d       # Audio captured after the line end
# margin-ms = %d             # Extra recording time before stopping

[player]
# mpv = "mpv"
# ffmpeg = "ffmpeg"

[anki]
# url = %q
# The API key is read from %s or stored with: tuidict anki login

# [anki.audio-card]
# deck = "Dictation"
# model = "Basic"
# [anki.audio-card.fields]
# Front = "audioClip"
# Back = "sentence"

# [anki.word-card]
# deck = "Vocabulary"
# model = "Basic"
# [anki.word-card.fields]
# Front = "word"
# Back = "sentence"

# Field keys: %s
`,
		defaultSectionMinutes,
		defaultMode,
		defaultRevealPlayback,
		playback.DefaultSeekTolerance,
		reveal.DefaultPeek.Seconds(),
		defaultVolume,
		defaultSpeed,
		media.MinSpeed,
		media.MaxSpeed,
		capture.DefaultStartPadding.Milliseconds(),
		capture.DefaultEndPadding.Milliseconds(),
		capture.DefaultMargin.Milliseconds(),
		anki.DefaultURL,
		config.AnkiKeyEnv,
		strings.Join(anki.KnownKeys, ", "),
	)
}

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}, nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
