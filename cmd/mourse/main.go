package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

type config struct {
	backend      string
	devicePath   string
	settingsPath string
	downMS       float64
	listDevices  bool
	ui           bool
	logLevel     slog.Level

	click autoclicker.ClickSettings
	move  autoclicker.MoveSettings
	// explicit holds flags given on the command line; they win over the
	// settings file.
	explicit map[string]bool
}

// mourseRuntime is what every platform backend hands to the front ends.
type mourseRuntime interface {
	Controller() *autoclicker.Controller
	Stop()
}

type lineSinkWriter struct {
	sink  func(line string)
	mu    sync.Mutex
	lines bytes.Buffer
}

func (w *lineSinkWriter) Write(p []byte) (int, error) {
	if w.sink == nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(p)
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			_, _ = w.lines.Write(p)
			break
		}
		_, _ = w.lines.Write(p[:idx])
		line := strings.TrimSpace(w.lines.String())
		w.lines.Reset()
		if line != "" {
			w.sink(line)
		}
		p = p[idx+1:]
	}
	return total, nil
}

func newSlogLogger(level slog.Level, out io.Writer, sink func(line string)) *slog.Logger {
	if sink != nil {
		out = io.MultiWriter(out, &lineSinkWriter{sink: sink})
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

func debugLogsEnabled() bool {
	return strings.TrimSpace(os.Getenv("DEBUG")) == "1"
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (expected debug|info|warning|error)", value)
	}
}

func parseConfig(args []string, output io.Writer) (config, error) {
	click := autoclicker.DefaultClickSettings()
	move := autoclicker.DefaultMoveSettings()
	cfg := config{explicit: make(map[string]bool)}

	flags := flag.NewFlagSet("mourse", flag.ContinueOnError)
	flags.SetOutput(output)

	var buttonRaw string
	var patternRaw string
	var backendRaw string
	var logLevelRaw string
	var cliMode bool

	flags.StringVar(&backendRaw, "backend", "auto", "Input backend. Linux: auto|wayland|x11. Windows: auto|windows. macOS: auto|robotgo.")
	flags.StringVar(&cfg.devicePath, "device", "", "Keyboard event device to read F6/F7 from, e.g. /dev/input/event4 (wayland backend). Auto-detected if omitted.")
	flags.StringVar(&cfg.settingsPath, "settings", defaultSettingsPath(), "Settings file path.")
	flags.IntVar(&click.IntervalMS, "interval", click.IntervalMS, "Click interval in ms (10-1000).")
	flags.StringVar(&buttonRaw, "button", string(click.Button), "Mouse button to click: left|right|middle.")
	flags.BoolVar(&click.JitterEnabled, "jitter", click.JitterEnabled, "Add a random delay to every click.")
	flags.IntVar(&click.JitterRangeMS, "jitter-range", click.JitterRangeMS, "Upper bound of the random click delay in ms (0-1000).")
	flags.IntVar(&move.IntervalMS, "move-interval", move.IntervalMS, "Movement interval in ms (10-500).")
	flags.StringVar(&patternRaw, "move-pattern", string(move.Pattern), "Movement pattern: random|circle|jiggle.")
	flags.IntVar(&move.Distance, "move-distance", move.Distance, "Maximum movement per step in pixels (10-500).")
	flags.Float64Var(&cfg.downMS, "down-ms", 10.0, "How long each synthetic click stays down in ms (default: 10).")
	flags.BoolVar(&cfg.listDevices, "list-devices", false, "Print available input devices and exit.")
	flags.BoolVar(&cfg.ui, "ui", true, "Start desktop GUI (Fyne) by default. Use --ui=false or --cli for terminal mode.")
	flags.BoolVar(&cliMode, "cli", false, "Force terminal mode (disables GUI).")
	flags.StringVar(&logLevelRaw, "log-level", "info", "Log verbosity (default: info). Allowed: debug, info, warning, error.")

	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	if flags.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	flags.Visit(func(f *flag.Flag) {
		cfg.explicit[f.Name] = true
	})
	if cliMode {
		cfg.ui = false
	}
	if cfg.downMS < 0 {
		return cfg, fmt.Errorf("%w: --down-ms must be >= 0", autoclicker.ErrInvalidSetting)
	}
	if strings.TrimSpace(cfg.settingsPath) == "" {
		return cfg, fmt.Errorf("--settings must not be empty")
	}

	button, err := autoclicker.ParseButton(buttonRaw)
	if err != nil {
		return cfg, err
	}
	click.Button = button
	pattern, err := autoclicker.ParsePattern(patternRaw)
	if err != nil {
		return cfg, err
	}
	move.Pattern = pattern

	if err := click.Validate(); err != nil {
		return cfg, err
	}
	if err := move.Validate(); err != nil {
		return cfg, err
	}

	parsedLevel, err := parseLogLevel(logLevelRaw)
	if err != nil {
		return cfg, err
	}
	backendChoice, err := parseBackendChoice(backendRaw)
	if err != nil {
		return cfg, err
	}

	cfg.click = click
	cfg.move = move
	cfg.backend = backendChoice
	cfg.logLevel = parsedLevel
	return cfg, nil
}

// applyFlagOverrides layers explicitly passed flags over stored settings.
func applyFlagOverrides(cfg config, click autoclicker.ClickSettings, move autoclicker.MoveSettings) (autoclicker.ClickSettings, autoclicker.MoveSettings) {
	if cfg.explicit["interval"] {
		click.IntervalMS = cfg.click.IntervalMS
	}
	if cfg.explicit["button"] {
		click.Button = cfg.click.Button
	}
	if cfg.explicit["jitter"] {
		click.JitterEnabled = cfg.click.JitterEnabled
	}
	if cfg.explicit["jitter-range"] {
		click.JitterRangeMS = cfg.click.JitterRangeMS
	}
	if cfg.explicit["move-interval"] {
		move.IntervalMS = cfg.move.IntervalMS
	}
	if cfg.explicit["move-pattern"] {
		move.Pattern = cfg.move.Pattern
	}
	if cfg.explicit["move-distance"] {
		move.Distance = cfg.move.Distance
	}
	return click, move
}

func runtimeConfig(cfg config, click autoclicker.ClickSettings, move autoclicker.MoveSettings) autoclicker.Config {
	return autoclicker.Config{
		ClickDown:      time.Duration(cfg.downMS * float64(time.Millisecond)),
		HotkeyDebounce: autoclicker.DefaultHotkeyDebounce,
		Click:          click,
		Move:           move,
	}
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func printDevices(devices []deviceLine) {
	for _, dev := range devices {
		virtualTag := "physical"
		if dev.virtual {
			virtualTag = "virtual"
		}
		pointerTag := "non-pointer"
		if dev.pointer {
			pointerTag = "pointer"
		}
		fmt.Printf("%s: %s [%s, %s]\n", dev.path, dev.name, virtualTag, pointerTag)
	}
}

type deviceLine struct {
	path    string
	name    string
	virtual bool
	pointer bool
}

func run(args []string, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if cfg.listDevices {
		if err := listInputDevices(cfg.backend); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	lock, err := acquireInstanceLock(cfg.settingsPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = lock.Unlock() }()

	click, move, warnings, err := loadSettings(cfg.settingsPath)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("Failed to load saved settings: %v", err))
	}
	click, move = applyFlagOverrides(cfg, click, move)

	if cfg.ui {
		if err := runUI(cfg, click, move, warnings); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	code := 0
	runOnMainThread(func() {
		code = runTerminal(cfg, click, move, warnings, stderr)
	})
	return code
}

func runTerminal(cfg config, click autoclicker.ClickSettings, move autoclicker.MoveSettings, warnings []string, stderr io.Writer) int {
	logger := newSlogLogger(cfg.logLevel, stderr, nil)
	for _, warning := range warnings {
		logger.Warn(warning)
	}

	runtime, err := startRuntime(cfg, runtimeConfig(cfg, click, move), logger)
	if err != nil {
		if isPermissionError(err) {
			fmt.Fprintln(stderr, permissionDeniedHint())
			return 1
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer runtime.Stop()

	controller := runtime.Controller()
	logger.Info("Press F6 to toggle clicking and F7 to toggle movement. Press Ctrl+C to stop")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	status := controller.Status()
	logger.Info("Stopping", "clicks", status.Clicks, "moves", status.Moves)
	settings := controller.Settings()
	if err := saveSettings(cfg.settingsPath, settings.Click(), settings.Move()); err != nil {
		logger.Warn("Failed to save settings", "err", err)
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
