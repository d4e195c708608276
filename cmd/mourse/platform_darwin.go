//go:build darwin

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakura6264/mourse/internal/adapters/robotinput"
	"github.com/sakura6264/mourse/internal/core/autoclicker"

	"golang.design/x/hotkey/mainthread"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "robotgo":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (macOS supports auto|robotgo)", value)
	}
}

func listInputDevices(_ string) error {
	devices, err := robotinput.ListInputDevices()
	if err != nil {
		return err
	}
	lines := make([]deviceLine, 0, len(devices))
	for _, dev := range devices {
		lines = append(lines, deviceLine{path: dev.Path, name: dev.Name, virtual: dev.IsVirtual, pointer: dev.IsPointer})
	}
	printDevices(lines)
	return nil
}

func permissionDeniedHint() string {
	return "Permission denied controlling input. Grant Accessibility access in System Settings > Privacy & Security."
}

// runOnMainThread keeps the Cocoa run loop on the main thread so hotkey
// events are delivered when no GUI is running.
func runOnMainThread(fn func()) {
	mainthread.Init(fn)
}

func startRuntime(cfg config, rc autoclicker.Config, logger *slog.Logger) (mourseRuntime, error) {
	if cfg.devicePath != "" {
		logger.Warn("--device is ignored on macOS")
	}

	runtime, err := robotinput.NewRuntime(rc, logger)
	if err != nil {
		return nil, err
	}

	if err := runtime.Start(); err != nil {
		runtime.Stop()
		return nil, err
	}

	logger.Info("Input mode", "mode", "robotgo")
	logger.Info("Click", "interval_ms", rc.Click.IntervalMS, "button", rc.Click.Button, "jitter", rc.Click.JitterEnabled)
	logger.Info("Move", "interval_ms", rc.Move.IntervalMS, "pattern", rc.Move.Pattern, "distance", rc.Move.Distance)
	return runtime, nil
}
