//go:build windows

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakura6264/mourse/internal/adapters/wininput"
	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "windows":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (windows supports auto|windows)", value)
	}
}

func listInputDevices(_ string) error {
	devices, err := wininput.ListInputDevices()
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
	return "Permission denied registering global input hooks. Run as Administrator and ensure input-hooking is allowed."
}

func runOnMainThread(fn func()) {
	fn()
}

func startRuntime(cfg config, rc autoclicker.Config, logger *slog.Logger) (mourseRuntime, error) {
	if cfg.devicePath != "" {
		logger.Warn("--device is ignored on Windows; using the global keyboard hook")
	}

	runtime, err := wininput.NewRuntime(rc, logger)
	if err != nil {
		return nil, err
	}

	if err := runtime.Start(); err != nil {
		runtime.Stop()
		return nil, err
	}

	logger.Info("Input mode", "mode", "windows-global-hooks")
	logger.Info("Click", "interval_ms", rc.Click.IntervalMS, "button", rc.Click.Button, "jitter", rc.Click.JitterEnabled)
	logger.Info("Move", "interval_ms", rc.Move.IntervalMS, "pattern", rc.Move.Pattern, "distance", rc.Move.Distance)
	return runtime, nil
}
