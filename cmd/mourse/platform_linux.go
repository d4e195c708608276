//go:build linux

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sakura6264/mourse/internal/adapters/linuxinput"
	"github.com/sakura6264/mourse/internal/adapters/x11input"
	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "wayland", "x11", "evdev":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (linux supports auto|wayland|x11)", value)
	}
}

func listInputDevices(backend string) error {
	var lines []deviceLine
	switch resolveLinuxBackend(backend) {
	case "x11":
		devices, err := x11input.ListInputDevices()
		if err != nil {
			return err
		}
		for _, dev := range devices {
			lines = append(lines, deviceLine{path: dev.Path, name: dev.Name, virtual: dev.IsVirtual, pointer: dev.IsPointer})
		}
	default:
		devices, err := linuxinput.ListInputDevices()
		if err != nil {
			return err
		}
		for _, dev := range devices {
			name := dev.Name
			if dev.IsKeyboard {
				name += " (F6/F7)"
			}
			lines = append(lines, deviceLine{path: dev.Path, name: name, virtual: dev.IsVirtual, pointer: dev.IsPointer})
		}
	}
	printDevices(lines)
	return nil
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend. On Wayland use root/udev for /dev/input + /dev/uinput. On X11 ensure an active X11 session and DISPLAY is set."
}

func runOnMainThread(fn func()) {
	fn()
}

func startRuntime(cfg config, rc autoclicker.Config, logger *slog.Logger) (mourseRuntime, error) {
	switch resolveLinuxBackend(cfg.backend) {
	case "x11":
		return startX11Runtime(cfg, rc, logger)
	default:
		return startWaylandRuntime(cfg, rc, logger)
	}
}

func startWaylandRuntime(cfg config, rc autoclicker.Config, logger *slog.Logger) (mourseRuntime, error) {
	codes := []uint16{linuxinput.CodeKEYF6, linuxinput.CodeKEYF7}
	selection, err := linuxinput.OpenHotkeySelection(cfg.devicePath, codes)
	if err != nil {
		return nil, err
	}

	for _, dev := range selection.Devices {
		name, _ := dev.Name()
		logger.Info("Using source device", "path", dev.Path(), "name", name)
	}
	for _, code := range selection.Missing(codes) {
		logger.Warn("No keyboard reports hotkey", "key", linuxinput.FormatCodeName(code))
	}

	runtime, err := linuxinput.NewRuntime(selection, rc, logger)
	if err != nil {
		selection.Close()
		return nil, err
	}

	if err := runtime.Start(); err != nil {
		runtime.Stop()
		return nil, err
	}

	logger.Info("Backend", "name", "wayland")
	logStartup(logger, rc)
	return runtime, nil
}

func startX11Runtime(cfg config, rc autoclicker.Config, logger *slog.Logger) (mourseRuntime, error) {
	if cfg.devicePath != "" {
		logger.Warn("--device is ignored on X11 backend")
	}

	runtime, err := x11input.NewRuntime(rc, logger)
	if err != nil {
		return nil, err
	}

	if err := runtime.Start(); err != nil {
		runtime.Stop()
		return nil, err
	}

	logger.Info("Backend", "name", "x11")
	logStartup(logger, rc)
	return runtime, nil
}

func logStartup(logger *slog.Logger, rc autoclicker.Config) {
	logger.Info("Click", "interval_ms", rc.Click.IntervalMS, "button", rc.Click.Button, "jitter", rc.Click.JitterEnabled, "jitter_range_ms", rc.Click.JitterRangeMS)
	logger.Info("Move", "interval_ms", rc.Move.IntervalMS, "pattern", rc.Move.Pattern, "distance", rc.Move.Distance)
}

func resolveLinuxBackend(configured string) string {
	choice := strings.ToLower(strings.TrimSpace(configured))
	if choice == "" {
		choice = "auto"
	}
	if choice == "evdev" {
		choice = "wayland"
	}
	if choice != "auto" {
		return choice
	}

	sessionType := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
	switch sessionType {
	case "wayland":
		return "wayland"
	case "x11":
		return "x11"
	}

	if strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" {
		return "wayland"
	}
	if strings.TrimSpace(os.Getenv("DISPLAY")) != "" {
		return "x11"
	}
	return "wayland"
}
