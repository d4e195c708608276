//go:build !linux && !windows && !darwin

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" || backend == "auto" {
		return "auto", nil
	}
	return "", fmt.Errorf("invalid --backend %q (unsupported platform)", value)
}

func listInputDevices(_ string) error {
	return fmt.Errorf("input device listing is not supported on this platform")
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend."
}

func runOnMainThread(fn func()) {
	fn()
}

func startRuntime(cfg config, rc autoclicker.Config, logger *slog.Logger) (mourseRuntime, error) {
	return nil, fmt.Errorf("mourse runtime is not supported on this platform")
}
