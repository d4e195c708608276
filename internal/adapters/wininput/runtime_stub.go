//go:build !windows

package wininput

import (
	"fmt"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

type Runtime struct{}

func NewRuntime(cfg autoclicker.Config, logger autoclicker.Logger) (*Runtime, error) {
	return nil, fmt.Errorf("windows input runtime is only available on Windows")
}

func (r *Runtime) Start() error {
	return fmt.Errorf("windows input runtime is only available on Windows")
}

func (r *Runtime) Stop() {}

func (r *Runtime) Controller() *autoclicker.Controller {
	return nil
}

func ListInputDevices() ([]DeviceInfo, error) {
	return nil, fmt.Errorf("windows input runtime is only available on Windows")
}
