//go:build !darwin

package robotinput

import (
	"fmt"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

type Runtime struct{}

func NewRuntime(cfg autoclicker.Config, logger autoclicker.Logger) (*Runtime, error) {
	return nil, fmt.Errorf("robotgo input runtime is only available on macOS")
}

func (r *Runtime) Start() error {
	return fmt.Errorf("robotgo input runtime is only available on macOS")
}

func (r *Runtime) Stop() {}

func (r *Runtime) Controller() *autoclicker.Controller {
	return nil
}

func ListInputDevices() ([]DeviceInfo, error) {
	return nil, fmt.Errorf("robotgo input runtime is only available on macOS")
}
