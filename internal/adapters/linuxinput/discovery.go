//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

type DeviceInfo struct {
	Path       string
	Name       string
	IsVirtual  bool
	IsPointer  bool
	IsKeyboard bool
}

// SourceSelection is the set of opened devices that report hotkey codes.
// HotkeyPaths maps each key code to the device paths exposing it.
type SourceSelection struct {
	Devices     []*evdev.InputDevice
	HotkeyPaths map[uint16]map[string]struct{}
}

// Missing returns the codes no opened device can report.
func (s *SourceSelection) Missing(codes []uint16) []uint16 {
	var missing []uint16
	for _, code := range codes {
		if len(s.HotkeyPaths[code]) == 0 {
			missing = append(missing, code)
		}
	}
	return missing
}

func (s *SourceSelection) Close() {
	for _, dev := range s.Devices {
		_ = dev.Close()
	}
}

func ListInputDevices() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Path < paths[j].Path
	})

	devices := make([]DeviceInfo, 0, len(paths))
	for _, path := range paths {
		dev, err := openInputDevice(path.Path)
		if err != nil {
			continue
		}
		devices = append(devices, describeDevice(dev, path.Path, path.Name))
		_ = dev.Close()
	}

	return devices, nil
}

// OpenHotkeySelection opens the keyboards that can report codes. With a
// devicePath only that device is used. Codes no device exposes are left out
// of HotkeyPaths so the caller can mark those hotkeys as failed.
func OpenHotkeySelection(devicePath string, codes []uint16) (*SourceSelection, error) {
	if devicePath != "" {
		dev, err := openInputDevice(devicePath)
		if err != nil {
			return nil, err
		}
		selection := &SourceSelection{
			Devices:     []*evdev.InputDevice{dev},
			HotkeyPaths: make(map[uint16]map[string]struct{}, len(codes)),
		}
		for _, code := range codes {
			if deviceSupportsCode(dev, code) {
				selection.HotkeyPaths[code] = map[string]struct{}{dev.Path(): {}}
			}
		}
		if len(selection.HotkeyPaths) == 0 {
			_ = dev.Close()
			return nil, fmt.Errorf("%s does not expose any hotkey (%s)", devicePath, formatCodes(codes))
		}
		return selection, nil
	}

	hotkeyPaths := make(map[uint16]map[string]struct{}, len(codes))
	allPathMap := make(map[string]struct{})
	for _, code := range codes {
		matches, err := findDevicesByCode(code)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}
		paths := make(map[string]struct{}, len(matches))
		for _, match := range matches {
			paths[match.Path] = struct{}{}
			allPathMap[match.Path] = struct{}{}
		}
		hotkeyPaths[code] = paths
	}
	if len(allPathMap) == 0 {
		return nil, fmt.Errorf("no input device exposes %s; use --list-devices and then pass --device", formatCodes(codes))
	}

	allPaths := make([]string, 0, len(allPathMap))
	for path := range allPathMap {
		allPaths = append(allPaths, path)
	}
	sort.Strings(allPaths)

	devices := make([]*evdev.InputDevice, 0, len(allPaths))
	for _, path := range allPaths {
		dev, err := openInputDevice(path)
		if err != nil {
			continue
		}
		devices = append(devices, dev)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("found keyboards exposing %s, but failed to open any of them", formatCodes(codes))
	}

	opened := make(map[string]struct{}, len(devices))
	for _, dev := range devices {
		opened[dev.Path()] = struct{}{}
	}
	for code, paths := range hotkeyPaths {
		for path := range paths {
			if _, ok := opened[path]; !ok {
				delete(paths, path)
			}
		}
		if len(paths) == 0 {
			delete(hotkeyPaths, code)
		}
	}

	return &SourceSelection{Devices: devices, HotkeyPaths: hotkeyPaths}, nil
}

func openInputDevice(path string) (*evdev.InputDevice, error) {
	return evdev.OpenWithFlags(path, os.O_RDONLY)
}

func describeDevice(dev *evdev.InputDevice, path, fallbackName string) DeviceInfo {
	name := fallbackName
	if actualName, err := dev.Name(); err == nil && actualName != "" {
		name = actualName
	}
	return DeviceInfo{
		Path:       path,
		Name:       name,
		IsVirtual:  deviceIsVirtual(dev, name),
		IsPointer:  deviceIsPointer(dev),
		IsKeyboard: deviceSupportsCode(dev, CodeKEYF6) || deviceSupportsCode(dev, CodeKEYF7),
	}
}

func deviceSupportsCode(device *evdev.InputDevice, code uint16) bool {
	needle := evdev.EvCode(code)
	for _, c := range device.CapableEvents(evdev.EV_KEY) {
		if c == needle {
			return true
		}
	}
	return false
}

func deviceIsVirtual(device *evdev.InputDevice, name string) bool {
	id, err := device.InputID()
	if err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	lower := strings.ToLower(name)
	for _, token := range []string{"virtual", "uinput", "ydotool", injectorDeviceName} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func deviceIsPointer(device *evdev.InputDevice) bool {
	var hasRelX, hasRelY bool
	for _, code := range device.CapableEvents(evdev.EV_REL) {
		if code == evdev.REL_X {
			hasRelX = true
		}
		if code == evdev.REL_Y {
			hasRelY = true
		}
	}
	if hasRelX && hasRelY {
		return true
	}
	return len(device.CapableEvents(evdev.EV_ABS)) > 0
}

func findDevicesByCode(code uint16) ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}

	matches := make([]DeviceInfo, 0)
	for _, path := range paths {
		dev, err := openInputDevice(path.Path)
		if err != nil {
			continue
		}
		if deviceSupportsCode(dev, code) {
			matches = append(matches, describeDevice(dev, path.Path, path.Name))
		}
		_ = dev.Close()
	}

	return preferPhysicalKeyboards(matches), nil
}

// preferPhysicalKeyboards drops virtual devices and pointer-only devices when
// a better candidate exists.
func preferPhysicalKeyboards(matches []DeviceInfo) []DeviceInfo {
	if len(matches) == 0 {
		return matches
	}

	pool := make([]DeviceInfo, 0, len(matches))
	for _, match := range matches {
		if !match.IsVirtual {
			pool = append(pool, match)
		}
	}
	if len(pool) == 0 {
		pool = matches
	}

	keyboards := make([]DeviceInfo, 0, len(pool))
	for _, match := range pool {
		if !match.IsPointer {
			keyboards = append(keyboards, match)
		}
	}
	if len(keyboards) > 0 {
		pool = keyboards
	}

	sort.Slice(pool, func(i, j int) bool {
		return pool[i].Path < pool[j].Path
	})
	return pool
}

func formatCodes(codes []uint16) string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, FormatCodeName(code))
	}
	return strings.Join(names, "/")
}
