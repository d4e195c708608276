//go:build linux

package x11input

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sakura6264/mourse/internal/adapters/linuxinput"
	"github.com/sakura6264/mourse/internal/core/autoclicker"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

const globalSourceIdentity = "x11-global"

type DeviceInfo struct {
	Path      string
	Name      string
	IsVirtual bool
	IsPointer bool
}

// Runtime grabs F6/F7 on the root window and injects clicks with XTest.
type Runtime struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window

	controller *autoclicker.Controller
	logger     autoclicker.Logger

	mu          sync.RWMutex
	keyToCode   map[xproto.Keycode]uint16
	grabbedKeys []xproto.Keycode

	injectMu sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

type x11Injector struct {
	r *Runtime
}

func (i *x11Injector) WriteEvents(events ...autoclicker.Event) error {
	i.r.injectMu.Lock()
	defer i.r.injectMu.Unlock()

	var (
		moveX int32
		moveY int32
		dirty bool
	)

	flushMove := func() error {
		if moveX == 0 && moveY == 0 {
			return nil
		}

		query, err := xproto.QueryPointer(i.r.conn, i.r.rootWin).Reply()
		if err != nil {
			return err
		}
		nextX := clampInt32ToInt16(int32(query.RootX) + moveX)
		nextY := clampInt32ToInt16(int32(query.RootY) + moveY)
		if err := xproto.WarpPointerChecked(
			i.r.conn,
			xproto.WindowNone,
			i.r.rootWin,
			0,
			0,
			0,
			0,
			nextX,
			nextY,
		).Check(); err != nil {
			return err
		}
		moveX = 0
		moveY = 0
		dirty = true
		return nil
	}

	for _, event := range events {
		switch event.Type {
		case autoclicker.EventTypeRel:
			switch event.Code {
			case autoclicker.RelXCode:
				moveX += event.Value
			case autoclicker.RelYCode:
				moveY += event.Value
			}
		case autoclicker.EventTypeSyn:
			if event.Code == autoclicker.SynReportCode {
				if err := flushMove(); err != nil {
					return err
				}
			}
		case autoclicker.EventTypeKey:
			button, ok := codeToXButton(event.Code)
			if !ok {
				continue
			}
			if err := flushMove(); err != nil {
				return err
			}

			var eventType byte
			switch event.Value {
			case 1:
				eventType = xproto.ButtonPress
			case 0:
				eventType = xproto.ButtonRelease
			default:
				continue
			}

			if err := xtest.FakeInputChecked(
				i.r.conn,
				eventType,
				byte(button),
				xproto.TimeCurrentTime,
				i.r.rootWin,
				0,
				0,
				0,
			).Check(); err != nil {
				return err
			}
			dirty = true
		}
	}

	if err := flushMove(); err != nil {
		return err
	}
	if dirty {
		i.r.conn.Sync()
	}
	return nil
}

func (i *x11Injector) Close() error {
	return nil
}

func NewRuntime(cfg autoclicker.Config, logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}

	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XTEST extension unavailable: %w", err)
	}
	keybind.Initialize(xu)

	r := &Runtime{
		xu:        xu,
		conn:      conn,
		rootWin:   xu.RootWin(),
		logger:    logger,
		keyToCode: make(map[xproto.Keycode]uint16),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	controller, err := autoclicker.NewController(cfg, &x11Injector{r: r}, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	r.controller = controller
	r.grabHotkeys()

	return r, nil
}

func (r *Runtime) Start() error {
	r.controller.Start()
	go r.eventLoop()
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)

		r.mu.Lock()
		r.ungrabAllLocked()
		r.mu.Unlock()

		r.controller.Stop()
		if r.conn != nil {
			r.conn.Close()
		}
		<-r.doneCh
	})
}

func (r *Runtime) Controller() *autoclicker.Controller {
	return r.controller
}

// grabHotkeys grabs each hotkey separately; a key another client already
// owns only disables that hotkey.
func (r *Runtime) grabHotkeys() {
	hotkeys := r.controller.Hotkeys()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range []autoclicker.HotkeyID{autoclicker.HotkeyClick, autoclicker.HotkeyMove} {
		code, ok := hotkeys.CodeFor(id)
		if !ok {
			continue
		}
		keycodes, err := r.resolveKeycodes(code)
		if err != nil {
			hotkeys.MarkFailed(id, err)
			continue
		}
		if err := r.grabKeysLocked(keycodes); err != nil {
			hotkeys.MarkFailed(id, fmt.Errorf("grab %s: %w", linuxinput.FormatCodeName(code), err))
			continue
		}
		for _, key := range keycodes {
			r.keyToCode[key] = code
		}
	}
}

func (r *Runtime) grabKeysLocked(keys []xproto.Keycode) error {
	grabbed := make([]xproto.Keycode, 0, len(keys))
	for _, key := range keys {
		if err := xproto.GrabKeyChecked(
			r.conn,
			false,
			r.rootWin,
			xproto.ModMaskAny,
			key,
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
		).Check(); err != nil {
			for _, done := range grabbed {
				xproto.UngrabKey(r.conn, done, r.rootWin, xproto.ModMaskAny)
			}
			return err
		}
		grabbed = append(grabbed, key)
	}
	r.grabbedKeys = append(r.grabbedKeys, grabbed...)
	return nil
}

func (r *Runtime) ungrabAllLocked() {
	for _, key := range r.grabbedKeys {
		xproto.UngrabKey(r.conn, key, r.rootWin, xproto.ModMaskAny)
	}
	r.grabbedKeys = nil
}

func (r *Runtime) resolveKeycodes(code uint16) ([]xproto.Keycode, error) {
	keyName, ok := linuxCodeToXKeyString(code)
	if !ok {
		return nil, fmt.Errorf("unsupported X11 key code %s", linuxinput.FormatCodeName(code))
	}

	keycodes := keybind.StrToKeycodes(r.xu, keyName)
	if len(keycodes) == 0 {
		return nil, fmt.Errorf("failed to resolve X11 key %q", keyName)
	}

	uniq := make(map[xproto.Keycode]struct{}, len(keycodes))
	for _, keycode := range keycodes {
		uniq[keycode] = struct{}{}
	}
	result := make([]xproto.Keycode, 0, len(uniq))
	for key := range uniq {
		result = append(result, key)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func (r *Runtime) eventLoop() {
	defer close(r.doneCh)

	for {
		event, xerr := r.conn.WaitForEvent()
		if xerr != nil {
			select {
			case <-r.stopCh:
				return
			default:
			}
			r.logger.Warn("X11 event error", "err", xerr)
			continue
		}
		if event == nil {
			return
		}

		switch ev := event.(type) {
		case xproto.KeyPressEvent:
			if code, ok := r.lookupKeyCode(ev.Detail); ok {
				r.controller.SubmitKey(globalSourceIdentity, code, 1)
			}
		case xproto.KeyReleaseEvent:
			if code, ok := r.lookupKeyCode(ev.Detail); ok {
				r.controller.SubmitKey(globalSourceIdentity, code, 0)
			}
		}
	}
}

func (r *Runtime) lookupKeyCode(key xproto.Keycode) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.keyToCode[key]
	return code, ok
}

func ListInputDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{
		{
			Path:      globalSourceIdentity,
			Name:      "X11 Global Input",
			IsVirtual: false,
			IsPointer: true,
		},
	}, nil
}

func codeToXButton(code uint16) (xproto.Button, bool) {
	switch code {
	case autoclicker.LeftButtonCode:
		return xproto.Button(xproto.ButtonIndex1), true
	case autoclicker.MiddleButtonCode:
		return xproto.Button(xproto.ButtonIndex2), true
	case autoclicker.RightButtonCode:
		return xproto.Button(xproto.ButtonIndex3), true
	default:
		return 0, false
	}
}

// linuxCodeToXKeyString maps function keys to their keysym names.
func linuxCodeToXKeyString(code uint16) (string, bool) {
	name := linuxinput.FormatCodeName(code)
	if !strings.HasPrefix(name, "KEY_") {
		return "", false
	}
	token := strings.TrimPrefix(name, "KEY_")
	if strings.HasPrefix(token, "F") && len(token) > 1 && isDigits(token[1:]) {
		return token, true
	}
	return "", false
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func clampInt32ToInt16(value int32) int16 {
	if value < -32768 {
		return -32768
	}
	if value > 32767 {
		return 32767
	}
	return int16(value)
}
