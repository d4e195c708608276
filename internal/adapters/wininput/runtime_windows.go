//go:build windows

package wininput

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/sakura6264/mourse/internal/core/autoclicker"

	"golang.org/x/sys/windows"
)

const (
	whKeyboardLL = 13

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	llkhfInjected        = 0x00000010
	llkhfLowerILInjected = 0x00000002

	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79

	inputMouse            = 0
	mouseeventfMove       = 0x0001
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfVirtualDsk = 0x4000
	mouseeventfAbsolute   = 0x8000
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procSendInput           = user32.NewProc("SendInput")
	procGetCursorPos        = user32.NewProc("GetCursorPos")
	procGetSystemMetrics    = user32.NewProc("GetSystemMetrics")

	keyboardHookCallback = windows.NewCallback(keyboardLLCallback)

	// The hook callback has no user pointer, so the live runtime is global.
	activeRuntime atomic.Pointer[Runtime]
)

type point struct {
	X int32
	Y int32
}

type keyboardLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type message struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type input struct {
	Type uint32
	Mi   mouseInput
}

// windowsInjector sends motion as absolute virtual-desktop moves. Relative
// MOUSEEVENTF_MOVE is scaled by pointer acceleration.
type windowsInjector struct{}

func (i *windowsInjector) WriteEvents(events ...autoclicker.Event) error {
	inputs := make([]input, 0, len(events))
	var moveX int32
	var moveY int32

	var desktop virtualDesktop
	var cursor point
	haveCursor := false

	flushMove := func() error {
		if moveX == 0 && moveY == 0 {
			return nil
		}
		if !haveCursor {
			var err error
			if cursor, err = cursorPos(); err != nil {
				return err
			}
			desktop = currentDesktop()
			haveCursor = true
		}
		cursor.X, cursor.Y = desktop.clamp(cursor.X+moveX, cursor.Y+moveY)
		absX, absY := desktop.normalize(cursor.X, cursor.Y)
		inputs = append(inputs, input{
			Type: inputMouse,
			Mi: mouseInput{
				Dx:      absX,
				Dy:      absY,
				DwFlags: mouseeventfMove | mouseeventfAbsolute | mouseeventfVirtualDsk,
			},
		})
		moveX = 0
		moveY = 0
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
			flags, ok := buttonFlags(event.Code, event.Value)
			if !ok {
				continue
			}
			if err := flushMove(); err != nil {
				return err
			}
			inputs = append(inputs, input{
				Type: inputMouse,
				Mi: mouseInput{
					DwFlags: flags,
				},
			})
		}
	}
	if err := flushMove(); err != nil {
		return err
	}

	if len(inputs) == 0 {
		return nil
	}

	sent, _, callErr := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if sent != uintptr(len(inputs)) {
		if callErr != nil && callErr != windows.Errno(0) {
			return callErr
		}
		return fmt.Errorf("SendInput sent %d of %d inputs", sent, len(inputs))
	}
	return nil
}

func (i *windowsInjector) Close() error {
	return nil
}

func cursorPos() (point, error) {
	var p point
	ok, _, callErr := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if ok == 0 {
		return point{}, fmt.Errorf("GetCursorPos: %w", callErr)
	}
	return p, nil
}

func currentDesktop() virtualDesktop {
	metric := func(index uintptr) int32 {
		v, _, _ := procGetSystemMetrics.Call(index)
		return int32(v)
	}
	return virtualDesktop{
		Left:   metric(smXVirtualScreen),
		Top:    metric(smYVirtualScreen),
		Width:  metric(smCXVirtualScreen),
		Height: metric(smCYVirtualScreen),
	}
}

func buttonFlags(code uint16, value int32) (uint32, bool) {
	if value != 0 && value != 1 {
		return 0, false
	}
	down := value == 1
	switch code {
	case CodeBTNLeft:
		if down {
			return mouseeventfLeftDown, true
		}
		return mouseeventfLeftUp, true
	case CodeBTNRight:
		if down {
			return mouseeventfRightDown, true
		}
		return mouseeventfRightUp, true
	case CodeBTNMiddle:
		if down {
			return mouseeventfMiddleDown, true
		}
		return mouseeventfMiddleUp, true
	default:
		return 0, false
	}
}

// Runtime watches F6/F7 through a low-level keyboard hook and injects input
// with SendInput.
type Runtime struct {
	controller *autoclicker.Controller
	logger     autoclicker.Logger

	stopOnce sync.Once
	stopCh   chan struct{}

	threadID atomic.Uint32
	loopMu   sync.Mutex
	loopDone chan struct{}
}

func NewRuntime(cfg autoclicker.Config, logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	controller, err := autoclicker.NewController(cfg, &windowsInjector{}, logger)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		controller: controller,
		logger:     logger,
		stopCh:     make(chan struct{}),
		loopDone:   closedSignalChan(),
	}, nil
}

// Start launches the generators and installs the keyboard hook. A hook
// failure disables both hotkeys but leaves the runtime usable from the UI.
func (r *Runtime) Start() error {
	r.controller.Start()

	if !activeRuntime.CompareAndSwap(nil, r) {
		r.markHotkeysFailed(fmt.Errorf("another windows runtime owns the keyboard hook"))
		return nil
	}

	r.loopMu.Lock()
	r.loopDone = make(chan struct{})
	r.loopMu.Unlock()

	ready := make(chan error, 1)
	go r.hookLoop(ready)

	if err := <-ready; err != nil {
		r.markHotkeysFailed(err)
	}
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		threadID := r.threadID.Load()
		if threadID != 0 {
			_, _, _ = procPostThreadMessageW.Call(uintptr(threadID), uintptr(wmQuit), 0, 0)
		}

		r.loopMu.Lock()
		done := r.loopDone
		r.loopMu.Unlock()
		if done != nil {
			<-done
		}

		r.controller.Stop()
		activeRuntime.CompareAndSwap(r, nil)
	})
}

func (r *Runtime) Controller() *autoclicker.Controller {
	return r.controller
}

func (r *Runtime) markHotkeysFailed(err error) {
	hotkeys := r.controller.Hotkeys()
	_ = hotkeys.MarkFailed(autoclicker.HotkeyClick, err)
	_ = hotkeys.MarkFailed(autoclicker.HotkeyMove, err)
}

func (r *Runtime) hookLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer func() {
		r.loopMu.Lock()
		done := r.loopDone
		r.loopMu.Unlock()
		if done != nil {
			close(done)
		}
	}()
	defer activeRuntime.CompareAndSwap(r, nil)

	r.threadID.Store(windows.GetCurrentThreadId())

	keyboardHook, _, keyboardErr := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), keyboardHookCallback, 0, 0)
	if keyboardHook == 0 {
		ready <- fmt.Errorf("failed to install keyboard hook: %w", keyboardErr)
		return
	}
	defer func() {
		_, _, _ = procUnhookWindowsHookEx.Call(keyboardHook)
	}()

	ready <- nil

	var msg message
	for {
		ret, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			r.logger.Warn("Windows message loop failed", "err", callErr)
			return
		case 0:
			return
		default:
			_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
		}
	}
}

func keyboardLLCallback(code int, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 {
		if r := activeRuntime.Load(); r != nil {
			r.handleKeyboardHook(wParam, lParam)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return ret
}

func (r *Runtime) handleKeyboardHook(wParam uintptr, lParam uintptr) {
	if lParam == 0 {
		return
	}

	event := (*keyboardLLHookStruct)(unsafe.Pointer(lParam))
	if event.Flags&llkhfInjected != 0 || event.Flags&llkhfLowerILInjected != 0 {
		return
	}

	code, ok := CodeFromVK(event.VkCode)
	if !ok {
		return
	}

	var value int32
	switch uint32(wParam) {
	case wmKeyDown, wmSysKeyDown:
		value = 1
	case wmKeyUp, wmSysKeyUp:
		value = 0
	default:
		return
	}

	// The hook thread must return quickly; the dispatcher only flips state.
	r.controller.SubmitKey(globalSourceIdentity, code, value)
}

func ListInputDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{
		{
			Path:      globalSourceIdentity,
			Name:      "Windows Global Input",
			IsVirtual: false,
			IsPointer: true,
		},
	}, nil
}

func closedSignalChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
