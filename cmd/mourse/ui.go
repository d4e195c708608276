package main

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sakura6264/mourse/internal/core/autoclicker"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

var (
	accentColor  = color.NRGBA{R: 0x5e, G: 0xc8, B: 0xd8, A: 0xff}
	runningColor = color.NRGBA{R: 0x7f, G: 0xd4, B: 0xa8, A: 0xff}
	idleColor    = color.NRGBA{R: 0x4a, G: 0x52, B: 0x60, A: 0xff}
)

type mourseTheme struct {
	base fyne.Theme
}

func newMourseTheme() fyne.Theme {
	return &mourseTheme{base: theme.DarkTheme()}
}

func (t *mourseTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x0f, G: 0x12, B: 0x17, A: 0xff}
	case theme.ColorNameHeaderBackground:
		return color.NRGBA{R: 0x14, G: 0x18, B: 0x1f, A: 0xff}
	case theme.ColorNameButton:
		return color.NRGBA{R: 0x1e, G: 0x24, B: 0x2d, A: 0xff}
	case theme.ColorNameDisabledButton:
		return color.NRGBA{R: 0x17, G: 0x1b, B: 0x21, A: 0xff}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 0x15, G: 0x1a, B: 0x21, A: 0xff}
	case theme.ColorNameInputBorder, theme.ColorNameSeparator:
		return color.NRGBA{R: 0x2b, G: 0x33, B: 0x40, A: 0xff}
	case theme.ColorNamePrimary, theme.ColorNameHyperlink:
		return accentColor
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0x5e, G: 0xc8, B: 0xd8, A: 0x66}
	case theme.ColorNameHover:
		return color.NRGBA{R: 0x5e, G: 0xc8, B: 0xd8, A: 0x22}
	case theme.ColorNamePressed:
		return color.NRGBA{R: 0x5e, G: 0xc8, B: 0xd8, A: 0x40}
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x5e, G: 0xc8, B: 0xd8, A: 0x44}
	case theme.ColorNameForeground:
		return color.NRGBA{R: 0xf2, G: 0xf4, B: 0xf8, A: 0xff}
	case theme.ColorNamePlaceHolder:
		return color.NRGBA{R: 0xa9, G: 0xb3, B: 0xc2, A: 0xff}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xff, G: 0x82, B: 0x82, A: 0xff}
	case theme.ColorNameWarning:
		return color.NRGBA{R: 0xff, G: 0x9f, B: 0x5a, A: 0xff}
	case theme.ColorNameSuccess:
		return runningColor
	}
	return t.base.Color(name, variant)
}

func (t *mourseTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *mourseTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *mourseTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding, theme.SizeNameInnerPadding, theme.SizeNameInputRadius:
		return 8
	}
	return t.base.Size(name)
}

var (
	buttonOptions  = []string{"Left", "Right", "Middle"}
	patternOptions = []string{"Random", "Circle", "Jiggle"}
)

func displayOption(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

// settingsFileURL builds a file:// URL that OpenURL accepts on every platform.
func settingsFileURL(path string) (*url.URL, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return &url.URL{Scheme: "file", Path: slashed}, nil
}

func formatHotkeyErrors(failures map[autoclicker.HotkeyID]error) string {
	if len(failures) == 0 {
		return ""
	}
	parts := make([]string, 0, len(failures))
	for _, id := range []autoclicker.HotkeyID{autoclicker.HotkeyClick, autoclicker.HotkeyMove} {
		if err, ok := failures[id]; ok {
			parts = append(parts, fmt.Sprintf("%s hotkey unavailable: %v", id, err))
		}
	}
	return strings.Join(parts, "; ")
}

type generatorView struct {
	toggleBtn  *widget.Button
	counter    *widget.Label
	indicator  *canvas.Circle
	hotkeyName string
	verb       string
}

func newGeneratorView(verb, hotkeyName string) *generatorView {
	v := &generatorView{
		toggleBtn:  widget.NewButton("", nil),
		counter:    widget.NewLabel("0"),
		indicator:  canvas.NewCircle(idleColor),
		hotkeyName: hotkeyName,
		verb:       verb,
	}
	v.toggleBtn.Importance = widget.HighImportance
	v.counter.TextStyle = fyne.TextStyle{Bold: true}
	v.setState(false, 0)
	return v
}

func (v *generatorView) setState(running bool, count uint64) {
	if running {
		v.toggleBtn.SetText(fmt.Sprintf("Stop %s (%s)", v.verb, v.hotkeyName))
		v.indicator.FillColor = runningColor
	} else {
		v.toggleBtn.SetText(fmt.Sprintf("Start %s (%s)", v.verb, v.hotkeyName))
		v.indicator.FillColor = idleColor
	}
	v.indicator.Refresh()
	v.counter.SetText(fmt.Sprintf("%d", count))
}

func runUI(baseCfg config, click autoclicker.ClickSettings, move autoclicker.MoveSettings, warnings []string) error {
	fApp := app.New()
	fApp.Settings().SetTheme(newMourseTheme())

	window := fApp.NewWindow("Mourse")
	window.Resize(fyne.NewSize(820, 560))
	window.CenterOnScreen()

	errorText := canvas.NewText("", nil)
	errorText.Color = theme.Color(theme.ColorNameError)
	showError := func(msg string) {
		errorText.Text = msg
		errorText.Refresh()
	}

	logGrid := widget.NewTextGrid()
	logGrid.SetText("")
	logScroll := container.NewVScroll(logGrid)
	logScroll.SetMinSize(fyne.NewSize(0, 150))

	const maxUILogLines = 50
	var logMu sync.Mutex
	logLines := make([]string, 0, maxUILogLines)
	debugLogs := debugLogsEnabled()
	appendLogLine := func(line string) {
		if !debugLogs {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			return
		}

		logMu.Lock()
		logLines = append(logLines, line)
		if len(logLines) > maxUILogLines {
			logLines = logLines[len(logLines)-maxUILogLines:]
		}
		logText := strings.Join(logLines, "\n")
		logMu.Unlock()

		fyne.Do(func() {
			logGrid.SetText(logText)
			logScroll.ScrollToBottom()
		})
	}
	if len(warnings) > 0 {
		showError(warnings[0])
		for _, warning := range warnings {
			appendLogLine("WARNING " + warning)
		}
	}

	// Local copies back the controls until the runtime exists.
	clickState := click
	moveState := move

	var stateMu sync.Mutex
	var controller *autoclicker.Controller
	var running mourseRuntime
	var runtimeStop chan struct{}

	getController := func() *autoclicker.Controller {
		stateMu.Lock()
		defer stateMu.Unlock()
		return controller
	}

	persistSettings := func() {
		clickSnap, moveSnap := clickState, moveState
		if c := getController(); c != nil {
			clickSnap = c.Settings().Click()
			moveSnap = c.Settings().Move()
		}
		if err := saveSettings(baseCfg.settingsPath, clickSnap, moveSnap); err != nil {
			showError(fmt.Sprintf("Failed to save settings: %v", err))
		}
	}

	// applySetting updates the live store, whose change listener persists,
	// or persists the local copy before the runtime is up.
	applySetting := func(apply func(store *autoclicker.SettingsStore) error) {
		c := getController()
		if c == nil {
			persistSettings()
			return
		}
		if err := apply(c.Settings()); err != nil {
			showError(err.Error())
			appendLogLine("ERROR " + err.Error())
		}
	}

	newSliderControl := func(label string, value *widget.Label, slider *widget.Slider) fyne.CanvasObject {
		title := widget.NewLabel(label)
		title.TextStyle = fyne.TextStyle{Bold: true}
		head := container.NewBorder(nil, nil, title, value, nil)
		return container.NewVBox(head, slider)
	}
	newValueLabel := func() *widget.Label {
		label := widget.NewLabel("")
		label.Alignment = fyne.TextAlignTrailing
		label.TextStyle = fyne.TextStyle{Bold: true}
		return label
	}

	// Click card.
	clickIntervalSlider := widget.NewSlider(autoclicker.MinClickIntervalMS, autoclicker.MaxClickIntervalMS)
	clickIntervalSlider.Step = 10
	clickIntervalSlider.SetValue(float64(clickState.IntervalMS))
	clickIntervalValue := newValueLabel()

	clickJitterSlider := widget.NewSlider(0, autoclicker.MaxClickJitterMS)
	clickJitterSlider.Step = 10
	clickJitterSlider.SetValue(float64(clickState.JitterRangeMS))
	clickJitterValue := newValueLabel()

	clickJitterCheck := widget.NewCheck("Random delay", nil)
	clickJitterCheck.SetChecked(clickState.JitterEnabled)

	buttonSelect := widget.NewSelect(buttonOptions, nil)
	buttonSelect.SetSelected(displayOption(string(clickState.Button)))

	updateClickText := func() {
		clickIntervalValue.SetText(fmt.Sprintf("%d ms", clickState.IntervalMS))
		clickJitterValue.SetText(fmt.Sprintf("0-%d ms", clickState.JitterRangeMS))
		if clickState.JitterEnabled {
			clickJitterSlider.Enable()
		} else {
			clickJitterSlider.Disable()
		}
	}
	updateClickText()

	clickIntervalSlider.OnChanged = func(v float64) {
		ms := int(math.Round(v))
		if ms == clickState.IntervalMS {
			return
		}
		clickState.IntervalMS = ms
		updateClickText()
		applySetting(func(store *autoclicker.SettingsStore) error {
			clickState.IntervalMS = store.SetClickInterval(ms)
			return nil
		})
	}
	clickJitterSlider.OnChanged = func(v float64) {
		ms := int(math.Round(v))
		if ms == clickState.JitterRangeMS {
			return
		}
		clickState.JitterRangeMS = ms
		updateClickText()
		applySetting(func(store *autoclicker.SettingsStore) error {
			return store.SetClickJitter(clickState.JitterEnabled, ms)
		})
	}
	clickJitterCheck.OnChanged = func(enabled bool) {
		clickState.JitterEnabled = enabled
		updateClickText()
		applySetting(func(store *autoclicker.SettingsStore) error {
			return store.SetClickJitter(enabled, clickState.JitterRangeMS)
		})
	}
	buttonSelect.OnChanged = func(selected string) {
		button, err := autoclicker.ParseButton(selected)
		if err != nil {
			showError(err.Error())
			return
		}
		clickState.Button = button
		applySetting(func(store *autoclicker.SettingsStore) error {
			return store.SetClickButton(button)
		})
	}

	clickView := newGeneratorView("clicking", "F6")

	// Move card.
	moveIntervalSlider := widget.NewSlider(autoclicker.MinMoveIntervalMS, autoclicker.MaxMoveIntervalMS)
	moveIntervalSlider.Step = 10
	moveIntervalSlider.SetValue(float64(moveState.IntervalMS))
	moveIntervalValue := newValueLabel()

	moveDistanceSlider := widget.NewSlider(autoclicker.MinMoveDistance, autoclicker.MaxMoveDistance)
	moveDistanceSlider.Step = 10
	moveDistanceSlider.SetValue(float64(moveState.Distance))
	moveDistanceValue := newValueLabel()

	moveJitterSlider := widget.NewSlider(0, autoclicker.MaxMoveJitterMS)
	moveJitterSlider.Step = 10
	moveJitterSlider.SetValue(float64(moveState.JitterRangeMS))
	moveJitterValue := newValueLabel()

	moveJitterCheck := widget.NewCheck("Random delay", nil)
	moveJitterCheck.SetChecked(moveState.JitterEnabled)

	patternSelect := widget.NewSelect(patternOptions, nil)
	patternSelect.SetSelected(displayOption(string(moveState.Pattern)))

	updateMoveText := func() {
		moveIntervalValue.SetText(fmt.Sprintf("%d ms", moveState.IntervalMS))
		moveDistanceValue.SetText(fmt.Sprintf("%d px", moveState.Distance))
		moveJitterValue.SetText(fmt.Sprintf("0-%d ms", moveState.JitterRangeMS))
		if moveState.JitterEnabled {
			moveJitterSlider.Enable()
		} else {
			moveJitterSlider.Disable()
		}
	}
	updateMoveText()

	moveIntervalSlider.OnChanged = func(v float64) {
		ms := int(math.Round(v))
		if ms == moveState.IntervalMS {
			return
		}
		moveState.IntervalMS = ms
		updateMoveText()
		applySetting(func(store *autoclicker.SettingsStore) error {
			moveState.IntervalMS = store.SetMoveInterval(ms)
			return nil
		})
	}
	moveDistanceSlider.OnChanged = func(v float64) {
		px := int(math.Round(v))
		if px == moveState.Distance {
			return
		}
		moveState.Distance = px
		updateMoveText()
		applySetting(func(store *autoclicker.SettingsStore) error {
			moveState.Distance = store.SetMoveDistance(px)
			return nil
		})
	}
	moveJitterSlider.OnChanged = func(v float64) {
		ms := int(math.Round(v))
		if ms == moveState.JitterRangeMS {
			return
		}
		moveState.JitterRangeMS = ms
		updateMoveText()
		applySetting(func(store *autoclicker.SettingsStore) error {
			return store.SetMoveJitter(moveState.JitterEnabled, ms)
		})
	}
	moveJitterCheck.OnChanged = func(enabled bool) {
		moveState.JitterEnabled = enabled
		updateMoveText()
		applySetting(func(store *autoclicker.SettingsStore) error {
			return store.SetMoveJitter(enabled, moveState.JitterRangeMS)
		})
	}
	patternSelect.OnChanged = func(selected string) {
		pattern, err := autoclicker.ParsePattern(selected)
		if err != nil {
			showError(err.Error())
			return
		}
		moveState.Pattern = pattern
		applySetting(func(store *autoclicker.SettingsStore) error {
			return store.SetMovePattern(pattern)
		})
	}

	moveView := newGeneratorView("moving", "F7")

	refreshStatus := func() {
		c := getController()
		if c == nil {
			return
		}
		status := c.Status()
		clickView.setState(status.ClickEnabled, status.Clicks)
		moveView.setState(status.MoveEnabled, status.Moves)
	}

	clickView.toggleBtn.OnTapped = func() {
		if c := getController(); c != nil {
			c.Clicker().Toggle()
			refreshStatus()
		}
	}
	moveView.toggleBtn.OnTapped = func() {
		if c := getController(); c != nil {
			c.Mover().Toggle()
			refreshStatus()
		}
	}
	clickResetBtn := widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), func() {
		if c := getController(); c != nil {
			c.Clicker().ResetCount()
			refreshStatus()
		}
	})
	moveResetBtn := widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), func() {
		if c := getController(); c != nil {
			c.Mover().ResetCount()
			refreshStatus()
		}
	})

	openSettingsBtn := widget.NewButtonWithIcon("Open settings file", theme.DocumentIcon(), func() {
		persistSettings()
		u, err := settingsFileURL(baseCfg.settingsPath)
		if err == nil {
			err = fApp.OpenURL(u)
		}
		if err != nil {
			showError(fmt.Sprintf("Failed to open settings file: %v", err))
			appendLogLine("ERROR " + err.Error())
		}
	})

	initProgress := widget.NewProgressBarInfinite()
	initProgress.Hide()

	runStatusLoop := func(stopCh <-chan struct{}) {
		ticker := time.NewTicker(150 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				fyne.Do(refreshStatus)
			}
		}
	}

	stopRuntime := func() {
		stateMu.Lock()
		rt := running
		stop := runtimeStop
		running = nil
		controller = nil
		runtimeStop = nil
		stateMu.Unlock()

		if stop != nil {
			close(stop)
		}
		if rt != nil {
			rt.Stop()
		}
	}

	startupCfg := runtimeConfig(baseCfg, clickState, moveState)
	startRuntimeAsync := func() {
		initProgress.Show()
		appendLogLine("INFO Initializing input backend...")

		go func() {
			var logger = newSlogLogger(baseCfg.logLevel, io.Discard, nil)
			if debugLogs {
				logger = newSlogLogger(baseCfg.logLevel, os.Stderr, appendLogLine)
			}

			rt, err := startRuntime(baseCfg, startupCfg, logger)
			if err != nil {
				fyne.Do(func() {
					initProgress.Hide()
					switch {
					case isPermissionError(err):
						showError(permissionDeniedHint())
					case errors.Is(err, syscall.EBUSY) || strings.Contains(strings.ToLower(err.Error()), "device or resource busy"):
						showError("Input device is in use by another app. Close the other app and try again.")
					default:
						showError(err.Error())
					}
					appendLogLine("ERROR " + errorText.Text)
				})
				return
			}

			c := rt.Controller()
			c.Settings().OnChange(func() {
				fyne.Do(persistSettings)
			})
			c.OnError(func(err error) {
				fyne.Do(func() {
					showError(err.Error())
				})
			})

			stop := make(chan struct{})
			stateMu.Lock()
			running = rt
			controller = c
			runtimeStop = stop
			stateMu.Unlock()

			go runStatusLoop(stop)

			fyne.Do(func() {
				initProgress.Hide()
				// Controls may have moved while the backend was starting.
				applySetting(func(store *autoclicker.SettingsStore) error {
					store.SetClickInterval(clickState.IntervalMS)
					store.SetMoveInterval(moveState.IntervalMS)
					store.SetMoveDistance(moveState.Distance)
					if err := store.SetClickButton(clickState.Button); err != nil {
						return err
					}
					if err := store.SetClickJitter(clickState.JitterEnabled, clickState.JitterRangeMS); err != nil {
						return err
					}
					if err := store.SetMovePattern(moveState.Pattern); err != nil {
						return err
					}
					return store.SetMoveJitter(moveState.JitterEnabled, moveState.JitterRangeMS)
				})
				if msg := formatHotkeyErrors(c.Hotkeys().Failures()); msg != "" {
					showError(msg)
					appendLogLine("ERROR " + msg)
				} else if len(warnings) == 0 {
					showError("")
				}
				refreshStatus()
				appendLogLine("INFO Initialization complete")
			})
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var closeOnce sync.Once
	cleanup := func() {
		closeOnce.Do(func() {
			persistSettings()
			stopRuntime()
		})
	}

	quit := func() {
		cleanup()
		if currentApp := fyne.CurrentApp(); currentApp != nil {
			currentApp.Quit()
			return
		}
		window.SetCloseIntercept(nil)
		window.Close()
	}

	go func() {
		<-sigCh
		fyne.Do(quit)
	}()

	// Some GUI backends can leave Ctrl+C as raw ETX byte instead of SIGINT.
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 1 && buf[0] == 3 {
				fyne.Do(quit)
				return
			}
		}
	}()

	window.SetCloseIntercept(quit)

	titleText := canvas.NewText("MOURSE", accentColor)
	titleText.TextStyle = fyne.TextStyle{Bold: true}
	titleText.TextSize = 30

	accentLine := canvas.NewRectangle(accentColor)
	accentLine.SetMinSize(fyne.NewSize(220, 3))

	statusRow := func(view *generatorView, reset *widget.Button) fyne.CanvasObject {
		dot := container.NewGridWrap(fyne.NewSize(12, 12), view.indicator)
		countTitle := widget.NewLabel("Count")
		return container.NewBorder(nil, nil,
			container.NewHBox(container.NewCenter(dot), countTitle, view.counter),
			reset,
			nil,
		)
	}

	clickCard := widget.NewCard("Clicker", "", container.NewVBox(
		newSliderControl("Interval", clickIntervalValue, clickIntervalSlider),
		widget.NewForm(widget.NewFormItem("Button", buttonSelect)),
		clickJitterCheck,
		newSliderControl("Delay range", clickJitterValue, clickJitterSlider),
		statusRow(clickView, clickResetBtn),
		clickView.toggleBtn,
	))
	moveCard := widget.NewCard("Mover", "", container.NewVBox(
		newSliderControl("Interval", moveIntervalValue, moveIntervalSlider),
		widget.NewForm(widget.NewFormItem("Pattern", patternSelect)),
		newSliderControl("Distance", moveDistanceValue, moveDistanceSlider),
		moveJitterCheck,
		newSliderControl("Delay range", moveJitterValue, moveJitterSlider),
		statusRow(moveView, moveResetBtn),
		moveView.toggleBtn,
	))
	controlsRow := container.NewGridWithColumns(2, clickCard, moveCard)

	header := container.NewBorder(nil, nil, titleText, openSettingsBtn, nil)
	mainContent := container.NewVBox(
		header,
		accentLine,
		controlsRow,
		errorText,
		initProgress,
	)
	mainPanel := container.NewPadded(mainContent)

	var rootContent fyne.CanvasObject = mainPanel
	if debugLogs {
		logsCard := widget.NewCard("Logs", "", logScroll)
		split := container.NewVSplit(mainPanel, logsCard)
		split.SetOffset(0.72)
		rootContent = split
	}

	startRuntimeAsync()

	window.SetContent(rootContent)
	window.ShowAndRun()
	cleanup()
	return nil
}
