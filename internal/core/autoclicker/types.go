package autoclicker

import "time"

// Events use Linux input-event numbering on every platform; adapters translate.
const (
	EventTypeSyn uint16 = 0x00
	EventTypeKey uint16 = 0x01
	EventTypeRel uint16 = 0x02

	SynReportCode uint16 = 0

	RelXCode uint16 = 0x00
	RelYCode uint16 = 0x01

	LeftButtonCode   uint16 = 0x110
	RightButtonCode  uint16 = 0x111
	MiddleButtonCode uint16 = 0x112

	KeyF6Code uint16 = 64
	KeyF7Code uint16 = 65
)

type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

type Config struct {
	ClickDown      time.Duration
	HotkeyDebounce time.Duration
	Click          ClickSettings
	Move           MoveSettings
}

type Injector interface {
	WriteEvents(events ...Event) error
	Close() error
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
