package autoclicker

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

const circleSteps = 12

// MovementGenerator nudges the cursor by one pattern step per tick while
// running.
type MovementGenerator struct {
	*worker

	settings *SettingsStore
	rng      *rand.Rand
	stepper  patternStepper
}

func NewMovementGenerator(settings *SettingsStore, injector Injector, logger Logger) (*MovementGenerator, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings store is nil")
	}
	if injector == nil {
		return nil, fmt.Errorf("injector is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	rng := newRand()
	g := &MovementGenerator{
		worker:   newWorker("move", injector, logger),
		settings: settings,
		rng:      rng,
		stepper:  patternStepper{rng: rng},
	}
	g.tick = g.moveOnce
	g.delay = g.nextDelay
	return g, nil
}

func (g *MovementGenerator) moveOnce() bool {
	s := g.settings.Move()
	dx, dy := g.stepper.next(s.Pattern, s.Distance)
	if dx == 0 && dy == 0 {
		g.count.Add(1)
		return true
	}

	events := make([]Event, 0, 3)
	if dx != 0 {
		events = append(events, Event{Type: EventTypeRel, Code: RelXCode, Value: dx})
	}
	if dy != 0 {
		events = append(events, Event{Type: EventTypeRel, Code: RelYCode, Value: dy})
	}
	events = append(events, Event{Type: EventTypeSyn, Code: SynReportCode, Value: 0})

	if err := g.inject(events...); err != nil {
		g.reportError(err)
		return true
	}
	g.count.Add(1)
	return true
}

func (g *MovementGenerator) nextDelay() time.Duration {
	s := g.settings.Move()
	return tickDelay(s.IntervalMS, s.JitterEnabled, s.JitterRangeMS, g.rng)
}

// patternStepper yields relative displacements. The closed patterns (circle,
// jiggle) return to their starting point once per cycle; a pattern or distance
// change restarts the cycle.
type patternStepper struct {
	rng      *rand.Rand
	pattern  Pattern
	distance int
	step     int
}

func (p *patternStepper) next(pattern Pattern, distance int) (int32, int32) {
	if pattern != p.pattern || distance != p.distance {
		p.pattern = pattern
		p.distance = distance
		p.step = 0
	}

	switch pattern {
	case PatternCircle:
		from := circlePoint(p.step, distance)
		to := circlePoint(p.step+1, distance)
		p.step = (p.step + 1) % circleSteps
		return to[0] - from[0], to[1] - from[1]
	case PatternJiggle:
		p.step = (p.step + 1) % 2
		if p.step == 1 {
			return int32(distance), 0
		}
		return -int32(distance), 0
	default:
		dx := p.rng.Intn(2*distance+1) - distance
		dy := p.rng.Intn(2*distance+1) - distance
		return int32(dx), int32(dy)
	}
}

func circlePoint(step, radius int) [2]int32 {
	angle := 2 * math.Pi * float64(step%circleSteps) / circleSteps
	return [2]int32{
		int32(math.Round(float64(radius) * math.Cos(angle))),
		int32(math.Round(float64(radius) * math.Sin(angle))),
	}
}
