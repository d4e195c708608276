package autoclicker

import (
	"math/rand"
	"testing"
	"time"
)

func TestCirclePatternReturnsToOrigin(t *testing.T) {
	p := patternStepper{rng: rand.New(rand.NewSource(1))}

	for cycle := 0; cycle < 3; cycle++ {
		var sumX, sumY int32
		for i := 0; i < circleSteps; i++ {
			dx, dy := p.next(PatternCircle, 100)
			if dx == 0 && dy == 0 {
				t.Fatalf("circle step %d did not move", i)
			}
			sumX += dx
			sumY += dy
		}
		if sumX != 0 || sumY != 0 {
			t.Fatalf("cycle %d ended at (%d,%d), want origin", cycle, sumX, sumY)
		}
	}
}

func TestJigglePatternReturnsToOrigin(t *testing.T) {
	p := patternStepper{rng: rand.New(rand.NewSource(1))}

	dx1, dy1 := p.next(PatternJiggle, 25)
	dx2, dy2 := p.next(PatternJiggle, 25)
	if dx1 != 25 || dy1 != 0 {
		t.Fatalf("first jiggle step = (%d,%d), want (25,0)", dx1, dy1)
	}
	if dx1+dx2 != 0 || dy1+dy2 != 0 {
		t.Fatalf("jiggle pair = (%d,%d)+(%d,%d), want zero sum", dx1, dy1, dx2, dy2)
	}
}

func TestRandomPatternStaysWithinDistance(t *testing.T) {
	p := patternStepper{rng: rand.New(rand.NewSource(3))}
	const distance = 40

	for i := 0; i < 2000; i++ {
		dx, dy := p.next(PatternRandom, distance)
		if dx < -distance || dx > distance || dy < -distance || dy > distance {
			t.Fatalf("random step (%d,%d) exceeds distance %d", dx, dy, distance)
		}
	}
}

func TestPatternChangeRestartsCycle(t *testing.T) {
	p := patternStepper{rng: rand.New(rand.NewSource(1))}

	p.next(PatternJiggle, 10)
	dx, _ := p.next(PatternCircle, 10)
	first := circlePoint(1, 10)[0] - circlePoint(0, 10)[0]
	if dx != first {
		t.Fatalf("circle after pattern change started with dx=%d, want %d", dx, first)
	}

	dx, _ = p.next(PatternJiggle, 10)
	if dx != 10 {
		t.Fatalf("jiggle after pattern change started with dx=%d, want 10", dx)
	}
}

func TestMoveOnceEmitsRelativeEvents(t *testing.T) {
	store := newTestStore(t)
	if err := store.SetMovePattern(PatternJiggle); err != nil {
		t.Fatalf("SetMovePattern() error = %v", err)
	}
	store.SetMoveDistance(15)

	injector := &recordingInjector{}
	g, err := NewMovementGenerator(store, injector, noopLogger{})
	if err != nil {
		t.Fatalf("NewMovementGenerator() error = %v", err)
	}
	t.Cleanup(g.Stop)

	g.moveOnce()
	g.moveOnce()

	want := []Event{
		{Type: EventTypeRel, Code: RelXCode, Value: 15},
		{Type: EventTypeSyn, Code: SynReportCode, Value: 0},
		{Type: EventTypeRel, Code: RelXCode, Value: -15},
		{Type: EventTypeSyn, Code: SynReportCode, Value: 0},
	}
	got := injector.snapshot()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %#v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %#v, want %#v", i, got[i], want[i])
		}
	}
	if g.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", g.Count())
	}
}

func TestMoveOnceSkipsTickAfterRetryFails(t *testing.T) {
	store := newTestStore(t)
	injector := &recordingInjector{}
	g, err := NewMovementGenerator(store, injector, noopLogger{})
	if err != nil {
		t.Fatalf("NewMovementGenerator() error = %v", err)
	}
	t.Cleanup(g.Stop)

	var reported int
	g.OnError(func(error) { reported++ })

	injector.failWrites(2)
	g.moveOnce()
	if g.Count() != 0 || reported != 1 {
		t.Fatalf("Count()=%d reported=%d, want 0 and 1", g.Count(), reported)
	}
}

func TestMovementGeneratorRunsUntilDisabled(t *testing.T) {
	store := newTestStore(t)
	store.SetMoveInterval(MinMoveIntervalMS)
	injector := &recordingInjector{}
	g, err := NewMovementGenerator(store, injector, noopLogger{})
	if err != nil {
		t.Fatalf("NewMovementGenerator() error = %v", err)
	}
	t.Cleanup(g.Stop)

	g.Start()
	g.SetEnabled(true)
	waitFor(t, time.Second, func() bool { return g.Count() >= 3 })
	g.SetEnabled(false)
	time.Sleep(30 * time.Millisecond)

	settled := g.Count()
	time.Sleep(50 * time.Millisecond)
	if g.Count() != settled {
		t.Fatalf("moves continued while idle: %d -> %d", settled, g.Count())
	}
}
