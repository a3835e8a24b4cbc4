package scatter

import (
	"math/rand/v2"
	"testing"

	"github.com/smazurov/stripnode/internal/pixel"
)

const stripLength = 80

// sequentialRand hands out fresh pixel indices 0, 1, 2, ... for admission
// draws and zero for every other draw, so admissions never collide.
type sequentialRand struct {
	length int
	next   int
}

func (r *sequentialRand) IntN(n int) int {
	if n == r.length {
		v := r.next % n
		r.next++
		return v
	}
	return 0
}

// fixedRand always returns the same value, clamped to the range.
type fixedRand struct {
	v int
}

func (r fixedRand) IntN(n int) int {
	return min(r.v, n-1)
}

func newSeededEngine(mode Mode, seed uint64) *Engine {
	return New(Config{
		Length: stripLength,
		Mode:   mode,
		Rand:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	})
}

// checkConsistency verifies the arena, the working lists, and the held list
// agree with each other.
func checkConsistency(t *testing.T, e *Engine) {
	t.Helper()

	seen := make(map[int]Phase)
	for _, i := range e.admitting {
		if p, dup := seen[i]; dup {
			t.Fatalf("tick %d: index %d admitting and %v", e.ticks, i, p)
		}
		seen[i] = Admitting
	}
	for _, i := range e.retiring {
		if p, dup := seen[i]; dup {
			t.Fatalf("tick %d: index %d retiring and %v", e.ticks, i, p)
		}
		seen[i] = Retiring
	}
	for k, i := range e.arena.held {
		if p, dup := seen[i]; dup {
			t.Fatalf("tick %d: index %d held and %v", e.ticks, i, p)
		}
		seen[i] = Held
		if e.arena.heldPos[i] != k {
			t.Fatalf("tick %d: heldPos[%d] = %d, want %d", e.ticks, i, e.arena.heldPos[i], k)
		}
	}

	active := 0
	for i, s := range e.arena.slots {
		want, tracked := seen[i]
		if s.phase == Idle {
			if tracked {
				t.Fatalf("tick %d: idle index %d tracked as %v", e.ticks, i, want)
			}
			if s.color != pixel.Off || s.ramp != 0 {
				t.Fatalf("tick %d: idle index %d kept color %v ramp %d", e.ticks, i, s.color, s.ramp)
			}
			continue
		}
		active++
		if s.phase != want {
			t.Fatalf("tick %d: index %d phase = %v, tracked as %v", e.ticks, i, s.phase, want)
		}
		if s.ramp < 0 || s.ramp > pixel.MaxRamp || s.ramp%RampStep != 0 {
			t.Fatalf("tick %d: index %d ramp = %d out of bounds", e.ticks, i, s.ramp)
		}
	}
	if active != e.arena.active {
		t.Fatalf("tick %d: active count = %d, slots say %d", e.ticks, e.arena.active, active)
	}
}

func TestEngine_Invariants(t *testing.T) {
	for _, mode := range []Mode{Vivid, Pastel, Mono} {
		t.Run(mode.String(), func(t *testing.T) {
			e := newSeededEngine(mode, 42)
			buf := pixel.NewBuffer(stripLength)

			for tick := 0; tick < 5000; tick++ {
				heldBefore := e.Stats().Held

				buf.Clear()
				e.Step(buf)
				checkConsistency(t, e)

				stats := e.Stats()
				if stats.Active > DefaultMaxActive {
					t.Fatalf("tick %d: active = %d, exceeds %d", tick, stats.Active, DefaultMaxActive)
				}

				// A retirement chosen this tick has already stepped once.
				fresh := 0
				for _, entry := range e.Active() {
					if entry.Phase == Retiring && entry.Ramp == pixel.MaxRamp-RampStep {
						fresh++
					}
				}
				wantFresh := 0
				if heldBefore >= DefaultRetireThreshold {
					wantFresh = 1
				}
				if fresh != wantFresh {
					t.Fatalf("tick %d: held before = %d, new retirements = %d, want %d", tick, heldBefore, fresh, wantFresh)
				}
			}
		})
	}
}

func TestEngine_BufferMatchesState(t *testing.T) {
	e := newSeededEngine(Vivid, 7)
	buf := pixel.NewBuffer(stripLength)

	for tick := 0; tick < 500; tick++ {
		buf.Clear()
		e.Step(buf)

		for i := 0; i < stripLength; i++ {
			entry := e.Inspect(i)
			want := pixel.Off
			if entry.Phase != Idle {
				want = entry.Color.Scaled(entry.Ramp)
			}
			if got := buf.At(i); got != want {
				t.Fatalf("tick %d: buf[%d] = %v, want %v (%v ramp %d)", tick, i, got, want, entry.Phase, entry.Ramp)
			}
		}
	}
}

func TestEngine_ColorPersistsForLifecycle(t *testing.T) {
	e := newSeededEngine(Pastel, 99)
	buf := pixel.NewBuffer(stripLength)
	assigned := make(map[int]pixel.Color)

	for tick := 0; tick < 3000; tick++ {
		buf.Clear()
		e.Step(buf)

		current := make(map[int]bool)
		for _, entry := range e.Active() {
			current[entry.Index] = true
			if c, ok := assigned[entry.Index]; ok {
				if c != entry.Color {
					t.Fatalf("tick %d: index %d color changed from %v to %v", tick, entry.Index, c, entry.Color)
				}
				continue
			}
			if entry.Phase != Admitting || entry.Ramp != RampStep {
				t.Fatalf("tick %d: index %d first seen as %v ramp %d", tick, entry.Index, entry.Phase, entry.Ramp)
			}
			assigned[entry.Index] = entry.Color
		}
		for i := range assigned {
			if !current[i] {
				delete(assigned, i)
			}
		}
	}
}

func TestEngine_TransitionsTakeTenTicks(t *testing.T) {
	e := newSeededEngine(Vivid, 1234)
	buf := pixel.NewBuffer(stripLength)

	admittedAt := make(map[int]int)
	retiringAt := make(map[int]int)
	prev := make(map[int]Phase)
	completedAdmissions, completedRetirements := 0, 0

	for tick := 0; tick < 3000; tick++ {
		buf.Clear()
		e.Step(buf)

		for i := 0; i < stripLength; i++ {
			phase := e.Inspect(i).Phase
			before := prev[i]
			switch {
			case before == Idle && phase == Admitting:
				admittedAt[i] = tick
			case before == Admitting && phase == Held:
				if got := tick - admittedAt[i] + 1; got != 10 {
					t.Fatalf("index %d admission took %d ticks, want 10", i, got)
				}
				completedAdmissions++
			case before == Held && phase == Retiring:
				retiringAt[i] = tick
			case before == Retiring && phase == Idle:
				if got := tick - retiringAt[i] + 1; got != 10 {
					t.Fatalf("index %d retirement took %d ticks, want 10", i, got)
				}
				completedRetirements++
			case before != phase:
				t.Fatalf("tick %d: index %d jumped from %v to %v", tick, i, before, phase)
			}
			prev[i] = phase
		}
	}

	if completedAdmissions == 0 || completedRetirements == 0 {
		t.Errorf("completed admissions = %d, retirements = %d, want both > 0", completedAdmissions, completedRetirements)
	}
}

func TestEngine_ActiveStallsAtCap(t *testing.T) {
	rng := &sequentialRand{length: stripLength}
	e := New(Config{Length: stripLength, Mode: Mono, Rand: rng})
	buf := pixel.NewBuffer(stripLength)

	for tick := 1; tick <= 30; tick++ {
		buf.Clear()
		e.Step(buf)
		active := e.Stats().Active

		var want int
		switch {
		case tick <= 20:
			want = tick
		case tick < 29:
			want = 20
		default:
			// From tick 29 on one retirement completes every tick, after
			// that tick's admission refilled the slot freed the tick before.
			want = 19
		}
		if active != want {
			t.Fatalf("after tick %d: active = %d, want %d", tick, active, want)
		}
	}

	// Only 21 admissions happened: 20 before the stall, one on tick 30.
	if rng.next != 21 {
		t.Errorf("admission draws = %d, want 21", rng.next)
	}
}

func TestEngine_CollisionSkipsAdmission(t *testing.T) {
	e := New(Config{Length: stripLength, Mode: Mono, Rand: fixedRand{v: 5}})
	buf := pixel.NewBuffer(stripLength)

	e.Step(buf)
	if got := e.Stats().Active; got != 1 {
		t.Fatalf("active after first tick = %d, want 1", got)
	}

	for tick := 0; tick < 5; tick++ {
		e.Step(buf)
	}
	stats := e.Stats()
	if stats.Active != 1 {
		t.Errorf("active = %d, want 1", stats.Active)
	}
	if stats.Collisions != 5 {
		t.Errorf("collisions = %d, want 5", stats.Collisions)
	}
}

func TestEngine_RetiredIndexReadmittable(t *testing.T) {
	e := New(Config{Length: stripLength, Mode: Mono, Rand: fixedRand{v: 3}, RetireThreshold: 1})
	buf := pixel.NewBuffer(stripLength)

	// 10 ticks admitting, then retirement starts on tick 11 and ends on 20.
	for tick := 1; tick <= 20; tick++ {
		buf.Clear()
		e.Step(buf)
	}
	if got := e.Inspect(3).Phase; got != Idle {
		t.Fatalf("index 3 after 20 ticks = %v, want idle", got)
	}
	if got := buf.At(3); got != pixel.Off {
		t.Errorf("final retirement frame = %v, want off", got)
	}

	e.Step(buf)
	entry := e.Inspect(3)
	if entry.Phase != Admitting || entry.Ramp != RampStep {
		t.Errorf("index 3 next tick = %v ramp %d, want admitting ramp %d", entry.Phase, entry.Ramp, RampStep)
	}
}

func TestEngine_MonoRampCurve(t *testing.T) {
	e := New(Config{Length: 1, Mode: Mono, Rand: fixedRand{v: 0}, RetireThreshold: 1})
	buf := pixel.NewBuffer(1)

	want := []uint8{25, 50, 75, 100, 125, 150, 175, 200, 225, 250, 225, 200, 175, 150, 125, 100, 75, 50, 25, 0, 25}
	for tick, w := range want {
		buf.Clear()
		e.Step(buf)
		if got := buf.At(0); got != pixel.Gray(w) {
			t.Fatalf("tick %d: pixel = %v, want gray %d", tick, got, w)
		}
	}
}

func TestEngine_ZeroLength(t *testing.T) {
	e := New(Config{Length: 0, Mode: Vivid})
	if got := e.Step(nil); got != DefaultInterval {
		t.Errorf("Step() interval = %v, want %v", got, DefaultInterval)
	}
	if got := e.Stats().Active; got != 0 {
		t.Errorf("active = %d, want 0", got)
	}
}

func TestEngine_Name(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{Vivid, "scatter-vivid"},
		{Pastel, "scatter-pastel"},
		{Mono, "scatter-mono"},
	}

	for _, tt := range tests {
		if got := New(Config{Length: 1, Mode: tt.mode}).Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}
