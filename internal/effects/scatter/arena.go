package scatter

import "github.com/smazurov/stripnode/internal/pixel"

// Phase is where a pixel sits in its admit, hold, retire lifecycle.
type Phase uint8

const (
	Idle Phase = iota
	Admitting
	Held
	Retiring
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Admitting:
		return "admitting"
	case Held:
		return "held"
	case Retiring:
		return "retiring"
	default:
		return "unknown"
	}
}

type slot struct {
	phase Phase
	ramp  int
	color pixel.Color
}

// arena keeps per-index lifecycle state addressed directly by pixel index.
// The held list is materialized so a uniform pick is one draw, and heldPos
// makes removal from it O(1).
type arena struct {
	slots   []slot
	held    []int
	heldPos []int
	active  int
}

func newArena(n int) *arena {
	a := &arena{
		slots:   make([]slot, n),
		held:    make([]int, 0, n),
		heldPos: make([]int, n),
	}
	for i := range a.heldPos {
		a.heldPos[i] = -1
	}
	return a
}

func (a *arena) isActive(i int) bool {
	return a.slots[i].phase != Idle
}

// admit binds color to an idle index and starts its ramp at zero.
func (a *arena) admit(i int, color pixel.Color) {
	a.slots[i] = slot{phase: Admitting, color: color}
	a.active++
}

// hold pins a fully ramped index at full brightness.
func (a *arena) hold(i int) {
	s := &a.slots[i]
	s.phase = Held
	s.ramp = pixel.MaxRamp
	a.heldPos[i] = len(a.held)
	a.held = append(a.held, i)
}

// takeHeld removes the k-th held index and starts its retirement.
func (a *arena) takeHeld(k int) int {
	i := a.held[k]
	last := len(a.held) - 1
	moved := a.held[last]
	a.held[k] = moved
	a.heldPos[moved] = k
	a.held = a.held[:last]
	a.heldPos[i] = -1

	s := &a.slots[i]
	s.phase = Retiring
	s.ramp = pixel.MaxRamp
	return i
}

// release returns a fully retired index to idle and drops its color.
func (a *arena) release(i int) {
	a.slots[i] = slot{}
	a.active--
}
