package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: swap event buffers, translate pointer input into targets
	PhasePreUpdate               // 1: bind newly reported playback handles
	PhaseUpdate                  // 2: movement integration
	PhasePostUpdate              // 3: animation selection from motion transitions
	PhaseOutput                  // 4: scene materialization, playback advance, rendering
	PhaseCleanup                 // 5: destroy queued entities
)

var phaseNames = [...]string{"input", "pre_update", "update", "post_update", "output", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
