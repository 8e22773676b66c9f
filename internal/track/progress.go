package track

import "github.com/ringline/racecore/internal/vecmath"

// Progress reports what a position sample changed on the checkpoint ring.
type Progress struct {
	Passed      []int // checkpoints newly marked this call
	LapComplete bool
}

// CheckCheckpoints marks every unpassed checkpoint within range of position.
// Checkpoints other than the start line may be collected in any order. The
// start line only counts once all others are passed; touching it then closes
// the lap and clears every flag.
func (t *Track) CheckCheckpoints(position vecmath.Vec3) Progress {
	var p Progress
	for i := range t.checkpoints {
		cp := &t.checkpoints[i]
		if cp.Passed || cp.IsStartLine {
			continue
		}
		if vecmath.DistanceXZ(position, cp.Position) < t.layout.CheckpointRange {
			cp.Passed = true
			p.Passed = append(p.Passed, cp.Index)
		}
	}

	for i := range t.checkpoints {
		cp := &t.checkpoints[i]
		if !cp.IsStartLine || cp.Passed {
			continue
		}
		if vecmath.DistanceXZ(position, cp.Position) >= t.layout.CheckpointRange || !t.othersPassed() {
			continue
		}
		cp.Passed = true
		p.Passed = append(p.Passed, cp.Index)
		if t.allPassed() {
			p.LapComplete = true
			t.ResetCheckpoints()
		}
	}
	return p
}

// ResetCheckpoints clears every passed flag.
func (t *Track) ResetCheckpoints() {
	for i := range t.checkpoints {
		t.checkpoints[i].Passed = false
	}
}

func (t *Track) othersPassed() bool {
	for _, cp := range t.checkpoints {
		if !cp.IsStartLine && !cp.Passed {
			return false
		}
	}
	return true
}

func (t *Track) allPassed() bool {
	for _, cp := range t.checkpoints {
		if !cp.Passed {
			return false
		}
	}
	return true
}
