package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/internal/vecmath"
)

func newTestTrack(t *testing.T) *Track {
	t.Helper()
	tr, err := New(DefaultLayout())
	require.NoError(t, err)
	return tr
}

func TestNew_DefaultGeometry(t *testing.T) {
	tr := newTestTrack(t)

	cps := tr.Checkpoints()
	require.Len(t, cps, 8)
	assert.True(t, cps[0].IsStartLine)
	for _, cp := range cps[1:] {
		assert.False(t, cp.IsStartLine)
	}
	assert.InDelta(t, 100, cps[0].Position.X(), 1e-9)
	assert.InDelta(t, 100, cps[2].Position.Z(), 1e-9)

	barriers := tr.Barriers()
	require.Len(t, barriers, 128)
	assert.InDelta(t, 93, vecmath.LengthXZ(barriers[0].Position), 1e-9)
	assert.InDelta(t, 107, vecmath.LengthXZ(barriers[64].Position), 1e-9)
}

func TestNew_InvalidLayout(t *testing.T) {
	l := DefaultLayout()
	l.CenterRadius = 0
	_, err := New(l)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	l = DefaultLayout()
	l.CheckpointCount = 1
	_, err = New(l)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestIsOnTrack(t *testing.T) {
	tr := newTestTrack(t)
	r, w := tr.CenterRadius(), tr.Width()

	assert.True(t, tr.IsOnTrack(vecmath.Vec3{r, 0, 0}))
	assert.True(t, tr.IsOnTrack(vecmath.Vec3{0, 0, -r}))
	assert.True(t, tr.IsOnTrack(vecmath.Vec3{r + w/2, 0, 0}))
	assert.True(t, tr.IsOnTrack(vecmath.Vec3{r - w/2, 0, 0}))
	assert.False(t, tr.IsOnTrack(vecmath.Vec3{r + w, 0, 0}))
	assert.False(t, tr.IsOnTrack(vecmath.Vec3{0, 0, 0}))
}

func TestCheckBarrierCollision_Distances(t *testing.T) {
	tr := newTestTrack(t)
	carRadius := tr.CarRadius()
	b := tr.Barriers()[0].Position // inner ring at (93, 0, 0)

	near := b.Add(vecmath.Vec3{carRadius + 0.5, 0, 0})
	c := tr.CheckBarrierCollision(near, carRadius)
	require.True(t, c.Hit)
	assert.Equal(t, 0, c.Barrier)
	assert.InDelta(t, 1.0, vecmath.Length(c.Normal), 1e-12)
	assert.InDelta(t, 1.0, c.Normal.X(), 1e-12)

	far := b.Add(vecmath.Vec3{carRadius + 1.5, 0, 0})
	c = tr.CheckBarrierCollision(far, carRadius)
	assert.False(t, c.Hit)
	assert.Equal(t, -1, c.Barrier)
	assert.Equal(t, vecmath.Vec3{}, c.Normal)
}

func TestCheckBarrierCollision_CenterlineIsClear(t *testing.T) {
	tr := newTestTrack(t)
	for i := 0; i < 360; i++ {
		a := float64(i) * math.Pi / 180
		pos := vecmath.Vec3{100 * math.Cos(a), 0, 100 * math.Sin(a)}
		require.False(t, tr.CheckBarrierCollision(pos, tr.CarRadius()).Hit, "angle %d", i)
	}
}

func TestScenario_FullLap(t *testing.T) {
	tr := newTestTrack(t)
	cps := tr.Checkpoints()

	for i := 1; i < len(cps); i++ {
		p := tr.CheckCheckpoints(cps[i].Position)
		assert.Equal(t, []int{i}, p.Passed)
		assert.False(t, p.LapComplete)
	}

	p := tr.CheckCheckpoints(cps[0].Position)
	assert.True(t, p.LapComplete)
	assert.Equal(t, []int{0}, p.Passed)
	for _, cp := range tr.Checkpoints() {
		assert.False(t, cp.Passed)
	}
}

func TestCheckCheckpoints_Idempotent(t *testing.T) {
	tr := newTestTrack(t)
	cps := tr.Checkpoints()

	assert.Equal(t, []int{3}, tr.CheckCheckpoints(cps[3].Position).Passed)
	second := tr.CheckCheckpoints(cps[3].Position)
	assert.Empty(t, second.Passed)
	assert.False(t, second.LapComplete)
}

func TestCheckCheckpoints_StartLineWaitsForOthers(t *testing.T) {
	tr := newTestTrack(t)
	cps := tr.Checkpoints()

	assert.Empty(t, tr.CheckCheckpoints(cps[0].Position).Passed)
	assert.False(t, tr.Checkpoints()[0].Passed)

	// any order is accepted
	for _, i := range []int{7, 1, 5, 2, 6, 3, 4} {
		tr.CheckCheckpoints(cps[i].Position)
	}
	assert.True(t, tr.CheckCheckpoints(cps[0].Position).LapComplete)

	// lingering on the line after the lap does not re-arm it
	assert.Empty(t, tr.CheckCheckpoints(cps[0].Position).Passed)
}

func TestCheckCheckpoints_LapOnlyOncePerTraversal(t *testing.T) {
	tr := newTestTrack(t)
	cps := tr.Checkpoints()

	laps := 0
	for lap := 0; lap < 3; lap++ {
		for i := 1; i <= len(cps); i++ {
			pos := cps[i%len(cps)].Position
			for k := 0; k < 3; k++ {
				if tr.CheckCheckpoints(pos).LapComplete {
					laps++
				}
			}
		}
	}
	assert.Equal(t, 3, laps)
}

func TestStartPose(t *testing.T) {
	tr := newTestTrack(t)
	pos := tr.StartPosition()

	assert.True(t, tr.IsOnTrack(pos))
	assert.False(t, tr.CheckBarrierCollision(pos, tr.CarRadius()).Hit)
	assert.Empty(t, tr.CheckCheckpoints(pos).Passed, "start pose must not touch a checkpoint")

	// heading follows increasing checkpoint angle
	fwd := vecmath.Forward(tr.StartRotation())
	next := tr.Checkpoints()[1].Position.Sub(pos)
	assert.Greater(t, vecmath.Dot(fwd, next), 0.0)
}
