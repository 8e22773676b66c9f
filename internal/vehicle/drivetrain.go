package vehicle

import (
	"math"

	"github.com/ringline/racecore/internal/vecmath"
)

const (
	autoUpshiftRPM     = 6000
	autoDownshiftRPM   = 2000
	autoDownshiftSpeed = 10 // km/h
	autoFirstGearSpeed = 5  // km/h

	clutchDipRate     = 4.0 // clutch drop per second of shifting
	clutchReleaseRate = 3.0
	clutchRestoreRate = 2.0

	rpmPerKmh       = 15
	rpmAccelScale   = 1.2
	rpmCoastScale   = 0.8
	rpmAccelEasing  = 0.1
	rpmCoastEasing  = 0.05
	engineSpeedFade = 0.6
	reverseGear     = -1
	neutralGear     = 0
	fallbackRatio   = 1.0
)

// gearRatios is indexed by gear+1: reverse, neutral, then forward gears.
var gearRatios = []float64{-2.5, 0, 3.5, 2.2, 1.7, 1.3, 1.0, 0.8}

// GearRatio returns the ratio for gear. Gears without a table entry use 1.0.
func GearRatio(gear int) float64 {
	i := gear + 1
	if i < 0 || i >= len(gearRatios) {
		return fallbackRatio
	}
	return gearRatios[i]
}

// GearShift describes a shift that has just started.
type GearShift struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Drivetrain is the gear state machine. Gear, clutch and shifting state are
// only ever changed through its methods.
type Drivetrain struct {
	maxGear       int
	idleRPM       float64
	maxRPM        float64
	shiftDuration float64

	gear            int
	isAutomatic     bool
	clutch          float64
	isShifting      bool
	gearChangeTimer float64
	rpm             float64
}

// NewDrivetrain starts in first gear, automatic mode, clutch engaged, at idle.
func NewDrivetrain(p Params) *Drivetrain {
	d := &Drivetrain{
		maxGear:       p.MaxGear,
		idleRPM:       p.IdleRPM,
		maxRPM:        p.MaxRPM,
		shiftDuration: p.ShiftDuration,
		isAutomatic:   true,
	}
	d.Reset()
	return d
}

// Reset returns to first gear at idle. The transmission mode is kept.
func (d *Drivetrain) Reset() {
	d.gear = 1
	d.clutch = 1
	d.isShifting = false
	d.gearChangeTimer = 0
	d.rpm = d.idleRPM
}

func (d *Drivetrain) Gear() int                { return d.gear }
func (d *Drivetrain) IsAutomatic() bool        { return d.isAutomatic }
func (d *Drivetrain) Clutch() float64          { return d.clutch }
func (d *Drivetrain) IsShifting() bool         { return d.isShifting }
func (d *Drivetrain) GearChangeTimer() float64 { return d.gearChangeTimer }
func (d *Drivetrain) RPM() float64             { return d.rpm }

// SetAutomatic switches between automatic and manual shifting.
func (d *Drivetrain) SetAutomatic(automatic bool) {
	d.isAutomatic = automatic
}

// ToggleTransmission flips between automatic and manual shifting.
func (d *Drivetrain) ToggleTransmission() {
	d.isAutomatic = !d.isAutomatic
}

// ShiftUp requests the next gear. Only honoured in manual mode when no shift
// is in progress; returns the shift when one starts.
func (d *Drivetrain) ShiftUp() (GearShift, bool) {
	if d.isAutomatic || d.isShifting || d.gear >= d.maxGear {
		return GearShift{}, false
	}
	return d.startShift(d.gear + 1), true
}

// ShiftDown requests the previous gear, down to reverse.
func (d *Drivetrain) ShiftDown() (GearShift, bool) {
	if d.isAutomatic || d.isShifting || d.gear <= reverseGear {
		return GearShift{}, false
	}
	return d.startShift(d.gear - 1), true
}

func (d *Drivetrain) startShift(to int) GearShift {
	s := GearShift{From: d.gear, To: to}
	d.gear = to
	d.isShifting = true
	d.gearChangeTimer = 0
	return s
}

// Update advances shift timing, clutch input and automatic gear selection.
// speed is the current speed in km/h. Returns any shift started by the
// automatic gearbox.
func (d *Drivetrain) Update(dt float64, in Intent, speed float64) (GearShift, bool) {
	if d.isShifting {
		d.gearChangeTimer += dt
		d.clutch = math.Max(0, 1-d.gearChangeTimer*clutchDipRate)
		if d.gearChangeTimer >= d.shiftDuration {
			d.isShifting = false
			d.clutch = 1.0
		}
	}

	if in.Clutch && !d.isAutomatic {
		d.clutch = math.Max(0, d.clutch-clutchReleaseRate*dt)
	} else if !d.isShifting {
		d.clutch = math.Min(1, d.clutch+clutchRestoreRate*dt)
	}

	if !d.isAutomatic || d.isShifting {
		return GearShift{}, false
	}

	switch {
	case speed < autoFirstGearSpeed && d.gear > 1:
		d.gear = 1
	case d.gear < d.maxGear && d.rpm > autoUpshiftRPM:
		return d.startShift(d.gear + 1), true
	case d.gear > 1 && d.rpm < autoDownshiftRPM && speed > autoDownshiftSpeed:
		return d.startShift(d.gear - 1), true
	}
	return GearShift{}, false
}

// EngineForce returns the drive force along the vehicle's heading. It is
// negative in reverse.
func (d *Drivetrain) EngineForce(accelerating bool, speedMps float64, p Params) float64 {
	if d.gear == neutralGear || !accelerating {
		return 0
	}
	speedRatio := speedMps / p.maxSpeedMps()
	fade := math.Max(0, 1-speedRatio*engineSpeedFade)
	force := p.EnginePower * fade * math.Abs(GearRatio(d.gear)) * d.clutch
	if d.gear == reverseGear {
		force = -force
	}
	return force
}

// UpdateRPM eases engine speed towards the load-dependent target. speed is km/h.
func (d *Drivetrain) UpdateRPM(speed float64, accelerating bool) {
	if d.gear == neutralGear {
		d.rpm = d.idleRPM
		return
	}
	target := d.idleRPM + speed*math.Abs(GearRatio(d.gear))*rpmPerKmh
	rate := rpmCoastEasing
	if accelerating {
		target *= rpmAccelScale
		rate = rpmAccelEasing
	} else {
		target *= rpmCoastScale
	}
	d.rpm += (target - d.rpm) * rate
	d.rpm = vecmath.Clamp(d.rpm, d.idleRPM, d.maxRPM)
}
