package vehicle

// Intent is one tick of driver input. ShiftUp, ShiftDown and
// ToggleTransmission are discrete requests: each true value triggers one
// action, so callers pass them only on the press edge.
type Intent struct {
	Accelerate         bool `json:"accelerate"`
	Brake              bool `json:"brake"`
	SteerLeft          bool `json:"steerLeft"`
	SteerRight         bool `json:"steerRight"`
	ShiftUp            bool `json:"shiftUp"`
	ShiftDown          bool `json:"shiftDown"`
	ToggleTransmission bool `json:"toggleTransmission"`
	Clutch             bool `json:"clutch"`
}
