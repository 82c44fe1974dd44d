package game

// Status is the game lifecycle state. Transitions are monotonic:
// waiting -> playing -> finished.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

func (s Status) String() string { return string(s) }
