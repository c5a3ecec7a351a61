package session

// Status is the primary session cycle: idle -> waiting -> playing -> idle.
type Status int

const (
	StatusIdle Status = iota
	StatusWaiting
	StatusPlaying
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusWaiting:
		return "waiting"
	case StatusPlaying:
		return "playing"
	}
	return "unknown"
}

// DisplayStatus is the externally visible state, derived from the primary
// status plus the independent closed/killed/ready/connectivity flags. It is
// never stored; DeriveDisplay recomputes it on demand.
type DisplayStatus int

const (
	DisplayIdle DisplayStatus = iota
	DisplayWaiting
	DisplayPlaying
	DisplayConnecting
	DisplayKilled
	DisplayClosed
)

func (s DisplayStatus) String() string {
	switch s {
	case DisplayIdle:
		return "idle"
	case DisplayWaiting:
		return "waiting"
	case DisplayPlaying:
		return "playing"
	case DisplayConnecting:
		return "connecting"
	case DisplayKilled:
		return "killed"
	case DisplayClosed:
		return "closed"
	}
	return "unknown"
}

// DeriveDisplay folds the session's flags into one display state. Pure and
// total over its inputs; precedence is closed, then killed (including the
// playing-but-not-ready overlay), then connectivity, then the raw status.
func DeriveDisplay(status Status, closed, killed, ready, serverUp, agentUp bool) DisplayStatus {
	switch {
	case closed:
		return DisplayClosed
	case killed:
		return DisplayKilled
	case status == StatusPlaying && !ready:
		return DisplayKilled
	case !serverUp || !agentUp:
		return DisplayConnecting
	}
	switch status {
	case StatusWaiting:
		return DisplayWaiting
	case StatusPlaying:
		return DisplayPlaying
	}
	return DisplayIdle
}
