package gate

// Stage is a step of the gate state machine.
type Stage int

const (
	StageReceived Stage = iota
	StageAuthenticating
	StageAuthorizing
	StageValidatingBody
	StageExecuting
	StageResponded
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageAuthenticating:
		return "authenticating"
	case StageAuthorizing:
		return "authorizing"
	case StageValidatingBody:
		return "validating_body"
	case StageExecuting:
		return "executing"
	case StageResponded:
		return "responded"
	default:
		return "unknown"
	}
}
