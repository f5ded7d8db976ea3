package analysis

import "fmt"

// Kind selects which remote analysis service a job talks to.
type Kind string

const (
	KindRoof         Kind = "roof"
	KindConstruction Kind = "construction"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRoof, KindConstruction:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown analysis kind %q", s)
}

// Phase is the lifecycle position of a job.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCapturing  Phase = "capturing"
	PhaseQueued     Phase = "queued"
	PhaseProcessing Phase = "processing"
	PhaseCompleted  Phase = "completed"
	PhaseError      Phase = "error"
)

// Busy reports whether the phase has work outstanding.
func (p Phase) Busy() bool {
	return p == PhaseCapturing || p == PhaseQueued || p == PhaseProcessing
}

// Terminal reports whether the phase ends a job.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// Remote status values the job loop special-cases. Anything else means still running.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
