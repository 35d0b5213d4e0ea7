package workflow

// Mode is the presentation mode derived from a session's step and status.
type Mode string

const (
	// ModeForm means no session exists yet; the caller collects a topic.
	ModeForm Mode = "form"
	// ModeProcessing means the service is working on the current step.
	ModeProcessing Mode = "processing"
	// ModeFailed means the current step failed and can be retried.
	ModeFailed Mode = "failed"
	// ModeInteractive means the step is done and waits for user input.
	ModeInteractive Mode = "interactive"
	// ModeTerminal means the pipeline has completed.
	ModeTerminal Mode = "terminal"
)

// StepCount is the number of user-visible stages; questions and completed
// share the last slot.
const StepCount = 6

var stepOrdinals = map[Step]int{
	StepResearch:   0,
	StepSelection:  1,
	StepRefinement: 2,
	StepScript:     3,
	StepVideo:      4,
	StepQuestions:  5,
	StepCompleted:  5,
}

// Steps returns every step in pipeline order.
func Steps() []Step {
	return []Step{StepResearch, StepSelection, StepRefinement, StepScript, StepVideo, StepQuestions, StepCompleted}
}

// StepLabels returns the labels of the visible stages, indexed by ordinal.
func StepLabels() []string {
	return []string{"Topic", "Selection", "Refinement", "Scripts", "Videos", "Questions"}
}

// Ordinal maps a step to its stage index. Unknown steps map to 0 because the
// value comes from an external service.
func Ordinal(step Step) int {
	return stepOrdinals[step]
}

// Known reports whether step is one of the fixed pipeline steps.
func (s Step) Known() bool {
	_, ok := stepOrdinals[s]
	return ok
}

// interactive reports whether a completed step waits for user input.
func interactive(step Step) bool {
	switch step {
	case StepSelection, StepScript, StepVideo, StepQuestions:
		return true
	}
	return false
}

// ModeOf derives the presentation mode from step and status alone.
func ModeOf(step Step, status Status) Mode {
	if step == StepCompleted {
		return ModeTerminal
	}
	switch status {
	case StatusFailed:
		return ModeFailed
	case StatusCompleted:
		if interactive(step) {
			return ModeInteractive
		}
		// research and refinement hand over to the next step server-side
		return ModeProcessing
	default:
		return ModeProcessing
	}
}

// ModeOfSession is ModeOf for a possibly nil session.
func ModeOfSession(s *Session) Mode {
	if s == nil {
		return ModeForm
	}
	return ModeOf(s.CurrentStep, s.Status)
}

// IsProcessing reports whether the current step is still running.
func IsProcessing(status Status) bool {
	return status == StatusPending || status == StatusProcessing
}

// ShouldStopSessionPolling is the session poll stop predicate. It is defined
// for every (status, step) pair: polling stops once the status has settled at
// a step that needs no further automatic waiting.
func ShouldStopSessionPolling(status Status, step Step) bool {
	if status != StatusCompleted && status != StatusFailed {
		return false
	}
	switch step {
	case StepCompleted, StepSelection, StepScript, StepVideo, StepQuestions:
		return true
	}
	return false
}

// SubStatusSettled reports whether a presentation or video sub-status is final.
func SubStatusSettled(status string) bool {
	return status == string(StatusCompleted) || status == string(StatusFailed)
}

// ProcessingTitle returns the heading shown while a step is running.
func ProcessingTitle(step Step) string {
	switch step {
	case StepResearch:
		return "Step 1: Researching Topics"
	case StepRefinement:
		return "Step 3: Refining Topics"
	case StepScript:
		return "Step 4: Generating Scripts"
	case StepVideo:
		return "Step 5: Generating Videos"
	case StepQuestions:
		return "Step 6: Generating Questions"
	default:
		return "Processing..."
	}
}

// ProcessingMessage returns the detail line shown while a step is running.
func ProcessingMessage(step Step) string {
	switch step {
	case StepResearch:
		return "AI is researching and generating topic suggestions..."
	case StepRefinement:
		return "AI is refining your selected topics with learning goals..."
	case StepScript:
		return "AI is writing detailed scripts for each lesson..."
	case StepVideo:
		return "Videos are being generated..."
	case StepQuestions:
		return "Quiz questions are being generated..."
	default:
		return "Please wait..."
	}
}
