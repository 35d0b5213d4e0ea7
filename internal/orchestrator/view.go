package orchestrator

import (
	"github.com/Iron-Ham/coursegen/internal/store"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// View is derived from one store snapshot. It is recomputed on every call
// to [Orchestrator.View] and never stored.
type View struct {
	Session *workflow.Session
	Mode    workflow.Mode

	// StepIndex is the ordinal of the current step, 0 without a session.
	StepIndex     int
	ApprovedCount int

	ProcessingTitle   string
	ProcessingMessage string

	Loading             bool
	GeneratingMore      bool
	GeneratingQuestions bool
	SavingOrder         bool
	AddingTopic         bool

	EditingTopic string
	Reordering   bool
	Draft        []workflow.RefinedTopic
	Presentation *workflow.LessonPresentation

	// PollingSession reports whether the session loop is running.
	PollingSession bool
	// Tasks are the keys of every registered poll loop.
	Tasks []string

	state store.State
}

// View returns the derived state of the current snapshot.
func (o *Orchestrator) View() View {
	return NewView(o.store.Snapshot())
}

// NewView derives a View from a snapshot.
func NewView(st store.State) View {
	v := View{
		Session:             st.Session,
		Mode:                workflow.ModeOfSession(st.Session),
		ApprovedCount:       st.Session.ApprovedCount(),
		Loading:             st.Flag(store.FlagLoading),
		GeneratingMore:      st.Flag(store.FlagGeneratingMore),
		GeneratingQuestions: st.Flag(store.FlagGeneratingQuestions),
		SavingOrder:         st.Flag(store.FlagSavingOrder),
		AddingTopic:         st.Flag(store.FlagAddingTopic),
		EditingTopic:        st.EditingTopic,
		Reordering:          st.Reordering,
		Draft:               st.Draft,
		Presentation:        st.Presentation,
		PollingSession:      st.Polling(store.TaskSession),
		Tasks:               st.Tasks,
		state:               st,
	}
	if st.Session != nil {
		v.StepIndex = workflow.Ordinal(st.Session.CurrentStep)
		v.ProcessingTitle = workflow.ProcessingTitle(st.Session.CurrentStep)
		v.ProcessingMessage = workflow.ProcessingMessage(st.Session.CurrentStep)
	}
	return v
}

// CanProceedToRefinement reports whether refinement may be requested.
func (v View) CanProceedToRefinement() bool {
	return v.Mode == workflow.ModeInteractive &&
		v.Session.CurrentStep == workflow.StepSelection &&
		v.ApprovedCount > 0 &&
		!v.Loading
}

// CanRetry reports whether the current step failed and may be retried.
func (v View) CanRetry() bool {
	return v.Mode == workflow.ModeFailed && !v.Loading && !v.GeneratingQuestions
}

// IsTopicRegenerating reports whether a refined topic is being regenerated.
func (v View) IsTopicRegenerating(topicID string) bool {
	return v.state.IsBusy(store.BusyRegenerateTopic, topicID)
}

// IsTopicSaving reports whether a refined topic edit is being saved.
func (v View) IsTopicSaving(topicID string) bool {
	return v.state.IsBusy(store.BusySaveTopic, topicID)
}

// IsScriptRegenerating reports whether a lesson script is being regenerated.
func (v View) IsScriptRegenerating(lessonID string) bool {
	return v.state.IsBusy(store.BusyRegenerateScript, lessonID)
}

// IsScriptSaving reports whether a lesson script edit is being saved.
func (v View) IsScriptSaving(lessonID string) bool {
	return v.state.IsBusy(store.BusySaveScript, lessonID)
}

// IsGeneratingPresentation reports whether a lesson's presentation is being generated.
func (v View) IsGeneratingPresentation(lessonID string) bool {
	return v.state.IsBusy(store.BusyGeneratePresentation, lessonID)
}

// IsGeneratingVideo reports whether a lesson's video is being generated.
func (v View) IsGeneratingVideo(lessonID string) bool {
	return v.state.IsBusy(store.BusyGenerateVideo, lessonID)
}

// IsSuggestionUpdating reports whether a suggestion status change is in flight.
func (v View) IsSuggestionUpdating(suggestionID string) bool {
	return v.state.IsBusy(store.BusySuggestion, suggestionID)
}

// Idle reports whether nothing is left to observe: no poll loop is
// registered and the service is not working on the current step.
func (v View) Idle() bool {
	return len(v.Tasks) == 0 && v.Mode != workflow.ModeProcessing
}

// Polling reports whether a loop is registered under key.
func (v View) Polling(key string) bool {
	return v.state.Polling(key)
}
