package orchestrator

import (
	"testing"

	"github.com/Iron-Ham/coursegen/internal/store"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

func viewOf(step workflow.Step, status workflow.Status, approved int) store.State {
	sess := &workflow.Session{ID: "s", CurrentStep: step, Status: status}
	for i := 0; i < approved; i++ {
		sess.Suggestions = append(sess.Suggestions, workflow.TopicSuggestion{Status: workflow.SuggestionApproved})
	}
	sess.Suggestions = append(sess.Suggestions, workflow.TopicSuggestion{Status: workflow.SuggestionRejected})
	return store.State{Session: sess}
}

func TestNewView_NoSession(t *testing.T) {
	v := NewView(store.State{})
	if v.Mode != workflow.ModeForm {
		t.Errorf("Mode = %q, want form", v.Mode)
	}
	if v.StepIndex != 0 || v.ApprovedCount != 0 {
		t.Errorf("StepIndex = %d, ApprovedCount = %d, want 0, 0", v.StepIndex, v.ApprovedCount)
	}
	if v.CanRetry() {
		t.Error("CanRetry() without a session should be false")
	}
	if !v.Idle() {
		t.Error("Idle() without a session should be true")
	}
}

func TestNewView_StepIndexAndProcessingText(t *testing.T) {
	tests := []struct {
		step  workflow.Step
		index int
		title string
	}{
		{workflow.StepResearch, 0, "Step 1: Researching Topics"},
		{workflow.StepRefinement, 2, "Step 3: Refining Topics"},
		{workflow.StepScript, 3, "Step 4: Generating Scripts"},
		{workflow.StepQuestions, 5, "Step 6: Generating Questions"},
		{workflow.StepCompleted, 5, "Processing..."},
	}

	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			v := NewView(viewOf(tt.step, workflow.StatusProcessing, 0))
			if v.StepIndex != tt.index {
				t.Errorf("StepIndex = %d, want %d", v.StepIndex, tt.index)
			}
			if v.ProcessingTitle != tt.title {
				t.Errorf("ProcessingTitle = %q, want %q", v.ProcessingTitle, tt.title)
			}
		})
	}
}

func TestView_CanProceedToRefinement(t *testing.T) {
	tests := []struct {
		name     string
		state    store.State
		loading  bool
		expected bool
	}{
		{"approved at selection", viewOf(workflow.StepSelection, workflow.StatusCompleted, 2), false, true},
		{"no approvals", viewOf(workflow.StepSelection, workflow.StatusCompleted, 0), false, false},
		{"loading", viewOf(workflow.StepSelection, workflow.StatusCompleted, 1), true, false},
		{"still researching", viewOf(workflow.StepResearch, workflow.StatusProcessing, 1), false, false},
		{"already refining", viewOf(workflow.StepRefinement, workflow.StatusCompleted, 1), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := tt.state
			st.Flags = map[store.Flag]bool{store.FlagLoading: tt.loading}
			if got := NewView(st).CanProceedToRefinement(); got != tt.expected {
				t.Errorf("CanProceedToRefinement() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestView_CanRetry(t *testing.T) {
	tests := []struct {
		name     string
		status   workflow.Status
		flag     store.Flag
		expected bool
	}{
		{"failed", workflow.StatusFailed, "", true},
		{"failed while loading", workflow.StatusFailed, store.FlagLoading, false},
		{"failed while generating questions", workflow.StatusFailed, store.FlagGeneratingQuestions, false},
		{"processing", workflow.StatusProcessing, "", false},
		{"completed", workflow.StatusCompleted, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := viewOf(workflow.StepScript, tt.status, 0)
			if tt.flag != "" {
				st.Flags = map[store.Flag]bool{tt.flag: true}
			}
			if got := NewView(st).CanRetry(); got != tt.expected {
				t.Errorf("CanRetry() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestView_BusyPredicates(t *testing.T) {
	st := viewOf(workflow.StepVideo, workflow.StatusCompleted, 0)
	st.Busy = map[store.BusyKind][]string{
		store.BusyGeneratePresentation: {"l1"},
		store.BusyGenerateVideo:        {"l2"},
		store.BusyRegenerateTopic:      {"t1"},
		store.BusySaveScript:           {"l3"},
		store.BusySuggestion:           {"s1"},
	}
	v := NewView(st)

	checks := []struct {
		name string
		got  bool
		want bool
	}{
		{"presentation l1", v.IsGeneratingPresentation("l1"), true},
		{"presentation l2", v.IsGeneratingPresentation("l2"), false},
		{"video l2", v.IsGeneratingVideo("l2"), true},
		{"topic regenerating t1", v.IsTopicRegenerating("t1"), true},
		{"topic saving t1", v.IsTopicSaving("t1"), false},
		{"script saving l3", v.IsScriptSaving("l3"), true},
		{"script regenerating l3", v.IsScriptRegenerating("l3"), false},
		{"suggestion s1", v.IsSuggestionUpdating("s1"), true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestView_Idle(t *testing.T) {
	tests := []struct {
		name     string
		status   workflow.Status
		tasks    []string
		expected bool
	}{
		{"waiting for input", workflow.StatusCompleted, nil, true},
		{"processing", workflow.StatusProcessing, nil, false},
		{"lesson loop", workflow.StatusCompleted, []string{store.VideoTaskKey("l1")}, false},
		{"session loop", workflow.StatusCompleted, []string{store.TaskSession}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := viewOf(workflow.StepVideo, tt.status, 0)
			st.Tasks = tt.tasks
			v := NewView(st)
			if got := v.Idle(); got != tt.expected {
				t.Errorf("Idle() = %v, want %v", got, tt.expected)
			}
			if got := v.PollingSession; got != (len(tt.tasks) > 0 && tt.tasks[0] == store.TaskSession) {
				t.Errorf("PollingSession = %v", got)
			}
		})
	}
}
