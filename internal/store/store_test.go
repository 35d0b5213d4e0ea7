package store

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

type eventCollector struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *eventCollector) handler(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *eventCollector) ofType(eventType string) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Event
	for _, e := range c.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeTask struct {
	cancels atomic.Int32
}

func (f *fakeTask) Cancel() { f.cancels.Add(1) }

func session(id string, step workflow.Step, status workflow.Status) *workflow.Session {
	return &workflow.Session{ID: id, CurrentStep: step, Status: status}
}

func TestStore_CommitDiscardsStaleResponses(t *testing.T) {
	s := New(nil, nil)

	pollTok := s.Begin()
	mutationTok := s.Begin()

	if !s.Commit(mutationTok, session("s-1", workflow.StepRefinement, workflow.StatusProcessing)) {
		t.Fatal("newer response should be applied")
	}
	if s.Commit(pollTok, session("s-1", workflow.StepSelection, workflow.StatusCompleted)) {
		t.Fatal("older response must be discarded")
	}

	got := s.Session()
	if got.CurrentStep != workflow.StepRefinement {
		t.Errorf("CurrentStep = %q, want refinement", got.CurrentStep)
	}
	if s.Snapshot().Epoch != mutationTok {
		t.Errorf("Epoch = %d, want %d", s.Snapshot().Epoch, mutationTok)
	}
}

func TestStore_BeginIsStrictlyIncreasing(t *testing.T) {
	s := New(nil, nil)

	var mu sync.Mutex
	seen := map[Token]bool{}
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			tok := s.Begin()
			mu.Lock()
			defer mu.Unlock()
			if seen[tok] {
				t.Errorf("token %d issued twice", tok)
			}
			seen[tok] = true
		})
	}
	wg.Wait()

	if next := s.Begin(); next != 51 {
		t.Errorf("Begin() = %d after 50 tokens, want 51", next)
	}
}

func TestStore_CommitPublishesEvents(t *testing.T) {
	bus := event.NewBus()
	c := &eventCollector{}
	bus.SubscribeAll(c.handler)
	s := New(bus, nil)

	s.Commit(s.Begin(), session("s-1", workflow.StepResearch, workflow.StatusPending))
	s.Commit(s.Begin(), session("s-1", workflow.StepResearch, workflow.StatusCompleted))
	s.Commit(s.Begin(), session("s-1", workflow.StepSelection, workflow.StatusCompleted))

	if n := len(c.ofType(event.TypeSessionUpdated)); n != 3 {
		t.Errorf("session.updated published %d times, want 3", n)
	}
	steps := c.ofType(event.TypeStepChanged)
	if len(steps) != 2 {
		t.Fatalf("step.changed published %d times, want 2", len(steps))
	}
	first := steps[0].(event.StepChangedEvent)
	if first.From != "" || first.To != "research" {
		t.Errorf("first step change = %q -> %q", first.From, first.To)
	}
	second := steps[1].(event.StepChangedEvent)
	if second.From != "research" || second.To != "selection" {
		t.Errorf("second step change = %q -> %q", second.From, second.To)
	}
}

func TestStore_SessionIsACopy(t *testing.T) {
	s := New(nil, nil)
	in := session("s-1", workflow.StepSelection, workflow.StatusCompleted)
	in.Suggestions = []workflow.TopicSuggestion{{ID: "a", Status: workflow.SuggestionPending}}
	s.Commit(s.Begin(), in)

	in.Suggestions[0].Status = workflow.SuggestionApproved
	out := s.Session()
	out.Suggestions[0].Status = workflow.SuggestionRejected

	if got := s.Session().Suggestions[0].Status; got != workflow.SuggestionPending {
		t.Errorf("stored suggestion status = %q, want pending", got)
	}
}

func TestStore_ClearInvalidatesInFlightResponses(t *testing.T) {
	s := New(nil, nil)
	s.Commit(s.Begin(), session("s-1", workflow.StepScript, workflow.StatusCompleted))

	inflight := s.Begin()
	s.TryBusy(BusyRegenerateScript, "l-1")
	s.Clear()

	if s.Commit(inflight, session("s-1", workflow.StepScript, workflow.StatusCompleted)) {
		t.Error("response issued before Clear must be discarded")
	}
	if s.Session() != nil {
		t.Error("session should be nil after Clear")
	}
	if s.IsBusy(BusyRegenerateScript, "l-1") {
		t.Error("busy flags should be cleared")
	}
	if !s.Commit(s.Begin(), session("s-2", workflow.StepResearch, workflow.StatusPending)) {
		t.Error("new requests after Clear should apply")
	}
}

func TestStore_CloseStopsMutation(t *testing.T) {
	s := New(nil, nil)
	task := &fakeTask{}
	s.Register(TaskSession, task)
	tok := s.Begin()

	s.Close()
	s.Close()

	if task.cancels.Load() != 1 {
		t.Errorf("task cancelled %d times, want 1", task.cancels.Load())
	}
	if s.Commit(tok, session("s-1", workflow.StepResearch, workflow.StatusPending)) {
		t.Error("Commit after Close must be a no-op")
	}
	if s.TryBusy(BusyGenerateVideo, "l-1") {
		t.Error("TryBusy after Close must fail")
	}

	late := &fakeTask{}
	if s.Register(VideoTaskKey("l-1"), late) {
		t.Error("Register after Close should report false")
	}
	if late.cancels.Load() != 1 {
		t.Error("a task registered after Close should be cancelled immediately")
	}
}

func TestStore_TryBusy(t *testing.T) {
	s := New(nil, nil)

	if !s.TryBusy(BusyRegenerateTopic, "t-1") {
		t.Fatal("first TryBusy should succeed")
	}
	if s.TryBusy(BusyRegenerateTopic, "t-1") {
		t.Error("second TryBusy on the same item should fail")
	}
	if !s.TryBusy(BusyRegenerateTopic, "t-2") {
		t.Error("a different item should not be blocked")
	}
	if !s.TryBusy(BusyRegenerateScript, "t-1") {
		t.Error("a different kind should not be blocked")
	}

	s.ClearBusy(BusyRegenerateTopic, "t-1")
	if s.IsBusy(BusyRegenerateTopic, "t-1") {
		t.Error("item should be idle after ClearBusy")
	}

	st := s.Snapshot()
	if !st.IsBusy(BusyRegenerateTopic, "t-2") || st.IsBusy(BusyRegenerateTopic, "t-1") {
		t.Errorf("snapshot busy = %v", st.Busy)
	}
}

func TestStore_TryFlag(t *testing.T) {
	s := New(nil, nil)
	if !s.TryFlag(FlagGeneratingMore) {
		t.Fatal("first TryFlag should succeed")
	}
	if s.TryFlag(FlagGeneratingMore) {
		t.Error("second TryFlag should fail")
	}
	if !s.Snapshot().Flag(FlagGeneratingMore) {
		t.Error("snapshot should report the flag")
	}
	s.ClearFlag(FlagGeneratingMore)
	if !s.TryFlag(FlagGeneratingMore) {
		t.Error("TryFlag should succeed after ClearFlag")
	}
}

func TestStore_Reorder(t *testing.T) {
	s := New(nil, nil)

	if _, err := s.BeginReorder(); !errors.Is(err, errors.ErrNoSession) {
		t.Fatalf("BeginReorder() without session = %v, want ErrNoSession", err)
	}

	sess := session("s-1", workflow.StepScript, workflow.StatusCompleted)
	sess.RefinedTopics = []workflow.RefinedTopic{
		{ID: "C", SortOrder: 2},
		{ID: "A", SortOrder: 0},
		{ID: "B", SortOrder: 1},
	}
	s.Commit(s.Begin(), sess)

	if _, err := s.Draft(); !errors.Is(err, errors.ErrNotInReorderMode) {
		t.Fatalf("Draft() outside reorder mode = %v", err)
	}

	draft, err := s.BeginReorder()
	if err != nil {
		t.Fatalf("BeginReorder() error = %v", err)
	}
	ids := func(ts []workflow.RefinedTopic) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}
	if got := ids(draft); len(got) != 3 || got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Fatalf("draft = %v, want [A B C]", got)
	}

	draft[0], draft[1] = draft[1], draft[0]
	if err := s.SetDraft(draft); err != nil {
		t.Fatal(err)
	}

	if got := ids(s.Session().RefinedTopics); got[0] != "C" {
		t.Errorf("store session must not be touched by the draft, got %v", got)
	}
	stored, _ := s.Draft()
	if got := ids(stored); got[0] != "B" || got[1] != "A" {
		t.Errorf("stored draft = %v", got)
	}

	s.EndReorder()
	if s.Snapshot().Reordering {
		t.Error("EndReorder should leave reorder mode")
	}
	if err := s.SetDraft(draft); !errors.Is(err, errors.ErrNotInReorderMode) {
		t.Errorf("SetDraft() after EndReorder = %v", err)
	}
}

func TestStore_RegisterReplacesPriorTask(t *testing.T) {
	s := New(nil, nil)
	first := &fakeTask{}
	second := &fakeTask{}
	other := &fakeTask{}

	s.Register(TaskSession, first)
	s.Register(PresentationTaskKey("l-1"), other)
	s.Register(TaskSession, second)

	if first.cancels.Load() != 1 {
		t.Error("prior session task should be cancelled")
	}
	if other.cancels.Load() != 0 {
		t.Error("tasks under other keys must not be cancelled")
	}

	// a loop exiting late must not unregister its replacement
	s.Unregister(TaskSession, first)
	if !s.HasTask(TaskSession) {
		t.Error("replacement task was unregistered")
	}

	want := []string{"presentation:l-1", "session"}
	got := s.TaskKeys()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("TaskKeys() = %v, want %v", got, want)
	}

	s.CancelTask(TaskSession)
	if second.cancels.Load() != 1 || s.HasTask(TaskSession) {
		t.Error("CancelTask should cancel and remove the task")
	}

	s.CancelAll()
	if other.cancels.Load() != 1 || len(s.TaskKeys()) != 0 {
		t.Error("CancelAll should cancel every task")
	}
}

func TestStore_Presentation(t *testing.T) {
	s := New(nil, nil)
	p := &workflow.LessonPresentation{ID: "p-1", Slides: []workflow.Slide{{Title: "Intro"}}}
	s.SetPresentation(p)
	p.Slides[0].Title = "changed"

	if got := s.Presentation().Slides[0].Title; got != "Intro" {
		t.Errorf("stored slide title = %q, want Intro", got)
	}
}
