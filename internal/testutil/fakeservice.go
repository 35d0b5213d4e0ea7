// Package testutil provides an in-memory workflow service for coursegen tests.
//
// FakeService serves the /admin/workflow REST API with the same step
// transitions the real service performs. Background generation is not
// simulated on a timer: a test drives it explicitly with Complete, FailStep
// and SetLessonStatus, so poll loops observe exactly the states the test
// chooses.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// Error messages returned by the fake, matching the real service.
const (
	MsgSessionNotFound = "workflow session not found"
	MsgInvalidStep     = "invalid workflow step for this operation"
	MsgNoApproved      = "no approved topics to proceed"
	MsgInvalidID       = "invalid session ID"
)

// RecordedRequest is one request the fake received.
type RecordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type failure struct {
	status  int
	message string
}

// FakeService is safe for concurrent use.
type FakeService struct {
	// Token, when set, is required as a bearer token on every request.
	Token string

	mu            sync.Mutex
	sessions      map[uuid.UUID]*workflow.Session
	presentations map[string]*workflow.LessonPresentation
	questions     map[uuid.UUID]json.RawMessage
	requests      []RecordedRequest
	failures      map[string][]failure
	router        chi.Router
}

// NewFakeService creates an empty fake.
func NewFakeService() *FakeService {
	f := &FakeService{
		sessions:      make(map[uuid.UUID]*workflow.Session),
		presentations: make(map[string]*workflow.LessonPresentation),
		questions:     make(map[uuid.UUID]json.RawMessage),
		failures:      make(map[string][]failure),
	}
	f.router = f.routes()
	return f
}

// Server starts an httptest server for the fake, closed on test cleanup.
func (f *FakeService) Server(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv
}

// ServeHTTP implements http.Handler.
func (f *FakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.router.ServeHTTP(w, r)
}

func (f *FakeService) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(f.record, f.auth, f.injectFailures)

	r.Route("/admin/workflow", func(r chi.Router) {
		r.Post("/start", f.startResearch)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", f.getSession)
			r.Put("/suggestions/{suggestionID}", f.updateSuggestionStatus)
			r.Post("/suggestions", f.addCustomTopic)
			r.Post("/generate-more", f.generateMore)
			r.Post("/refine", f.advance(workflow.TargetRefine))
			r.Post("/scripts", f.advance(workflow.TargetScripts))
			r.Post("/videos", f.advance(workflow.TargetVideos))
			r.Post("/questions", f.advance(workflow.TargetQuestions))
			r.Put("/topics/reorder", f.reorderTopics)
			r.Put("/topics/{topicID}", f.updateTopic)
			r.Post("/topics/{topicID}/regenerate", f.regenerateTopic)
			r.Put("/lessons/{lessonID}", f.updateLessonScript)
			r.Post("/lessons/{lessonID}/regenerate", f.regenerateScript)
			r.Put("/lessons/{lessonID}/output-type", f.setOutputType)
			r.Post("/lessons/{lessonID}/presentation", f.generatePresentation)
			r.Get("/lessons/{lessonID}/presentation", f.getPresentation)
			r.Post("/lessons/{lessonID}/regenerate-audio", f.regenerateAudio)
			r.Get("/questions/preview", f.previewQuestions)
		})
	})
	return r
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (f *FakeService) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   string(body),
			Auth:   r.Header.Get("Authorization"),
		})
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeService) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.Token != "" && r.Header.Get("Authorization") != "Bearer "+f.Token {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeService) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		queue := f.failures[key]
		var fail *failure
		if len(queue) > 0 {
			fail = &queue[0]
			f.failures[key] = queue[1:]
		}
		f.mu.Unlock()

		if fail != nil {
			respondError(w, fail.status, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -----------------------------------------------------------------------------
// Test controls
// -----------------------------------------------------------------------------

// FailNext makes the next request matching method and path fail with status
// and message. path is the full request path, e.g. "/admin/workflow/<id>/refine".
func (f *FakeService) FailNext(method, path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	f.failures[key] = append(f.failures[key], failure{status: status, message: message})
}

// Requests returns the requests received so far.
func (f *FakeService) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

// CountRequests returns how many requests matched method and path.
func (f *FakeService) CountRequests(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Seed stores a session, assigning an ID if it has none, and returns the ID.
func (f *FakeService) Seed(sess *workflow.Session) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	id := uuid.MustParse(sess.ID)
	f.sessions[id] = sess.Clone()
	return sess.ID
}

// Session returns a copy of a stored session, or nil.
func (f *FakeService) Session(id string) *workflow.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	return f.sessions[uid].Clone()
}

// Update mutates a stored session in place.
func (f *FakeService) Update(id string, fn func(*workflow.Session)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess := f.sessions[uuid.MustParse(id)]; sess != nil {
		fn(sess)
		sess.UpdatedAt = time.Now().UTC()
	}
}

// SetQuestions sets the raw JSON array returned by the question preview.
func (f *FakeService) SetQuestions(sessionID string, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions[uuid.MustParse(sessionID)] = json.RawMessage(raw)
}

// FailStep marks the current step of a session as failed.
func (f *FakeService) FailStep(sessionID string) {
	f.Update(sessionID, func(s *workflow.Session) {
		s.Status = workflow.StatusFailed
	})
}

// SetLessonStatus sets a lesson's presentation or video status.
func (f *FakeService) SetLessonStatus(sessionID, lessonID string, kind workflow.OutputType, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := f.sessions[uuid.MustParse(sessionID)]
	if sess == nil {
		return
	}
	lesson, ok := sess.Lesson(lessonID)
	if !ok {
		return
	}
	if kind == workflow.OutputPresentation {
		lesson.PresentationStatus = status
		if p := f.presentations[lessonID]; p != nil {
			p.Status = status
			if status == string(workflow.StatusCompleted) && len(p.Slides) == 0 {
				p.Slides = []workflow.Slide{{Title: lesson.Title, Content: "Overview", Script: lesson.Script}}
			}
		}
		return
	}
	lesson.VideoStatus = status
	if status == string(workflow.StatusCompleted) {
		lesson.VideoURL = "https://videos.example.com/" + lessonID + ".mp4"
	}
}

// Complete finishes the step a session is processing, the way the real
// service's background job does.
func (f *FakeService) Complete(sessionID string) {
	f.Update(sessionID, func(s *workflow.Session) {
		if s.Status != workflow.StatusProcessing && s.Status != workflow.StatusPending {
			return
		}
		switch s.CurrentStep {
		case workflow.StepResearch:
			for i := range 5 {
				s.Suggestions = append(s.Suggestions, workflow.TopicSuggestion{
					ID:          uuid.NewString(),
					SessionID:   s.ID,
					Title:       fmt.Sprintf("%s part %d", s.MainTopic, i+1),
					Description: fmt.Sprintf("Suggested subtopic %d of %s", i+1, s.MainTopic),
					Status:      workflow.SuggestionPending,
					SortOrder:   i,
				})
			}
			s.CurrentStep = workflow.StepSelection
		case workflow.StepRefinement:
			s.RefinedTopics = nil
			for _, sug := range s.Suggestions {
				if sug.Status != workflow.SuggestionApproved {
					continue
				}
				s.RefinedTopics = append(s.RefinedTopics, workflow.RefinedTopic{
					ID:               uuid.NewString(),
					SessionID:        s.ID,
					SuggestionID:     sug.ID,
					Title:            sug.Title,
					Description:      sug.Description,
					LearningGoals:    workflow.LearningGoals{"Understand " + sug.Title},
					EstimatedTimeMin: 5,
					SortOrder:        len(s.RefinedTopics),
				})
			}
			s.CurrentStep = workflow.StepScript
		case workflow.StepScript:
			topics := slices.Clone(s.RefinedTopics)
			slices.SortStableFunc(topics, func(a, b workflow.RefinedTopic) int { return a.SortOrder - b.SortOrder })
			s.LessonScripts = nil
			for i, t := range topics {
				s.LessonScripts = append(s.LessonScripts, workflow.LessonScript{
					ID:          uuid.NewString(),
					SessionID:   s.ID,
					TopicID:     t.ID,
					Title:       t.Title,
					Script:      "Welcome to " + t.Title + ".",
					DurationMin: t.EstimatedTimeMin,
					OutputType:  workflow.OutputVideo,
					SortOrder:   i,
				})
			}
			s.CurrentStep = workflow.StepVideo
		case workflow.StepVideo:
			for i := range s.LessonScripts {
				if s.LessonScripts[i].EffectiveOutputType() == workflow.OutputVideo {
					s.LessonScripts[i].VideoStatus = string(workflow.StatusCompleted)
				}
			}
			s.CurrentStep = workflow.StepQuestions
		case workflow.StepQuestions:
			s.CourseID = uuid.NewString()
			s.CurrentStep = workflow.StepCompleted
		}
		s.Status = workflow.StatusCompleted
	})
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// withSession resolves {sessionID} and runs fn under the lock.
func (f *FakeService) withSession(w http.ResponseWriter, r *http.Request, fn func(*workflow.Session)) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, MsgInvalidID)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := f.sessions[id]
	if sess == nil {
		respondError(w, http.StatusNotFound, MsgSessionNotFound)
		return
	}
	fn(sess)
}

// valid answers 400 with the validator's message when v breaks its tags.
func valid(w http.ResponseWriter, v any) bool {
	if err := workflow.Validator().Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (f *FakeService) startResearch(w http.ResponseWriter, r *http.Request) {
	var req workflow.StartRequest
	if !decode(w, r, &req) {
		return
	}
	if !valid(w, req) {
		return
	}
	now := time.Now().UTC()
	sess := &workflow.Session{
		ID:               uuid.NewString(),
		MainTopic:        req.Topic,
		TargetAudience:   req.TargetAudience,
		DifficultyLevel:  req.DifficultyLevel,
		Language:         req.Language,
		VideoDurationMin: req.VideoDurationMin,
		CurrentStep:      workflow.StepResearch,
		Status:           workflow.StatusProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.mu.Lock()
	f.sessions[uuid.MustParse(sess.ID)] = sess
	out := sess.Clone()
	f.mu.Unlock()
	respondJSON(w, http.StatusAccepted, out)
}

func (f *FakeService) getSession(w http.ResponseWriter, r *http.Request) {
	f.withSession(w, r, func(s *workflow.Session) {
		respondJSON(w, http.StatusOK, s.Clone())
	})
}

func (f *FakeService) updateSuggestionStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status workflow.SuggestionStatus `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !body.Status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}
	f.withSession(w, r, func(s *workflow.Session) {
		if s.CurrentStep != workflow.StepSelection {
			respondError(w, http.StatusBadRequest, MsgInvalidStep)
			return
		}
		sug, ok := s.Suggestion(chi.URLParam(r, "suggestionID"))
		if !ok {
			respondError(w, http.StatusNotFound, "suggestion not found")
			return
		}
		sug.Status = body.Status
		respondJSON(w, http.StatusOK, map[string]string{"message": "suggestion status updated"})
	})
}

func (f *FakeService) addCustomTopic(w http.ResponseWriter, r *http.Request) {
	var body workflow.CustomTopic
	if !decode(w, r, &body) {
		return
	}
	if !valid(w, body) {
		return
	}
	f.withSession(w, r, func(s *workflow.Session) {
		if s.CurrentStep != workflow.StepSelection {
			respondError(w, http.StatusBadRequest, MsgInvalidStep)
			return
		}
		sug := workflow.TopicSuggestion{
			ID:          uuid.NewString(),
			SessionID:   s.ID,
			Title:       body.Title,
			Description: body.Description,
			IsCustom:    true,
			Status:      workflow.SuggestionApproved,
			SortOrder:   len(s.Suggestions),
			CreatedAt:   time.Now().UTC(),
		}
		s.Suggestions = append(s.Suggestions, sug)
		respondJSON(w, http.StatusCreated, sug)
	})
}

func (f *FakeService) generateMore(w http.ResponseWriter, r *http.Request) {
	f.withSession(w, r, func(s *workflow.Session) {
		if s.CurrentStep != workflow.StepSelection {
			respondError(w, http.StatusBadRequest, MsgInvalidStep)
			return
		}
		start := len(s.Suggestions)
		for i := range 4 {
			s.Suggestions = append(s.Suggestions, workflow.TopicSuggestion{
				ID:          uuid.NewString(),
				SessionID:   s.ID,
				Title:       fmt.Sprintf("%s extra %d", s.MainTopic, start+i+1),
				Description: "Additional suggestion",
				Status:      workflow.SuggestionPending,
				SortOrder:   start + i,
			})
		}
		respondJSON(w, http.StatusOK, s.Clone())
	})
}

// advance mirrors the real service's step preconditions: each target is
// accepted at the step the previous job left the session in, or as a retry
// of the same step after a failure.
func (f *FakeService) advance(target workflow.Target) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.withSession(w, r, func(s *workflow.Session) {
			switch target {
			case workflow.TargetRefine:
				ok := s.CurrentStep == workflow.StepSelection ||
					(s.CurrentStep == workflow.StepRefinement && s.Status == workflow.StatusFailed)
				if !ok {
					respondError(w, http.StatusBadRequest, MsgInvalidStep)
					return
				}
				if s.ApprovedCount() == 0 {
					respondError(w, http.StatusBadRequest, MsgNoApproved)
					return
				}
				s.CurrentStep = workflow.StepRefinement
			default:
				if s.CurrentStep != target.Step() {
					respondError(w, http.StatusBadRequest, MsgInvalidStep)
					return
				}
				if s.Status == workflow.StatusProcessing {
					respondError(w, http.StatusBadRequest, string(target)+" generation already in progress")
					return
				}
				if target == workflow.TargetVideos {
					for i := range s.LessonScripts {
						if s.LessonScripts[i].EffectiveOutputType() == workflow.OutputVideo {
							s.LessonScripts[i].VideoStatus = string(workflow.StatusProcessing)
						}
					}
				}
			}
			s.Status = workflow.StatusProcessing
			s.UpdatedAt = time.Now().UTC()
			respondJSON(w, http.StatusOK, s.Clone())
		})
	}
}

func (f *FakeService) updateTopic(w http.ResponseWriter, r *http.Request) {
	var body workflow.TopicUpdate
	if !decode(w, r, &body) {
		return
	}
	if !valid(w, body) {
		return
	}
	f.withSession(w, r, func(s *workflow.Session) {
		t, ok := s.Topic(chi.URLParam(r, "topicID"))
		if !ok {
			respondError(w, http.StatusNotFound, "refined topic not found")
			return
		}
		t.Title = body.Title
		t.Description = body.Description
		t.LearningGoals = body.LearningGoals
		t.EstimatedTimeMin = body.EstimatedTimeMin
		respondJSON(w, http.StatusOK, t)
	})
}

func (f *FakeService) regenerateTopic(w http.ResponseWriter, r *http.Request) {
	f.withSession(w, r, func(s *workflow.Session) {
		t, ok := s.Topic(chi.URLParam(r, "topicID"))
		if !ok {
			respondError(w, http.StatusNotFound, "refined topic not found")
			return
		}
		t.Description = "Regenerated: " + t.Title
		t.LearningGoals = workflow.LearningGoals{"Apply " + t.Title}
		respondJSON(w, http.StatusOK, t)
	})
}

func (f *FakeService) reorderTopics(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TopicOrders []workflow.TopicOrder `json:"topicOrders"`
	}
	if !decode(w, r, &body) {
		return
	}
	f.withSession(w, r, func(s *workflow.Session) {
		if s.CurrentStep != workflow.StepScript {
			respondError(w, http.StatusBadRequest, MsgInvalidStep)
			return
		}
		for _, o := range body.TopicOrders {
			if _, err := uuid.Parse(o.TopicID); err != nil {
				respondError(w, http.StatusBadRequest, "invalid topic ID: "+o.TopicID)
				return
			}
		}
		for _, o := range body.TopicOrders {
			if t, ok := s.Topic(o.TopicID); ok {
				t.SortOrder = o.SortOrder
			}
		}
		slices.SortStableFunc(s.RefinedTopics, func(a, b workflow.RefinedTopic) int { return a.SortOrder - b.SortOrder })
		respondJSON(w, http.StatusOK, s.Clone())
	})
}

func (f *FakeService) updateLessonScript(w http.ResponseWriter, r *http.Request) {
	var body workflow.ScriptUpdate
	if !decode(w, r, &body) {
		return
	}
	if !valid(w, body) {
		return
	}
	f.withSession(w, r, func(s *workflow.Session) {
		l, ok := s.Lesson(chi.URLParam(r, "lessonID"))
		if !ok {
			respondError(w, http.StatusNotFound, "lesson script not found")
			return
		}
		if body.Title != "" {
			l.Title = body.Title
		}
		l.Script = body.Script
		respondJSON(w, http.StatusOK, l)
	})
}

func (f *FakeService) regenerateScript(w http.ResponseWriter, r *http.Request) {
	f.withSession(w, r, func(s *workflow.Session) {
		l, ok := s.Lesson(chi.URLParam(r, "lessonID"))
		if !ok {
			respondError(w, http.StatusNotFound, "lesson script not found")
			return
		}
		l.Script = "Regenerated script for " + l.Title + "."
		respondJSON(w, http.StatusOK, l)
	})
}

func (f *FakeService) setOutputType(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OutputType workflow.OutputType `json:"outputType"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !body.OutputType.Valid() {
		respondError(w, http.StatusBadRequest, "invalid output type")
		return
	}
	f.withSession(w, r, func(s *workflow.Session) {
		if s.CurrentStep != workflow.StepScript && s.CurrentStep != workflow.StepVideo {
			respondError(w, http.StatusBadRequest, MsgInvalidStep)
			return
		}
		l, ok := s.Lesson(chi.URLParam(r, "lessonID"))
		if !ok {
			respondError(w, http.StatusNotFound, "lesson script not found")
			return
		}
		l.OutputType = body.OutputType
		respondJSON(w, http.StatusOK, s.Clone())
	})
}

func (f *FakeService) generatePresentation(w http.ResponseWriter, r *http.Request) {
	f.withSession(w, r, func(s *workflow.Session) {
		lessonID := chi.URLParam(r, "lessonID")
		l, ok := s.Lesson(lessonID)
		if !ok {
			respondError(w, http.StatusNotFound, "lesson script not found")
			return
		}
		l.PresentationStatus = string(workflow.StatusProcessing)
		p := &workflow.LessonPresentation{
			ID:        uuid.NewString(),
			LessonID:  lessonID,
			Slides:    []workflow.Slide{},
			Status:    string(workflow.StatusProcessing),
			CreatedAt: time.Now().UTC(),
		}
		f.presentations[lessonID] = p
		respondJSON(w, http.StatusAccepted, p.Clone())
	})
}

func (f *FakeService) getPresentation(w http.ResponseWriter, r *http.Request) {
	f.withSession(w, r, func(s *workflow.Session) {
		p := f.presentations[chi.URLParam(r, "lessonID")]
		if p == nil {
			respondError(w, http.StatusNotFound, "presentation not found")
			return
		}
		respondJSON(w, http.StatusOK, p.Clone())
	})
}

func (f *FakeService) regenerateAudio(w http.ResponseWriter, r *http.Request) {
	f.withSession(w, r, func(s *workflow.Session) {
		lessonID := chi.URLParam(r, "lessonID")
		p := f.presentations[lessonID]
		if p == nil {
			respondError(w, http.StatusBadRequest, "presentation not found")
			return
		}
		for i := range p.Slides {
			p.Slides[i].AudioURL = fmt.Sprintf("https://audio.example.com/%s/%d.mp3", lessonID, i)
		}
		respondJSON(w, http.StatusOK, p.Clone())
	})
}

func (f *FakeService) previewQuestions(w http.ResponseWriter, r *http.Request) {
	f.withSession(w, r, func(s *workflow.Session) {
		raw := f.questions[uuid.MustParse(s.ID)]
		if raw == nil {
			raw = json.RawMessage("[]")
		}
		respondJSON(w, http.StatusOK, map[string]json.RawMessage{"questions": raw})
	})
}
