package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/testutil"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

func newTestClient(t *testing.T) (*Client, *testutil.FakeService) {
	t.Helper()
	fake := testutil.NewFakeService()
	srv := fake.Server(t)
	return New(srv.URL, WithTimeout(5*time.Second)), fake
}

func selectionSession(fake *testutil.FakeService) string {
	return fake.Seed(&workflow.Session{
		MainTopic:   "Distributed systems",
		CurrentStep: workflow.StepSelection,
		Status:      workflow.StatusCompleted,
		Suggestions: []workflow.TopicSuggestion{
			{ID: "sug-1", Title: "Consensus", Status: workflow.SuggestionPending},
			{ID: "sug-2", Title: "Replication", Status: workflow.SuggestionPending},
		},
	})
}

func TestClient_StartSession(t *testing.T) {
	c, fake := newTestClient(t)

	sess, err := c.StartSession(context.Background(), workflow.StartRequest{
		Topic:    "Introduction to Go concurrency",
		Language: "en",
	})
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if sess.CurrentStep != workflow.StepResearch || sess.Status != workflow.StatusProcessing {
		t.Errorf("got %s/%s, want research/processing", sess.CurrentStep, sess.Status)
	}
	if fake.Session(sess.ID) == nil {
		t.Error("session was not stored by the service")
	}
}

func TestClient_GetSessionRoundTrip(t *testing.T) {
	c, fake := newTestClient(t)
	id := selectionSession(fake)

	sess, err := c.GetSession(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess.ID != id || len(sess.Suggestions) != 2 {
		t.Errorf("GetSession() = %+v", sess)
	}
}

func TestClient_ErrorMessages(t *testing.T) {
	c, fake := newTestClient(t)
	id := selectionSession(fake)

	tests := []struct {
		name       string
		call       func() error
		wantStatus int
		wantMsg    string
	}{
		{
			name: "unknown session",
			call: func() error {
				_, err := c.GetSession(context.Background(), "7f1d1d8e-0000-4000-8000-000000000000")
				return err
			},
			wantStatus: http.StatusNotFound,
			wantMsg:    testutil.MsgSessionNotFound,
		},
		{
			name: "malformed session id",
			call: func() error {
				_, err := c.GetSession(context.Background(), "not-a-uuid")
				return err
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    testutil.MsgInvalidID,
		},
		{
			name: "refine without approvals",
			call: func() error {
				_, err := c.Advance(context.Background(), id, workflow.TargetRefine)
				return err
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    testutil.MsgNoApproved,
		},
		{
			name: "scripts from wrong step",
			call: func() error {
				_, err := c.Advance(context.Background(), id, workflow.TargetScripts)
				return err
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    testutil.MsgInvalidStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var apiErr *errors.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.wantStatus)
			}
			if apiErr.Message() != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", apiErr.Message(), tt.wantMsg)
			}
		})
	}
}

func TestClient_ServerRejectsInvalidBody(t *testing.T) {
	c, fake := newTestClient(t)

	_, err := c.StartSession(context.Background(), workflow.StartRequest{Topic: "  Go  ", Language: "en"})
	var apiErr *errors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusBadRequest)
	}
	if !strings.Contains(apiErr.Message(), "'trimmin' tag") {
		t.Errorf("Message() = %q, want the failed tag", apiErr.Message())
	}
	if errors.IsRetryable(err) {
		t.Error("4xx error should not be retryable")
	}
	if n := fake.CountRequests(http.MethodPost, BasePath+"/start"); n != 1 {
		t.Errorf("start requests = %d, want 1", n)
	}
}

func TestClient_SuggestionLifecycle(t *testing.T) {
	c, fake := newTestClient(t)
	id := selectionSession(fake)
	ctx := context.Background()

	if err := c.SetSuggestionStatus(ctx, id, "sug-1", workflow.SuggestionApproved); err != nil {
		t.Fatalf("SetSuggestionStatus() error = %v", err)
	}
	custom, err := c.AddCustomTopic(ctx, id, workflow.CustomTopic{Title: "Clocks", Description: "Logical and vector clocks"})
	if err != nil {
		t.Fatalf("AddCustomTopic() error = %v", err)
	}
	if !custom.IsCustom || custom.Status != workflow.SuggestionApproved {
		t.Errorf("custom topic = %+v, want approved custom topic", custom)
	}

	more, err := c.GenerateMoreSuggestions(ctx, id)
	if err != nil {
		t.Fatalf("GenerateMoreSuggestions() error = %v", err)
	}
	if got := len(more.Suggestions); got != 7 {
		t.Errorf("len(Suggestions) = %d, want 7", got)
	}

	sess, err := c.Advance(ctx, id, workflow.TargetRefine)
	if err != nil {
		t.Fatalf("Advance(refine) error = %v", err)
	}
	if sess.CurrentStep != workflow.StepRefinement || sess.Status != workflow.StatusProcessing {
		t.Errorf("after refine got %s/%s", sess.CurrentStep, sess.Status)
	}
	if got := fake.Session(id).ApprovedCount(); got != 2 {
		t.Errorf("ApprovedCount() = %d, want 2", got)
	}
}

func TestClient_ReorderSendsTopicOrders(t *testing.T) {
	c, fake := newTestClient(t)
	id := fake.Seed(&workflow.Session{
		CurrentStep: workflow.StepScript,
		Status:      workflow.StatusCompleted,
		RefinedTopics: []workflow.RefinedTopic{
			{ID: "0b7e2a4c-1111-4000-8000-000000000001", Title: "A", SortOrder: 0},
			{ID: "0b7e2a4c-1111-4000-8000-000000000002", Title: "B", SortOrder: 1},
		},
	})

	orders := workflow.OrderPairs([]string{
		"0b7e2a4c-1111-4000-8000-000000000002",
		"0b7e2a4c-1111-4000-8000-000000000001",
	})
	sess, err := c.ReorderRefinedTopics(context.Background(), id, orders)
	if err != nil {
		t.Fatalf("ReorderRefinedTopics() error = %v", err)
	}
	if sess.RefinedTopics[0].Title != "B" {
		t.Errorf("first topic = %q, want B", sess.RefinedTopics[0].Title)
	}

	reqs := fake.Requests()
	body := reqs[len(reqs)-1].Body
	if !strings.Contains(body, `"topicOrders"`) || !strings.Contains(body, `"sortOrder":1`) {
		t.Errorf("request body = %s", body)
	}
}

func TestClient_PresentationFlow(t *testing.T) {
	c, fake := newTestClient(t)
	id := fake.Seed(&workflow.Session{
		CurrentStep:   workflow.StepVideo,
		Status:        workflow.StatusCompleted,
		LessonScripts: []workflow.LessonScript{{ID: "l1", Title: "Intro", Script: "Hello"}},
	})
	ctx := context.Background()

	p, err := c.GeneratePresentation(ctx, id, "l1")
	if err != nil {
		t.Fatalf("GeneratePresentation() error = %v", err)
	}
	if p.Status != string(workflow.StatusProcessing) {
		t.Errorf("Status = %q, want processing", p.Status)
	}
	if got := fake.Session(id).LessonScripts[0].PresentationStatus; got != "processing" {
		t.Errorf("lesson presentationStatus = %q, want processing", got)
	}

	fake.SetLessonStatus(id, "l1", workflow.OutputPresentation, "completed")
	p, err = c.GetPresentation(ctx, id, "l1")
	if err != nil {
		t.Fatalf("GetPresentation() error = %v", err)
	}
	if len(p.Slides) == 0 {
		t.Fatal("completed presentation has no slides")
	}

	p, err = c.RegenerateAudio(ctx, id, "l1")
	if err != nil {
		t.Fatalf("RegenerateAudio() error = %v", err)
	}
	if p.Slides[0].AudioURL == "" {
		t.Error("RegenerateAudio() left AudioURL empty")
	}
}

func TestClient_PreviewQuestionsDecodesEncodedData(t *testing.T) {
	c, fake := newTestClient(t)
	id := fake.Seed(&workflow.Session{CurrentStep: workflow.StepCompleted, Status: workflow.StatusCompleted})
	fake.SetQuestions(id, `[
		{"questionType":"multiple_choice","questionText":"Pick one","questionData":"{\"options\":[\"a\",\"b\"],\"correctIndexes\":[1]}","points":2},
		{"questionType":"ordering","questionText":"Order","questionData":{"items":["x","y"]},"points":1}
	]`)

	qs, err := c.PreviewQuestions(context.Background(), id)
	if err != nil {
		t.Fatalf("PreviewQuestions() error = %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("len = %d, want 2", len(qs))
	}
	mc, ok := qs[0].Data.(workflow.MultipleChoiceData)
	if !ok || len(mc.Options) != 2 || mc.CorrectIndexes[0] != 1 {
		t.Errorf("question 0 data = %#v", qs[0].Data)
	}
	if _, ok := qs[1].Data.(workflow.OrderingData); !ok {
		t.Errorf("question 1 data = %#v", qs[1].Data)
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Token = "secret"
	srv := fake.Server(t)
	id := selectionSession(fake)

	if _, err := New(srv.URL).GetSession(context.Background(), id); err == nil {
		t.Error("request without token should fail")
	}
	if _, err := New(srv.URL, WithToken("secret")).GetSession(context.Background(), id); err != nil {
		t.Errorf("request with token error = %v", err)
	}
}

func TestClient_InjectedServerError(t *testing.T) {
	c, fake := newTestClient(t)
	id := selectionSession(fake)
	fake.FailNext(http.MethodPost, BasePath+"/"+id+"/generate-more", http.StatusInternalServerError, "failed to generate more suggestions")

	_, err := c.GenerateMoreSuggestions(context.Background(), id)
	if !errors.IsRetryable(err) {
		t.Errorf("5xx error should be retryable, got %v", err)
	}
	if got := errors.UserMessage(err, "fallback"); got != "failed to generate more suggestions" {
		t.Errorf("UserMessage() = %q", got)
	}

	if _, err := c.GenerateMoreSuggestions(context.Background(), id); err != nil {
		t.Errorf("failure should only apply once, got %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", 400, `{"error":"invalid workflow step for this operation"}`, "invalid workflow step for this operation"},
		{"message field", 409, `{"message":"script generation already in progress"}`, "script generation already in progress"},
		{"plain text", 500, "upstream timeout\n", "upstream timeout"},
		{"html", 502, "<html><body>Bad Gateway</body></html>", "Bad Gateway"},
		{"empty", 503, "", "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).GetSession(context.Background(), "s")
			var apiErr *errors.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Message() != tt.want {
				t.Errorf("Message() = %q, want %q", apiErr.Message(), tt.want)
			}
		})
	}
}

func TestClient_InvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetSession(context.Background(), "s")
	if !errors.Is(err, errors.ErrInvalidResponse) {
		t.Errorf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestClient_CanceledContext(t *testing.T) {
	c, fake := newTestClient(t)
	id := selectionSession(fake)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetSession(ctx, id)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestClient_AdvanceRejectsUnknownTarget(t *testing.T) {
	c, fake := newTestClient(t)
	id := selectionSession(fake)

	_, err := c.Advance(context.Background(), id, workflow.Target("publish"))
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
	if n := len(fake.Requests()); n != 0 {
		t.Errorf("sent %d requests, want 0", n)
	}
}
