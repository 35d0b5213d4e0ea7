package workflow

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/coursegen/internal/errors"
)

func TestStartRequest_Validate(t *testing.T) {
	valid := StartRequest{Topic: "Concurrency in Go", Language: "en"}

	tests := []struct {
		name      string
		mutate    func(*StartRequest)
		wantField string
	}{
		{"valid", func(*StartRequest) {}, ""},
		{"short topic", func(r *StartRequest) { r.Topic = "Go" }, "topic"},
		{"whitespace topic", func(r *StartRequest) { r.Topic = "   Go    " }, "topic"},
		{"long topic", func(r *StartRequest) { r.Topic = strings.Repeat("a", 501) }, "topic"},
		{"bad difficulty", func(r *StartRequest) { r.DifficultyLevel = "expert" }, "difficultyLevel"},
		{"good difficulty", func(r *StartRequest) { r.DifficultyLevel = DifficultyAdvanced }, ""},
		{"bad language", func(r *StartRequest) { r.Language = "xx" }, "language"},
		{"duration too long", func(r *StartRequest) { r.VideoDurationMin = 61 }, "videoDurationMin"},
		{"negative duration", func(r *StartRequest) { r.VideoDurationMin = -1 }, "videoDurationMin"},
		{"duration ok", func(r *StartRequest) { r.VideoDurationMin = 10 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assertField(t, r.Validate(), tt.wantField)
		})
	}
}

func TestTopicUpdate_Validate(t *testing.T) {
	valid := TopicUpdate{
		Title:            "Channels",
		Description:      "Typed conduits between goroutines",
		LearningGoals:    []string{"Send and receive"},
		EstimatedTimeMin: 10,
	}

	tests := []struct {
		name      string
		mutate    func(*TopicUpdate)
		wantField string
	}{
		{"valid", func(*TopicUpdate) {}, ""},
		{"short title", func(u *TopicUpdate) { u.Title = "Ch" }, "title"},
		{"empty description", func(u *TopicUpdate) { u.Description = " " }, "description"},
		{"only blank goals", func(u *TopicUpdate) { u.LearningGoals = []string{"", "  "} }, "learningGoals"},
		{"zero time", func(u *TopicUpdate) { u.EstimatedTimeMin = 0 }, "estimatedTimeMin"},
		{"time too long", func(u *TopicUpdate) { u.EstimatedTimeMin = 61 }, "estimatedTimeMin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := valid
			tt.mutate(&u)
			assertField(t, u.Validate(), tt.wantField)
		})
	}
}

func TestCustomTopic_Validate(t *testing.T) {
	assertField(t, CustomTopic{Title: "Go", Description: "long enough text"}.Validate(), "title")
	assertField(t, CustomTopic{Title: "Generics", Description: "short"}.Validate(), "description")
	assertField(t, CustomTopic{Title: "Generics", Description: "type parameters"}.Validate(), "")
}

func TestScriptUpdate_Validate(t *testing.T) {
	assertField(t, ScriptUpdate{Script: "  "}.Validate(), "script")
	assertField(t, ScriptUpdate{Script: "Hello"}.Validate(), "")
}

func TestValidateRequest_Messages(t *testing.T) {
	tests := []struct {
		name      string
		req       any
		wantMsg   string
		wantValue any
	}{
		{"trimmed length", StartRequest{Topic: " Go ", Language: "en"}, "topic: must be at least 5 characters", nil},
		{"enum", StartRequest{Topic: "Concurrency", Language: "xx"}, "language: must be one of en, de, fr, es, it, pt", Language("xx")},
		{"range", TopicUpdate{Title: "Maps", Description: "Hash tables", LearningGoals: []string{"Iterate"}, EstimatedTimeMin: 90}, "estimatedTimeMin: must be at most 60", 90},
		{"blank goals", TopicUpdate{Title: "Maps", Description: "Hash tables", LearningGoals: []string{" "}, EstimatedTimeMin: 5}, "learningGoals: at least one entry is required", nil},
		{"blank script", ScriptUpdate{Script: "\n\t"}, "script: is required", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			var ve *errors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateRequest() error = %v, want *ValidationError", err)
			}
			if got := errors.UserMessage(err, ""); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
			if ve.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", ve.Value, tt.wantValue)
			}
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Error("validation errors should match ErrInvalidInput")
			}
		})
	}
}

func TestValidator_Shared(t *testing.T) {
	if err := Validator().Struct(CustomTopic{Title: "Generics", Description: "type parameters"}); err != nil {
		t.Errorf("Struct() error = %v", err)
	}
	if err := Validator().Struct(CustomTopic{Title: "Go", Description: "type parameters"}); err == nil {
		t.Error("Struct() should reject a short title")
	}
}

func TestTarget(t *testing.T) {
	for target, step := range map[Target]Step{
		TargetRefine:    StepRefinement,
		TargetScripts:   StepScript,
		TargetVideos:    StepVideo,
		TargetQuestions: StepQuestions,
	} {
		if !target.Valid() {
			t.Errorf("%q should be valid", target)
		}
		if target.Step() != step {
			t.Errorf("%q.Step() = %q, want %q", target, target.Step(), step)
		}
	}
	if Target("publish").Valid() {
		t.Error("unknown target should be invalid")
	}
}

func TestOrderPairs(t *testing.T) {
	pairs := OrderPairs([]string{"c", "a", "b"})
	want := []TopicOrder{{"c", 0}, {"a", 1}, {"b", 2}}
	if len(pairs) != len(want) {
		t.Fatalf("len = %d, want %d", len(pairs), len(want))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %+v, want %+v", i, pairs[i], want[i])
		}
	}
}

func assertField(t *testing.T, err error, wantField string) {
	t.Helper()
	if wantField == "" {
		if err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
		return
	}
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if ve.Field != wantField {
		t.Errorf("Field = %q, want %q", ve.Field, wantField)
	}
}
