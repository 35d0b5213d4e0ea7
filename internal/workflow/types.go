// Package workflow defines the course-generation session model shared by the
// API client, the session store, the poll scheduler and the orchestrator.
//
// A [Session] is the aggregate root: it owns the topic suggestions produced by
// research, the refined topics produced by refinement and the lesson scripts
// produced by script generation. Its Status always describes the execution of
// CurrentStep, never the pipeline as a whole.
package workflow

import (
	"encoding/json"
	"strings"
	"time"
)

// Step is one of the seven fixed pipeline phases.
type Step string

const (
	StepResearch   Step = "research"
	StepSelection  Step = "selection"
	StepRefinement Step = "refinement"
	StepScript     Step = "script"
	StepVideo      Step = "video"
	StepQuestions  Step = "questions"
	StepCompleted  Step = "completed"
)

// Status is the execution status of the current step.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// SuggestionStatus is the review state of a topic suggestion.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Valid reports whether s is a known suggestion status.
func (s SuggestionStatus) Valid() bool {
	switch s {
	case SuggestionPending, SuggestionApproved, SuggestionRejected:
		return true
	}
	return false
}

// OutputType selects how a lesson is rendered.
type OutputType string

const (
	OutputVideo        OutputType = "video"
	OutputPresentation OutputType = "presentation"
)

// Valid reports whether o is a known output type.
func (o OutputType) Valid() bool {
	return o == OutputVideo || o == OutputPresentation
}

// Difficulty of the generated course.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Language of the generated course.
type Language string

// Languages returns the supported course languages.
func Languages() []Language {
	return []Language{"en", "de", "fr", "es", "it", "pt"}
}

// Session is the aggregate root tracking one pipeline run.
type Session struct {
	ID               string            `json:"id" yaml:"id"`
	MainTopic        string            `json:"mainTopic" yaml:"main_topic"`
	TargetAudience   string            `json:"targetAudience" yaml:"target_audience"`
	DifficultyLevel  Difficulty        `json:"difficultyLevel" yaml:"difficulty_level"`
	Language         Language          `json:"language" yaml:"language"`
	VideoDurationMin int               `json:"videoDurationMin" yaml:"video_duration_min"`
	CurrentStep      Step              `json:"currentStep" yaml:"current_step"`
	Status           Status            `json:"status" yaml:"status"`
	CourseID         string            `json:"courseId,omitempty" yaml:"course_id,omitempty"`
	Suggestions      []TopicSuggestion `json:"suggestions" yaml:"suggestions"`
	RefinedTopics    []RefinedTopic    `json:"refinedTopics" yaml:"refined_topics"`
	LessonScripts    []LessonScript    `json:"lessonScripts" yaml:"lesson_scripts"`
	CreatedAt        time.Time         `json:"createdAt" yaml:"created_at"`
	UpdatedAt        time.Time         `json:"updatedAt" yaml:"updated_at"`
}

// TopicSuggestion is a candidate topic from research or a user addition.
type TopicSuggestion struct {
	ID          string           `json:"id" yaml:"id"`
	SessionID   string           `json:"sessionId" yaml:"session_id"`
	Title       string           `json:"title" yaml:"title"`
	Description string           `json:"description" yaml:"description"`
	IsCustom    bool             `json:"isCustom" yaml:"is_custom"`
	Status      SuggestionStatus `json:"status" yaml:"status"`
	SortOrder   int              `json:"sortOrder" yaml:"sort_order"`
	CreatedAt   time.Time        `json:"createdAt" yaml:"created_at"`
}

// RefinedTopic is an approved suggestion expanded with learning goals.
type RefinedTopic struct {
	ID               string        `json:"id" yaml:"id"`
	SessionID        string        `json:"sessionId" yaml:"session_id"`
	SuggestionID     string        `json:"suggestionId" yaml:"suggestion_id"`
	Title            string        `json:"title" yaml:"title"`
	Description      string        `json:"description" yaml:"description"`
	LearningGoals    LearningGoals `json:"learningGoals" yaml:"learning_goals"`
	EstimatedTimeMin int           `json:"estimatedTimeMin" yaml:"estimated_time_min"`
	SortOrder        int           `json:"sortOrder" yaml:"sort_order"`
	CreatedAt        time.Time     `json:"createdAt" yaml:"created_at"`
}

// LearningGoals decodes from a JSON array, a JSON string holding an encoded
// array, or a bare string, which the service has been seen to emit.
type LearningGoals []string

// UnmarshalJSON implements json.Unmarshaler.
func (g *LearningGoals) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*g = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*g = nil
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*g = nil
		return nil
	}
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		*g = list
		return nil
	}
	*g = LearningGoals{s}
	return nil
}

// LessonScript is the narration script for one lesson and the state of its
// rendered output.
type LessonScript struct {
	ID                 string     `json:"id" yaml:"id"`
	SessionID          string     `json:"sessionId" yaml:"session_id"`
	TopicID            string     `json:"topicId" yaml:"topic_id"`
	Title              string     `json:"title" yaml:"title"`
	Script             string     `json:"script" yaml:"script"`
	DurationMin        int        `json:"durationMin" yaml:"duration_min"`
	OutputType         OutputType `json:"outputType" yaml:"output_type"`
	VideoID            string     `json:"videoId,omitempty" yaml:"video_id,omitempty"`
	VideoURL           string     `json:"videoUrl,omitempty" yaml:"video_url,omitempty"`
	VideoStatus        string     `json:"videoStatus,omitempty" yaml:"video_status,omitempty"`
	PresentationStatus string     `json:"presentationStatus,omitempty" yaml:"presentation_status,omitempty"`
	SortOrder          int        `json:"sortOrder" yaml:"sort_order"`
	CreatedAt          time.Time  `json:"createdAt" yaml:"created_at"`
}

// EffectiveOutputType returns the lesson's output type, defaulting to video.
func (l LessonScript) EffectiveOutputType() OutputType {
	if l.OutputType == "" {
		return OutputVideo
	}
	return l.OutputType
}

// SubStatus returns the lesson's generation status for the given output type.
func (l LessonScript) SubStatus(kind OutputType) string {
	if kind == OutputPresentation {
		return l.PresentationStatus
	}
	return l.VideoStatus
}

// Slide is one page of a generated presentation.
type Slide struct {
	Title         string `json:"title" yaml:"title"`
	Content       string `json:"content" yaml:"content"`
	Script        string `json:"script" yaml:"script"`
	AudioURL      string `json:"audioUrl" yaml:"audio_url"`
	ImageURL      string `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
	ImageAlt      string `json:"imageAlt,omitempty" yaml:"image_alt,omitempty"`
	ImageKeywords string `json:"imageKeywords,omitempty" yaml:"image_keywords,omitempty"`
}

// LessonPresentation is the slide deck generated for a lesson.
type LessonPresentation struct {
	ID        string    `json:"id" yaml:"id"`
	LessonID  string    `json:"lessonId" yaml:"lesson_id"`
	Slides    []Slide   `json:"slides" yaml:"slides"`
	Status    string    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// Suggestion returns the suggestion with the given ID.
func (s *Session) Suggestion(id string) (*TopicSuggestion, bool) {
	for i := range s.Suggestions {
		if s.Suggestions[i].ID == id {
			return &s.Suggestions[i], true
		}
	}
	return nil, false
}

// Topic returns the refined topic with the given ID.
func (s *Session) Topic(id string) (*RefinedTopic, bool) {
	for i := range s.RefinedTopics {
		if s.RefinedTopics[i].ID == id {
			return &s.RefinedTopics[i], true
		}
	}
	return nil, false
}

// Lesson returns the lesson script with the given ID.
func (s *Session) Lesson(id string) (*LessonScript, bool) {
	for i := range s.LessonScripts {
		if s.LessonScripts[i].ID == id {
			return &s.LessonScripts[i], true
		}
	}
	return nil, false
}

// ApprovedCount returns the number of approved suggestions.
func (s *Session) ApprovedCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, sug := range s.Suggestions {
		if sug.Status == SuggestionApproved {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Suggestions = append([]TopicSuggestion(nil), s.Suggestions...)
	c.RefinedTopics = make([]RefinedTopic, len(s.RefinedTopics))
	for i, t := range s.RefinedTopics {
		t.LearningGoals = append(LearningGoals(nil), t.LearningGoals...)
		c.RefinedTopics[i] = t
	}
	c.LessonScripts = append([]LessonScript(nil), s.LessonScripts...)
	return &c
}

// Clone returns a deep copy of the presentation.
func (p *LessonPresentation) Clone() *LessonPresentation {
	if p == nil {
		return nil
	}
	c := *p
	c.Slides = append([]Slide(nil), p.Slides...)
	return &c
}
