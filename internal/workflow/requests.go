package workflow

// Target is the step an advance request moves the pipeline into.
type Target string

const (
	TargetRefine    Target = "refine"
	TargetScripts   Target = "scripts"
	TargetVideos    Target = "videos"
	TargetQuestions Target = "questions"
)

// Valid reports whether t is a known advance target.
func (t Target) Valid() bool {
	switch t {
	case TargetRefine, TargetScripts, TargetVideos, TargetQuestions:
		return true
	}
	return false
}

// Step returns the step a session enters when advanced to t.
func (t Target) Step() Step {
	switch t {
	case TargetRefine:
		return StepRefinement
	case TargetScripts:
		return StepScript
	case TargetVideos:
		return StepVideo
	case TargetQuestions:
		return StepQuestions
	}
	return ""
}

// StartRequest starts a new session with topic research.
type StartRequest struct {
	Topic            string     `json:"topic" validate:"required,trimmin=5,trimmax=500"`
	TargetAudience   string     `json:"targetAudience,omitempty"`
	DifficultyLevel  Difficulty `json:"difficultyLevel,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Language         Language   `json:"language" validate:"required,oneof=en de fr es it pt"`
	VideoDurationMin int        `json:"videoDurationMin,omitempty" validate:"omitempty,min=1,max=60"`
}

// Validate checks the request the way the topic form does.
func (r StartRequest) Validate() error {
	return ValidateRequest(r)
}

// CustomTopic is a user-authored suggestion.
type CustomTopic struct {
	Title       string `json:"title" validate:"trimmin=3"`
	Description string `json:"description" validate:"trimmin=10"`
}

// Validate checks minimum lengths.
func (c CustomTopic) Validate() error {
	return ValidateRequest(c)
}

// TopicUpdate replaces the editable fields of a refined topic.
type TopicUpdate struct {
	Title            string   `json:"title" validate:"trimmin=3,trimmax=200"`
	Description      string   `json:"description" validate:"notblank,trimmax=2000"`
	LearningGoals    []string `json:"learningGoals" validate:"somefilled"`
	EstimatedTimeMin int      `json:"estimatedTimeMin" validate:"min=1,max=60"`
}

// Validate checks the topic edit form constraints.
func (u TopicUpdate) Validate() error {
	return ValidateRequest(u)
}

// ScriptUpdate replaces a lesson's script and optionally its title.
type ScriptUpdate struct {
	Title  string `json:"title,omitempty"`
	Script string `json:"script" validate:"notblank"`
}

// Validate requires a non-empty script.
func (u ScriptUpdate) Validate() error {
	return ValidateRequest(u)
}

// TopicOrder assigns a sort order to a refined topic.
type TopicOrder struct {
	TopicID   string `json:"topicId"`
	SortOrder int    `json:"sortOrder"`
}

// OrderPairs assigns contiguous 0-based sort orders following the order of ids.
func OrderPairs(ids []string) []TopicOrder {
	pairs := make([]TopicOrder, len(ids))
	for i, id := range ids {
		pairs[i] = TopicOrder{TopicID: id, SortOrder: i}
	}
	return pairs
}
