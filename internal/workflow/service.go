package workflow

import "context"

// Service is the external workflow service that executes the pipeline.
// Every method fails with an error carrying the service's message when the
// request is not successful.
type Service interface {
	StartSession(ctx context.Context, req StartRequest) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	SetSuggestionStatus(ctx context.Context, sessionID, suggestionID string, status SuggestionStatus) error
	AddCustomTopic(ctx context.Context, sessionID string, topic CustomTopic) (*TopicSuggestion, error)
	GenerateMoreSuggestions(ctx context.Context, sessionID string) (*Session, error)

	Advance(ctx context.Context, sessionID string, target Target) (*Session, error)

	UpdateRefinedTopic(ctx context.Context, sessionID, topicID string, update TopicUpdate) (*RefinedTopic, error)
	RegenerateRefinedTopic(ctx context.Context, sessionID, topicID string) (*RefinedTopic, error)
	ReorderRefinedTopics(ctx context.Context, sessionID string, orders []TopicOrder) (*Session, error)

	SetLessonOutputType(ctx context.Context, sessionID, lessonID string, outputType OutputType) (*Session, error)
	UpdateLessonScript(ctx context.Context, sessionID, lessonID string, update ScriptUpdate) (*LessonScript, error)
	RegenerateLessonScript(ctx context.Context, sessionID, lessonID string) (*LessonScript, error)

	GeneratePresentation(ctx context.Context, sessionID, lessonID string) (*LessonPresentation, error)
	GetPresentation(ctx context.Context, sessionID, lessonID string) (*LessonPresentation, error)
	RegenerateAudio(ctx context.Context, sessionID, lessonID string) (*LessonPresentation, error)

	PreviewQuestions(ctx context.Context, sessionID string) ([]Question, error)
}
