package orchestrator

import (
	"context"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/store"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// ApproveSuggestion approves a topic suggestion.
func (o *Orchestrator) ApproveSuggestion(ctx context.Context, suggestionID string) error {
	return o.setSuggestionStatus(ctx, suggestionID, workflow.SuggestionApproved)
}

// RejectSuggestion rejects a topic suggestion.
func (o *Orchestrator) RejectSuggestion(ctx context.Context, suggestionID string) error {
	return o.setSuggestionStatus(ctx, suggestionID, workflow.SuggestionRejected)
}

// ResetSuggestion returns a topic suggestion to pending.
func (o *Orchestrator) ResetSuggestion(ctx context.Context, suggestionID string) error {
	return o.setSuggestionStatus(ctx, suggestionID, workflow.SuggestionPending)
}

// setSuggestionStatus sends a status change and refetches, since the
// service only acknowledges the change.
func (o *Orchestrator) setSuggestionStatus(ctx context.Context, suggestionID string, status workflow.SuggestionStatus) error {
	sess, err := o.current()
	if err != nil {
		return err
	}
	if _, ok := sess.Suggestion(suggestionID); !ok {
		return errors.NewNotFoundError("suggestion", suggestionID)
	}
	if !o.store.TryBusy(store.BusySuggestion, suggestionID) {
		return busy("update suggestion " + suggestionID)
	}
	defer o.store.ClearBusy(store.BusySuggestion, suggestionID)

	if err := o.svc.SetSuggestionStatus(ctx, sess.ID, suggestionID, status); err != nil {
		return o.fail(sess, "suggestion-status", "Could not update suggestion", err)
	}
	o.logger.WithSession(sess.ID).Debug("suggestion updated",
		"suggestion_id", suggestionID,
		"status", string(status))
	o.refreshAfter(ctx, sess)
	return nil
}

// AddCustomTopic adds a user-authored suggestion. The service approves it
// immediately.
func (o *Orchestrator) AddCustomTopic(ctx context.Context, topic workflow.CustomTopic) (*workflow.TopicSuggestion, error) {
	sess, err := o.current()
	if err != nil {
		return nil, err
	}
	if err := topic.Validate(); err != nil {
		return nil, o.fail(sess, "add-topic", "Could not add custom topic", err)
	}
	if !o.store.TryFlag(store.FlagAddingTopic) {
		return nil, busy("add custom topic")
	}
	defer o.store.ClearFlag(store.FlagAddingTopic)

	sug, err := o.svc.AddCustomTopic(ctx, sess.ID, topic)
	if err != nil {
		return nil, o.fail(sess, "add-topic", "Could not add custom topic", err)
	}
	o.notify(event.LevelSuccess, "Topic Added", "Your custom topic has been added and approved")
	o.refreshAfter(ctx, sess)
	return sug, nil
}

// GenerateMoreSuggestions asks the service for additional suggestions and
// applies the returned session.
func (o *Orchestrator) GenerateMoreSuggestions(ctx context.Context) (*workflow.Session, error) {
	sess, err := o.current()
	if err != nil {
		return nil, err
	}
	if !o.store.TryFlag(store.FlagGeneratingMore) {
		return nil, busy("generate more suggestions")
	}
	defer o.store.ClearFlag(store.FlagGeneratingMore)

	tok := o.store.Begin()
	next, err := o.svc.GenerateMoreSuggestions(ctx, sess.ID)
	if err != nil {
		return nil, o.fail(sess, "generate-more", "Could not generate more suggestions", err)
	}
	o.store.Commit(tok, next)
	return next, nil
}
