package orchestrator

import (
	"context"
	"fmt"
	"slices"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/store"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// StartEditingTopic opens a refined topic in the editor and returns its
// current fields as the initial edit.
func (o *Orchestrator) StartEditingTopic(topicID string) (workflow.TopicUpdate, error) {
	sess, err := o.current()
	if err != nil {
		return workflow.TopicUpdate{}, err
	}
	topic, ok := sess.Topic(topicID)
	if !ok {
		return workflow.TopicUpdate{}, errors.NewNotFoundError("refined topic", topicID)
	}
	o.store.SetEditingTopic(topicID)
	return workflow.TopicUpdate{
		Title:            topic.Title,
		Description:      topic.Description,
		LearningGoals:    slices.Clone(topic.LearningGoals),
		EstimatedTimeMin: topic.EstimatedTimeMin,
	}, nil
}

// CancelEditingTopic closes the editor without saving.
func (o *Orchestrator) CancelEditingTopic() {
	o.store.SetEditingTopic("")
}

// SaveTopicEdit saves a refined topic and refetches the session.
func (o *Orchestrator) SaveTopicEdit(ctx context.Context, topicID string, update workflow.TopicUpdate) (*workflow.RefinedTopic, error) {
	sess, err := o.current()
	if err != nil {
		return nil, err
	}
	if _, ok := sess.Topic(topicID); !ok {
		return nil, errors.NewNotFoundError("refined topic", topicID)
	}
	if err := update.Validate(); err != nil {
		return nil, o.fail(sess, "save-topic", "Could not update topic", err)
	}
	if !o.store.TryBusy(store.BusySaveTopic, topicID) {
		return nil, busy("save topic " + topicID)
	}
	defer o.store.ClearBusy(store.BusySaveTopic, topicID)

	topic, err := o.svc.UpdateRefinedTopic(ctx, sess.ID, topicID, update)
	if err != nil {
		return nil, o.fail(sess, "save-topic", "Could not update topic", err)
	}
	o.notify(event.LevelSuccess, "Topic Updated", "Your changes have been saved")
	if o.store.EditingTopic() == topicID {
		o.store.SetEditingTopic("")
	}
	o.refreshAfter(ctx, sess)
	return topic, nil
}

// RegenerateTopic asks for confirmation and then replaces a refined topic
// with newly generated content. A declined prompt returns
// errors.ErrDeclined and sends nothing.
func (o *Orchestrator) RegenerateTopic(ctx context.Context, topicID string) error {
	sess, err := o.current()
	if err != nil {
		return err
	}
	topic, ok := sess.Topic(topicID)
	if !ok {
		return errors.NewNotFoundError("refined topic", topicID)
	}
	if o.store.IsBusy(store.BusyRegenerateTopic, topicID) {
		return busy("regenerate topic " + topicID)
	}

	desc := fmt.Sprintf("Are you sure you want to regenerate %q? This will replace the current content with new AI-generated content.", topic.Title)
	return o.topicGate.Run(ctx, topicID, desc, func(ctx context.Context) error {
		if !o.store.TryBusy(store.BusyRegenerateTopic, topicID) {
			return busy("regenerate topic " + topicID)
		}
		defer o.store.ClearBusy(store.BusyRegenerateTopic, topicID)

		if _, err := o.svc.RegenerateRefinedTopic(ctx, sess.ID, topicID); err != nil {
			return o.fail(sess, "regenerate-topic", "Could not regenerate topic", err)
		}
		o.notify(event.LevelSuccess, "Topic Regenerated", "New content has been generated")
		o.refreshAfter(ctx, sess)
		return nil
	})
}

// -----------------------------------------------------------------------------
// Reorder mode
// -----------------------------------------------------------------------------

// EnterReorderMode starts a private draft of the refined topics in their
// current order.
func (o *Orchestrator) EnterReorderMode() ([]workflow.RefinedTopic, error) {
	return o.store.BeginReorder()
}

// CancelReorderMode discards the draft.
func (o *Orchestrator) CancelReorderMode() {
	o.store.EndReorder()
}

// MoveTopicUp swaps the draft topic at index with the one above it. Moving
// the first topic up is a no-op.
func (o *Orchestrator) MoveTopicUp(index int) ([]workflow.RefinedTopic, error) {
	return o.editDraft(func(d []workflow.RefinedTopic) ([]workflow.RefinedTopic, error) {
		if index <= 0 || index >= len(d) {
			return d, nil
		}
		d[index-1], d[index] = d[index], d[index-1]
		return d, nil
	})
}

// MoveTopicDown swaps the draft topic at index with the one below it.
// Moving the last topic down is a no-op.
func (o *Orchestrator) MoveTopicDown(index int) ([]workflow.RefinedTopic, error) {
	return o.editDraft(func(d []workflow.RefinedTopic) ([]workflow.RefinedTopic, error) {
		if index < 0 || index >= len(d)-1 {
			return d, nil
		}
		d[index], d[index+1] = d[index+1], d[index]
		return d, nil
	})
}

// MoveTopic moves the draft topic at from to position to, shifting the
// topics in between.
func (o *Orchestrator) MoveTopic(from, to int) ([]workflow.RefinedTopic, error) {
	return o.editDraft(func(d []workflow.RefinedTopic) ([]workflow.RefinedTopic, error) {
		if from < 0 || from >= len(d) {
			return nil, errors.NewValidationError("out of range").WithField("from").WithValue(from)
		}
		if to < 0 || to >= len(d) {
			return nil, errors.NewValidationError("out of range").WithField("to").WithValue(to)
		}
		t := d[from]
		d = slices.Delete(d, from, from+1)
		return slices.Insert(d, to, t), nil
	})
}

func (o *Orchestrator) editDraft(fn func([]workflow.RefinedTopic) ([]workflow.RefinedTopic, error)) ([]workflow.RefinedTopic, error) {
	draft, err := o.store.Draft()
	if err != nil {
		return nil, err
	}
	draft, err = fn(draft)
	if err != nil {
		return nil, err
	}
	if err := o.store.SetDraft(draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// SaveTopicOrder submits the draft as a complete, contiguous 0-based order,
// applies the returned session and leaves reorder mode. A draft whose
// topics no longer match the session is rejected with a ConflictError and
// the caller must re-enter reorder mode.
func (o *Orchestrator) SaveTopicOrder(ctx context.Context) (*workflow.Session, error) {
	sess, err := o.current()
	if err != nil {
		return nil, err
	}
	draft, err := o.store.Draft()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(draft))
	for i, t := range draft {
		ids[i] = t.ID
	}
	if !sameTopics(ids, sess.RefinedTopics) {
		err := errors.NewConflictError("reorder", "The topics changed while you were reordering. Please reorder again.")
		return nil, o.fail(sess, "reorder", "Could not save order", err)
	}

	if !o.store.TryFlag(store.FlagSavingOrder) {
		return nil, busy("save topic order")
	}
	defer o.store.ClearFlag(store.FlagSavingOrder)

	tok := o.store.Begin()
	next, err := o.svc.ReorderRefinedTopics(ctx, sess.ID, workflow.OrderPairs(ids))
	if err != nil {
		return nil, o.fail(sess, "reorder", "Could not save order", err)
	}
	o.store.Commit(tok, next)
	o.store.EndReorder()
	o.notify(event.LevelSuccess, "Order Saved", "Topic order has been updated")
	return next, nil
}

// sameTopics reports whether ids names exactly the given topics.
func sameTopics(ids []string, topics []workflow.RefinedTopic) bool {
	if len(ids) != len(topics) {
		return false
	}
	current := make([]string, len(topics))
	for i, t := range topics {
		current[i] = t.ID
	}
	a := slices.Sorted(slices.Values(ids))
	slices.Sort(current)
	return slices.Equal(a, current)
}
