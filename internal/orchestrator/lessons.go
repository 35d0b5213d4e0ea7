package orchestrator

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/store"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// lesson returns the current session and the lesson with the given ID.
func (o *Orchestrator) lesson(lessonID string) (*workflow.Session, *workflow.LessonScript, error) {
	sess, err := o.current()
	if err != nil {
		return nil, nil, err
	}
	lesson, ok := sess.Lesson(lessonID)
	if !ok {
		return nil, nil, errors.NewNotFoundError("lesson", lessonID)
	}
	return sess, lesson, nil
}

// SaveScriptEdit saves a lesson's script and refetches the session.
func (o *Orchestrator) SaveScriptEdit(ctx context.Context, lessonID string, update workflow.ScriptUpdate) (*workflow.LessonScript, error) {
	sess, _, err := o.lesson(lessonID)
	if err != nil {
		return nil, err
	}
	if err := update.Validate(); err != nil {
		return nil, o.fail(sess, "save-script", "Could not save script", err)
	}
	if !o.store.TryBusy(store.BusySaveScript, lessonID) {
		return nil, busy("save script " + lessonID)
	}
	defer o.store.ClearBusy(store.BusySaveScript, lessonID)

	script, err := o.svc.UpdateLessonScript(ctx, sess.ID, lessonID, update)
	if err != nil {
		return nil, o.fail(sess, "save-script", "Could not save script", err)
	}
	o.notify(event.LevelSuccess, "Saved", "Script has been updated")
	o.refreshAfter(ctx, sess)
	return script, nil
}

// RegenerateScript asks for confirmation and then replaces a lesson's
// script with a newly generated one. A declined prompt returns
// errors.ErrDeclined and sends nothing.
func (o *Orchestrator) RegenerateScript(ctx context.Context, lessonID string) error {
	sess, lesson, err := o.lesson(lessonID)
	if err != nil {
		return err
	}
	if o.store.IsBusy(store.BusyRegenerateScript, lessonID) {
		return busy("regenerate script " + lessonID)
	}

	desc := fmt.Sprintf("Are you sure you want to regenerate the script for %q? This will replace the current script with new AI-generated content.", lesson.Title)
	return o.scriptGate.Run(ctx, lessonID, desc, func(ctx context.Context) error {
		if !o.store.TryBusy(store.BusyRegenerateScript, lessonID) {
			return busy("regenerate script " + lessonID)
		}
		defer o.store.ClearBusy(store.BusyRegenerateScript, lessonID)

		if _, err := o.svc.RegenerateLessonScript(ctx, sess.ID, lessonID); err != nil {
			return o.fail(sess, "regenerate-script", "Could not regenerate script", err)
		}
		o.notify(event.LevelSuccess, "Regenerated", "Script has been regenerated")
		o.refreshAfter(ctx, sess)
		return nil
	})
}

// SetOutputType changes how a lesson is rendered and applies the returned
// session. If the lesson's output of the new type is already being
// generated, its poll loop is started.
func (o *Orchestrator) SetOutputType(ctx context.Context, lessonID string, outputType workflow.OutputType) (*workflow.Session, error) {
	sess, _, err := o.lesson(lessonID)
	if err != nil {
		return nil, err
	}
	if !outputType.Valid() {
		err := errors.NewValidationError("must be video or presentation").
			WithField("outputType").WithValue(outputType)
		return nil, o.fail(sess, "output-type", "Could not update output type", err)
	}
	if !o.store.TryBusy(store.BusyOutputType, lessonID) {
		return nil, busy("set output type " + lessonID)
	}
	defer o.store.ClearBusy(store.BusyOutputType, lessonID)

	tok := o.store.Begin()
	next, err := o.svc.SetLessonOutputType(ctx, sess.ID, lessonID, outputType)
	if err != nil {
		return nil, o.fail(sess, "output-type", "Could not update output type", err)
	}
	o.store.Commit(tok, next)
	o.notify(event.LevelSuccess, "Updated", "Output type set to "+string(outputType))

	if updated, ok := next.Lesson(lessonID); ok &&
		workflow.IsProcessing(workflow.Status(updated.SubStatus(outputType))) {
		o.startLessonPoll(next.ID, lessonID, outputType)
	}
	return next, nil
}

// startLessonPoll marks the lesson's generation busy and starts its loop.
// The loop clears the busy mark when the generation settles.
func (o *Orchestrator) startLessonPoll(sessionID, lessonID string, kind workflow.OutputType) {
	if kind == workflow.OutputPresentation {
		o.store.TryBusy(store.BusyGeneratePresentation, lessonID)
		o.scheduler.StartPresentation(sessionID, lessonID)
		return
	}
	o.store.TryBusy(store.BusyGenerateVideo, lessonID)
	o.scheduler.StartVideo(sessionID, lessonID)
}

// GeneratePresentation starts presentation generation for a lesson and
// polls until it completes or fails.
func (o *Orchestrator) GeneratePresentation(ctx context.Context, lessonID string) (*workflow.LessonPresentation, error) {
	sess, _, err := o.lesson(lessonID)
	if err != nil {
		return nil, err
	}
	if !o.store.TryBusy(store.BusyGeneratePresentation, lessonID) {
		return nil, busy("generate presentation " + lessonID)
	}

	p, err := o.svc.GeneratePresentation(ctx, sess.ID, lessonID)
	if err != nil {
		o.store.ClearBusy(store.BusyGeneratePresentation, lessonID)
		return nil, o.fail(sess, "generate-presentation", "Could not generate presentation", err)
	}
	o.notify(event.LevelInfo, "Generating", "Presentation is being generated. This may take a few moments...")
	o.scheduler.StartPresentation(sess.ID, lessonID)
	return p, nil
}

// PreviewPresentation loads a lesson's presentation into the store.
func (o *Orchestrator) PreviewPresentation(ctx context.Context, lessonID string) (*workflow.LessonPresentation, error) {
	sess, _, err := o.lesson(lessonID)
	if err != nil {
		return nil, err
	}
	p, err := o.svc.GetPresentation(ctx, sess.ID, lessonID)
	if err != nil {
		return nil, o.fail(sess, "preview-presentation", "Could not load presentation", err)
	}
	o.store.SetPresentation(p)
	return p, nil
}

// RegenerateAudio regenerates the narration of a lesson's presentation. If
// the service reports the presentation as still processing, its loop is
// started.
func (o *Orchestrator) RegenerateAudio(ctx context.Context, lessonID string) (*workflow.LessonPresentation, error) {
	sess, _, err := o.lesson(lessonID)
	if err != nil {
		return nil, err
	}
	if o.store.IsBusy(store.BusyGeneratePresentation, lessonID) {
		return nil, busy("regenerate audio " + lessonID)
	}

	p, err := o.svc.RegenerateAudio(ctx, sess.ID, lessonID)
	if err != nil {
		return nil, o.fail(sess, "regenerate-audio", "Could not regenerate audio", err)
	}
	o.store.SetPresentation(p)
	if workflow.IsProcessing(workflow.Status(p.Status)) {
		o.startLessonPoll(sess.ID, lessonID, workflow.OutputPresentation)
		o.notify(event.LevelInfo, "Generating", "Audio is being regenerated...")
		return p, nil
	}
	o.notify(event.LevelSuccess, "Regenerated", "Audio has been regenerated")
	return p, nil
}

// GenerateVideo starts video generation and polls until the lesson's video
// completes or fails. The service generates all video-type lessons at once,
// so the session loop is restarted as well.
func (o *Orchestrator) GenerateVideo(ctx context.Context, lessonID string) (*workflow.Session, error) {
	sess, _, err := o.lesson(lessonID)
	if err != nil {
		return nil, err
	}
	if !o.store.TryBusy(store.BusyGenerateVideo, lessonID) {
		return nil, busy("generate video " + lessonID)
	}

	o.scheduler.StopSession()
	tok := o.store.Begin()
	next, err := o.svc.Advance(ctx, sess.ID, workflow.TargetVideos)
	if err != nil {
		o.store.ClearBusy(store.BusyGenerateVideo, lessonID)
		return nil, o.fail(sess, "generate-video", "Could not generate video", err)
	}
	o.store.Commit(tok, next)
	o.notify(event.LevelInfo, "Generating", "Video generation has started...")
	o.scheduler.StartSession(sess.ID)
	o.scheduler.StartVideo(sess.ID, lessonID)
	return next, nil
}

// PreviewQuestions returns the generated quiz questions.
func (o *Orchestrator) PreviewQuestions(ctx context.Context) ([]workflow.Question, error) {
	sess, err := o.current()
	if err != nil {
		return nil, err
	}
	qs, err := o.svc.PreviewQuestions(ctx, sess.ID)
	if err != nil {
		return nil, o.fail(sess, "preview-questions", "Could not load questions", err)
	}
	return qs, nil
}
