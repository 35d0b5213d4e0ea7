package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/orchestrator/retry"
	"github.com/Iron-Ham/coursegen/internal/store"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// StartResearch starts a new session and polls it until research hands over
// to topic selection. Any previous session is dropped once the service has
// accepted the new one.
func (o *Orchestrator) StartResearch(ctx context.Context, req workflow.StartRequest) (*workflow.Session, error) {
	if o.store.Closed() {
		return nil, errors.ErrClosed
	}
	if err := req.Validate(); err != nil {
		return nil, o.fail(nil, "start", "Could not start research", err)
	}
	if !o.store.TryFlag(store.FlagLoading) {
		return nil, busy("start research")
	}
	defer o.store.ClearFlag(store.FlagLoading)

	sess, err := o.svc.StartSession(ctx, req)
	if err != nil {
		return nil, o.fail(nil, "start", "Could not start research", err)
	}
	if !o.adopt(sess) {
		return sess, nil
	}
	o.logger.WithSession(sess.ID).Info("research started", "topic", req.Topic)
	o.scheduler.StartSession(sess.ID)
	return sess, nil
}

// Resume attaches to an existing session, replacing the current one only
// after the fetch succeeds. Polling starts when the session
// is still working on a step, and lesson loops are restarted for lessons
// whose presentation or video is being generated.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string) (*workflow.Session, error) {
	if o.store.Closed() {
		return nil, errors.ErrClosed
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, errors.NewValidationError("is not a valid session ID").
			WithField("sessionId").WithValue(sessionID).WithCause(err)
	}

	sess, err := o.svc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, o.fail(nil, "resume", "Could not load session", err)
	}
	if !o.adopt(sess) {
		return sess, nil
	}

	if !workflow.ShouldStopSessionPolling(sess.Status, sess.CurrentStep) {
		o.scheduler.StartSession(sess.ID)
	}
	for _, lesson := range sess.LessonScripts {
		if workflow.IsProcessing(workflow.Status(lesson.PresentationStatus)) &&
			o.store.TryBusy(store.BusyGeneratePresentation, lesson.ID) {
			o.scheduler.StartPresentation(sess.ID, lesson.ID)
		}
		if workflow.IsProcessing(workflow.Status(lesson.VideoStatus)) &&
			o.store.TryBusy(store.BusyGenerateVideo, lesson.ID) {
			o.scheduler.StartVideo(sess.ID, lesson.ID)
		}
	}
	o.logger.WithSession(sess.ID).Info("session resumed",
		"step", string(sess.CurrentStep),
		"status", string(sess.Status))
	return sess, nil
}

// adopt replaces the current session, its poll loops and all transient
// state with sess. It reports false once the store is closed.
func (o *Orchestrator) adopt(sess *workflow.Session) bool {
	o.scheduler.StopAll()
	o.store.Clear()
	return o.store.Commit(o.store.Begin(), sess)
}

// ResetWorkflow stops every poll loop and discards the session and all
// transient state. Responses still in flight are ignored.
func (o *Orchestrator) ResetWorkflow() {
	id := o.store.SessionID()
	o.scheduler.StopAll()
	o.store.Clear()
	if id != "" {
		o.retries.ResetSession(id)
		o.logger.WithSession(id).Info("workflow reset")
	}
}

// advanceSpec describes one advance operation.
type advanceSpec struct {
	target   workflow.Target
	op       string
	flag     store.Flag
	fallback string
	// notice is published after a successful advance, if set.
	notice *message
}

// message is a notification published on success.
type message struct {
	level   event.Level
	summary string
	detail  string
}

var (
	advanceRefine = advanceSpec{
		target:   workflow.TargetRefine,
		op:       "refine",
		flag:     store.FlagLoading,
		fallback: "Could not proceed to refinement",
	}
	advanceScripts = advanceSpec{
		target:   workflow.TargetScripts,
		op:       "scripts",
		flag:     store.FlagLoading,
		fallback: "Could not proceed to script generation",
	}
	advanceVideos = advanceSpec{
		target:   workflow.TargetVideos,
		op:       "videos",
		flag:     store.FlagLoading,
		fallback: "Could not proceed to video generation",
	}
	advanceQuestions = advanceSpec{
		target:   workflow.TargetQuestions,
		op:       "questions",
		flag:     store.FlagGeneratingQuestions,
		fallback: "Could not generate questions",
		notice:   &message{event.LevelInfo, "Generating", "Quiz questions are being generated..."},
	}
	createTraining = advanceSpec{
		target:   workflow.TargetVideos,
		op:       "create-training",
		flag:     store.FlagLoading,
		fallback: "Could not create training",
		notice: &message{event.LevelSuccess, "Training Created",
			"Your training course is being finalized. Videos are being generated for video-type lessons."},
	}
)

func specFor(target workflow.Target) advanceSpec {
	switch target {
	case workflow.TargetRefine:
		return advanceRefine
	case workflow.TargetScripts:
		return advanceScripts
	case workflow.TargetVideos:
		return advanceVideos
	default:
		return advanceQuestions
	}
}

// ProceedToRefinement refines the approved suggestions. At least one
// suggestion must be approved; otherwise no request is sent.
func (o *Orchestrator) ProceedToRefinement(ctx context.Context) (*workflow.Session, error) {
	return o.advance(ctx, advanceRefine)
}

// ProceedToScriptGeneration starts script generation for the refined topics.
func (o *Orchestrator) ProceedToScriptGeneration(ctx context.Context) (*workflow.Session, error) {
	return o.advance(ctx, advanceScripts)
}

// ProceedToVideoGeneration starts video generation for video-type lessons.
func (o *Orchestrator) ProceedToVideoGeneration(ctx context.Context) (*workflow.Session, error) {
	return o.advance(ctx, advanceVideos)
}

// ProceedToQuestionGeneration starts quiz generation.
func (o *Orchestrator) ProceedToQuestionGeneration(ctx context.Context) (*workflow.Session, error) {
	return o.advance(ctx, advanceQuestions)
}

// CreateTraining finalizes the lesson outputs and starts video generation
// for video-type lessons.
func (o *Orchestrator) CreateTraining(ctx context.Context) (*workflow.Session, error) {
	return o.advance(ctx, createTraining)
}

// advance stops the session loop, sends the advance request, applies the
// returned session and restarts the session loop, since the new step
// begins in a processing state. A failed request leaves the session as it
// was and resumes watching it if it was still processing.
func (o *Orchestrator) advance(ctx context.Context, spec advanceSpec) (*workflow.Session, error) {
	sess, err := o.current()
	if err != nil {
		return nil, err
	}
	if spec.target == workflow.TargetRefine && sess.ApprovedCount() == 0 {
		err := errors.NewValidationError("at least one topic must be approved").WithField("suggestions")
		return nil, o.fail(sess, spec.op, spec.fallback, err)
	}
	if !o.store.TryFlag(spec.flag) {
		return nil, busy(spec.op)
	}
	defer o.store.ClearFlag(spec.flag)

	o.scheduler.StopSession()

	tok := o.store.Begin()
	next, err := o.svc.Advance(ctx, sess.ID, spec.target)
	if err != nil {
		o.keepWatching()
		return nil, o.fail(sess, spec.op, spec.fallback, err)
	}
	if next == nil || next.ID == "" {
		o.keepWatching()
		return nil, o.fail(sess, spec.op, "Invalid response from server", errors.ErrInvalidResponse)
	}

	o.store.Commit(tok, next)
	o.scheduler.StartSession(next.ID)
	if m := spec.notice; m != nil {
		o.notify(m.level, m.summary, m.detail)
	}
	o.logger.WithSession(next.ID).Info("advanced",
		"target", string(spec.target),
		"step", string(next.CurrentStep))
	return next, nil
}

// keepWatching restarts the session loop after a failed advance when the
// current step is still being worked on by the service.
func (o *Orchestrator) keepWatching() {
	cur := o.store.Session()
	if cur == nil || workflow.ShouldStopSessionPolling(cur.Status, cur.CurrentStep) {
		return
	}
	o.scheduler.StartSession(cur.ID)
}

// RetryCurrentStep re-runs the advance of the current step. Steps without
// an advance of their own are recovered by refetching the session.
func (o *Orchestrator) RetryCurrentStep(ctx context.Context) (*workflow.Session, error) {
	sess, err := o.current()
	if err != nil {
		return nil, err
	}

	target, ok := retry.TargetFor(sess.CurrentStep)
	if !ok {
		return o.Refresh(ctx)
	}
	next, err := o.advance(ctx, specFor(target))
	o.retries.RecordAttempt(sess.ID, sess.CurrentStep, err)
	return next, err
}
