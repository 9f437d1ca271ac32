// Package session drives a single user through one exam attempt: answer
// tracking, per-question response sync, the countdown with auto-submit,
// snapshot-based resume, and final result aggregation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/exam-portal/portal-client/internal/model"
	"github.com/exam-portal/portal-client/internal/snapshot"
)

// API is the slice of the portal client the session needs.
type API interface {
	GetExam(ctx context.Context, examID int64) (*model.Exam, error)
	ListQuestions(ctx context.Context) ([]model.Question, error)
	ListResponses(ctx context.Context, examID, userID int64) ([]model.Response, error)
	SaveResponse(ctx context.Context, r *model.Response) (*model.Response, error)
	SubmitExam(ctx context.Context, examID int64) (*model.Result, error)
}

// SnapshotStore persists resume state between interruptions.
type SnapshotStore interface {
	Save(ctx context.Context, examID, userID int64, snap *model.AttemptSnapshot) error
	Load(ctx context.Context, examID, userID int64) (*model.AttemptSnapshot, error)
	Delete(ctx context.Context, examID, userID int64) error
}

var (
	// ErrNoQuestions means the exam references no loadable questions.
	ErrNoQuestions = errors.New("session: exam has no questions")
	// ErrSubmitInProgress guards against re-entrant submits.
	ErrSubmitInProgress = errors.New("session: submit already in progress")
	// ErrFinished means the attempt was already finalized.
	ErrFinished = errors.New("session: attempt already finished")
	// ErrUnknownQuestion means the question ID is not part of this exam.
	ErrUnknownQuestion = errors.New("session: unknown question")
	// ErrBadOption means the option index is outside the question's options.
	ErrBadOption = errors.New("session: option index out of range")
)

// Result is the aggregate handed off to the results view after a
// successful submit.
type Result struct {
	Exam           *model.Exam
	Questions      []model.Question
	Answers        map[int64]int
	Score          float64
	TotalMarks     float64
	CorrectCount   int
	WrongCount     int
	AttemptedCount int
	// Remote is the server-computed summary from the finalize call,
	// when the server returned one.
	Remote *model.Result
}

// AutoSubmit is delivered on the auto-submit channel when the countdown
// expires and the session submits itself.
type AutoSubmit struct {
	Result *Result
	Err    error
}

// Session is the attempt session controller. All methods are safe for
// use from the caller and the internal timer goroutine.
type Session struct {
	api   API
	store SnapshotStore
	user  model.User
	log   zerolog.Logger

	mu          sync.Mutex
	exam        *model.Exam
	questions   []model.Question
	answers     map[int64]int            // question ID → selected option index
	responses   map[int64]model.Response // remote records, keyed by question ID
	current     int
	timeLeft    int
	resume      bool
	submitting  bool
	finished    bool
	expireFired bool

	tickEvery   time.Duration
	cancelTimer context.CancelFunc
	timerDone   chan struct{}
	autoCh      chan AutoSubmit
}

// Option configures a Session.
type Option func(*Session)

// WithTickInterval overrides the one-second countdown tick. Tests use
// this to run the clock fast.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tickEvery = d }
}

// New creates an attempt session for user. Call Start to load the exam
// and begin the countdown.
func New(apiClient API, store SnapshotStore, user model.User, log zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		api:       apiClient,
		store:     store,
		user:      user,
		log:       log.With().Str("component", "attempt_session").Logger(),
		answers:   make(map[int64]int),
		responses: make(map[int64]model.Response),
		tickEvery: time.Second,
		autoCh:    make(chan AutoSubmit, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the exam and its questions, seeds answers from any prior
// remote responses, applies a local snapshot when one exists, and
// starts the countdown. ctx governs the whole session lifetime: when it
// is cancelled the countdown stops.
//
// Exam or question load failures are terminal; a prior-response fetch
// failure is treated as "no prior progress".
func (s *Session) Start(ctx context.Context, examID int64) error {
	exam, err := s.api.GetExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("load exam: %w", err)
	}

	all, err := s.api.ListQuestions(ctx)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	// Filter to the exam's questions, preserving its declared order.
	byID := make(map[int64]model.Question, len(all))
	for _, q := range all {
		byID[q.ID] = q
	}
	questions := make([]model.Question, 0, len(exam.QuestionIDs))
	for _, qid := range exam.QuestionIDs {
		if q, ok := byID[qid]; ok {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	s.mu.Lock()
	s.exam = exam
	s.questions = questions
	s.timeLeft = exam.DurationSeconds()
	s.mu.Unlock()

	// Seed answers from previously saved responses, so a new device
	// picks up remote progress. Failure here is non-fatal.
	if s.user.ID != 0 {
		prior, err := s.api.ListResponses(ctx, exam.ID, s.user.ID)
		if err != nil {
			s.log.Warn().Err(err).Int64("exam_id", exam.ID).
				Msg("No previous responses loaded")
		} else {
			s.mu.Lock()
			for _, r := range prior {
				s.responses[r.QuestionID] = r
				s.answers[r.QuestionID] = r.Answer
			}
			s.mu.Unlock()
		}

		// A local snapshot overrides time, position, and answers.
		if snap, err := s.store.Load(ctx, exam.ID, s.user.ID); err == nil {
			s.mu.Lock()
			s.timeLeft = snap.TimeLeft
			for qid, ans := range snap.Answers {
				s.answers[qid] = ans
			}
			s.current = clamp(snap.CurrentQuestion, 0, len(questions)-1)
			s.resume = true
			s.mu.Unlock()
		} else if !errors.Is(err, snapshot.ErrNoSnapshot) {
			s.log.Warn().Err(err).Msg("Snapshot load failed")
		}
	}

	timerCtx, cancel := context.WithCancel(ctx)
	s.cancelTimer = cancel
	s.timerDone = make(chan struct{})
	go s.runTimer(timerCtx)

	s.log.Info().
		Int64("exam_id", exam.ID).
		Int("questions", len(questions)).
		Int("time_left", s.TimeLeft()).
		Bool("resume", s.ResumeAvailable()).
		Msg("Attempt session started")
	return nil
}

// SelectAnswer records the selected option for a question, overwriting
// any prior selection. Pure local state change plus a snapshot write;
// no network effect.
func (s *Session) SelectAnswer(ctx context.Context, questionID int64, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return ErrFinished
	}
	q, ok := s.questionLocked(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	if option < 0 || option >= len(q.Options) {
		return ErrBadOption
	}

	s.answers[questionID] = option
	s.persistLocked(ctx)
	return nil
}

// SaveCurrentAndAdvance upserts the current question's response (when
// one is selected) and moves to the next question. A save failure is
// logged and swallowed: the local answer map stays the recoverable
// source of truth via the snapshot.
func (s *Session) SaveCurrentAndAdvance(ctx context.Context) error {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return ErrFinished
	}
	q := s.questions[s.current]
	ans, answered := s.answers[q.ID]
	s.mu.Unlock()

	if answered {
		if err := s.upsertResponse(ctx, q, ans, false); err != nil {
			s.log.Warn().Err(err).Int64("question_id", q.ID).
				Msg("Response save failed, continuing with local state")
		}
	}

	s.mu.Lock()
	if s.current < len(s.questions)-1 {
		s.current++
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
	return nil
}

// GoBack moves to the previous question. No network call: local state
// already holds the answer.
func (s *Session) GoBack(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return ErrFinished
	}
	if s.current > 0 {
		s.current--
	}
	s.persistLocked(ctx)
	return nil
}

// Submit finalizes the attempt: flush every answered question as a
// final response (best-effort), call the finalize endpoint, recompute
// the aggregate from the re-fetched response set, and destroy the local
// snapshot. A second call while one is in flight returns
// ErrSubmitInProgress without touching state; a finalize failure leaves
// the attempt resumable.
func (s *Session) Submit(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return nil, ErrFinished
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	s.submitting = true
	exam := s.exam
	questions := s.questions
	answers := s.answersCopyLocked()
	s.mu.Unlock()

	// Flush everything answered, marked final. Per-question failures
	// are logged but do not abort the sequence.
	for _, q := range questions {
		ans, ok := answers[q.ID]
		if !ok {
			continue
		}
		if err := s.upsertResponse(ctx, q, ans, true); err != nil {
			s.log.Warn().Err(err).Int64("question_id", q.ID).
				Msg("Final response flush failed")
		}
	}

	remote, err := s.api.SubmitExam(ctx, exam.ID)
	if err != nil {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}

	// Re-fetch the now-final responses and aggregate from them. When
	// the re-fetch fails the local answer map carries the same
	// information, so aggregation falls back to it.
	var result *Result
	final, err := s.api.ListResponses(ctx, exam.ID, s.user.ID)
	if err != nil {
		s.log.Warn().Err(err).Msg("Final response fetch failed, aggregating locally")
		result = aggregateLocal(exam, questions, answers)
	} else {
		result = aggregate(exam, questions, final)
	}
	result.Remote = remote

	// Mark the attempt finished before removing the snapshot. Ticks
	// persist under the same mutex, so once this lock is taken any
	// in-flight save has committed and later ticks no-op; nothing can
	// recreate the snapshot after the delete.
	s.mu.Lock()
	s.finished = true
	s.submitting = false
	s.mu.Unlock()

	if s.cancelTimer != nil {
		s.cancelTimer()
	}

	if err := s.store.Delete(ctx, exam.ID, s.user.ID); err != nil {
		s.log.Error().Err(err).Msg("Snapshot delete failed")
	}

	s.log.Info().
		Int64("exam_id", exam.ID).
		Float64("score", result.Score).
		Int("attempted", result.AttemptedCount).
		Msg("Attempt submitted")
	return result, nil
}

// AutoSubmitted delivers the outcome of a countdown-driven submit.
func (s *Session) AutoSubmitted() <-chan AutoSubmit {
	return s.autoCh
}

// Close stops the countdown and abandons the session. The snapshot is
// left in place so the attempt can resume later.
func (s *Session) Close() {
	if s.cancelTimer != nil {
		s.cancelTimer()
	}
	if s.timerDone != nil {
		<-s.timerDone
	}
}

// ─── Countdown ──────────────────────────────────────────────────────

func (s *Session) runTimer(ctx context.Context) {
	defer close(s.timerDone)

	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.tick(ctx) {
				continue
			}
			res, err := s.Submit(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("Auto-submit failed")
			}
			select {
			case s.autoCh <- AutoSubmit{Result: res, Err: err}:
			default:
			}
			return
		}
	}
}

// tick advances the countdown by one second and persists the snapshot.
// Returns true exactly once, when the countdown reaches zero.
func (s *Session) tick(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return false
	}
	if s.timeLeft > 0 {
		s.timeLeft--
	}
	expired := s.timeLeft == 0 && !s.expireFired
	if expired {
		s.expireFired = true
	}
	s.persistLocked(ctx)
	return expired
}

// ─── State access ───────────────────────────────────────────────────

// Exam returns the loaded exam metadata.
func (s *Session) Exam() *model.Exam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exam
}

// Questions returns the exam's questions in attempt order.
func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

// CurrentIndex returns the 0-based current question index.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentQuestion returns the question at the current index.
func (s *Session) CurrentQuestion() model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions[s.current]
}

// TimeLeft returns the remaining attempt seconds.
func (s *Session) TimeLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLeft
}

// Answers returns a copy of the current answer map.
func (s *Session) Answers() map[int64]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answersCopyLocked()
}

// AnsweredCount returns how many questions have a selection.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// ResumeAvailable reports whether a prior snapshot seeded this session.
// Informational only: the countdown runs regardless.
func (s *Session) ResumeAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resume
}

// Finished reports whether the attempt was finalized.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// ─── Internals ──────────────────────────────────────────────────────

// upsertResponse creates or updates the remote response for one
// question. Serves both the per-step save and the submit-time flush so
// there is a single retry path.
func (s *Session) upsertResponse(ctx context.Context, q model.Question, answer int, final bool) error {
	s.mu.Lock()
	prev, known := s.responses[q.ID]
	s.mu.Unlock()

	r := &model.Response{
		ExamID:        s.exam.ID,
		UserID:        s.user.ID,
		QuestionID:    q.ID,
		Answer:        answer,
		MarksObtained: q.MarksFor(answer),
		Submitted:     final,
	}
	if known {
		r.ID = prev.ID
	}

	saved, err := s.api.SaveResponse(ctx, r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.responses[q.ID] = *saved
	s.mu.Unlock()
	return nil
}

// persistLocked rewrites the snapshot from current state. Callers hold
// s.mu. Write failures are logged, never propagated: the attempt must
// not stall on local persistence.
func (s *Session) persistLocked(ctx context.Context) {
	if s.user.ID == 0 || s.exam == nil || s.finished {
		return
	}
	snap := &model.AttemptSnapshot{
		TimeLeft:        s.timeLeft,
		Answers:         copyAnswers(s.answers),
		CurrentQuestion: s.current,
	}
	if err := s.store.Save(ctx, s.exam.ID, s.user.ID, snap); err != nil {
		s.log.Error().Err(err).Msg("Snapshot save failed")
	}
}

func (s *Session) questionLocked(questionID int64) (model.Question, bool) {
	for _, q := range s.questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return model.Question{}, false
}

func (s *Session) answersCopyLocked() map[int64]int {
	return copyAnswers(s.answers)
}

func copyAnswers(in map[int64]int) map[int64]int {
	out := make(map[int64]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
