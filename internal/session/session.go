// Package session holds the conversation state of one chat: the transcript,
// the backend-assigned conversation id and the pending-request gate.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apierrors "github.com/bizcopilot/copilot/internal/errors"
	"github.com/bizcopilot/copilot/internal/metrics"
	"github.com/bizcopilot/copilot/internal/models"
)

// FallbackError is shown when a failed reply carries no detail
const FallbackError = "Ошибка при отправке сообщения"

// ChatClient is the part of the gateway a session needs
type ChatClient interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// State is the observable state of a session
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
	// StateError is idle with the last failure still on display.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Request is a begun chat turn, stamped with the generation it belongs to
type Request struct {
	Generation uint64
	Chat       models.ChatRequest
}

// Reply is the outcome of a Request
type Reply struct {
	Generation uint64
	Response   *models.ChatResponse
	Err        error
}

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	client  ChatClient
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.Metrics

	mode           models.Mode
	turns          []models.Turn
	conversationID int64
	hasID          bool
	pending        bool
	lastErr        string
	generation     uint64
}

// Option configures a Session
type Option func(*Session)

// WithClock overrides the turn timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for state transitions
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records submissions and discarded replies on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithMode sets the initial chat mode
func WithMode(mode models.Mode) Option {
	return func(s *Session) {
		if _, ok := models.ParseMode(string(mode)); ok {
			s.mode = mode
		}
	}
}

// WithConversationID resumes an existing backend conversation
func WithConversationID(id int64) Option {
	return func(s *Session) {
		if id != 0 {
			s.conversationID = id
			s.hasID = true
		}
	}
}

// New creates an idle session with an empty transcript
func New(client ChatClient, opts ...Option) *Session {
	s := &Session{
		client: client,
		now:    time.Now,
		log:    zap.NewNop(),
		mode:   models.DefaultMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin moves the session to awaiting_reply and appends the user turn.
// It returns false, changing nothing, when text is blank or a reply is pending.
func (s *Session) Begin(text string) (Request, bool) {
	if strings.TrimSpace(text) == "" {
		return Request{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		s.log.Debug("submission ignored while pending")
		return Request{}, false
	}

	s.turns = append(s.turns, models.NewTurn(models.RoleUser, text, s.now()))
	s.pending = true
	s.lastErr = ""

	req := Request{
		Generation: s.generation,
		Chat: models.ChatRequest{
			Message: text,
			Mode:    s.mode,
		},
	}
	if s.hasID {
		id := s.conversationID
		req.Chat.ConversationID = &id
	}

	s.metrics.Submitted("chat")
	s.log.Debug("chat turn begun",
		zap.Uint64("generation", req.Generation),
		zap.String("mode", string(s.mode)),
		zap.Int("turns", len(s.turns)),
	)
	return req, true
}

// Do performs the round trip for req. It does not touch session state.
func (s *Session) Do(ctx context.Context, req Request) Reply {
	resp, err := s.client.Chat(ctx, req.Chat)
	if err == nil && resp == nil {
		err = apierrors.ErrInvalidResponse
	}
	return Reply{Generation: req.Generation, Response: resp, Err: err}
}

// Apply folds a reply into the session. A reply from an earlier generation
// is discarded and Apply returns false.
func (s *Session) Apply(r Reply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Generation != s.generation {
		s.metrics.Discarded("chat")
		s.log.Debug("stale chat reply discarded",
			zap.Uint64("reply_generation", r.Generation),
			zap.Uint64("generation", s.generation),
		)
		return false
	}

	s.pending = false

	if r.Err == nil && r.Response == nil {
		r.Err = apierrors.ErrInvalidResponse
	}
	if r.Err != nil {
		s.lastErr = apierrors.DisplayMessage(r.Err, FallbackError)
		s.log.Debug("chat turn failed", zap.Error(r.Err))
		return true
	}

	if !s.hasID && r.Response.ConversationID != 0 {
		s.conversationID = r.Response.ConversationID
		s.hasID = true
		s.log.Debug("conversation id assigned", zap.Int64("conversation_id", s.conversationID))
	}
	s.turns = append(s.turns, models.NewTurn(models.RoleAssistant, r.Response.Answer, s.now()))
	return true
}

// Send runs Begin, Do and Apply in sequence
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return apierrors.ErrEmptyMessage
	}
	req, ok := s.Begin(text)
	if !ok {
		return apierrors.ErrRequestPending
	}
	reply := s.Do(ctx, req)
	s.Apply(reply)
	return reply.Err
}

// Reset starts a new conversation. Replies still in flight are discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	s.conversationID = 0
	s.hasID = false
	s.pending = false
	s.lastErr = ""
	s.generation++
	s.log.Debug("session reset", zap.Uint64("generation", s.generation))
}

// SetMode changes the mode sent with subsequent turns
func (s *Session) SetMode(mode models.Mode) error {
	if _, ok := models.ParseMode(string(mode)); !ok {
		return apierrors.ErrUnknownMode
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// Mode returns the current chat mode
func (s *Session) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Turns returns a copy of the transcript
func (s *Session) Turns() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// ConversationID returns the backend conversation id and whether one is set
func (s *Session) ConversationID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID, s.hasID
}

// Pending reports whether a reply is outstanding
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// LastError returns the message of the last failed turn, or ""
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.pending:
		return StateAwaitingReply
	case s.lastErr != "":
		return StateError
	default:
		return StateIdle
	}
}
