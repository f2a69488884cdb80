package syncer

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/strato-space/voicesync/internal/logging"
	"github.com/strato-space/voicesync/internal/models"
	"github.com/strato-space/voicesync/internal/projection"
)

// Syncer owns the canonical message list and derived groups for one session.
// All mutation is serialized; consumers only read. Construct one per session
// view and inject it wherever deltas arrive; there is no ambient global.
type Syncer struct {
	mu       sync.Mutex
	session  models.Session
	messages []models.Message
	groups   []projection.Group
	onChange func()
	logger   zerolog.Logger
}

// New creates a Syncer for the given session.
func New(session models.Session) *Syncer {
	return &Syncer{
		session: session,
		logger:  logging.Component("syncer").With().Str("session_id", session.ID).Logger(),
	}
}

// OnChange registers a callback invoked after every projection change. The
// callback runs outside the Syncer lock.
func (s *Syncer) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// ApplyDelta upserts one message delta and recomputes the projection.
func (s *Syncer) ApplyDelta(patch models.MessagePatch) {
	s.mu.Lock()
	s.messages = Upsert(s.messages, patch)
	s.recompute()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// HasMessage reports whether a message with the patch's raw ids is already
// present in the canonical list.
func (s *Syncer) HasMessage(patch models.MessagePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HasMessage(s.messages, patch)
}

// ReplaceAll commits a rehydrated canonical state, replacing the in-memory
// list wholesale. A rehydrate smaller than the current list is committed as
// authoritative; the shrink is logged so backend pagination bugs surface.
func (s *Syncer) ReplaceAll(session models.Session, patches []models.MessagePatch) {
	s.mu.Lock()
	if len(patches) < len(s.messages) {
		s.logger.Warn().
			Int("in_memory", len(s.messages)).
			Int("fetched", len(patches)).
			Msg("rehydrate returned fewer messages than in memory, committing as authoritative")
	}

	s.session = session
	s.messages = nil
	for _, p := range patches {
		s.messages = Upsert(s.messages, p)
	}
	s.recompute()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// ApplySessionPatch shallow-merges partial session fields. The message
// projection is not recomputed; only session metadata changed.
func (s *Syncer) ApplySessionPatch(patch models.SessionPatch) {
	s.mu.Lock()
	patch.Apply(&s.session)
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// MarkStatus applies a terminal session status: done_queued flips the
// session to finalized/queued and stamps both timestamps.
func (s *Syncer) MarkStatus(status string, timestamp float64) {
	if status != models.SessionStatusDoneQueued {
		s.logger.Debug().Str("status", status).Msg("ignoring unknown session status")
		return
	}

	s.mu.Lock()
	s.session.IsActive = false
	s.session.ToFinalize = true
	s.session.DoneAt = timestamp
	s.session.UpdatedAt = timestamp
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Messages returns a copy of the canonical message list.
func (s *Syncer) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Groups returns a copy of the derived group list.
func (s *Syncer) Groups() []projection.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]projection.Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Session returns the current session state.
func (s *Syncer) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SessionID returns the id of the session this Syncer owns.
func (s *Syncer) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.ID
}

func (s *Syncer) recompute() {
	s.groups = projection.Transform(s.messages)
}
