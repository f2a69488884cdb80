package models

import "encoding/json"

// SessionStatusDoneQueued is the terminal status pushed when a session has
// finished recording and is queued for finalization.
const SessionStatusDoneQueued = "done_queued"

// SourceVoice is the default session source type. Display ordering for voice
// sessions uses the externally supplied ordering id instead of timestamps.
const SourceVoice = "voice"

// Session is the state of one voice session.
type Session struct {
	ID         string
	Name       string
	Source     string
	OrderingID string
	IsActive   bool
	ToFinalize bool

	// DoneAt and UpdatedAt are epoch seconds, matching message timestamps.
	DoneAt    float64
	UpdatedAt float64
}

// SessionPatch is a partial update to session state, shallow-merged on
// session_update events.
type SessionPatch struct {
	Name       *string
	Source     *string
	OrderingID *string
	IsActive   *bool
	ToFinalize *bool
	DoneAt     *float64
	UpdatedAt  *float64
}

// Apply shallow-merges the patch onto a session.
func (p SessionPatch) Apply(s *Session) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Source != nil {
		s.Source = *p.Source
	}
	if p.OrderingID != nil {
		s.OrderingID = *p.OrderingID
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
	if p.ToFinalize != nil {
		s.ToFinalize = *p.ToFinalize
	}
	if p.DoneAt != nil {
		s.DoneAt = *p.DoneAt
	}
	if p.UpdatedAt != nil {
		s.UpdatedAt = *p.UpdatedAt
	}
}

type wireSession struct {
	ID         json.RawMessage `json:"id"`
	Name       *string         `json:"name"`
	Source     *string         `json:"source"`
	OrderingID json.RawMessage `json:"ordering_id"`
	IsActive   *bool           `json:"is_active"`
	ToFinalize *bool           `json:"to_finalize"`
	DoneAt     json.RawMessage `json:"done_at"`
	UpdatedAt  json.RawMessage `json:"updated_at"`
}

// DecodeSession normalizes a full session record.
func DecodeSession(data []byte) (Session, error) {
	var w wireSession
	if err := json.Unmarshal(data, &w); err != nil {
		return Session{}, err
	}
	s := Session{ID: rawString(w.ID)}
	w.patch().Apply(&s)
	return s, nil
}

// DecodeSessionPatch normalizes a partial session update.
func DecodeSessionPatch(data []byte) (SessionPatch, error) {
	var w wireSession
	if err := json.Unmarshal(data, &w); err != nil {
		return SessionPatch{}, err
	}
	return w.patch(), nil
}

func (w wireSession) patch() SessionPatch {
	p := SessionPatch{
		Name:       w.Name,
		Source:     w.Source,
		IsActive:   w.IsActive,
		ToFinalize: w.ToFinalize,
	}
	if w.OrderingID != nil {
		id := rawString(w.OrderingID)
		p.OrderingID = &id
	}
	if w.DoneAt != nil {
		v := rawFloat(w.DoneAt)
		p.DoneAt = &v
	}
	if w.UpdatedAt != nil {
		v := rawFloat(w.UpdatedAt)
		p.UpdatedAt = &v
	}
	return p
}
