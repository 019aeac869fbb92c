package domain

import "time"

// RefreshState est remplacé en bloc à chaque tentative (jamais modifié sur place).
type RefreshState struct {
	LastPayload   *GuidePayload
	LastSuccess   bool
	LastError     string
	LastAttempt   time.Time
	LastSuccessAt time.Time
}

// Succeeded construit l'état qui suit un refresh réussi.
func (s *RefreshState) Succeeded(payload GuidePayload, at time.Time) *RefreshState {
	return &RefreshState{
		LastPayload:   &payload,
		LastSuccess:   true,
		LastAttempt:   at,
		LastSuccessAt: at,
	}
}

// Failed construit l'état qui suit un échec: le dernier guide valide est conservé.
func (s *RefreshState) Failed(err error, at time.Time) *RefreshState {
	next := &RefreshState{LastSuccess: false, LastAttempt: at}
	if s != nil {
		next.LastPayload = s.LastPayload
		next.LastSuccessAt = s.LastSuccessAt
	}
	if err != nil {
		next.LastError = err.Error()
	}
	return next
}
