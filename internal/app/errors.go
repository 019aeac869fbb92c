package app

import "errors"

// ErrStationNotFound est renvoyé quand aucun capteur n'est enregistré pour la station.
var ErrStationNotFound = errors.New("station not found")

// FetchErrorKind classe l'échec d'un refresh. Tous les types sont traités de la même
// façon par le coordinateur (pas de retry, on attend le prochain tick).
type FetchErrorKind string

const (
	FetchTimeout          FetchErrorKind = "timeout"
	FetchTransport        FetchErrorKind = "transport"
	FetchMalformedPayload FetchErrorKind = "malformed_payload"
	FetchUpstreamError    FetchErrorKind = "upstream_error"
)

// FetchError porte un code stable, exposé dans les events et l'API.
type FetchError struct {
	Kind    FetchErrorKind
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind) + ": " + e.Message
	}
	if e.Message == "" {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchErrorKindOf renvoie le type d'un échec de fetch, "" si err n'en est pas un.
func FetchErrorKindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
