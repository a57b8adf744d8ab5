package models

import "time"

// Session is the undirected pairing between two connections during an active chat.
// It lives only while both endpoints are connected and neither has skipped.
type Session struct {
	// ID is a uuid used for logging only.
	ID string
	// A and B are connection ids. The order carries no meaning.
	A string
	B string
	// CreatedAt is the moment the pairing was made.
	CreatedAt time.Time
}

// Partner returns the other side of the session, or "" if connectionID is not a member.
func (s *Session) Partner(connectionID string) string {
	switch connectionID {
	case s.A:
		return s.B
	case s.B:
		return s.A
	}
	return ""
}

// Has reports whether connectionID is one of the two endpoints.
func (s *Session) Has(connectionID string) bool {
	return s.A == connectionID || s.B == connectionID
}
