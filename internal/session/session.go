// Package session carries the caller identity and the time source through
// request handling. Nothing here is global: a Session travels in the request
// context and a Clock is injected where the current time is needed.
package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNoSession is returned when an operation needs a user and none is set.
var ErrNoSession = errors.New("no active session")

// Session identifies the user a request acts for. Token is the opaque bearer
// credential forwarded by the upstream auth proxy.
type Session struct {
	UserID string
	Token  string
}

func (s Session) Valid() bool {
	return strings.TrimSpace(s.UserID) != ""
}

type ctxKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || !s.Valid() {
		return Session{}, false
	}
	return s, true
}

// Require returns the session stored in ctx or ErrNoSession.
func Require(ctx context.Context) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Clock abstracts the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
