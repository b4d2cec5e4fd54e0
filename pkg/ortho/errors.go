package ortho

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds carried by [Error]. Match them with errors.Is.
var (
	// ErrInvalidInput reports a connection or port that references a box
	// that does not exist.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedGraph reports a routing graph that violates its structural
	// rules, for example a node vertex adjacent to something other than a
	// port.
	ErrMalformedGraph = errors.New("malformed routing graph")

	// ErrRouteNotFound is returned when the search from a source exhausts
	// the graph before reaching every requested target.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMissingRoute is returned when a connection has no abstract route.
	ErrMissingRoute = errors.New("missing route for connection")

	// ErrMalformedRoute reports a path that does not follow the
	// port (bend)* port shape.
	ErrMalformedRoute = errors.New("malformed route")

	// ErrConnectorNotFound is returned when a leg endpoint has no connector
	// in its channel.
	ErrConnectorNotFound = errors.New("channel connector not found")

	// ErrSizeMismatch reports slices whose lengths disagree with the graph.
	ErrSizeMismatch = errors.New("size mismatch")
)

// Error describes an internal routing failure together with the route
// endpoints and the channel involved, when known. Fields that do not apply
// are -1.
type Error struct {
	Kind    error
	From    int
	To      int
	Channel int
	Msg     string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.From >= 0 || e.To >= 0 {
		fmt.Fprintf(&b, " (route %d-%d)", e.From, e.To)
	}
	if e.Channel >= 0 {
		fmt.Fprintf(&b, " (channel %d)", e.Channel)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// Unwrap returns the sentinel kind so errors.Is matches it.
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, from, to, channel int, format string, args ...any) *Error {
	return &Error{Kind: kind, From: from, To: to, Channel: channel, Msg: fmt.Sprintf(format, args...)}
}

// graphError is a shorthand for errors without a route context.
func graphError(kind error, format string, args ...any) *Error {
	return newError(kind, -1, -1, -1, format, args...)
}
