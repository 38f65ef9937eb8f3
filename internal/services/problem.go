package services

import (
	"errors"

	"makhana/internal/domain"
)

// Problem is a failure whose message is safe to show the client as is. Kind is
// one of the domain sentinels and decides the HTTP status where a route cares.
type Problem struct {
	Msg  string
	Kind error
	Err  error
}

func (p *Problem) Error() string {
	if p.Err != nil {
		return p.Msg + ": " + p.Err.Error()
	}
	return p.Msg
}

func (p *Problem) Unwrap() []error {
	errs := []error{p.Kind}
	if p.Err != nil {
		errs = append(errs, p.Err)
	}
	return errs
}

// ErrInternal marks failures the client cannot fix; their Msg is generic.
var ErrInternal = errors.New("internal error")

func invalid(msg string) error { return &Problem{Msg: msg, Kind: domain.ErrInvalidInput} }

func notFound(msg string) error { return &Problem{Msg: msg, Kind: domain.ErrNotFound} }

func wrapProblem(kind error, msg string, err error) error {
	return &Problem{Msg: msg, Kind: kind, Err: err}
}

// Message returns the client-facing text of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var p *Problem
	if errors.As(err, &p) {
		return p.Msg
	}
	return fallback
}
