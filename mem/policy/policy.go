// Package policy turns allocation failures into a program-level decision.
//
// The containers never decide what a failure means; they return it. A caller
// picks a Policy at the call site and hands failures to it:
//
//	p := policy.Continue{Logger: logger}
//	if err := v.Push(x); err != nil {
//	    return p.Handle(err)
//	}
//
// Abort logs and terminates the process. Continue logs and returns a
// *Signal the caller can propagate and test for with IsContinuable.
package policy

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ExitCode is the status Abort terminates the process with.
const ExitCode = 70

// Policy decides the outcome of a failure.
type Policy interface {
	// Handle receives a non-nil failure. It either does not return (abort)
	// or returns the error the caller should propagate.
	Handle(err error) error
}

// Func adapts a function to Policy.
type Func func(err error) error

// Handle implements Policy.
func (f Func) Handle(err error) error { return f(err) }

// Abort logs the failure at error level and terminates the process.
type Abort struct {
	Logger *slog.Logger
	// Exit terminates the process. Defaults to os.Exit.
	Exit func(code int)
}

// Handle implements Policy.
func (p Abort) Handle(err error) error {
	if err == nil {
		return nil
	}
	logger(p.Logger).Error("allocation failure, aborting", "err", err)
	exit := p.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(ExitCode)
	return err
}

// Continue logs the failure at warn level and returns it wrapped in a
// *Signal so callers further up can tell it is safe to carry on.
type Continue struct {
	Logger *slog.Logger
}

// Handle implements Policy.
func (p Continue) Handle(err error) error {
	if err == nil {
		return nil
	}
	logger(p.Logger).Warn("allocation failure, continuing", "err", err)
	return &Signal{Err: err}
}

// Signal marks a failure the program chose to continue past.
type Signal struct {
	Err error
}

func (s *Signal) Error() string { return "continuable: " + s.Err.Error() }

func (s *Signal) Unwrap() error { return s.Err }

// IsContinuable reports whether err carries a *Signal.
func IsContinuable(err error) bool {
	var s *Signal
	return errors.As(err, &s)
}

// Parse returns the policy named by s ("abort" or "continue").
func Parse(s string, l *slog.Logger) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort":
		return Abort{Logger: l}, nil
	case "continue":
		return Continue{Logger: l}, nil
	default:
		return nil, fmt.Errorf("policy: unknown policy %q (want abort or continue)", s)
	}
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
