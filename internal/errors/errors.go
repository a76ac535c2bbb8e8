// Package errors keeps one import path for the error helpers used across the
// service. Matching goes through the standard library and annotation through
// pkg/errors, so every wrap carries a stack trace.
package errors

import (
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
)

func New(text string) error { return stderrors.New(text) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// Wrap prefixes err with message and records the caller's stack. A nil err stays nil.
func Wrap(err error, message string) error { return pkgerrors.Wrap(err, message) }

// WithStack records the caller's stack on err without changing its message.
func WithStack(err error) error { return pkgerrors.WithStack(err) }
