package attachment

import (
	"errors"
)

// Kind classifies attachment failures.
type Kind string

const (
	KindInvalidTemplate Kind = "invalid_template"
	KindDecode          Kind = "decode"
	KindPersist         Kind = "persist"
	KindCleanup         Kind = "cleanup"
	KindDerivation      Kind = "derivation"
)

// Fatal reports whether a failure of this kind must abort the record save.
func (k Kind) Fatal() bool {
	switch k {
	case KindInvalidTemplate, KindDecode, KindPersist:
		return true
	default:
		return false
	}
}

// Sentinels for errors.Is matching on the kind of an *Error.
var (
	ErrInvalidTemplate = &Error{Kind: KindInvalidTemplate}
	ErrDecode          = &Error{Kind: KindDecode}
	ErrPersist         = &Error{Kind: KindPersist}
	ErrCleanup         = &Error{Kind: KindCleanup}
	ErrDerivation      = &Error{Kind: KindDerivation}
)

// Error is a failure raised while moving an artifact through its lifecycle.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Path == "" && t.Err == nil
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Outcome is the result of a lifecycle step that may fail fatally or only advise.
// Advisories never undo a committed artifact.
type Outcome struct {
	Fatal      error
	Advisories []error
}

// Err returns the fatal error, if any.
func (o Outcome) Err() error {
	return o.Fatal
}

// OK reports whether the step completed without any failure.
func (o Outcome) OK() bool {
	return o.Fatal == nil && len(o.Advisories) == 0
}

func (o *Outcome) advise(err error) {
	if err != nil {
		o.Advisories = append(o.Advisories, err)
	}
}

func (o *Outcome) merge(other Outcome) {
	if o.Fatal == nil {
		o.Fatal = other.Fatal
	}
	o.Advisories = append(o.Advisories, other.Advisories...)
}
