package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers get structured context
// instead of a free-text stage message.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAudioExtraction
	KindNoSegments
	KindPersistence
	KindWindow
)

func (k ErrorKind) String() string {
	switch k {
	case KindAudioExtraction:
		return "AudioExtractionFailed"
	case KindNoSegments:
		return "NoSegmentsProduced"
	case KindPersistence:
		return "PersistenceFailed"
	case KindWindow:
		return "WindowFailed"
	default:
		return "Unknown"
	}
}

// Error is a pipeline failure with a kind, an optional window index, and the
// underlying cause. Window-kind errors are recovered locally and never fail
// the job; every other kind is fatal.
type Error struct {
	Kind    ErrorKind
	Window  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Kind == KindWindow {
		msg = fmt.Sprintf("[%s] window %d: %s", e.Kind, e.Window, e.Message)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func windowError(index int, cause error) *Error {
	return &Error{Kind: KindWindow, Window: index, Message: "transcription window skipped", Cause: cause}
}

// KindOf extracts the error kind, defaulting to KindUnknown for foreign
// errors.
func KindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnknown
}
