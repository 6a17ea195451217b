package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind enumerates every failure the bot reports to a user.
type ErrorKind int

const (
	KindAuthentication ErrorKind = iota + 1
	KindUserNotFound
	KindInvalidRecord
	KindUnrecognizedCommand
	KindMalformedCommand
	KindInvalidScheduleTime
	KindMalformedUpstream
	KindUnrecognizedInbound
)

// Kinds lists all kinds in declaration order.
var Kinds = []ErrorKind{
	KindAuthentication,
	KindUserNotFound,
	KindInvalidRecord,
	KindUnrecognizedCommand,
	KindMalformedCommand,
	KindInvalidScheduleTime,
	KindMalformedUpstream,
	KindUnrecognizedInbound,
}

func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "AuthenticationError"
	case KindUserNotFound:
		return "UserNotFound"
	case KindInvalidRecord:
		return "InvalidRecord"
	case KindUnrecognizedCommand:
		return "UnrecognizedCommand"
	case KindMalformedCommand:
		return "MalformedCommand"
	case KindInvalidScheduleTime:
		return "InvalidScheduleTime"
	case KindMalformedUpstream:
		return "MalformedUpstreamResponse"
	case KindUnrecognizedInbound:
		return "NotARecognizedInboundMessage"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type for domain failures. Which payload fields
// are set depends on Kind.
type Error struct {
	Kind ErrorKind
	// ChatID is set for UserNotFound and InvalidRecord.
	ChatID int64
	// Command is set for UnrecognizedCommand and MalformedCommand.
	Command string
	// Reason is a human-readable detail, e.g. the portal's failure message.
	Reason string
	// Violations is set for InvalidRecord and MalformedUpstreamResponse.
	Violations []FieldViolation
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.ChatID != 0 {
		fmt.Fprintf(&b, " chat=%d", e.ChatID)
	}
	if e.Command != "" {
		fmt.Fprintf(&b, " command=%q", e.Command)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Violations) > 0 {
		b.WriteString(": ")
		b.WriteString(formatViolations(e.Violations))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: K}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries a domain error of kind k.
func IsKind(err error, k ErrorKind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// UserNotFound reports that chatID has no record.
func UserNotFound(chatID int64) *Error {
	return &Error{Kind: KindUserNotFound, ChatID: chatID}
}

// InvalidRecord reports a stored or proposed record that fails the schema.
func InvalidRecord(chatID int64, vs []FieldViolation, cause error) *Error {
	return &Error{Kind: KindInvalidRecord, ChatID: chatID, Violations: vs, Err: cause}
}

// AuthenticationFailed reports a rejected portal login; reason is shown to the user.
func AuthenticationFailed(reason string, cause error) *Error {
	return &Error{Kind: KindAuthentication, Reason: reason, Err: cause}
}

// MalformedUpstream reports a portal or geocoder response of unexpected shape.
func MalformedUpstream(reason string, vs []FieldViolation, cause error) *Error {
	return &Error{Kind: KindMalformedUpstream, Reason: reason, Violations: vs, Err: cause}
}

// Describe renders err as the text sent back to the chat.
func Describe(err error) string {
	var de *Error
	if !errors.As(err, &de) {
		return "Internal error, please try again later."
	}
	switch de.Kind {
	case KindAuthentication:
		if de.Reason != "" {
			return "Login failed: " + de.Reason
		}
		return "Login failed."
	case KindUserNotFound:
		return "You are not registered. Use /login <username> <password> first."
	case KindInvalidRecord:
		return "Your stored settings are corrupted: " + formatViolations(de.Violations) +
			". Please /login again."
	case KindUnrecognizedCommand:
		return fmt.Sprintf("Unrecognized command %q.", de.Command)
	case KindMalformedCommand:
		return fmt.Sprintf("Malformed command %q: %s", de.Command, de.Reason)
	case KindInvalidScheduleTime:
		return "Invalid check-in time: " + de.Reason
	case KindMalformedUpstream:
		return "Upstream service returned an unexpected response: " + de.Reason
	case KindUnrecognizedInbound:
		return "Unsupported message."
	}
	return "Internal error, please try again later."
}
