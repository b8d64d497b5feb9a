package host

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeDragInProgress = "TAB_DRAG_IN_PROGRESS"
	CodeNotFound       = "NOT_FOUND"
	CodeUnavailable    = "BRIDGE_UNAVAILABLE"
	CodeTimeout        = "HOST_TIMEOUT"
	CodeFailure        = "HOST_FAILURE"
)

// Error is a typed host failure. Code is stable across host versions;
// Message carries whatever text the host produced.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a coded host error.
func NewError(code, msg string, cause error) error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// CodeOf returns the code of the first host.Error in err's chain, or "".
func CodeOf(err error) string {
	var he *Error
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}

// IsDragInProgress reports whether the host refused an edit because the user
// is dragging a tab.
func IsDragInProgress(err error) bool {
	return CodeOf(err) == CodeDragInProgress
}

// IsNotFound reports whether a referenced tab or window no longer exists.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// Known host message fragments. The host does not expose error codes, so the
// bridge maps these onto stable codes once at the boundary.
var messageCodes = []struct {
	fragment string
	code     string
}{
	{"user may be dragging a tab", CodeDragInProgress},
	{"tabs cannot be edited right now", CodeDragInProgress},
	{"no tab with id", CodeNotFound},
	{"no window with id", CodeNotFound},
}

// ClassifyMessage maps a raw host error message onto an error code.
func ClassifyMessage(message string) string {
	lower := strings.ToLower(message)
	for _, mc := range messageCodes {
		if strings.Contains(lower, mc.fragment) {
			return mc.code
		}
	}
	return CodeFailure
}
