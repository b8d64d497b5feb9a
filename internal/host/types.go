package host

import "context"

// WindowType is the kind of a browser window as reported by the host.
type WindowType string

const (
	WindowNormal WindowType = "normal"
	WindowPopup  WindowType = "popup"
)

// Window describes a top-level browser window.
type Window struct {
	ID   int        `json:"id"`
	Type WindowType `json:"type"`
}

// Tab mirrors the subset of the host's tab object the policy needs.
// Field names follow the extension API so the bridge shim can forward
// host objects untouched.
type Tab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	Index    int    `json:"index"`
	Pinned   bool   `json:"pinned"`
	Active   bool   `json:"active"`
	URL      string `json:"url,omitempty"`
}

// EndIndex asks MoveTabToWindow to append the tab after the last one.
const EndIndex = -1

// Host is the set of queries and commands the policy issues against the browser.
type Host interface {
	QueryTabs(ctx context.Context, windowID int) ([]Tab, error)
	ActiveTabs(ctx context.Context, windowID int) ([]Tab, error)
	GetTab(ctx context.Context, tabID int) (Tab, error)
	GetWindow(ctx context.Context, windowID int) (Window, error)
	ListWindows(ctx context.Context, windowType WindowType) ([]Window, error)
	LastFocusedWindow(ctx context.Context, windowType WindowType) (Window, error)

	MoveTab(ctx context.Context, tabID, index int) error
	MoveTabToWindow(ctx context.Context, tabID, windowID, index int) error
	ActivateTab(ctx context.Context, tabID int) error
	OpenOptionsPage(ctx context.Context) error
}
