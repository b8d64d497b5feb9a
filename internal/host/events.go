package host

// Event is a lifecycle notification emitted by the host. EventName returns
// the wire name used by the bridge protocol.
type Event interface {
	EventName() string
}

const (
	EventSessionHello  = "session.hello"
	EventInstalled     = "runtime.onInstalled"
	EventWindowCreated = "windows.onCreated"
	EventWindowRemoved = "windows.onRemoved"
	EventTabCreated    = "tabs.onCreated"
	EventTabRemoved    = "tabs.onRemoved"
	EventTabDetached   = "tabs.onDetached"
	EventTabAttached   = "tabs.onAttached"
	EventTabMoved      = "tabs.onMoved"
	EventTabUpdated    = "tabs.onUpdated"
	EventTabActivated  = "tabs.onActivated"
)

// InstallReasonInstall is the Installed reason for a fresh install.
const InstallReasonInstall = "install"

// SessionStarted is sent once per shim connection. A session ID different from
// the previous one means the browser restarted and session state is stale.
type SessionStarted struct {
	SessionID string `json:"sessionId"`
}

type Installed struct {
	Reason string `json:"reason"`
}

type WindowCreated struct {
	Window Window `json:"window"`
}

type WindowRemoved struct {
	WindowID int        `json:"windowId"`
	Type     WindowType `json:"windowType"`
}

type TabCreated struct {
	Tab Tab `json:"tab"`
}

type TabRemoved struct {
	TabID         int  `json:"tabId"`
	WindowID      int  `json:"windowId"`
	WindowClosing bool `json:"isWindowClosing"`
}

type TabDetached struct {
	TabID       int `json:"tabId"`
	OldWindowID int `json:"oldWindowId"`
	OldPosition int `json:"oldPosition"`
}

type TabAttached struct {
	TabID       int `json:"tabId"`
	NewWindowID int `json:"newWindowId"`
	NewPosition int `json:"newPosition"`
}

type TabMoved struct {
	TabID     int `json:"tabId"`
	WindowID  int `json:"windowId"`
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

// TabChange lists the tab properties that changed; nil means unchanged.
type TabChange struct {
	Pinned *bool   `json:"pinned,omitempty"`
	URL    *string `json:"url,omitempty"`
}

type TabUpdated struct {
	TabID  int       `json:"tabId"`
	Change TabChange `json:"changeInfo"`
	Tab    Tab       `json:"tab"`
}

type TabActivated struct {
	TabID    int `json:"tabId"`
	WindowID int `json:"windowId"`
}

func (SessionStarted) EventName() string { return EventSessionHello }
func (Installed) EventName() string      { return EventInstalled }
func (WindowCreated) EventName() string  { return EventWindowCreated }
func (WindowRemoved) EventName() string  { return EventWindowRemoved }
func (TabCreated) EventName() string     { return EventTabCreated }
func (TabRemoved) EventName() string     { return EventTabRemoved }
func (TabDetached) EventName() string    { return EventTabDetached }
func (TabAttached) EventName() string    { return EventTabAttached }
func (TabMoved) EventName() string       { return EventTabMoved }
func (TabUpdated) EventName() string     { return EventTabUpdated }
func (TabActivated) EventName() string   { return EventTabActivated }
