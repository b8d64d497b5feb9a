package bridge

import (
	"context"

	"github.com/dgnsrekt/taborder/internal/host"
)

var _ host.Host = (*Bridge)(nil)

type windowTypes struct {
	WindowTypes []host.WindowType `json:"windowTypes,omitempty"`
}

func typesOf(t host.WindowType) windowTypes {
	if t == "" {
		return windowTypes{}
	}
	return windowTypes{WindowTypes: []host.WindowType{t}}
}

func (b *Bridge) QueryTabs(ctx context.Context, windowID int) ([]host.Tab, error) {
	var tabs []host.Tab
	err := b.call(ctx, "tabs.query", struct {
		WindowID int `json:"windowId"`
	}{windowID}, &tabs)
	return tabs, err
}

func (b *Bridge) ActiveTabs(ctx context.Context, windowID int) ([]host.Tab, error) {
	var tabs []host.Tab
	err := b.call(ctx, "tabs.query", struct {
		WindowID int  `json:"windowId"`
		Active   bool `json:"active"`
	}{windowID, true}, &tabs)
	return tabs, err
}

func (b *Bridge) GetTab(ctx context.Context, tabID int) (host.Tab, error) {
	var tab host.Tab
	err := b.call(ctx, "tabs.get", struct {
		TabID int `json:"tabId"`
	}{tabID}, &tab)
	return tab, err
}

func (b *Bridge) GetWindow(ctx context.Context, windowID int) (host.Window, error) {
	var w host.Window
	err := b.call(ctx, "windows.get", struct {
		WindowID int `json:"windowId"`
	}{windowID}, &w)
	return w, err
}

func (b *Bridge) ListWindows(ctx context.Context, windowType host.WindowType) ([]host.Window, error) {
	var windows []host.Window
	err := b.call(ctx, "windows.getAll", typesOf(windowType), &windows)
	return windows, err
}

func (b *Bridge) LastFocusedWindow(ctx context.Context, windowType host.WindowType) (host.Window, error) {
	var w host.Window
	err := b.call(ctx, "windows.getLastFocused", typesOf(windowType), &w)
	return w, err
}

func (b *Bridge) MoveTab(ctx context.Context, tabID, index int) error {
	return b.call(ctx, "tabs.move", struct {
		TabID int `json:"tabId"`
		Index int `json:"index"`
	}{tabID, index}, nil)
}

func (b *Bridge) MoveTabToWindow(ctx context.Context, tabID, windowID, index int) error {
	return b.call(ctx, "tabs.move", struct {
		TabID    int `json:"tabId"`
		WindowID int `json:"windowId"`
		Index    int `json:"index"`
	}{tabID, windowID, index}, nil)
}

func (b *Bridge) ActivateTab(ctx context.Context, tabID int) error {
	return b.call(ctx, "tabs.update", struct {
		TabID  int  `json:"tabId"`
		Active bool `json:"active"`
	}{tabID, true}, nil)
}

func (b *Bridge) OpenOptionsPage(ctx context.Context) error {
	return b.call(ctx, "runtime.openOptionsPage", struct{}{}, nil)
}
