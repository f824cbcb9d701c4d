package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCatalogLoaded MsgKind = iota
	MsgListReady
	MsgOpDone
	MsgSyncEvent
	MsgEventsClosed
	MsgExported
)

type listReady struct {
	list *models.WatchList
	err  error
}

type opResult struct {
	action string
	err    error
}

type exportResult struct {
	path string
	err  error
}

// catalogLoadedMsg is the constructor for [MsgCatalogLoaded]
func catalogLoadedMsg(err error) Msg {
	return Msg{kind: MsgCatalogLoaded, data: err}
}

// listReadyMsg is the constructor for [MsgListReady]
func listReadyMsg(list *models.WatchList, err error) Msg {
	return Msg{kind: MsgListReady, data: listReady{list: list, err: err}}
}

// opDoneMsg is the constructor for [MsgOpDone]
func opDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgOpDone, data: opResult{action: action, err: err}}
}

// syncEventMsg is the constructor for [MsgSyncEvent]
func syncEventMsg(event tasks.SyncEvent) Msg {
	return Msg{kind: MsgSyncEvent, data: event}
}

// eventsClosedMsg is the constructor for [MsgEventsClosed]
func eventsClosedMsg() Msg {
	return Msg{kind: MsgEventsClosed}
}

// exportedMsg is the constructor for [MsgExported]
func exportedMsg(path string, err error) Msg {
	return Msg{kind: MsgExported, data: exportResult{path: path, err: err}}
}
