// Package ui implements the interactive watchlist session using bubbletea's Elm architecture.
//
// The screen has three panes that take focus in turn (tab):
//  1. [SearchFocus] : type a title and press enter to search the cached catalog
//  2. [ResultsFocus] : matching titles; enter adds the selected one to the list
//  3. [ListFocus] : the session list; d removes the selected entry
//
// r opens [RenameFocus] to rename the list and e exports it to a file. The first non-empty search creates
// (or with auto-create, seeds) the session list.
//
// Every catalog and synchronizer call runs inside a [tea.Cmd] so the update loop never waits on the store.
// Synchronizer state changes arrive on the events channel and are turned into messages, refreshing the
// list pane as soon as an optimistic change or a rollback happens.
package ui
