package tasks

import (
	"fmt"

	"github.com/desertthunder/watchlist/internal/models"
)

// SyncEvent reports a change to the synchronizer's list.
//
// List is a copy of the local list after the change, so it reflects optimistic state.
type SyncEvent struct {
	Kind    EventKind
	List    models.WatchList
	ItemID  models.ID // Set for item events and their rollbacks
	Message string    // Human-readable message for display
	Err     error     // Set for [RolledBack]
}

// EventKind enumerates synchronizer state changes
type EventKind int

const (
	ListCreated EventKind = iota
	ListAttached
	ListRenamed
	ItemAdded
	ItemRemoved
	RolledBack
)

func (k EventKind) String() string {
	switch k {
	case ListCreated:
		return "list_created"
	case ListAttached:
		return "list_attached"
	case ListRenamed:
		return "list_renamed"
	case ItemAdded:
		return "item_added"
	case ItemRemoved:
		return "item_removed"
	case RolledBack:
		return "rolled_back"
	default:
		return ""
	}
}

func listCreatedEvent(list models.WatchList) SyncEvent {
	return SyncEvent{
		Kind:    ListCreated,
		List:    list,
		Message: fmt.Sprintf("List created: %s (ID: %d, %d items)", list.Name, list.ID, len(list.Items)),
	}
}

func listAttachedEvent(list models.WatchList) SyncEvent {
	return SyncEvent{
		Kind:    ListAttached,
		List:    list,
		Message: fmt.Sprintf("Using list: %s (ID: %d)", list.Name, list.ID),
	}
}

func listRenamedEvent(list models.WatchList) SyncEvent {
	return SyncEvent{
		Kind:    ListRenamed,
		List:    list,
		Message: fmt.Sprintf("Renamed list to %q", list.Name),
	}
}

func itemAddedEvent(list models.WatchList, id models.ID) SyncEvent {
	return SyncEvent{
		Kind:    ItemAdded,
		List:    list,
		ItemID:  id,
		Message: fmt.Sprintf("Added item %d", id),
	}
}

func itemRemovedEvent(list models.WatchList, id models.ID) SyncEvent {
	return SyncEvent{
		Kind:    ItemRemoved,
		List:    list,
		ItemID:  id,
		Message: fmt.Sprintf("Removed item %d", id),
	}
}

func rolledBackEvent(list models.WatchList, id models.ID, action string, err error) SyncEvent {
	return SyncEvent{
		Kind:    RolledBack,
		List:    list,
		ItemID:  id,
		Message: fmt.Sprintf("✗ %s failed, local list restored: %v", action, err),
		Err:     err,
	}
}
