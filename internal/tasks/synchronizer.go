package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
)

const (
	DefaultListName = "My Movie List"
	DefaultTimeout  = 10 * time.Second
	queueSize       = 32
)

// State is the synchronizer lifecycle. Active is terminal for a session.
type State int

const (
	Uninitialized State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	default:
		return ""
	}
}

// SyncOpts configures a [Synchronizer].
type SyncOpts struct {
	// AutoCreateOnSearch seeds a new list with every result of the first non-empty search.
	AutoCreateOnSearch bool
	DefaultListName    string
	// Timeout bounds each store call. Defaults to [DefaultTimeout].
	Timeout time.Duration
	Logger  *log.Logger
	// Events, when set, receives state changes. Sends never block; events are dropped when the channel is full.
	Events chan<- SyncEvent
}

// Synchronizer owns a session's single watchlist and mirrors every mutation to the list store.
//
// Mutations apply locally first. When the store rejects the write the local list is restored to exactly
// what it was before the call and the error wraps [shared.ErrSyncFailed].
type Synchronizer struct {
	store   ListStore
	catalog *CatalogCache
	opts    SyncOpts
	logger  *log.Logger
	queue   *opQueue

	mu    sync.RWMutex
	state State
	list  models.WatchList
}

func NewSynchronizer(store ListStore, catalog *CatalogCache, opts SyncOpts) *Synchronizer {
	if strings.TrimSpace(opts.DefaultListName) == "" {
		opts.DefaultListName = DefaultListName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	return &Synchronizer{
		store:   store,
		catalog: catalog,
		opts:    opts,
		logger:  logger,
		queue:   newOpQueue(queueSize),
	}
}

// Close waits for queued operations to finish. Later calls fail with [shared.ErrSyncClosed].
func (s *Synchronizer) Close() {
	s.queue.close()
}

// State reports whether the session list exists yet.
func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns a copy of the local list, including any write still in flight.
func (s *Synchronizer) Snapshot() (models.WatchList, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Active {
		return models.WatchList{}, false
	}
	return s.list.Clone(), true
}

// EnsureList creates the session list on first use and returns the existing list afterwards without touching the store.
func (s *Synchronizer) EnsureList(ctx context.Context) (models.WatchList, error) {
	var list models.WatchList
	err := s.queue.do(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.ensure(ctx, nil)
		return err
	})
	return list, err
}

// MaterializeFromSearch reacts to a search result. Empty results do nothing and return nil.
//
// With AutoCreateOnSearch the first call creates the list already holding every result id. Otherwise it
// behaves like [Synchronizer.EnsureList]. An active list is returned unchanged.
func (s *Synchronizer) MaterializeFromSearch(ctx context.Context, results []models.CatalogItem) (*models.WatchList, error) {
	if len(results) == 0 {
		return nil, nil
	}

	var list models.WatchList
	err := s.queue.do(ctx, func(ctx context.Context) error {
		var seed []models.ID
		if s.opts.AutoCreateOnSearch {
			seed = models.UniqueIDs(results)
		}

		var err error
		list, err = s.ensure(ctx, seed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Attach adopts a list that already exists in the store as the session list.
func (s *Synchronizer) Attach(ctx context.Context, id models.ID) (models.WatchList, error) {
	var list models.WatchList
	err := s.queue.do(ctx, func(ctx context.Context) error {
		if current, ok := s.Snapshot(); ok {
			if current.ID == id {
				list = current
				return nil
			}
			return fmt.Errorf("%w: session already uses list %d", shared.ErrListAlreadyActive, current.ID)
		}

		callCtx, cancel := s.callContext(ctx)
		defer cancel()

		lists, err := s.store.GetLists(callCtx)
		if err != nil {
			return fmt.Errorf("%w: fetch lists: %v", shared.ErrSyncFailed, err)
		}

		idx := slices.IndexFunc(lists, func(l models.WatchList) bool { return l.ID == id })
		if idx < 0 {
			return fmt.Errorf("%w: %d", shared.ErrListNotFound, id)
		}

		found := lists[idx].Clone()
		if models.HasDuplicates(found.Items) {
			s.logger.Warn("dropping repeated items from stored list", "list_id", found.ID, "items", found.Items)
		}
		found.Normalize()
		s.activate(found)
		list = found.Clone()

		s.logger.Info("attached list", "list_id", found.ID, "items", len(found.Items))
		s.emit(listAttachedEvent(found.Clone()))
		return nil
	})
	return list, err
}

// Rename sets the list name. A failed store write restores the previous name.
func (s *Synchronizer) Rename(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: list name cannot be blank", shared.ErrInvalidInput)
	}

	return s.queue.do(ctx, func(ctx context.Context) error {
		prev, ok := s.Snapshot()
		if !ok {
			return noActiveList()
		}

		next := s.mutate(func(l *models.WatchList) { l.Name = name })
		s.emit(listRenamedEvent(next))

		err := s.write(ctx, func(ctx context.Context) error {
			return s.store.RenameList(ctx, prev.ID, name)
		})
		if err != nil {
			restored := s.mutate(func(l *models.WatchList) { l.Name = prev.Name })
			s.logger.Warn("rename rolled back", "list_id", prev.ID, "name", name, "error", err)
			s.emit(rolledBackEvent(restored, 0, "rename", err))
			return fmt.Errorf("%w: rename list %d: %v", shared.ErrSyncFailed, prev.ID, err)
		}

		s.logger.Debug("renamed list", "list_id", prev.ID, "name", name)
		return nil
	})
}

// AddItem appends id to the list. The catalog must be loaded and id must not already be present.
func (s *Synchronizer) AddItem(ctx context.Context, id models.ID) error {
	return s.queue.do(ctx, func(ctx context.Context) error {
		prev, ok := s.Snapshot()
		if !ok {
			return noActiveList()
		}
		if s.catalog == nil || s.catalog.Len() == 0 {
			return fmt.Errorf("%w: catalog has not been loaded", shared.ErrCatalogNotReady)
		}
		if prev.Contains(id) {
			return fmt.Errorf("%w: item %d is already in %q", shared.ErrDuplicateItem, id, prev.Name)
		}

		items := append(slices.Clone(prev.Items), id)
		return s.replaceItems(ctx, prev, items, id, "add", itemAddedEvent)
	})
}

// RemoveItem deletes id from the list. Removing an absent id succeeds without a store write.
func (s *Synchronizer) RemoveItem(ctx context.Context, id models.ID) error {
	return s.queue.do(ctx, func(ctx context.Context) error {
		prev, ok := s.Snapshot()
		if !ok {
			return noActiveList()
		}
		if !prev.Contains(id) {
			return nil
		}

		return s.replaceItems(ctx, prev, prev.Without(id), id, "remove", itemRemovedEvent)
	})
}

// replaceItems applies items locally, writes them, and restores prev.Items on failure.
func (s *Synchronizer) replaceItems(
	ctx context.Context, prev models.WatchList, items []models.ID, id models.ID, action string,
	event func(models.WatchList, models.ID) SyncEvent,
) error {
	next := s.mutate(func(l *models.WatchList) { l.Items = slices.Clone(items) })
	s.emit(event(next, id))

	err := s.write(ctx, func(ctx context.Context) error {
		return s.store.SetListItems(ctx, prev.ID, items)
	})
	if err != nil {
		restored := s.mutate(func(l *models.WatchList) { l.Items = slices.Clone(prev.Items) })
		s.logger.Warn(action+" rolled back", "list_id", prev.ID, "item_id", id, "error", err)
		s.emit(rolledBackEvent(restored, id, action, err))
		return fmt.Errorf("%w: %s item %d: %v", shared.ErrSyncFailed, action, id, err)
	}

	s.logger.Debug(action+" item", "list_id", prev.ID, "item_id", id, "items", len(items))
	return nil
}

// ensure runs on the queue worker.
func (s *Synchronizer) ensure(ctx context.Context, seed []models.ID) (models.WatchList, error) {
	if list, ok := s.Snapshot(); ok {
		return list, nil
	}

	items := slices.Clone(seed)
	if items == nil {
		items = []models.ID{}
	}
	name := s.opts.DefaultListName

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	created, err := s.store.CreateList(callCtx, name, items)
	if err != nil {
		s.logger.Error("list creation failed", "name", name, "error", err)
		return models.WatchList{}, fmt.Errorf("%w: %v", shared.ErrListCreationFailed, err)
	}
	if created == nil || created.ID == 0 {
		return models.WatchList{}, fmt.Errorf("%w: store returned no list id", shared.ErrListCreationFailed)
	}

	list := models.WatchList{ID: created.ID, Name: name, Items: items}
	s.activate(list)

	s.logger.Info("created list", "list_id", list.ID, "name", list.Name, "items", len(list.Items))
	s.emit(listCreatedEvent(list.Clone()))
	return list.Clone(), nil
}

func (s *Synchronizer) activate(list models.WatchList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = list.Clone()
	s.state = Active
}

// mutate applies fn to the local list and returns a copy of the result.
func (s *Synchronizer) mutate(fn func(*models.WatchList)) models.WatchList {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.list)
	return s.list.Clone()
}

func (s *Synchronizer) write(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	return fn(callCtx)
}

func (s *Synchronizer) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.Timeout)
}

// emit sends an event through the channel without blocking.
func (s *Synchronizer) emit(event SyncEvent) {
	if s.opts.Events == nil {
		return
	}
	select {
	case s.opts.Events <- event:
	default:
	}
}

func noActiveList() error {
	return fmt.Errorf("%w: search for a title or create a list first", shared.ErrNoActiveList)
}
