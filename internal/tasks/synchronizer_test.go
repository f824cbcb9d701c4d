package tasks

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
	th "github.com/desertthunder/watchlist/internal/testing"
)

var errStoreDown = errors.New("503 service unavailable")

func newTestSynchronizer(t *testing.T, store ListStore, opts SyncOpts) *Synchronizer {
	t.Helper()
	s := NewSynchronizer(store, loadedCatalog(t), opts)
	t.Cleanup(s.Close)
	return s
}

func activeSynchronizer(t *testing.T, opts SyncOpts) (*Synchronizer, *th.MockListStore) {
	t.Helper()
	store := th.NewMockListStore()
	s := newTestSynchronizer(t, store, opts)
	if _, err := s.EnsureList(context.Background()); err != nil {
		t.Fatalf("EnsureList() error = %v", err)
	}
	return s, store
}

func items(t *testing.T, s *Synchronizer) []models.ID {
	t.Helper()
	list, ok := s.Snapshot()
	if !ok {
		t.Fatal("expected an active list")
	}
	return list.Items
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSynchronizer(t *testing.T) {
	ctx := context.Background()

	t.Run("EnsureList", func(t *testing.T) {
		t.Run("creates list with default name", func(t *testing.T) {
			store := th.NewMockListStore()
			s := newTestSynchronizer(t, store, SyncOpts{})

			if s.State() != Uninitialized {
				t.Fatalf("expected Uninitialized, got %v", s.State())
			}

			list, err := s.EnsureList(ctx)
			if err != nil {
				t.Fatalf("EnsureList() error = %v", err)
			}
			if list.ID != 100 || list.Name != DefaultListName || len(list.Items) != 0 {
				t.Errorf("unexpected list %+v", list)
			}
			if s.State() != Active {
				t.Errorf("expected Active, got %v", s.State())
			}

			calls := store.Calls()
			if len(calls) != 1 || calls[0].Method != "CreateList" || calls[0].Items == nil {
				t.Errorf("expected one CreateList with empty items, got %+v", calls)
			}
		})

		t.Run("idempotent while active", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{DefaultListName: "Weekend"})

			for range 3 {
				list, err := s.EnsureList(ctx)
				if err != nil {
					t.Fatalf("EnsureList() error = %v", err)
				}
				if list.ID != 100 || list.Name != "Weekend" {
					t.Errorf("unexpected list %+v", list)
				}
			}
			if store.Writes() != 1 {
				t.Errorf("expected exactly 1 store write, got %d", store.Writes())
			}
		})

		t.Run("store rejection stays uninitialized", func(t *testing.T) {
			store := th.NewMockListStore()
			store.Fail("CreateList", errStoreDown)
			s := newTestSynchronizer(t, store, SyncOpts{})

			_, err := s.EnsureList(ctx)
			if !errors.Is(err, shared.ErrListCreationFailed) {
				t.Fatalf("expected ErrListCreationFailed, got %v", err)
			}
			if s.State() != Uninitialized {
				t.Errorf("expected Uninitialized, got %v", s.State())
			}

			store.Fail("CreateList", nil)
			if _, err := s.EnsureList(ctx); err != nil {
				t.Errorf("retry EnsureList() error = %v", err)
			}
		})
	})

	t.Run("AddItem", func(t *testing.T) {
		t.Run("appends and writes full items", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})

			if err := s.AddItem(ctx, 1); err != nil {
				t.Fatalf("AddItem(1) error = %v", err)
			}
			if err := s.AddItem(ctx, 3); err != nil {
				t.Fatalf("AddItem(3) error = %v", err)
			}

			if got := items(t, s); !slices.Equal(got, []models.ID{1, 3}) {
				t.Errorf("items = %v", got)
			}
			stored, _ := store.List(100)
			if !slices.Equal(stored.Items, []models.ID{1, 3}) {
				t.Errorf("stored items = %v", stored.Items)
			}
		})

		t.Run("duplicate is rejected without a write", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			if err := s.AddItem(ctx, 2); err != nil {
				t.Fatalf("AddItem(2) error = %v", err)
			}
			writes := store.Writes()

			err := s.AddItem(ctx, 2)
			if !errors.Is(err, shared.ErrDuplicateItem) {
				t.Fatalf("expected ErrDuplicateItem, got %v", err)
			}
			if got := items(t, s); len(got) != 1 {
				t.Errorf("expected length 1, got %v", got)
			}
			if store.Writes() != writes {
				t.Error("duplicate add wrote to the store")
			}
		})

		t.Run("remote failure restores previous items", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			for _, id := range []models.ID{4, 2} {
				if err := s.AddItem(ctx, id); err != nil {
					t.Fatalf("AddItem(%d) error = %v", id, err)
				}
			}

			store.Fail("SetListItems", errStoreDown)
			err := s.AddItem(ctx, 1)
			if !errors.Is(err, shared.ErrSyncFailed) {
				t.Fatalf("expected ErrSyncFailed, got %v", err)
			}
			if got := items(t, s); !slices.Equal(got, []models.ID{4, 2}) {
				t.Errorf("items = %v, want [4 2]", got)
			}
		})

		t.Run("requires loaded catalog", func(t *testing.T) {
			store := th.NewMockListStore()
			s := NewSynchronizer(store, NewCatalogCache(&th.StaticCatalog{}), SyncOpts{})
			defer s.Close()
			if _, err := s.EnsureList(ctx); err != nil {
				t.Fatalf("EnsureList() error = %v", err)
			}

			err := s.AddItem(ctx, 1)
			if !errors.Is(err, shared.ErrCatalogNotReady) {
				t.Fatalf("expected ErrCatalogNotReady, got %v", err)
			}
			if store.Writes() != 1 {
				t.Errorf("expected only the create write, got %d", store.Writes())
			}
		})

		t.Run("requires active list", func(t *testing.T) {
			store := th.NewMockListStore()
			s := newTestSynchronizer(t, store, SyncOpts{})

			if err := s.AddItem(ctx, 1); !errors.Is(err, shared.ErrNoActiveList) {
				t.Errorf("expected ErrNoActiveList, got %v", err)
			}
			if len(store.Calls()) != 0 {
				t.Error("expected no store calls")
			}
		})

		t.Run("stale catalog reference", func(t *testing.T) {
			s, _ := activeSynchronizer(t, SyncOpts{})
			if err := s.AddItem(ctx, 999); err != nil {
				t.Errorf("AddItem(999) error = %v", err)
			}
		})
	})

	t.Run("RemoveItem", func(t *testing.T) {
		t.Run("removes and writes", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			for _, id := range []models.ID{1, 2, 3} {
				_ = s.AddItem(ctx, id)
			}

			if err := s.RemoveItem(ctx, 2); err != nil {
				t.Fatalf("RemoveItem(2) error = %v", err)
			}
			if got := items(t, s); !slices.Equal(got, []models.ID{1, 3}) {
				t.Errorf("items = %v", got)
			}
			stored, _ := store.List(100)
			if !slices.Equal(stored.Items, []models.ID{1, 3}) {
				t.Errorf("stored items = %v", stored.Items)
			}
		})

		t.Run("absent id is a no-op", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			_ = s.AddItem(ctx, 1)
			writes := store.Writes()

			if err := s.RemoveItem(ctx, 7); err != nil {
				t.Fatalf("RemoveItem(7) error = %v", err)
			}
			if got := items(t, s); !slices.Equal(got, []models.ID{1}) {
				t.Errorf("items = %v", got)
			}
			if store.Writes() != writes {
				t.Error("absent remove wrote to the store")
			}
		})

		t.Run("remote failure restores original position", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			for _, id := range []models.ID{1, 2, 3} {
				_ = s.AddItem(ctx, id)
			}

			store.Fail("SetListItems", errStoreDown)
			if err := s.RemoveItem(ctx, 1); !errors.Is(err, shared.ErrSyncFailed) {
				t.Fatalf("expected ErrSyncFailed, got %v", err)
			}
			if got := items(t, s); !slices.Equal(got, []models.ID{1, 2, 3}) {
				t.Errorf("items = %v, want [1 2 3]", got)
			}
		})

		t.Run("requires active list", func(t *testing.T) {
			s := newTestSynchronizer(t, th.NewMockListStore(), SyncOpts{})
			if err := s.RemoveItem(ctx, 1); !errors.Is(err, shared.ErrNoActiveList) {
				t.Errorf("expected ErrNoActiveList, got %v", err)
			}
		})
	})

	t.Run("Rename", func(t *testing.T) {
		t.Run("success is reflected by EnsureList", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})

			if err := s.Rename(ctx, "Favorites"); err != nil {
				t.Fatalf("Rename() error = %v", err)
			}
			list, err := s.EnsureList(ctx)
			if err != nil {
				t.Fatalf("EnsureList() error = %v", err)
			}
			if list.Name != "Favorites" {
				t.Errorf("expected Favorites, got %q", list.Name)
			}

			calls := store.Calls()
			last := calls[len(calls)-1]
			if last.Method != "RenameList" || last.ListID != 100 || last.Name != "Favorites" {
				t.Errorf("unexpected rename call %+v", last)
			}
		})

		t.Run("remote failure restores previous name", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{DefaultListName: "Original"})
			store.Fail("RenameList", errStoreDown)

			if err := s.Rename(ctx, "Favorites"); !errors.Is(err, shared.ErrSyncFailed) {
				t.Fatalf("expected ErrSyncFailed, got %v", err)
			}
			list, _ := s.Snapshot()
			if list.Name != "Original" {
				t.Errorf("expected name Original, got %q", list.Name)
			}
		})

		t.Run("blank name is rejected locally", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			if err := s.Rename(ctx, "   "); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if store.Writes() != 1 {
				t.Error("blank rename wrote to the store")
			}
		})

		t.Run("requires active list", func(t *testing.T) {
			s := newTestSynchronizer(t, th.NewMockListStore(), SyncOpts{})
			if err := s.Rename(ctx, "x"); !errors.Is(err, shared.ErrNoActiveList) {
				t.Errorf("expected ErrNoActiveList, got %v", err)
			}
		})
	})

	t.Run("MaterializeFromSearch", func(t *testing.T) {
		t.Run("empty results do nothing", func(t *testing.T) {
			store := th.NewMockListStore()
			s := newTestSynchronizer(t, store, SyncOpts{AutoCreateOnSearch: true})

			list, err := s.MaterializeFromSearch(ctx, nil)
			if err != nil || list != nil {
				t.Errorf("MaterializeFromSearch(nil) = %v, %v", list, err)
			}
			if s.State() != Uninitialized || len(store.Calls()) != 0 {
				t.Error("expected no state change and no store calls")
			}
		})

		t.Run("auto create seeds all results in one write", func(t *testing.T) {
			store := th.NewMockListStore()
			s := newTestSynchronizer(t, store, SyncOpts{AutoCreateOnSearch: true})
			results := s.catalog.Search("dune")
			results = append(results, results[0])

			list, err := s.MaterializeFromSearch(ctx, results)
			if err != nil {
				t.Fatalf("MaterializeFromSearch() error = %v", err)
			}
			if !slices.Equal(list.Items, []models.ID{1, 2}) {
				t.Errorf("items = %v, want [1 2]", list.Items)
			}

			calls := store.Calls()
			if len(calls) != 1 || calls[0].Method != "CreateList" || !slices.Equal(calls[0].Items, []models.ID{1, 2}) {
				t.Errorf("expected one seeded CreateList, got %+v", calls)
			}
		})

		t.Run("without auto create behaves like EnsureList", func(t *testing.T) {
			store := th.NewMockListStore()
			s := newTestSynchronizer(t, store, SyncOpts{})

			list, err := s.MaterializeFromSearch(ctx, s.catalog.Search("bear"))
			if err != nil {
				t.Fatalf("MaterializeFromSearch() error = %v", err)
			}
			if len(list.Items) != 0 {
				t.Errorf("expected empty list, got %v", list.Items)
			}
		})

		t.Run("active list is returned unchanged", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{AutoCreateOnSearch: true})
			writes := store.Writes()

			list, err := s.MaterializeFromSearch(ctx, s.catalog.Search("severance"))
			if err != nil {
				t.Fatalf("MaterializeFromSearch() error = %v", err)
			}
			if list.ID != 100 || len(list.Items) != 0 {
				t.Errorf("unexpected list %+v", list)
			}
			if store.Writes() != writes {
				t.Error("expected no store write for active list")
			}
		})

		t.Run("creation failure", func(t *testing.T) {
			store := th.NewMockListStore()
			store.Fail("CreateList", errStoreDown)
			s := newTestSynchronizer(t, store, SyncOpts{AutoCreateOnSearch: true})

			_, err := s.MaterializeFromSearch(ctx, s.catalog.Search("dune"))
			if !errors.Is(err, shared.ErrListCreationFailed) {
				t.Errorf("expected ErrListCreationFailed, got %v", err)
			}
		})
	})

	t.Run("Attach", func(t *testing.T) {
		t.Run("adopts existing list", func(t *testing.T) {
			store := th.NewMockListStore()
			store.Seed(models.WatchList{ID: 7, Name: "Saved", Items: []models.ID{3}})
			s := newTestSynchronizer(t, store, SyncOpts{})

			list, err := s.Attach(ctx, 7)
			if err != nil {
				t.Fatalf("Attach() error = %v", err)
			}
			if list.Name != "Saved" || !slices.Equal(list.Items, []models.ID{3}) {
				t.Errorf("unexpected list %+v", list)
			}
			if err := s.AddItem(ctx, 1); err != nil {
				t.Fatalf("AddItem() error = %v", err)
			}
			stored, _ := store.List(7)
			if !slices.Equal(stored.Items, []models.ID{3, 1}) {
				t.Errorf("stored items = %v", stored.Items)
			}
		})

		t.Run("missing movies normalize to empty", func(t *testing.T) {
			store := th.NewMockListStore()
			store.Seed(models.WatchList{ID: 8, Name: "Bare"})
			s := newTestSynchronizer(t, store, SyncOpts{})

			list, err := s.Attach(ctx, 8)
			if err != nil {
				t.Fatalf("Attach() error = %v", err)
			}
			if list.Items == nil {
				t.Error("expected non-nil items")
			}
		})

		t.Run("repeated items are dropped in order", func(t *testing.T) {
			store := th.NewMockListStore()
			store.Seed(models.WatchList{ID: 7, Name: "Saved", Items: []models.ID{1, 1, 2, 1}})
			s := newTestSynchronizer(t, store, SyncOpts{})

			list, err := s.Attach(ctx, 7)
			if err != nil {
				t.Fatalf("Attach() error = %v", err)
			}
			if !slices.Equal(list.Items, []models.ID{1, 2}) {
				t.Errorf("attached items = %v, want [1 2]", list.Items)
			}
			if got := items(t, s); models.HasDuplicates(got) {
				t.Errorf("session list has duplicates: %v", got)
			}

			if err := s.AddItem(ctx, 1); !errors.Is(err, shared.ErrDuplicateItem) {
				t.Errorf("expected ErrDuplicateItem, got %v", err)
			}
			if err := s.RemoveItem(ctx, 1); err != nil {
				t.Fatalf("RemoveItem() error = %v", err)
			}
			stored, _ := store.List(7)
			if !slices.Equal(stored.Items, []models.ID{2}) {
				t.Errorf("stored items = %v, want [2]", stored.Items)
			}
		})

		t.Run("unknown id", func(t *testing.T) {
			s := newTestSynchronizer(t, th.NewMockListStore(), SyncOpts{})
			if _, err := s.Attach(ctx, 42); !errors.Is(err, shared.ErrListNotFound) {
				t.Errorf("expected ErrListNotFound, got %v", err)
			}
			if s.State() != Uninitialized {
				t.Error("expected Uninitialized")
			}
		})

		t.Run("different list while active", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			store.Seed(models.WatchList{ID: 5, Name: "Other"})

			if _, err := s.Attach(ctx, 5); !errors.Is(err, shared.ErrListAlreadyActive) {
				t.Errorf("expected ErrListAlreadyActive, got %v", err)
			}
			if list, err := s.Attach(ctx, 100); err != nil || list.ID != 100 {
				t.Errorf("re-attaching the active list = %+v, %v", list, err)
			}
		})

		t.Run("store failure", func(t *testing.T) {
			store := th.NewMockListStore()
			store.Fail("GetLists", errStoreDown)
			s := newTestSynchronizer(t, store, SyncOpts{})

			if _, err := s.Attach(ctx, 1); !errors.Is(err, shared.ErrSyncFailed) {
				t.Errorf("expected ErrSyncFailed, got %v", err)
			}
		})
	})

	t.Run("Dune scenario", func(t *testing.T) {
		store := th.NewMockListStore()
		s := newTestSynchronizer(t, store, SyncOpts{})

		results := s.catalog.Search("Dune")
		if len(results) == 0 || results[0].ID != 1 {
			t.Fatalf("unexpected search results %+v", results)
		}
		list, err := s.MaterializeFromSearch(ctx, results)
		if err != nil || list.ID != 100 {
			t.Fatalf("MaterializeFromSearch() = %+v, %v", list, err)
		}

		store.Fail("SetListItems", errStoreDown)
		err = s.AddItem(ctx, 1)
		if !errors.Is(err, shared.ErrSyncFailed) {
			t.Fatalf("expected ErrSyncFailed, got %v", err)
		}

		calls := store.Calls()
		last := calls[len(calls)-1]
		if last.Method != "SetListItems" || last.ListID != 100 || !slices.Equal(last.Items, []models.ID{1}) {
			t.Errorf("expected PATCH of [1] on list 100, got %+v", last)
		}
		if got := items(t, s); len(got) != 0 {
			t.Errorf("expected items rolled back to [], got %v", got)
		}
	})

	t.Run("Events", func(t *testing.T) {
		t.Run("reports optimistic change then rollback", func(t *testing.T) {
			events := make(chan SyncEvent, 8)
			s, store := activeSynchronizer(t, SyncOpts{Events: events})
			store.Fail("SetListItems", errStoreDown)
			_ = s.AddItem(ctx, 2)

			var kinds []EventKind
			for len(events) > 0 {
				kinds = append(kinds, (<-events).Kind)
			}
			want := []EventKind{ListCreated, ItemAdded, RolledBack}
			if !slices.Equal(kinds, want) {
				t.Errorf("events = %v, want %v", kinds, want)
			}
		})

		t.Run("full channel never blocks", func(t *testing.T) {
			events := make(chan SyncEvent)
			s, _ := activeSynchronizer(t, SyncOpts{Events: events})

			done := make(chan error, 1)
			go func() { done <- s.AddItem(ctx, 1) }()

			select {
			case err := <-done:
				if err != nil {
					t.Errorf("AddItem() error = %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("AddItem blocked on the events channel")
			}
		})
	})

	t.Run("Concurrency", func(t *testing.T) {
		t.Run("overlapping adds are serialized", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			release := store.Hold()
			defer release()

			var wg sync.WaitGroup
			errs := make([]error, 2)
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[0] = s.AddItem(ctx, 1)
			}()
			waitFor(t, func() bool { return store.Writes() == 2 })

			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[1] = s.AddItem(ctx, 2)
			}()

			time.Sleep(20 * time.Millisecond)
			if store.Writes() != 2 {
				t.Fatalf("second write started while first was in flight")
			}
			release()
			wg.Wait()

			for i, err := range errs {
				if err != nil {
					t.Errorf("AddItem #%d error = %v", i, err)
				}
			}
			stored, _ := store.List(100)
			if !slices.Equal(stored.Items, []models.ID{1, 2}) {
				t.Errorf("stored items = %v, want [1 2]", stored.Items)
			}
		})

		t.Run("store timeout rolls back", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{Timeout: 20 * time.Millisecond})
			release := store.Hold()
			defer release()

			if err := s.AddItem(ctx, 1); !errors.Is(err, shared.ErrSyncFailed) {
				t.Fatalf("expected ErrSyncFailed, got %v", err)
			}
			if got := items(t, s); len(got) != 0 {
				t.Errorf("expected rollback to [], got %v", got)
			}
		})

		t.Run("cancelled caller is skipped", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			if err := s.AddItem(cctx, 1); !errors.Is(err, context.Canceled) {
				t.Fatalf("expected context.Canceled, got %v", err)
			}
			if store.Writes() != 1 {
				t.Errorf("expected no write for cancelled op, got %d writes", store.Writes())
			}
		})

		t.Run("snapshots are readable during a write", func(t *testing.T) {
			s, store := activeSynchronizer(t, SyncOpts{})
			release := store.Hold()
			defer release()

			done := make(chan error, 1)
			go func() { done <- s.AddItem(ctx, 3) }()
			waitFor(t, func() bool { return store.Writes() == 2 })

			if got := items(t, s); !slices.Equal(got, []models.ID{3}) {
				t.Errorf("expected optimistic [3], got %v", got)
			}
			release()
			if err := <-done; err != nil {
				t.Errorf("AddItem() error = %v", err)
			}
		})

		t.Run("closed synchronizer rejects operations", func(t *testing.T) {
			s, _ := activeSynchronizer(t, SyncOpts{})
			s.Close()

			if err := s.AddItem(ctx, 1); !errors.Is(err, shared.ErrSyncClosed) {
				t.Errorf("expected ErrSyncClosed, got %v", err)
			}
			if _, ok := s.Snapshot(); !ok {
				t.Error("expected snapshot to survive Close")
			}
		})
	})
}
