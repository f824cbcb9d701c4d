// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/watchlist/internal/models"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// StoreCall records one write or read against a [MockListStore].
type StoreCall struct {
	Method string
	ListID models.ID
	Name   string
	Items  []models.ID
}

// MockListStore is an in-memory list store with per-method failure injection.
//
// Ids are assigned from NextID (100 when unset) so tests can assert on them.
type MockListStore struct {
	mu     sync.Mutex
	lists  []models.WatchList
	calls  []StoreCall
	errs   map[string]error
	hold   chan struct{}
	NextID models.ID
}

func NewMockListStore() *MockListStore {
	return &MockListStore{NextID: 100, errs: map[string]error{}}
}

// Fail makes every subsequent call to method return err. A nil err clears the failure.
func (m *MockListStore) Fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errs == nil {
		m.errs = map[string]error{}
	}
	if err == nil {
		delete(m.errs, method)
		return
	}
	m.errs[method] = err
}

// Hold blocks writes until the returned release function is called or the call's context ends.
func (m *MockListStore) Hold() (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.hold = ch
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.hold = nil
			m.mu.Unlock()
			close(ch)
		})
	}
}

// Seed adds an existing list as if an earlier session had created it.
//
// The record is kept as given, repeated items included, the way a schemaless JSON store would hold it.
func (m *MockListStore) Seed(list models.WatchList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists = append(m.lists, list.Clone())
}

// Calls returns a copy of every recorded call in order.
func (m *MockListStore) Calls() []StoreCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Writes counts recorded calls that would modify the store.
func (m *MockListStore) Writes() int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method != "GetLists" {
			n++
		}
	}
	return n
}

// List returns the stored copy of the list with id.
func (m *MockListStore) List(id models.ID) (models.WatchList, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lists {
		if l.ID == id {
			return l.Clone(), true
		}
	}
	return models.WatchList{}, false
}

func (m *MockListStore) begin(ctx context.Context, call StoreCall) error {
	m.mu.Lock()
	call.Items = slices.Clone(call.Items)
	m.calls = append(m.calls, call)
	err := m.errs[call.Method]
	hold := m.hold
	m.mu.Unlock()

	if hold != nil && call.Method != "GetLists" {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *MockListStore) CreateList(ctx context.Context, name string, items []models.ID) (*models.WatchList, error) {
	if err := m.begin(ctx, StoreCall{Method: "CreateList", Name: name, Items: items}); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NextID == 0 {
		m.NextID = 100
	}
	list := models.WatchList{ID: m.NextID, Name: name, Items: slices.Clone(items)}
	list.Normalize()
	m.NextID++
	m.lists = append(m.lists, list)

	out := list.Clone()
	return &out, nil
}

func (m *MockListStore) RenameList(ctx context.Context, id models.ID, name string) error {
	if err := m.begin(ctx, StoreCall{Method: "RenameList", ListID: id, Name: name}); err != nil {
		return err
	}
	return m.update(id, func(l *models.WatchList) { l.Name = name })
}

func (m *MockListStore) SetListItems(ctx context.Context, id models.ID, items []models.ID) error {
	if err := m.begin(ctx, StoreCall{Method: "SetListItems", ListID: id, Items: items}); err != nil {
		return err
	}
	return m.update(id, func(l *models.WatchList) { l.Items = slices.Clone(items) })
}

func (m *MockListStore) GetLists(ctx context.Context) ([]models.WatchList, error) {
	if err := m.begin(ctx, StoreCall{Method: "GetLists"}); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.WatchList, len(m.lists))
	for i, l := range m.lists {
		out[i] = l.Clone()
	}
	return out, nil
}

func (m *MockListStore) update(id models.ID, fn func(*models.WatchList)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lists {
		if m.lists[i].ID == id {
			fn(&m.lists[i])
			return nil
		}
	}
	return fmt.Errorf("list %d not found", id)
}

// StaticCatalog serves a fixed catalog, or Err when set.
type StaticCatalog struct {
	Items []models.CatalogItem
	Err   error
	Calls int
}

func (s *StaticCatalog) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return slices.Clone(s.Items), nil
}

// SampleCatalog returns a small catalog with both complete and sparse records.
func SampleCatalog() []models.CatalogItem {
	rating := 8.1
	return []models.CatalogItem{
		{ID: 1, Name: "Dune", Platform: "HBO Max", ReleaseYear: 2021, Genre: "Sci-Fi", Rating: &rating},
		{ID: 2, Name: "Dune: Part Two", Platform: "Max", ReleaseYear: 2024},
		{ID: 3, Name: "The Bear", Platform: "Hulu", ReleaseYear: 2022, Genre: "Drama"},
		{ID: 4, Name: "Severance", Platform: "Apple TV+", ReleaseYear: 2022},
	}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
