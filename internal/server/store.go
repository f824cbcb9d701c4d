package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/repositories"
	"github.com/desertthunder/watchlist/internal/shared"
)

const maxBodyBytes = 1 << 20

// StoreOpts configures a [StoreHandler].
type StoreOpts struct {
	CatalogPath string
	FailWrites  bool // answer every POST and PATCH with 503
	Logger      *log.Logger
}

// StoreHandler serves the catalog and lists resources backed by SQLite repositories.
type StoreHandler struct {
	catalog     *repositories.CatalogRepository
	lists       *repositories.ListRepository
	catalogPath string
	failWrites  atomic.Bool
	logger      *log.Logger
	mux         *http.ServeMux
}

// NewStoreHandler creates a [StoreHandler] and registers its routes on an internal mux.
func NewStoreHandler(catalog *repositories.CatalogRepository, lists *repositories.ListRepository, opts StoreOpts) *StoreHandler {
	if opts.CatalogPath == "" {
		opts.CatalogPath = "/catalog"
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	h := &StoreHandler{
		catalog:     catalog,
		lists:       lists,
		catalogPath: opts.CatalogPath,
		logger:      opts.Logger,
		mux:         http.NewServeMux(),
	}
	h.failWrites.Store(opts.FailWrites)

	h.mux.HandleFunc("GET "+h.catalogPath, h.getCatalog)
	h.mux.HandleFunc("GET /lists", h.getLists)
	h.mux.HandleFunc("POST /lists", h.writes(h.createList))
	h.mux.HandleFunc("GET /lists/{id}", h.getList)
	h.mux.HandleFunc("PATCH /lists/{id}", h.writes(h.patchList))
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *StoreHandler) Routes() []string {
	return []string{
		"GET " + h.catalogPath,
		"GET /lists",
		"POST /lists",
		"GET /lists/{id}",
		"PATCH /lists/{id}",
	}
}

// ServeHTTP dispatches to the registered route.
func (h *StoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetFailWrites toggles write-fault injection at runtime.
func (h *StoreHandler) SetFailWrites(fail bool) {
	h.failWrites.Store(fail)
}

func (h *StoreHandler) writes(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.failWrites.Load() {
			h.logger.Warn("injected write failure", "method", r.Method, "path", r.URL.Path)
			writeError(w, http.StatusServiceUnavailable, "writes are disabled")
			return
		}
		next(w, r)
	}
}

func (h *StoreHandler) getCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *StoreHandler) getLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.List()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

type createListBody struct {
	Name  string      `json:"name"`
	Items []models.ID `json:"movies"`
}

func (h *StoreHandler) createList(w http.ResponseWriter, r *http.Request) {
	var body createListBody
	if !decodeBody(w, r, &body) {
		return
	}

	list, err := h.lists.Create(body.Name, body.Items)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info("list created", "list_id", list.ID, "name", list.Name, "items", len(list.Items))
	writeJSON(w, http.StatusCreated, list)
}

func (h *StoreHandler) getList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	list, err := h.lists.Get(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// patchListBody distinguishes absent fields from empty ones.
type patchListBody struct {
	Name  *string      `json:"name"`
	Items *[]models.ID `json:"movies"`
}

func (h *StoreHandler) patchList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body patchListBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == nil && body.Items == nil {
		writeError(w, http.StatusBadRequest, "patch must set name or movies")
		return
	}

	if _, err := h.lists.Get(id); err != nil {
		h.fail(w, err)
		return
	}

	if body.Name != nil {
		if err := h.lists.UpdateName(id, *body.Name); err != nil {
			h.fail(w, err)
			return
		}
	}
	if body.Items != nil {
		if err := h.lists.ReplaceItems(id, *body.Items); err != nil {
			h.fail(w, err)
			return
		}
	}

	list, err := h.lists.Get(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Debug("list updated", "list_id", id, "name", list.Name, "items", len(list.Items))
	writeJSON(w, http.StatusOK, list)
}

func (h *StoreHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		h.logger.Error("store error", "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrListNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrDuplicateItem):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (models.ID, bool) {
	id, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
