package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
)

const listsPath = "/lists"

// ListService talks to the list store's /lists resource.
type ListService struct {
	api *APIService
}

func NewListService(api *APIService) *ListService {
	return &ListService{api: api}
}

type createListRequest struct {
	Name  string      `json:"name"`
	Items []models.ID `json:"movies"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type itemsRequest struct {
	Items []models.ID `json:"movies"`
}

// CreateList posts a new list and returns the stored record with its assigned id.
func (s *ListService) CreateList(ctx context.Context, name string, items []models.ID) (*models.WatchList, error) {
	if items == nil {
		items = []models.ID{}
	}

	resp, err := s.send(ctx, http.MethodPost, listsPath, createListRequest{Name: name, Items: items})
	if err != nil {
		return nil, err
	}

	var list models.WatchList
	if err := json.Unmarshal(resp.Body, &list); err != nil {
		return nil, fmt.Errorf("%w: failed to decode created list: %v", shared.ErrAPIRequest, err)
	}
	if list.ID == 0 {
		return nil, fmt.Errorf("%w: created list has no id", shared.ErrAPIRequest)
	}
	list.Normalize()
	return &list, nil
}

// RenameList sends a partial update carrying only the name.
func (s *ListService) RenameList(ctx context.Context, id models.ID, name string) error {
	_, err := s.send(ctx, http.MethodPatch, listPath(id), renameRequest{Name: name})
	return err
}

// SetListItems sends a partial update carrying the full ordered items.
func (s *ListService) SetListItems(ctx context.Context, id models.ID, items []models.ID) error {
	if items == nil {
		items = []models.ID{}
	}
	_, err := s.send(ctx, http.MethodPatch, listPath(id), itemsRequest{Items: items})
	return err
}

// GetLists fetches every stored list. Records without movies decode to an empty sequence.
func (s *ListService) GetLists(ctx context.Context) ([]models.WatchList, error) {
	resp, err := s.api.Get(ctx, listsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, statusError(http.MethodGet, listsPath, resp)
	}

	var lists []models.WatchList
	if err := json.Unmarshal(resp.Body, &lists); err != nil {
		return nil, fmt.Errorf("%w: failed to decode lists: %v", shared.ErrAPIRequest, err)
	}
	for i := range lists {
		lists[i].Normalize()
	}
	if lists == nil {
		lists = []models.WatchList{}
	}
	return lists, nil
}

func (s *ListService) send(ctx context.Context, method, path string, payload any) (*APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp *APIResponse
	switch method {
	case http.MethodPost:
		resp, err = s.api.Post(ctx, path, data)
	default:
		resp, err = s.api.Patch(ctx, path, data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, statusError(method, path, resp)
	}
	return resp, nil
}

func listPath(id models.ID) string {
	return fmt.Sprintf("%s/%d", listsPath, id)
}
