package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/helpdesk-console/apiclient"
	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/pkg/errors"
)

// Service is a CRUD accessor for one backend collection, for example
// "/admin/tickets/". It expects api to authenticate its requests.
type Service[T any] struct {
	api  *apiclient.Client
	path string
}

// NewService creates a service for resource under the tenant base path.
func NewService[T any](api *apiclient.Client, basePath, resource string) *Service[T] {
	return &Service[T]{
		api:  api,
		path: strings.TrimSuffix(basePath, "/") + "/" + strings.Trim(resource, "/") + "/",
	}
}

// Path returns the collection path.
func (s *Service[T]) Path() string {
	return s.path
}

func (s *Service[T]) itemPath(id int) string {
	return s.path + strconv.Itoa(id) + "/"
}

// List fetches the collection. Both bare arrays and paginated
// {"results": [...]} bodies are accepted.
func (s *Service[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	path := s.path
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var raw json.RawMessage
	if err := s.api.DoJSON(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[T](raw)
	if err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindServer, Status: http.StatusOK, Message: apperrors.MsgServerError, Err: errors.Wrap(err, "[Service.List] "+s.path)}
	}
	return items, nil
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	items := []T{}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	if page.Results != nil {
		items = page.Results
	}
	return items, nil
}

// Get fetches one item.
func (s *Service[T]) Get(ctx context.Context, id int) (*T, error) {
	var item T
	if err := s.api.DoJSON(ctx, http.MethodGet, s.itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create posts a new item and returns the stored version.
func (s *Service[T]) Create(ctx context.Context, in any) (*T, error) {
	var item T
	if err := s.api.DoJSON(ctx, http.MethodPost, s.path, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update patches the fields present in in.
func (s *Service[T]) Update(ctx context.Context, id int, in any) (*T, error) {
	var item T
	if err := s.api.DoJSON(ctx, http.MethodPatch, s.itemPath(id), in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Replace overwrites the whole item.
func (s *Service[T]) Replace(ctx context.Context, id int, item T) (*T, error) {
	var out T
	if err := s.api.DoJSON(ctx, http.MethodPut, s.itemPath(id), item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service[T]) Delete(ctx context.Context, id int) error {
	return s.api.DoJSON(ctx, http.MethodDelete, s.itemPath(id), nil, nil)
}
