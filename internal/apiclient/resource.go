package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Joseda-hg/tasktracker/internal/model"
)

// HeaderSource supplies per-request authorization headers.
type HeaderSource interface {
	AuthHeader(ctx context.Context) http.Header
}

// Resource is a CRUD client for one REST collection. url is the collection
// endpoint; items live at url/{id}.
type Resource[T any] struct {
	t    *transport
	name string
	url  string
	auth HeaderSource
}

type (
	EmployeeClient = Resource[model.Employee]
	TaskClient     = Resource[model.Task]
)

func newResource[T any](t *transport, name, url string, auth HeaderSource) *Resource[T] {
	return &Resource[T]{t: t, name: name, url: strings.TrimRight(url, "/"), auth: auth}
}

func (r *Resource[T]) itemURL(id int64) string {
	return r.url + "/" + strconv.FormatInt(id, 10)
}

func (r *Resource[T]) ListAll(ctx context.Context) ([]T, error) {
	var items []T
	if _, err := r.t.do(ctx, call{
		op:     "list " + r.name,
		method: http.MethodGet,
		url:    r.url,
		header: r.auth.AuthHeader(ctx),
		out:    &items,
	}); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *Resource[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var item T
	if _, err := r.t.do(ctx, call{
		op:     "get " + r.name,
		method: http.MethodGet,
		url:    r.itemURL(id),
		header: r.auth.AuthHeader(ctx),
		out:    &item,
	}); err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

func (r *Resource[T]) Create(ctx context.Context, item T) (T, error) {
	var created T
	if _, err := r.t.do(ctx, call{
		op:     "create " + r.name,
		method: http.MethodPost,
		url:    r.url,
		header: r.auth.AuthHeader(ctx),
		in:     item,
		out:    &created,
	}); err != nil {
		var zero T
		return zero, err
	}
	return created, nil
}

func (r *Resource[T]) Update(ctx context.Context, id int64, item T) (T, error) {
	var updated T
	if _, err := r.t.do(ctx, call{
		op:     "update " + r.name,
		method: http.MethodPut,
		url:    r.itemURL(id),
		header: r.auth.AuthHeader(ctx),
		in:     item,
		out:    &updated,
	}); err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// Remove deletes the item. An item that is already gone counts as removed.
func (r *Resource[T]) Remove(ctx context.Context, id int64) error {
	_, err := r.t.do(ctx, call{
		op:     "remove " + r.name,
		method: http.MethodDelete,
		url:    r.itemURL(id),
		header: r.auth.AuthHeader(ctx),
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
