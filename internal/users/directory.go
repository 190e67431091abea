// Package users resolves user ids to the display fields embedded in flows and
// posts. List endpoints join authors through a batched loader so a page of N
// items costs one directory query instead of N.
package users

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"

	"threadline/internal/models"
)

// batchWait is how long the loader collects keys before querying.
const batchWait = 2 * time.Millisecond

// Reader is the directory backend.
type Reader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

type contextKey string

const loaderKey = contextKey("author-loader")

// Directory looks up users and batches author joins.
type Directory struct {
	users Reader
}

// NewDirectory creates a directory over users.
func NewDirectory(users Reader) *Directory {
	return &Directory{users: users}
}

// Get returns the user with id, or nil if unknown.
func (d *Directory) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := d.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("directory get: %w", err)
	}
	return u, nil
}

// GetByUsername returns the user with username, or nil if unknown.
func (d *Directory) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("directory get by username: %w", err)
	}
	return u, nil
}

// NewLoader creates a batched, caching author loader. Use one loader per
// request; the cache never expires.
func (d *Directory) NewLoader() *dataloader.Loader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]uuid.UUID, 0, len(keys))
		for _, k := range keys {
			id, err := uuid.Parse(k.String())
			if err == nil {
				ids = append(ids, id)
			}
		}

		found, err := d.users.FindByIDs(ctx, ids)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		byID := make(map[string]*models.Author, len(found))
		for i := range found {
			byID[found[i].ID.String()] = found[i].Author()
		}

		// Results must line up with keys.
		results := make([]*dataloader.Result, len(keys))
		for i, k := range keys {
			results[i] = &dataloader.Result{Data: byID[k.String()]}
		}
		return results
	}
	return dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(batchWait))
}

// WithLoader returns a context carrying a fresh author loader.
func (d *Directory) WithLoader(ctx context.Context) context.Context {
	return context.WithValue(ctx, loaderKey, d.NewLoader())
}

// Middleware attaches a request-scoped author loader to every request.
func (d *Directory) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(d.WithLoader(r.Context())))
	})
}

func (d *Directory) loader(ctx context.Context) *dataloader.Loader {
	if l, ok := ctx.Value(loaderKey).(*dataloader.Loader); ok {
		return l
	}
	return d.NewLoader()
}

// Authors resolves ids to authors. Unknown ids are absent from the result.
func (d *Directory) Authors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Author, error) {
	out := make(map[uuid.UUID]*models.Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	keys := make(dataloader.Keys, 0, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
		keys = append(keys, dataloader.StringKey(id.String()))
	}

	values, errs := d.loader(ctx).LoadMany(ctx, keys)()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("load authors: %w", err)
		}
	}
	for i, v := range values {
		if a, ok := v.(*models.Author); ok && a != nil {
			out[unique[i]] = a
		}
	}
	return out, nil
}

// Author resolves one id, or returns nil if unknown.
func (d *Directory) Author(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	v, err := d.loader(ctx).Load(ctx, dataloader.StringKey(id.String()))()
	if err != nil {
		return nil, fmt.Errorf("load author: %w", err)
	}
	a, _ := v.(*models.Author)
	return a, nil
}
