package storage

import (
	"context"
	"sync"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/config"
)

// Router dispatches each location to the local or S3 store. The S3 client
// is only built when an s3:// location is first used, so purely local runs
// never load AWS configuration.
type Router struct {
	local *LocalStore
	s3cfg config.S3Config

	mu     sync.Mutex
	remote Store
	newS3  func(context.Context, config.S3Config) (Store, error)
}

// NewRouter returns a router using cfg for S3 access.
func NewRouter(cfg config.S3Config) *Router {
	return &Router{
		local: NewLocalStore(),
		s3cfg: cfg,
		newS3: func(ctx context.Context, cfg config.S3Config) (Store, error) {
			return NewS3Store(ctx, cfg)
		},
	}
}

func (r *Router) storeFor(ctx context.Context, location string) (Store, error) {
	if !IsS3URI(location) {
		return r.local, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.remote == nil {
		store, err := r.newS3(ctx, r.s3cfg)
		if err != nil {
			return nil, err
		}
		r.remote = store
	}
	return r.remote, nil
}

// Read implements Store.
func (r *Router) Read(ctx context.Context, location string) ([]byte, error) {
	store, err := r.storeFor(ctx, location)
	if err != nil {
		return nil, err
	}
	return store.Read(ctx, location)
}

// Write implements Store.
func (r *Router) Write(ctx context.Context, location string, data []byte) error {
	store, err := r.storeFor(ctx, location)
	if err != nil {
		return err
	}
	return store.Write(ctx, location, data)
}

// Delete implements Store.
func (r *Router) Delete(ctx context.Context, location string) error {
	store, err := r.storeFor(ctx, location)
	if err != nil {
		return err
	}
	return store.Delete(ctx, location)
}
