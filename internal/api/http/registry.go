package http

import (
	"context"
	"sync"

	"github.com/mind-engage/gradecalc/internal/engine"
	"github.com/mind-engage/gradecalc/internal/store"
)

// EngineRegistry lazily loads one engine per class from the class-data
// source and caches it for the session.
type EngineRegistry struct {
	mu      sync.Mutex
	src     store.Source
	opts    engine.Options
	engines map[string]*engine.Engine
}

func NewEngineRegistry(src store.Source, opts engine.Options) *EngineRegistry {
	return &EngineRegistry{
		src:     src,
		opts:    opts,
		engines: map[string]*engine.Engine{},
	}
}

// Engine returns the cached engine for the class, loading it on first use.
func (r *EngineRegistry) Engine(ctx context.Context, classID string) (*engine.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[classID]; ok {
		return e, nil
	}
	data, err := r.src.LoadClassData(ctx, classID)
	if err != nil {
		return nil, err
	}
	e := engine.New(r.opts)
	if err := e.Load(data); err != nil {
		return nil, err
	}
	r.engines[classID] = e
	return e, nil
}

// Reload replaces the class's engine state with a fresh pull. In-flight
// local edits are discarded.
func (r *EngineRegistry) Reload(ctx context.Context, classID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := r.src.LoadClassData(ctx, classID)
	if err != nil {
		return err
	}
	e, ok := r.engines[classID]
	if !ok {
		e = engine.New(r.opts)
		r.engines[classID] = e
	}
	return e.Load(data)
}
