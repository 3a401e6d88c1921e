package identity

import (
	"context"
	"sync"
)

// MapPreferences keeps preferences in memory for the life of the process
type MapPreferences struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMapPreferences creates an empty preference map
func NewMapPreferences() *MapPreferences {
	return &MapPreferences{values: map[string]string{}}
}

func (p *MapPreferences) Get(_ context.Context, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok, nil
}

func (p *MapPreferences) Set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}

func (p *MapPreferences) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}
