// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package fabric

import (
	"fmt"
	"sort"
	"sync"
)

// BackendFactory builds a backend from a validated config.
type BackendFactory func(cfg BackendConfig) (ExecutionBackend, error)

// Registry maps driver names to backend factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]BackendFactory
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]BackendFactory),
	}
}

// Register adds or replaces the factory for a driver.
func (r *Registry) Register(driver string, factory BackendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
}

// Create validates cfg and builds a backend with the matching factory.
func (r *Registry) Create(cfg BackendConfig) (ExecutionBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	factory, ok := r.factories[cfg.Driver]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
	return factory(cfg)
}

// List returns registered driver names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register registers a factory in the global registry.
func Register(driver string, factory BackendFactory) {
	globalRegistry.Register(driver, factory)
}

// Create builds a backend from the global registry.
func Create(cfg BackendConfig) (ExecutionBackend, error) {
	return globalRegistry.Create(cfg)
}

// Drivers lists drivers in the global registry.
func Drivers() []string {
	return globalRegistry.List()
}
