// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package connectors

import (
	"fmt"
	"sort"
	"sync"
)

var _ RegistryInterface = (*Registry)(nil)

type Registry struct {
	mu         sync.RWMutex
	connectors map[string]ConnectorInterface
}

func (r *Registry) Register(c ConnectorInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connectors[c.Name()]; ok {
		return fmt.Errorf("connector %q already registered", c.Name())
	}
	r.connectors[c.Name()] = c

	return nil
}

func (r *Registry) Get(name string) (ConnectorInterface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connectors[name]
	if !ok {
		return nil, NotSupported(name)
	}
	return c, nil
}

// List returns the registered connectors sorted by name.
func (r *Registry) List() []ConnectorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ConnectorInfo, 0, len(r.connectors))
	for _, c := range r.connectors {
		infos = append(infos, ConnectorInfo{Name: c.Name(), DisplayName: c.DisplayName()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

func NewRegistry(connectors ...ConnectorInterface) (*Registry, error) {
	r := new(Registry)
	r.connectors = make(map[string]ConnectorInterface)

	for _, c := range connectors {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}
