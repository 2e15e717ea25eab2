package catalog

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/odaworks/delivery-cli/internal/store"
)

// StoreSource loads a catalog from a persistence store.
type StoreSource struct {
	store store.Store
}

// NewStoreSource creates a StoreSource backed by the given store.
func NewStoreSource(st store.Store) *StoreSource {
	return &StoreSource{store: st}
}

func (s *StoreSource) Load(ctx context.Context) (*Catalog, error) {
	domains, err := s.store.ListDomains(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: load domains from store")
	}
	functions, err := s.store.ListFunctions(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: load functions from store")
	}

	c := &Catalog{Domains: domains, Functions: functions}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
