package store

import (
	"encoding/json"
	"fmt"

	"github.com/MrJamesThe3rd/facture/internal/customer"
	"github.com/MrJamesThe3rd/facture/internal/store"
)

const fileName = "customers.json"

type Store struct {
	s *store.Store
}

func New(s *store.Store) *Store {
	return &Store{s: s}
}

func (s *Store) LoadRaw() map[string]json.RawMessage {
	return store.Load(s.s, fileName, map[string]json.RawMessage{})
}

func (s *Store) SaveAll(customers map[string]customer.Customer) error {
	if err := s.s.Write(fileName, customers); err != nil {
		return fmt.Errorf("writing customers: %w", err)
	}

	return nil
}
