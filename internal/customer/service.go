package customer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=customer
type Repository interface {
	// LoadRaw returns the stored customers file keyed by name, with each
	// value left undecoded so legacy entries can be recognised.
	LoadRaw() map[string]json.RawMessage
	SaveAll(customers map[string]Customer) error
}

// Registry owns the in-memory customer map. It is safe for concurrent use.
type Registry struct {
	repo Repository

	mu        sync.RWMutex
	customers map[string]Customer
}

func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:      repo,
		customers: make(map[string]Customer),
	}
}

// LoadAll replaces the in-memory map with the stored customers, migrating
// legacy entries. The migrated map is written back only if an entry changed
// shape.
func (r *Registry) LoadAll() []Customer {
	raw := r.repo.LoadRaw()

	migrated, changed := Migrate(raw)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.customers = migrated

	if changed {
		slog.Info("migrated customers file", "count", len(migrated))

		if err := r.repo.SaveAll(r.customers); err != nil {
			slog.Error("failed to persist migrated customers", "error", err)
		}
	}

	return r.all()
}

// Migrate converts a raw customers file into structured customers. Bare
// address strings become {address, prefix: ""}; anything that is neither a
// string nor an object becomes an empty customer. changed reports whether
// any entry differs from its stored form.
func Migrate(raw map[string]json.RawMessage) (map[string]Customer, bool) {
	out := make(map[string]Customer, len(raw))
	changed := false

	for name, value := range raw {
		c, same := migrateEntry(value)
		c.Name = name
		out[name] = c

		if !same {
			changed = true
		}
	}

	return out, changed
}

func migrateEntry(value json.RawMessage) (Customer, bool) {
	var address string
	if err := json.Unmarshal(value, &address); err == nil {
		return Customer{Address: address}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(value, &fields); err != nil || fields == nil {
		return Customer{}, false
	}

	var c Customer

	addrOK := stringField(fields, "address", &c.Address)
	prefixOK := stringField(fields, "prefix", &c.Prefix)

	return c, addrOK && prefixOK && len(fields) == 2
}

func stringField(fields map[string]json.RawMessage, key string, dst *string) bool {
	v, ok := fields[key]
	if !ok {
		return false
	}

	return json.Unmarshal(v, dst) == nil
}

// Add registers a new customer. The registry is left untouched on error.
func (r *Registry) Add(name, address, prefix string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.customers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	r.customers[name] = Customer{
		Name:    name,
		Address: strings.TrimSpace(address),
		Prefix:  strings.TrimSpace(prefix),
	}

	slog.Debug("added customer", "name", name, "prefix", prefix)

	return nil
}

// Remove deletes a customer. Removing an unknown name is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.customers, name)
}

// Update sets the address and prefix of name, creating the customer if it
// does not exist, and persists the registry immediately.
func (r *Registry) Update(name, address, prefix string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.customers[name] = Customer{
		Name:    name,
		Address: strings.TrimSpace(address),
		Prefix:  strings.TrimSpace(prefix),
	}

	return r.save()
}

// Save persists the whole customer map.
func (r *Registry) Save() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.save()
}

func (r *Registry) save() error {
	if err := r.repo.SaveAll(r.customers); err != nil {
		return fmt.Errorf("saving customers: %w", err)
	}

	return nil
}

func (r *Registry) Get(name string) (Customer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[name]
	return c, ok
}

// Names returns the customer names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.customers))
	for name := range r.customers {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// All returns the customers sorted by name.
func (r *Registry) All() []Customer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.all()
}

func (r *Registry) all() []Customer {
	names := r.names()

	out := make([]Customer, 0, len(names))
	for _, name := range names {
		out = append(out, r.customers[name])
	}

	return out
}

// MatchAddress finds the customer whose trimmed address equals the trimmed
// input. Ties resolve to the first name in sorted order.
func (r *Registry) MatchAddress(address string) (Customer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := strings.TrimSpace(address)

	for _, name := range r.names() {
		c := r.customers[name]
		if strings.TrimSpace(c.Address) == want {
			return c, true
		}
	}

	return Customer{}, false
}
