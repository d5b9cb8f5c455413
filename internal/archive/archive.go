package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/facture/internal/invoice"
	"github.com/MrJamesThe3rd/facture/internal/store"
)

var (
	ErrInvalidName = errors.New("invalid name")
	ErrNotFound    = errors.New("not found")
)

const (
	templatesDir = "templates"
	historyDir   = "history"
	ext          = ".json"

	stampLayout = "20060102_150405"
)

// Archive keeps named templates and an append-only invoice history as one
// JSON file per payload.
type Archive struct {
	templates string
	history   string
}

func New(root string) (*Archive, error) {
	a := &Archive{
		templates: filepath.Join(root, templatesDir),
		history:   filepath.Join(root, historyDir),
	}

	for _, dir := range []string{a.templates, a.history} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Base(dir), err)
		}
	}

	return a, nil
}

// ListTemplates returns the template names in sorted order.
func (a *Archive) ListTemplates() ([]string, error) {
	return list(a.templates)
}

func (a *Archive) LoadTemplate(name string) (invoice.Payload, error) {
	name, err := cleanName(name)
	if err != nil {
		return invoice.Payload{}, err
	}

	return load(filepath.Join(a.templates, name+ext))
}

// SaveTemplate stores p under name with its adjustments cleared, replacing
// any template of the same name. rate is the combined default tax rate.
func (a *Archive) SaveTemplate(name string, p invoice.Payload, rate decimal.Decimal) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	data, err := store.Encode(invoice.Neutralize(p, rate))
	if err != nil {
		return err
	}

	if err := store.WriteFile(filepath.Join(a.templates, name+ext), data); err != nil {
		return fmt.Errorf("saving template %s: %w", name, err)
	}

	slog.Info("saved template", "name", name)

	return nil
}

// ListHistory returns history entry ids in ascending filename order, which
// for a single invoice number is chronological.
func (a *Archive) ListHistory() ([]string, error) {
	return list(a.history)
}

func (a *Archive) LoadHistory(id string) (invoice.Payload, error) {
	id, err := cleanName(id)
	if err != nil {
		return invoice.Payload{}, err
	}

	return load(filepath.Join(a.history, id+ext))
}

// AppendHistory writes a new history entry and returns its id. Existing
// entries are never overwritten: a clash within the same second gets a
// random suffix.
func (a *Archive) AppendHistory(p invoice.Payload, now time.Time) (string, error) {
	data, err := store.Encode(p)
	if err != nil {
		return "", err
	}

	id := HistoryID(p.Number, now)

	err = createExclusive(filepath.Join(a.history, id+ext), data)
	if errors.Is(err, fs.ErrExist) {
		id = id + "_" + strings.SplitN(uuid.NewString(), "-", 2)[0]
		err = createExclusive(filepath.Join(a.history, id+ext), data)
	}

	if err != nil {
		return "", fmt.Errorf("writing history entry: %w", err)
	}

	slog.Info("appended history entry", "id", id)

	return id, nil
}

// HistoryID names a history entry, e.g. invoice_ACME-0012_20240301_093000.
func HistoryID(number string, now time.Time) string {
	return "invoice_" + sanitize(number) + "_" + now.Format(stampLayout)
}

func createExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func load(path string) (invoice.Payload, error) {
	var p invoice.Payload

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(filepath.Base(path), ext))
	}

	if err != nil {
		return p, err
	}

	if err := store.Decode(data, &p); err != nil {
		return p, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	return p, nil
}

func list(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", filepath.Base(dir), err)
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}

		names = append(names, strings.TrimSuffix(name, ext))
	}

	return names, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return name, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}

		return r
	}, strings.TrimSpace(s))
}
