package responses

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/titanous/json5"

	"github.com/npepeverse/pepebot/internal/config"
)

// ErrEmptyCategory is returned when a replacement list has no usable entries.
var ErrEmptyCategory = errors.New("response category must not be empty")

// Table holds one non-empty reply list per Category. Lists are only ever
// swapped whole; readers never see a partially updated list.
type Table struct {
	mu     sync.RWMutex
	lists  [numCategories][]string
	expand *strings.Replacer
	intn   func(n int) int
}

// NewTable seeds every category from the built-in defaults.
func NewTable(p config.ProjectConfig) *Table {
	return &Table{
		lists: defaultLists,
		expand: strings.NewReplacer(
			"{project}", p.Name,
			"{ticker}", p.Ticker,
			"{contract_address}", p.ContractAddress,
			"{pump_link}", p.BuyLink(),
			"{website}", p.Website,
			"{telegram}", p.Telegram,
			"{twitter}", p.Twitter,
		),
		intn: rand.IntN,
	}
}

// SetRand replaces the index source used by Pick. Tests use it for determinism.
func (t *Table) SetRand(intn func(n int) int) {
	t.mu.Lock()
	t.intn = intn
	t.mu.Unlock()
}

// Pick returns one uniformly random entry of c with placeholders expanded.
func (t *Table) Pick(c Category) string {
	if !c.Valid() {
		return ""
	}
	t.mu.RLock()
	list := t.lists[c]
	intn := t.intn
	t.mu.RUnlock()
	return t.expand.Replace(list[intn(len(list))])
}

// Expand substitutes project placeholders in s.
func (t *Table) Expand(s string) string {
	return t.expand.Replace(s)
}

// List returns a copy of the raw (unexpanded) entries of c.
func (t *Table) List(c Category) []string {
	if !c.Valid() {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.lists[c]...)
}

// Replace swaps the whole list of c. Blank entries are dropped; a list with
// nothing left is rejected with ErrEmptyCategory and the old list stays.
func (t *Table) Replace(c Category, list []string) error {
	if !c.Valid() {
		return fmt.Errorf("replace %s: unknown category", c)
	}
	clean, err := cleanList(c, list)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.lists[c] = clean
	t.mu.Unlock()
	return nil
}

func cleanList(c Category, list []string) ([]string, error) {
	clean := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, s)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("replace %s: %w", c, ErrEmptyCategory)
	}
	return clean, nil
}

// LoadOverrides reads a json5 object of {category_name: [replies]} and replaces
// each named category. Either every listed category is applied or none is.
func (t *Table) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read overrides: %w", err)
	}
	var raw map[string][]string
	if err := json5.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse overrides: %w", err)
	}

	staged := make(map[Category][]string, len(raw))
	for name, list := range raw {
		c, err := ParseCategory(name)
		if err != nil {
			return fmt.Errorf("overrides: %w", err)
		}
		clean, err := cleanList(c, list)
		if err != nil {
			return fmt.Errorf("overrides: %w", err)
		}
		staged[c] = clean
	}

	t.mu.Lock()
	for c, list := range staged {
		t.lists[c] = list
	}
	t.mu.Unlock()
	return nil
}
