// Package catalog holds the static card templates decks are built from.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/DoyleJ11/card-duel-backend/internal/engine"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed cards.yaml
var defaultCards []byte

var ErrEmptyCatalog = errors.New("catalog has no cards")

// File is the top-level YAML structure.
type File struct {
	Cards []Entry `yaml:"cards"`
}

// Entry is one card template as written in YAML.
type Entry struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Type        engine.CardType `yaml:"type"`
	Cost        int             `yaml:"cost"`
	Attack      int             `yaml:"attack"`
	Health      int             `yaml:"health"`
	Effects     []engine.Effect `yaml:"effects"`
	Description string          `yaml:"description"`
}

// Catalog is an ordered, read-only set of card templates.
type Catalog struct {
	cards []engine.Card
	byID  map[string]int
}

// Default returns the embedded card set.
func Default() (*Catalog, error) {
	return Parse(defaultCards)
}

// Load reads a catalog from a YAML file. An empty path loads the default set.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	if len(f.Cards) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{byID: make(map[string]int, len(f.Cards))}
	var errs error
	for i, e := range f.Cards {
		if err := e.validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("card %d (%q): %w", i, e.ID, err))
			continue
		}
		if _, dup := c.byID[e.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("card %d: duplicate id %q", i, e.ID))
			continue
		}
		c.byID[e.ID] = len(c.cards)
		c.cards = append(c.cards, e.card())
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

func (e Entry) validate() error {
	var errs error
	if e.ID == "" {
		errs = multierr.Append(errs, errors.New("missing id"))
	}
	switch e.Type {
	case engine.CardUnit:
		if e.Health <= 0 {
			errs = multierr.Append(errs, errors.New("unit needs positive health"))
		}
	case engine.CardTrap, engine.CardResource:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown type %q", e.Type))
	}
	if e.Cost < 0 {
		errs = multierr.Append(errs, errors.New("negative cost"))
	}
	for _, eff := range e.Effects {
		if eff.Trigger == "" {
			errs = multierr.Append(errs, errors.New("effect without trigger"))
		}
	}
	return errs
}

func (e Entry) card() engine.Card {
	return engine.Card{
		ID:          e.ID,
		TemplateID:  e.ID,
		Name:        e.Name,
		Type:        e.Type,
		Cost:        e.Cost,
		Attack:      e.Attack,
		Health:      e.Health,
		Effects:     append([]engine.Effect{}, e.Effects...),
		Description: e.Description,
	}
}

// Cards returns a copy of the templates in file order.
func (c *Catalog) Cards() []engine.Card {
	out := make([]engine.Card, len(c.cards))
	for i := range c.cards {
		out[i] = *c.cards[i].Clone()
	}
	return out
}

func (c *Catalog) Len() int { return len(c.cards) }

// Lookup returns a copy of the template with the given id.
func (c *Catalog) Lookup(id string) (engine.Card, bool) {
	i, ok := c.byID[id]
	if !ok {
		return engine.Card{}, false
	}
	return *c.cards[i].Clone(), true
}
