package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// ErrPackNotFound is returned when a pack id is not part of the catalog.
var ErrPackNotFound = errors.New("pack_not_found")

// Catalog is an immutable, validated set of packs. Every pack it holds
// satisfies ValidateRanges, so consumers can resolve tiers without
// rechecking integrity.
type Catalog struct {
	packs []Pack
	index map[snowflake.ID]int
}

// NewCatalog validates every pack and keeps them in the given order.
func NewCatalog(packs []Pack) (*Catalog, error) {
	c := &Catalog{
		packs: make([]Pack, 0, len(packs)),
		index: make(map[snowflake.ID]int, len(packs)),
	}
	for _, p := range packs {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate pack id %s in catalog", p.ID)
		}
		c.index[p.ID] = len(c.packs)
		c.packs = append(c.packs, p.Clone())
	}
	return c, nil
}

// Get returns a copy of the pack with the given id.
func (c *Catalog) Get(id snowflake.ID) (Pack, error) {
	if c == nil {
		return Pack{}, ErrPackNotFound
	}
	i, ok := c.index[id]
	if !ok {
		return Pack{}, ErrPackNotFound
	}
	return c.packs[i].Clone(), nil
}

// ListActive returns active packs of the given year in insertion order.
func (c *Catalog) ListActive(year int) []Pack {
	if c == nil {
		return nil
	}
	out := make([]Pack, 0, len(c.packs))
	for _, p := range c.packs {
		if p.IsActive && p.Year == year {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.packs)
}
