package events

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/cache-fest/festival-registration/slices"
)

const paisePerRupee = 100

// Event is an entry of the festival catalog. Prices are whole rupees.
type Event struct {
	ID       string
	Name     string
	Price    int64
	Category Category
}

// Rupees converts a whole-rupee amount to money.
func Rupees(amount int64) *money.Money {
	return money.New(amount*paisePerRupee, money.INR)
}

// Catalog is immutable once built.
type Catalog struct {
	entries []Event
	byID    map[string]Event
}

func NewCatalog(entries ...Event) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Event, 0, len(entries)),
		byID:    make(map[string]Event, len(entries)),
	}

	for _, e := range entries {
		if e.ID == "" {
			return nil, NewInvalidCatalogEntryError("Event ID must not be empty")
		}
		if e.Price < 0 {
			return nil, NewInvalidCatalogEntryError(fmt.Sprintf("Event %q has a negative price", e.ID))
		}
		if _, ok := c.byID[e.ID]; ok {
			return nil, NewEventAlreadyExistsError(fmt.Sprintf("Event %q is listed twice", e.ID), nil)
		}
		c.entries = append(c.entries, e)
		c.byID[e.ID] = e
	}

	return c, nil
}

func (c *Catalog) Get(id string) (Event, error) {
	e, ok := c.byID[id]
	if !ok {
		return Event{}, NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q not found", id), nil)
	}
	return e, nil
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

func (c *Catalog) All() []Event {
	out := make([]Event, len(c.entries))
	copy(out, c.entries)
	return out
}

// ByCategory keeps catalog order.
func (c *Catalog) ByCategory(category Category) []Event {
	return slices.Filter(c.All(), func(e Event) bool {
		return e.Category == category
	})
}

// Total sums the price of every distinct id that is in the catalog. Unknown ids add nothing.
func (c *Catalog) Total(ids []string) int64 {
	seen := make(map[string]struct{}, len(ids))
	var total int64
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		total += c.byID[id].Price
	}
	return total
}

// NameAndPrice falls back to the raw id and a zero price for ids outside the catalog.
func (c *Catalog) NameAndPrice(id string) (string, int64) {
	e, err := c.Get(id)
	if err != nil {
		return id, 0
	}
	return e.Name, e.Price
}
