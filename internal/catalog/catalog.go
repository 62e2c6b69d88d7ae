package catalog

import (
	"fmt"
	"strings"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

// Filter values accepted by Query.Type besides the vehicle types.
const FilterAll = "all"

type Query struct {
	Type   string
	Search string
}

// NewQuery normalizes an incoming filter; unknown types fall back to all.
func NewQuery(filter, search string) Query {
	f := strings.ToLower(strings.TrimSpace(filter))
	if !domain.VehicleType(f).Valid() {
		f = FilterAll
	}
	return Query{Type: f, Search: search}
}

func (q Query) matches(v domain.Vehicle) bool {
	if q.Type != "" && q.Type != FilterAll && string(v.Type) != q.Type {
		return false
	}
	return strings.Contains(strings.ToLower(v.Name), strings.ToLower(q.Search))
}

// Catalog is an immutable, ordered list of vehicles. Accessors return copies.
type Catalog struct {
	vehicles []domain.Vehicle
	byID     map[string]int
}

func New(vehicles []domain.Vehicle) (*Catalog, error) {
	c := &Catalog{
		vehicles: make([]domain.Vehicle, 0, len(vehicles)),
		byID:     make(map[string]int, len(vehicles)),
	}
	for _, v := range vehicles {
		if v.ID == "" {
			return nil, fmt.Errorf("%w: empty id for %q", ErrInvalidVehicle, v.Name)
		}
		if _, dup := c.byID[v.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidVehicle, v.ID)
		}
		if !v.Type.Valid() {
			return nil, fmt.Errorf("%w: vehicle %q has type %q", ErrInvalidVehicle, v.ID, v.Type)
		}
		if v.Price.IsNegative() {
			return nil, fmt.Errorf("%w: vehicle %q has negative price", ErrInvalidVehicle, v.ID)
		}
		c.byID[v.ID] = len(c.vehicles)
		c.vehicles = append(c.vehicles, clone(v))
	}
	return c, nil
}

func (c *Catalog) All() []domain.Vehicle {
	out := make([]domain.Vehicle, len(c.vehicles))
	for i, v := range c.vehicles {
		out[i] = clone(v)
	}
	return out
}

func (c *Catalog) Get(id string) (domain.Vehicle, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Vehicle{}, ErrVehicleNotFound
	}
	return clone(c.vehicles[i]), nil
}

// Filter returns the vehicles matching q in catalog order.
func (c *Catalog) Filter(q Query) []domain.Vehicle {
	out := make([]domain.Vehicle, 0, len(c.vehicles))
	for _, v := range c.vehicles {
		if q.matches(v) {
			out = append(out, clone(v))
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.vehicles)
}

func clone(v domain.Vehicle) domain.Vehicle {
	if v.Gallery != nil {
		v.Gallery = append([]string(nil), v.Gallery...)
	}
	if v.Features != nil {
		v.Features = append([]string(nil), v.Features...)
	}
	return v
}
