// Package prefix is the in-memory address-book backend: a two-level radix
// index per region mapping street → city → building number, with prefix
// range queries on street names and numbers.
package prefix

import (
	"context"
	"fmt"
	"sort"
	"strings"

	iradix "github.com/hashicorp/go-immutable-radix"

	"wayfarer/pkg/geocoder"
	"wayfarer/pkg/model"
)

// Backend indexes buildings per region. Inserts are additive until Seal;
// afterwards the backend is read-only and safe for concurrent lookups.
type Backend struct {
	regions map[string]*regionIndex
	sealed  bool
}

type regionIndex struct {
	streets *iradix.Tree // folded street name → *streetNode
	size    int
}

type streetNode struct {
	name   string
	cities *iradix.Tree // folded city name → *cityNode
}

type cityNode struct {
	name    string
	numbers *iradix.Tree // uppercased number → model.Building
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{regions: make(map[string]*regionIndex)}
}

// AddRegion registers an empty region index.
func (b *Backend) AddRegion(region string) {
	if _, ok := b.regions[region]; !ok {
		b.regions[region] = &regionIndex{streets: iradix.New()}
	}
}

// Size returns the number of indexed buildings in the region.
func (b *Backend) Size(region string) int {
	if r, ok := b.regions[region]; ok {
		return r.size
	}
	return 0
}

// Insert adds one building to its region's index. Buildings must carry
// coordinates, city, street and number. A duplicate (street, city, number)
// tuple is dropped silently: large complexes export one entry per wing and
// the first coordinates are as good as any.
func (b *Backend) Insert(region string, bld model.Building) error {
	if b.sealed {
		return fmt.Errorf("index for %s is sealed", region)
	}
	r, ok := b.regions[region]
	if !ok {
		return fmt.Errorf("%s: %w", region, geocoder.ErrRegionNotIndexed)
	}
	if !bld.Addressable() {
		return fmt.Errorf("building %d is not addressable (coords, city, street and number are required)", bld.ID)
	}

	streetKey := []byte(geocoder.Fold(bld.Street))
	var sn *streetNode
	if v, ok := r.streets.Get(streetKey); ok {
		sn = v.(*streetNode)
	} else {
		sn = &streetNode{name: bld.Street, cities: iradix.New()}
		r.streets, _, _ = r.streets.Insert(streetKey, sn)
	}

	cityKey := []byte(geocoder.Fold(bld.City))
	var cn *cityNode
	if v, ok := sn.cities.Get(cityKey); ok {
		cn = v.(*cityNode)
	} else {
		cn = &cityNode{name: bld.City, numbers: iradix.New()}
		sn.cities, _, _ = sn.cities.Insert(cityKey, cn)
	}

	numberKey := []byte(strings.ToUpper(bld.Number))
	if _, dup := cn.numbers.Get(numberKey); dup {
		return nil
	}
	bld.Number = strings.ToUpper(bld.Number)
	cn.numbers, _, _ = cn.numbers.Insert(numberKey, bld)
	r.size++
	return nil
}

// Seal ends the load phase; further inserts fail.
func (b *Backend) Seal() { b.sealed = true }

// Lookup applies the match/hint policy over the region's radix index.
func (b *Backend) Lookup(_ context.Context, region string, c geocoder.AddressComponents) (geocoder.Result, error) {
	r, ok := b.regions[region]
	if !ok {
		return geocoder.Result{}, fmt.Errorf("%s: %w", region, geocoder.ErrRegionNotIndexed)
	}

	switch {
	case c.Building != "" && c.Street != "":
		return r.buildingMatches(c), nil
	case c.Building == "" && c.Street != "":
		return r.streetHints(c), nil
	default:
		return geocoder.Result{}, nil
	}
}

func (r *regionIndex) buildingMatches(c geocoder.AddressComponents) geocoder.Result {
	var result geocoder.Result
	numberPrefix := []byte(strings.ToUpper(strings.TrimSpace(c.Building)))
	cityPrefix := []byte(geocoder.Fold(strings.TrimSpace(c.City)))

	r.eachStreet(c.Street, func(sn *streetNode) {
		sn.cities.Root().WalkPrefix(cityPrefix, func(_ []byte, v interface{}) bool {
			cn := v.(*cityNode)
			cn.numbers.Root().WalkPrefix(numberPrefix, func(_ []byte, nv interface{}) bool {
				bld := nv.(model.Building)
				if c.Zipcode == "" || strings.HasPrefix(bld.Zipcode, strings.TrimSpace(c.Zipcode)) {
					result.Matches = append(result.Matches, bld)
				}
				return false
			})
			return false
		})
	})

	sort.Slice(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.City != b.City {
			return a.City < b.City
		}
		return a.Number < b.Number
	})
	return result
}

func (r *regionIndex) streetHints(c geocoder.AddressComponents) geocoder.Result {
	var result geocoder.Result
	cityPrefix := []byte(geocoder.Fold(strings.TrimSpace(c.City)))

	r.eachStreet(c.Street, func(sn *streetNode) {
		sn.cities.Root().WalkPrefix(cityPrefix, func(_ []byte, v interface{}) bool {
			cn := v.(*cityNode)
			result.Hints = append(result.Hints, geocoder.AddressComponents{
				City:   cn.name,
				Street: sn.name,
			})
			return false
		})
	})

	sort.Slice(result.Hints, func(i, j int) bool {
		a, b := result.Hints[i], result.Hints[j]
		if a.Street != b.Street {
			return a.Street < b.Street
		}
		return a.City < b.City
	})
	return result
}

func (r *regionIndex) eachStreet(street string, fn func(*streetNode)) {
	prefix := []byte(geocoder.Fold(strings.TrimSpace(street)))
	r.streets.Root().WalkPrefix(prefix, func(_ []byte, v interface{}) bool {
		fn(v.(*streetNode))
		return false
	})
}
