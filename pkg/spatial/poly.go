package spatial

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paulmach/orb"
)

// ParsePoly reads an Osmosis polygon-filter stream and returns the boundary
// ring of the named section.
//
// A poly file can hold several named sections (the region itself plus
// neighbouring areas that fall inside the bounding rectangle). Headers at
// nesting depth zero name a section, headers at depth one number a
// sub-polygon, indented lines are "<lng> <lat>" coordinate pairs and END pops
// one level. Only coordinates inside the section whose name matches (case
// insensitively) are ingested; sub-polygons of that section are merged into a
// single ring.
func ParsePoly(r io.Reader, name string) (orb.Ring, error) {
	var (
		ring    orb.Ring
		section string
		depth   int
	)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if !strings.HasPrefix(raw, " ") && !strings.HasPrefix(raw, "\t") {
			if strings.HasPrefix(raw, "END") {
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					section = ""
				}
				continue
			}
			if depth == 0 {
				section = strings.TrimSpace(raw)
			}
			depth++
			continue
		}
		if depth == 2 && strings.EqualFold(section, name) {
			var lng, lat float64
			if _, err := fmt.Sscan(raw, &lng, &lat); err != nil {
				return nil, fmt.Errorf("poly line %d: %w", line, err)
			}
			ring = append(ring, orb.Point{lng, lat})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading poly stream: %w", err)
	}
	if len(ring) == 0 {
		return nil, fmt.Errorf("poly stream has no section named %q", name)
	}
	return ring, nil
}

// LoadRegion parses the poly file at path and builds the named region.
func LoadRegion(path, name string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening poly file: %w", err)
	}
	defer f.Close()

	ring, err := ParsePoly(f, name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return NewRegion(name, ring)
}
