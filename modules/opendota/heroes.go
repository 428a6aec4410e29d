package opendota

import (
	"context"
	"fmt"
	"sort"
)

// HeroDirectory maps hero ids to localized names. It is loaded once at
// startup and read-only afterwards, so it needs no locking. Construct one
// and hand it to whoever renders hero names; there is no package-level
// instance.
type HeroDirectory struct {
	names   map[int]string
	byName  map[string]int
	ordered []string
}

// LoadHeroDirectory fetches /heroStats and builds the lookup tables.
func LoadHeroDirectory(ctx context.Context, c Client) (*HeroDirectory, error) {
	heroes, err := c.HeroStats(ctx)
	if err != nil {
		return nil, err
	}

	d := &HeroDirectory{
		names:  make(map[int]string, len(heroes)),
		byName: make(map[string]int, len(heroes)),
	}
	for _, h := range heroes {
		d.names[h.ID] = h.LocalizedName
		d.byName[h.LocalizedName] = h.ID
		d.ordered = append(d.ordered, h.LocalizedName)
	}
	sort.Strings(d.ordered)
	return d, nil
}

// HeroName resolves an id to its localized name, falling back to a
// synthetic label for ids the upstream has not published yet.
func (d *HeroDirectory) HeroName(id int) string {
	if name, ok := d.names[id]; ok {
		return name
	}
	return fmt.Sprintf("Hero %d", id)
}

// HeroID is the reverse lookup used by the UI's hero picker.
func (d *HeroDirectory) HeroID(name string) (int, bool) {
	id, ok := d.byName[name]
	return id, ok
}

// Names returns all hero names in alphabetical order.
func (d *HeroDirectory) Names() []string {
	return d.ordered
}
