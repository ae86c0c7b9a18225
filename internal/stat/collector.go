package stat

import "slices"

// collector aggregates the modifiers of one (layer, zone) cell.
//
// Totals are rebuilt with a full pass over the bag whenever the cell is
// dirty. Repeated incremental add/subtract would accumulate float drift.
type collector struct {
	entries []*entry

	flatSum    float64
	percentSum float64
	dirty      bool
}

func newCollector() *collector {
	return &collector{entries: make([]*entry, 0, 4)}
}

// Add appends e to the bag. nil is ignored.
func (c *collector) Add(e *entry) {
	if e == nil || e.mod == nil {
		return
	}
	c.entries = append(c.entries, e)
	c.dirty = true
}

// Remove drops the first entry identical to e.
// Returns false (and leaves the cell clean) when e is not in the bag.
func (c *collector) Remove(e *entry) bool {
	if e == nil {
		return false
	}
	for i, existing := range c.entries {
		if existing == e {
			c.entries = slices.Delete(c.entries, i, i+1)
			c.dirty = true
			return true
		}
	}
	return false
}

// Clear empties the bag. The cell itself stays allocated.
func (c *collector) Clear() {
	clear(c.entries)
	c.entries = c.entries[:0]
	c.dirty = true
}

// Len returns the number of modifiers in the bag.
func (c *collector) Len() int { return len(c.entries) }

// Totals returns (flatSum, percentSum), rebuilding the cache if dirty.
func (c *collector) Totals() (flat, pct float64) {
	if c.dirty {
		c.flatSum, c.percentSum = 0, 0
		for _, e := range c.entries {
			if e.mod.percent {
				c.percentSum += e.mod.magnitude
			} else {
				c.flatSum += e.mod.magnitude
			}
		}
		c.dirty = false
	}
	return c.flatSum, c.percentSum
}
