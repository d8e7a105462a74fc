package catalog

import "slices"

// Select appends a displayed path to the selection and returns its
// 1-based order. Selecting an already selected path returns its current
// order; a path not on display returns 0.
func (c *Catalog) Select(path string) int {
	if n := c.OrderOf(path); n > 0 {
		return n
	}
	if !slices.Contains(c.displayed, path) {
		return 0
	}
	c.selection = append(c.selection, path)
	c.sync()
	return len(c.selection)
}

// Deselect removes path from the selection. Later entries move up so the
// order stays contiguous.
func (c *Catalog) Deselect(path string) bool {
	i := slices.Index(c.selection, path)
	if i < 0 {
		return false
	}
	c.selection = slices.Delete(c.selection, i, i+1)
	c.sync()
	return true
}

// Toggle flips the selection state of path and returns its new order, or
// 0 when it is no longer selected.
func (c *Catalog) Toggle(path string) int {
	if c.Deselect(path) {
		return 0
	}
	return c.Select(path)
}

// SelectAll selects every displayed path not yet selected, in display
// order, after the existing selection.
func (c *Catalog) SelectAll() {
	for _, p := range c.displayed {
		if !slices.Contains(c.selection, p) {
			c.selection = append(c.selection, p)
		}
	}
	c.sync()
}

// ClearSelection empties the selection.
func (c *Catalog) ClearSelection() {
	c.selection = nil
	c.sync()
}

// SelectionOrder returns the selected paths in the order they were chosen.
func (c *Catalog) SelectionOrder() []string {
	return append([]string(nil), c.selection...)
}

// OrderOf returns the 1-based selection order of path, or 0.
func (c *Catalog) OrderOf(path string) int {
	return slices.Index(c.selection, path) + 1
}
