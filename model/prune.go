package model

// Reachable returns the ids reachable from root through direct references,
// in breadth-first order starting with root. Paths are not followed: they
// name attributes of sites that are themselves reachable.
func (t *Table) Reachable(root ObjectID) []ObjectID {
	if !t.Has(root) {
		return nil
	}
	seen := map[ObjectID]bool{root: true}
	queue := []ObjectID{root}
	var order []ObjectID

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		o := t.objects[current]
		for _, a := range o.attrs() {
			l, _ := o.Locator(a)
			if !l.Direct() || seen[l.Object] || !t.Has(l.Object) {
				continue
			}
			seen[l.Object] = true
			queue = append(queue, l.Object)
		}
	}
	return order
}

// Prune returns a new unfrozen table holding only the objects reachable
// from root. Ids are preserved.
func (t *Table) Prune(root ObjectID) *Table {
	out := NewTable()
	for _, id := range t.Reachable(root) {
		// objects already passed Validate on the way in
		_ = out.Put(id, t.objects[id])
	}
	return out
}
