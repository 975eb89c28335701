package vmcache

// SetHidden marks id hidden or visible for this session.
func (c *Cache) SetHidden(id string, hidden bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setHiddenLocked(id, hidden)
}

// ToggleHidden flips id's hidden flag and returns the new value.
func (c *Cache) ToggleHidden(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, hidden := (*c.hidden.Load())[id]
	c.setHiddenLocked(id, !hidden)
	return !hidden
}

// IsHidden reports whether id is hidden.
func (c *Cache) IsHidden(id string) bool {
	_, ok := (*c.hidden.Load())[id]
	return ok
}

func (c *Cache) setHiddenLocked(id string, hidden bool) {
	old := *c.hidden.Load()
	if _, ok := old[id]; ok == hidden {
		return
	}

	next := make(map[string]struct{}, len(old)+1)
	for k := range old {
		next[k] = struct{}{}
	}
	if hidden {
		next[id] = struct{}{}
	} else {
		delete(next, id)
	}
	c.hidden.Store(&next)
}

// Visible filters out hidden VMs.
func Visible(vms []VM) []VM {
	out := make([]VM, 0, len(vms))
	for _, vm := range vms {
		if !vm.Hidden {
			out = append(out, vm)
		}
	}
	return out
}
