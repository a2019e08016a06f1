package form

import "sort"

// Actions maps an event name to the ordered scripts bound to it. Event
// names keep their first-insertion order.
type Actions struct {
	names   []string
	scripts map[string][]string
}

// NewActions builds an action map from a plain map. Keys are inserted in
// sorted order since Go maps carry none.
func NewActions(m map[string][]string) *Actions {
	a := &Actions{scripts: make(map[string][]string, len(m))}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.Set(k, m[k])
	}
	return a
}

// Set replaces the scripts bound to name.
func (a *Actions) Set(name string, scripts []string) {
	if a.scripts == nil {
		a.scripts = make(map[string][]string)
	}
	if _, ok := a.scripts[name]; !ok {
		a.names = append(a.names, name)
	}
	a.scripts[name] = append([]string(nil), scripts...)
}

// Append adds one script to the end of name's list.
func (a *Actions) Append(name, script string) {
	if a.scripts == nil {
		a.scripts = make(map[string][]string)
	}
	if _, ok := a.scripts[name]; !ok {
		a.names = append(a.names, name)
	}
	a.scripts[name] = append(a.scripts[name], script)
}

// Get returns the scripts bound to name. The boolean is false when no
// list exists for name, which differs from an empty list.
func (a *Actions) Get(name string) ([]string, bool) {
	if a == nil {
		return nil, false
	}
	s, ok := a.scripts[name]
	return s, ok
}

// Names returns the event names in insertion order.
func (a *Actions) Names() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.names...)
}

func (a *Actions) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}
