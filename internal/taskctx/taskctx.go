// Package taskctx maps the short numbers shown by the last listing to
// full task references.
package taskctx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"rtmbot/internal/service"
)

// ID is a 1-based position in the last rendered list.
type ID int

// ParseID parses a context id as typed by the user.
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, &UnknownIDError{ID: s}
	}
	return ID(n), nil
}

func (id ID) String() string { return strconv.Itoa(int(id)) }

// UnknownIDError is returned when a context id is not in the current context.
type UnknownIDError struct {
	ID string
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("There is no task with ID %s in your current context", e.ID)
}

// Entry is one numbered reference.
type Entry struct {
	ID  ID              `json:"id"`
	Ref service.TaskRef `json:"ref"`
}

// Context is the ordered id → reference mapping of one user.
// The zero value is an empty context.
type Context struct {
	entries map[ID]service.TaskRef
}

// New creates an empty context.
func New() *Context {
	return &Context{entries: make(map[ID]service.TaskRef)}
}

// Put replaces the whole context, numbering refs from 1.
func (c *Context) Put(refs []service.TaskRef) {
	entries := make(map[ID]service.TaskRef, len(refs))
	for i, ref := range refs {
		entries[ID(i+1)] = ref
	}
	c.entries = entries
}

// Resolve returns the reference stored under id.
func (c *Context) Resolve(id string) (service.TaskRef, error) {
	n, err := ParseID(id)
	if err != nil {
		return service.TaskRef{}, err
	}
	ref, ok := c.entries[n]
	if !ok {
		return service.TaskRef{}, &UnknownIDError{ID: id}
	}
	return ref, nil
}

// Remove drops id from the context. Removing an absent id is a no-op.
func (c *Context) Remove(id string) {
	n, err := ParseID(id)
	if err != nil {
		return
	}
	delete(c.entries, n)
}

// Clear empties the context.
func (c *Context) Clear() {
	c.entries = make(map[ID]service.TaskRef)
}

// Rebind points every entry referring to old at updated instead.
// Used when a task moves to another list and gets a new list id.
func (c *Context) Rebind(old, updated service.TaskRef) {
	for id, ref := range c.entries {
		if ref == old {
			c.entries[id] = updated
		}
	}
}

// Len returns the number of entries.
func (c *Context) Len() int { return len(c.entries) }

// Entries returns the entries ordered by id.
func (c *Context) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for id, ref := range c.entries {
		out = append(out, Entry{ID: id, Ref: ref})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MarshalJSON encodes the context as an ordered entry list.
func (c *Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Entries())
}

// UnmarshalJSON decodes an entry list produced by MarshalJSON.
func (c *Context) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	c.entries = make(map[ID]service.TaskRef, len(entries))
	for _, e := range entries {
		if e.ID < 1 {
			return fmt.Errorf("invalid context id: %d", e.ID)
		}
		c.entries[e.ID] = e.Ref
	}
	return nil
}
