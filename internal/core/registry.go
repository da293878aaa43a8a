package core

import (
	"slices"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

var reservedNames = []string{"group", "names", "quit"}

// Registry is the live session <-> display name mapping.
// Names are unique case-insensitively. A Registry is not safe for concurrent
// use; the Hub goroutine owns it.
type Registry struct {
	byClient map[*Client]string
	byName   map[string]*Client // keyed by folded name
	order    []*Client
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byClient: make(map[*Client]string),
		byName:   make(map[string]*Client),
	}
}

// ValidateName reports whether name can be registered at all.
func ValidateName(name string) *CoreError {
	switch {
	case name == "":
		return coreError(ErrCodeInvalidName, "Username must not be empty.")
	case strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return coreError(ErrCodeInvalidName, "Username must not contain spaces.")
	case strings.ContainsRune(name, ','):
		return coreError(ErrCodeInvalidName, "Username must not contain commas.")
	case strings.HasPrefix(name, "@"):
		return coreError(ErrCodeInvalidName, "Username must not start with '@'.")
	case lo.Contains(reservedNames, fold(name)):
		return coreErrorf(ErrCodeInvalidName, "Username '%s' is reserved.", name)
	}
	return nil
}

// Register binds name to c. It fails if the name is invalid, already taken
// by another session (case-insensitively) or c is already registered.
func (r *Registry) Register(c *Client, name string) *CoreError {
	if err := ValidateName(name); err != nil {
		return err
	}
	if _, exists := r.byClient[c]; exists {
		return coreError(ErrCodeAlreadyExists, "Session is already registered.")
	}
	key := fold(name)
	if _, taken := r.byName[key]; taken {
		return coreError(ErrCodeNameTaken, "Existing Username. Please enter another name instead.")
	}
	c.Name = name
	r.byClient[c] = name
	r.byName[key] = c
	r.order = append(r.order, c)
	return nil
}

// Lookup resolves a display name, ignoring case.
func (r *Registry) Lookup(name string) (*Client, *CoreError) {
	c, ok := r.byName[fold(name)]
	if !ok {
		return nil, coreErrorf(ErrCodeNotFound, "User '%s' does not exist.", name)
	}
	return c, nil
}

// Canonical returns the registered spelling of name.
func (r *Registry) Canonical(name string) (string, bool) {
	c, ok := r.byName[fold(name)]
	if !ok {
		return "", false
	}
	return r.byClient[c], true
}

// NameOf returns the display name registered for c.
func (r *Registry) NameOf(c *Client) (string, bool) {
	name, ok := r.byClient[c]
	return name, ok
}

// Remove deletes c from the registry. It reports whether c was present;
// removing an unknown session is a no-op.
func (r *Registry) Remove(c *Client) bool {
	name, ok := r.byClient[c]
	if !ok {
		return false
	}
	delete(r.byClient, c)
	delete(r.byName, fold(name))
	r.order = slices.DeleteFunc(r.order, func(other *Client) bool { return other == c })
	return true
}

// Sessions returns the registered clients in registration order.
func (r *Registry) Sessions() []*Client {
	return slices.Clone(r.order)
}

// Names returns the registered display names in registration order.
func (r *Registry) Names() []string {
	return lo.Map(r.order, func(c *Client, _ int) string { return r.byClient[c] })
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return len(r.order)
}

func fold(name string) string {
	return strings.ToLower(name)
}
