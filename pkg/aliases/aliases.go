package aliases

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDuplicateAddress = errors.New("duplicate address")

// Table maps device addresses to human-readable display names. It is built
// once before the pipeline starts and read-only afterwards, so lookups are
// safe from concurrent goroutines.
type Table struct {
	names map[string]string
}

// New builds an alias table from address to display name pairs. Addresses
// that differ only in case count as duplicates and fail construction.
func New(pairs map[string]string) (*Table, error) {
	names := make(map[string]string, len(pairs))
	for addr, name := range pairs {
		key := canonical(addr)
		if _, ok := names[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAddress, key)
		}
		names[key] = name
	}
	return &Table{names: names}, nil
}

// Resolve returns the configured display name for the given device address,
// or the address itself in canonical colon-hex form when no alias is
// configured. Resolve never fails.
func (t *Table) Resolve(addr string) string {
	key := canonical(addr)
	if t != nil {
		if name, ok := t.names[key]; ok {
			return name
		}
	}
	return key
}

// Len returns the number of configured aliases.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

func canonical(addr string) string {
	return strings.ToUpper(strings.TrimSpace(addr))
}
