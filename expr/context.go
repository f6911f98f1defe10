// Package expr implements the assembler's constant-expression language:
// integer literals, identifiers, and the usual arithmetic/bitwise
// operators, evaluated against a Context of bound names.
package expr

import (
	"fmt"
	"strings"
)

// Context is the case-insensitive symbol table used to evaluate
// expressions. It also exposes the pseudo-identifiers that resolve to
// the current instruction's address and the addresses of the next few
// instructions, used by macros such as CALL to compute return addresses.
type Context struct {
	values map[string]int64

	// CurrentAddr is the address of the instruction being assembled.
	// NextAddrs[i] is the address i+1 instructions ahead; the assembler
	// keeps this populated as it walks the program during the address
	// pass so _NEXT_ADDR_ and friends resolve mid-pass.
	CurrentAddr int64
	NextAddrs   []int64
}

// well-known pseudo-identifiers resolved directly against the context
// rather than the value map.
const (
	identAddr      = "_addr_"
	identNextAddr  = "_next_addr_"
	identSkipAddr  = "_skip_addr_"
	identSkip2Addr = "_skip2_addr_"
)

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{values: make(map[string]int64)}
}

func key(name string) string { return strings.ToLower(name) }

// AddIdentifier binds name to value. Redefining a name with a different
// value is an error; redefining with the same value is a silent no-op.
func (c *Context) AddIdentifier(name string, value int64) error {
	k := key(name)
	if existing, ok := c.values[k]; ok && existing != value {
		return fmt.Errorf("identifier %q redefined with a different value (was %d, now %d)", name, existing, value)
	}
	c.values[k] = value
	return nil
}

// SetIdentifier binds name to value unconditionally, overwriting any
// prior binding. Used by the linker's fixed-point passes to update label
// addresses as instruction sizes change.
func (c *Context) SetIdentifier(name string, value int64) {
	c.values[key(name)] = value
}

// Lookup resolves an identifier, including the pseudo-address names.
func (c *Context) Lookup(name string) (int64, error) {
	switch key(name) {
	case identAddr:
		return c.CurrentAddr, nil
	case identNextAddr:
		return c.nextAddr(0)
	case identSkipAddr:
		return c.nextAddr(1)
	case identSkip2Addr:
		return c.nextAddr(2)
	}
	if v, ok := c.values[key(name)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("identifier %q not found", name)
}

func (c *Context) nextAddr(n int) (int64, error) {
	if n >= len(c.NextAddrs) {
		return 0, fmt.Errorf("address lookahead %d instructions unavailable here", n+1)
	}
	return c.NextAddrs[n], nil
}

// Has reports whether name is bound (pseudo-addresses are always
// considered bound).
func (c *Context) Has(name string) bool {
	switch key(name) {
	case identAddr, identNextAddr, identSkipAddr, identSkip2Addr:
		return true
	}
	_, ok := c.values[key(name)]
	return ok
}
