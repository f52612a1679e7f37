// Package regfile holds architecture registers and the alias views that
// overlay them.
//
// Every register is a canonical storage slot of a declared width. An alias
// names Width bits of a canonical register starting at bit Offset; reading
// it extracts those bits and writing it replaces exactly those bits.
package regfile

import (
	"cmp"
	"iter"
	"maps"
	"slices"

	"github.com/ezrec/reil/internal"
)

// RegisterFile is the register state of one execution.
//
// RegisterFile is not safe for concurrent use.
type RegisterFile struct {
	layout  Layout
	width   map[string]uint
	aliases map[string]Alias
	value   map[string]uint64
}

// New creates a zeroed register file for a layout.
func New(layout Layout) (rf *RegisterFile, err error) {
	err = layout.Validate()
	if err != nil {
		return
	}

	rf = &RegisterFile{
		layout:  layout,
		width:   make(map[string]uint, len(layout.Registers)+len(layout.Aliases)),
		aliases: make(map[string]Alias, len(layout.Aliases)),
		value:   make(map[string]uint64, len(layout.Registers)),
	}

	for _, reg := range layout.Registers {
		rf.width[reg.Name] = reg.Width
		rf.value[reg.Name] = 0
	}

	for _, alias := range layout.Aliases {
		rf.width[alias.Name] = alias.Width
		rf.aliases[alias.Name] = alias
	}

	return
}

// Layout returns the layout the register file was built from.
func (rf *RegisterFile) Layout() Layout {
	return rf.layout
}

// Has returns true if name is a register or an alias.
func (rf *RegisterFile) Has(name string) (ok bool) {
	_, ok = rf.width[name]
	return
}

// Width returns the declared width of a register or alias.
func (rf *RegisterFile) Width(name string) (width uint, err error) {
	width, ok := rf.width[name]
	if !ok {
		err = ErrRegister(name)
	}
	return
}

// check verifies name exists with exactly width bits.
func (rf *RegisterFile) check(name string, width uint) (err error) {
	declared, err := rf.Width(name)
	if err != nil {
		return
	}

	if width != declared {
		err = ErrWidth{Name: name, Width: declared, Size: width}
		return
	}

	return
}

// Get reads a width bit register or alias.
func (rf *RegisterFile) Get(name string, width uint) (value uint64, err error) {
	err = rf.check(name, width)
	if err != nil {
		return
	}

	alias, ok := rf.aliases[name]
	if !ok {
		value = rf.value[name]
		return
	}

	value = internal.Field(rf.value[alias.Base], alias.Offset, alias.Width)
	return
}

// Set writes a width bit register or alias. Bits of value beyond width are
// discarded. Writing an alias leaves the rest of its base register intact.
func (rf *RegisterFile) Set(name string, width uint, value uint64) (err error) {
	err = rf.check(name, width)
	if err != nil {
		return
	}

	alias, ok := rf.aliases[name]
	if !ok {
		rf.value[name] = value & internal.Mask[uint64](width)
		return
	}

	rf.value[alias.Base] = internal.Insert(rf.value[alias.Base], value, alias.Offset, alias.Width)
	return
}

// Value reads a register or alias at its declared width.
func (rf *RegisterFile) Value(name string) (value uint64, err error) {
	width, err := rf.Width(name)
	if err != nil {
		return
	}

	return rf.Get(name, width)
}

// Reset zeroes every register.
func (rf *RegisterFile) Reset() {
	for name := range rf.value {
		rf.value[name] = 0
	}
}

// Load seeds registers from a context. Base registers are written first,
// then aliases from widest to narrowest, so an alias entry always wins for
// the bits it covers.
func (rf *RegisterFile) Load(ctx map[string]uint64) (err error) {
	var aliases []Alias

	for _, name := range slices.Sorted(maps.Keys(ctx)) {
		alias, ok := rf.aliases[name]
		if ok {
			aliases = append(aliases, alias)
			continue
		}
		var width uint
		width, err = rf.Width(name)
		if err != nil {
			return
		}
		err = rf.Set(name, width, ctx[name])
		if err != nil {
			return
		}
	}

	slices.SortStableFunc(aliases, func(a, b Alias) int {
		return cmp.Compare(b.Width, a.Width)
	})

	for _, alias := range aliases {
		err = rf.Set(alias.Name, alias.Width, ctx[alias.Name])
		if err != nil {
			return
		}
	}

	return
}

// Registers iterates base registers in layout order.
func (rf *RegisterFile) Registers() iter.Seq2[string, uint64] {
	return func(yield func(string, uint64) bool) {
		for _, reg := range rf.layout.Registers {
			if !yield(reg.Name, rf.value[reg.Name]) {
				return
			}
		}
	}
}

// Aliases iterates alias views in layout order.
func (rf *RegisterFile) Aliases() iter.Seq2[string, uint64] {
	return func(yield func(string, uint64) bool) {
		for _, alias := range rf.layout.Aliases {
			value := internal.Field(rf.value[alias.Base], alias.Offset, alias.Width)
			if !yield(alias.Name, value) {
				return
			}
		}
	}
}

// All iterates base registers, then alias views.
func (rf *RegisterFile) All() iter.Seq2[string, uint64] {
	return internal.IterSeq2Concat(rf.Registers(), rf.Aliases())
}

// Context returns every register and alias value.
func (rf *RegisterFile) Context() map[string]uint64 {
	return maps.Collect(rf.All())
}
