// Package arch describes the machine an IR program executes against: its
// address width, byte order and register layout.
package arch

import (
	"errors"
	"io"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/reil/memory"
	"github.com/ezrec/reil/regfile"
)

// Arch is an architecture description.
type Arch struct {
	Name        string             `toml:"name"`
	AddressSize uint               `toml:"address_size"`
	ByteOrder   memory.ByteOrder   `toml:"byte_order"`
	Registers   []regfile.Register `toml:"register"`
	Aliases     []regfile.Alias    `toml:"alias"`
}

// Layout returns the register layout of the architecture.
func (arch *Arch) Layout() regfile.Layout {
	return regfile.Layout{
		Registers: arch.Registers,
		Aliases:   arch.Aliases,
	}
}

// Validate checks the address width and register layout.
func (arch *Arch) Validate() (err error) {
	if len(arch.Name) == 0 {
		err = errors.Join(ErrArchInvalid, errors.New(f("name missing")))
		return
	}

	if arch.AddressSize == 0 || arch.AddressSize > memory.MAX_ADDRESS {
		err = errors.Join(ErrArchInvalid, errors.New(f("%v address size %d not in 1..%d", arch.Name, arch.AddressSize, memory.MAX_ADDRESS)))
		return
	}

	err = arch.Layout().Validate()
	if err != nil {
		err = errors.Join(ErrArchInvalid, err)
		return
	}

	return
}

// NewMemory returns an empty memory for the architecture.
func (arch *Arch) NewMemory() (mem *memory.Memory) {
	mem = memory.NewMemory(arch.AddressSize)
	mem.Order = arch.ByteOrder
	return
}

// NewRegisterFile returns a zeroed register file for the architecture.
func (arch *Arch) NewRegisterFile() (*regfile.RegisterFile, error) {
	return regfile.New(arch.Layout())
}

// Load decodes a TOML architecture description.
func Load(input io.Reader) (arch *Arch, err error) {
	arch = &Arch{}

	_, err = toml.NewDecoder(input).Decode(arch)
	if err != nil {
		arch = nil
		return
	}

	err = arch.Validate()
	if err != nil {
		arch = nil
		return
	}

	return
}

var (
	registryLock sync.RWMutex
	registry     = map[string]*Arch{}
)

// Register adds an architecture to the registry.
func Register(arch *Arch) (err error) {
	err = arch.Validate()
	if err != nil {
		return
	}

	registryLock.Lock()
	defer registryLock.Unlock()

	if _, ok := registry[arch.Name]; ok {
		err = errors.Join(ErrArchDuplicate, errors.New(arch.Name))
		return
	}

	registry[arch.Name] = arch
	return
}

// Lookup finds a registered architecture.
func Lookup(name string) (arch *Arch, err error) {
	registryLock.RLock()
	defer registryLock.RUnlock()

	arch, ok := registry[name]
	if !ok {
		err = ErrArchName(name)
	}

	return
}

// Names iterates registered architecture names in sorted order.
func Names() iter.Seq[string] {
	registryLock.RLock()
	names := slices.Sorted(maps.Keys(registry))
	registryLock.RUnlock()

	return slices.Values(names)
}
