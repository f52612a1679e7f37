package regfile

import (
	"errors"
)

// MAX_WIDTH is the widest register a layout may declare.
const MAX_WIDTH = 64

// Register is a canonical storage slot.
type Register struct {
	Name  string `toml:"name" yaml:"name"`
	Width uint   `toml:"width" yaml:"width"`
}

// Alias is a narrower named view of Width bits of Base, starting at bit Offset.
type Alias struct {
	Name   string `toml:"name" yaml:"name"`
	Base   string `toml:"base" yaml:"base"`
	Offset uint   `toml:"offset" yaml:"offset"`
	Width  uint   `toml:"width" yaml:"width"`
}

// Layout is the register set of an architecture.
type Layout struct {
	Registers []Register
	Aliases   []Alias
}

// Validate checks that names are unique, widths are sane, and every alias
// lies entirely inside its base register.
func (layout Layout) Validate() (err error) {
	seen := map[string]uint{}

	for _, reg := range layout.Registers {
		switch {
		case len(reg.Name) == 0:
			err = errors.Join(ErrLayout, errors.New(f("register name missing")))
		case reg.Width == 0 || reg.Width > MAX_WIDTH:
			err = errors.Join(ErrLayout, errors.New(f("register %v width %d not in 1..%d", reg.Name, reg.Width, MAX_WIDTH)))
		default:
			if _, ok := seen[reg.Name]; ok {
				err = errors.Join(ErrLayout, errors.New(f("register %v duplicated", reg.Name)))
			}
		}
		if err != nil {
			return
		}
		seen[reg.Name] = reg.Width
	}

	for _, alias := range layout.Aliases {
		if _, ok := seen[alias.Name]; ok {
			err = errors.Join(ErrLayout, errors.New(f("register %v duplicated", alias.Name)))
			return
		}
		width, ok := seen[alias.Base]
		if !ok {
			err = errors.Join(ErrLayout, ErrRegister(alias.Base))
			return
		}
		if alias.Width == 0 || alias.Offset+alias.Width > width {
			err = errors.Join(ErrLayout, errors.New(f("alias %v (%d bits at %d) exceeds %v", alias.Name, alias.Width, alias.Offset, alias.Base)))
			return
		}
		seen[alias.Name] = 0
	}

	return
}
