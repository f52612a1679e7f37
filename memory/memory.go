// Package memory implements the sparse, byte-addressable store that REIL
// LDM and STM instructions operate on.
//
// Every stored byte is independently addressable: multi-byte writes are
// decomposed into bytes in the configured byte order, and overlapping
// writes simply replace the shared bytes. Bytes never written read as zero.
package memory

import (
	"bufio"
	"io"
	"iter"
	"log"
	"maps"
	"slices"

	"github.com/holiman/uint256"

	"github.com/ezrec/reil/internal"
)

const (
	MAX_SIZE     = 256 // Widest single access, in bits.
	MAX_ADDRESS  = 64  // Widest supported address, in bits.
	DEFAULT_SIZE = 32  // Address width used when none is configured.
)

// Memory is a sparse byte store keyed by an address of AddressSize bits.
//
// Memory is not safe for concurrent use.
type Memory struct {
	Verbose     bool      // If set, logs every access.
	AddressSize uint      // Address width in bits. Addresses wrap modulo 2^AddressSize.
	Order       ByteOrder // Byte order of multi-byte accesses.

	data map[uint64]byte
}

// NewMemory creates an empty little-endian memory with the given address
// width. A zero width selects DEFAULT_SIZE; widths above MAX_ADDRESS are
// clamped.
func NewMemory(addressSize uint) (mem *Memory) {
	if addressSize == 0 {
		addressSize = DEFAULT_SIZE
	}
	if addressSize > MAX_ADDRESS {
		addressSize = MAX_ADDRESS
	}

	mem = &Memory{
		AddressSize: addressSize,
		Order:       LITTLE_ENDIAN,
		data:        make(map[uint64]byte),
	}

	return
}

// Reset discards every stored byte.
func (mem *Memory) Reset() {
	clear(mem.data)
}

// Len returns the number of populated bytes.
func (mem *Memory) Len() int {
	return len(mem.data)
}

// Clone returns an independent copy of the memory.
func (mem *Memory) Clone() *Memory {
	clone := *mem
	clone.data = maps.Clone(mem.data)
	if clone.data == nil {
		clone.data = make(map[uint64]byte)
	}
	return &clone
}

// wrap reduces an address modulo the address space.
func (mem *Memory) wrap(address uint64) uint64 {
	return address & internal.Mask[uint64](mem.AddressSize)
}

// checkSize validates an access width, returning its byte count.
func checkSize(size uint) (count uint, err error) {
	if size == 0 || size%8 != 0 || size > MAX_SIZE {
		err = ErrSize(size)
		return
	}

	count = size / 8
	return
}

// Write stores the low size bits of value at address. size must be a
// positive multiple of 8.
func (mem *Memory) Write(address uint64, size uint, value *uint256.Int) (err error) {
	count, err := checkSize(size)
	if err != nil {
		return
	}

	if mem.data == nil {
		mem.data = make(map[uint64]byte)
	}

	// Bytes32 is big-endian; byte k (LSB first) is at index 31-k.
	bytes := value.Bytes32()
	for k := range count {
		addr := mem.wrap(address + uint64(mem.Order.position(k, count)))
		mem.data[addr] = bytes[31-k]
	}

	if mem.Verbose {
		log.Printf("memory: write %#x/%d = %v", mem.wrap(address), size, value.Hex())
	}

	return
}

// WriteUint64 is Write for values that fit in 64 bits.
func (mem *Memory) WriteUint64(address uint64, size uint, value uint64) (err error) {
	return mem.Write(address, size, uint256.NewInt(value))
}

// Read loads a size bit value from address. Bytes never written read as 0.
func (mem *Memory) Read(address uint64, size uint) (value *uint256.Int, err error) {
	count, err := checkSize(size)
	if err != nil {
		return
	}

	var bytes [32]byte
	for k := range count {
		addr := mem.wrap(address + uint64(mem.Order.position(k, count)))
		bytes[31-k] = mem.data[addr]
	}

	value = new(uint256.Int).SetBytes(bytes[:])

	if mem.Verbose {
		log.Printf("memory: read  %#x/%d = %v", mem.wrap(address), size, value.Hex())
	}

	return
}

// ReadUint64 is Read for sizes of at most 64 bits.
func (mem *Memory) ReadUint64(address uint64, size uint) (value uint64, err error) {
	wide, err := mem.Read(address, size)
	if err != nil {
		return
	}

	value = wide.Uint64()
	return
}

// ReadInverse returns, in ascending order, every address at which a size
// bit read yields value. Only accesses overlapping at least one populated
// byte are considered, so a zero value does not match the untouched
// address space.
func (mem *Memory) ReadInverse(value *uint256.Int, size uint) (addrs []uint64, err error) {
	count, err := checkSize(size)
	if err != nil {
		return
	}

	want := new(uint256.Int).Set(value)
	if size < MAX_SIZE {
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), size)
		mask.Sub(mask, uint256.NewInt(1))
		want.And(want, mask)
	}

	// Candidate starts: any address whose access covers a populated byte.
	candidates := make(map[uint64]struct{}, len(mem.data)*int(count))
	for addr := range mem.data {
		for k := range count {
			candidates[mem.wrap(addr-uint64(k))] = struct{}{}
		}
	}

	starts := slices.Sorted(maps.Keys(candidates))
	for _, addr := range starts {
		var got *uint256.Int
		got, err = mem.Read(addr, size)
		if err != nil {
			return
		}
		if got.Eq(want) {
			addrs = append(addrs, addr)
		}
	}

	return
}

// Touched iterates every populated byte in ascending address order.
func (mem *Memory) Touched() iter.Seq2[uint64, byte] {
	return func(yield func(addr uint64, value byte) bool) {
		for _, addr := range slices.Sorted(maps.Keys(mem.data)) {
			if !yield(addr, mem.data[addr]) {
				return
			}
		}
	}
}

// Load copies a raw image from input into memory starting at address,
// returning the number of bytes stored.
func (mem *Memory) Load(address uint64, input io.Reader) (n int, err error) {
	if mem.data == nil {
		mem.data = make(map[uint64]byte)
	}

	limit := uint64(0)
	if mem.AddressSize < MAX_ADDRESS {
		limit = uint64(1) << mem.AddressSize
	}

	reader := bufio.NewReader(input)
	for {
		var b byte
		b, err = reader.ReadByte()
		if err == io.EOF {
			err = nil
			return
		}
		if err != nil {
			return
		}
		if limit != 0 && uint64(n) >= limit {
			err = ErrImageTooLong
			return
		}
		mem.data[mem.wrap(address+uint64(n))] = b
		n++
	}
}

// Dump writes count bytes starting at address to output.
func (mem *Memory) Dump(output io.Writer, address uint64, count int) (err error) {
	buf := make([]byte, count)
	for n := range buf {
		buf[n] = mem.data[mem.wrap(address+uint64(n))]
	}

	_, err = output.Write(buf)
	return
}
