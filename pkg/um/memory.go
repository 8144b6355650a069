// Memory management for the machine's word arrays.
package um

import "fmt"

// MaxArrays is the fixed capacity of the array table, including the
// reserved program slot at handle 0.
const MaxArrays = 65536

// Memory is the machine's array table: a dense mapping from integer
// handles to word buffers. A nil entry marks a free handle. Handle 0 is
// reserved for the active program and is never offered by Alloc nor
// released by Free; its buffer is only replaced wholesale through
// SwapProgram.
type Memory struct {
	arrays [][]uint32
	// lowestFree is where the next allocation scan starts. It never
	// overshoots a free handle: Free moves it back, Alloc moves it
	// just past the handle it claimed.
	lowestFree uint32
	limit      uint32
}

// NewMemory builds an array table seeded with a copy of the boot
// program in handle 0.
func NewMemory(program []uint32) *Memory {
	boot := make([]uint32, len(program))
	copy(boot, program)

	m := &Memory{
		arrays:     make([][]uint32, 1, 16),
		lowestFree: 1,
		limit:      MaxArrays,
	}
	m.arrays[0] = boot
	return m
}

// Alloc reserves the lowest-numbered free handle and gives it a
// zero-filled buffer of size words. Size 0 is permitted. Returns
// ErrCapacityExhausted when the table is full.
func (m *Memory) Alloc(size uint32) (uint32, error) {
	h := m.lowestFree
	for h < uint32(len(m.arrays)) && m.arrays[h] != nil {
		h++
	}
	if h >= m.limit {
		return 0, fmt.Errorf("%w: all %d handles in use", ErrCapacityExhausted, m.limit)
	}
	if h == uint32(len(m.arrays)) {
		m.arrays = append(m.arrays, nil)
	}
	m.arrays[h] = make([]uint32, size)
	m.lowestFree = h + 1
	return h, nil
}

// Free releases the buffer behind a handle and returns the handle to
// the free pool, immediately eligible for reuse. Freeing handle 0, an
// out-of-range handle, or an already free handle is ErrInvalidHandle.
func (m *Memory) Free(h uint32) error {
	if h == 0 {
		return fmt.Errorf("%w: cannot free the program array", ErrInvalidHandle)
	}
	if h >= uint32(len(m.arrays)) || m.arrays[h] == nil {
		return fmt.Errorf("%w: %d is not allocated", ErrInvalidHandle, h)
	}
	m.arrays[h] = nil
	if h < m.lowestFree {
		m.lowestFree = h
	}
	return nil
}

// Load returns the word at offset in the array behind h.
func (m *Memory) Load(h, offset uint32) (uint32, error) {
	a, err := m.lookup(h)
	if err != nil {
		return 0, err
	}
	if offset >= uint32(len(a)) {
		return 0, fmt.Errorf("%w: offset %d in array %d of length %d", ErrOutOfBounds, offset, h, len(a))
	}
	return a[offset], nil
}

// Store writes the word at offset in the array behind h.
func (m *Memory) Store(h, offset, value uint32) error {
	a, err := m.lookup(h)
	if err != nil {
		return err
	}
	if offset >= uint32(len(a)) {
		return fmt.Errorf("%w: offset %d in array %d of length %d", ErrOutOfBounds, offset, h, len(a))
	}
	a[offset] = value
	return nil
}

// SwapProgram replaces the handle-0 buffer with a copy of the array
// behind h and returns the new program buffer. The copy keeps the
// program independent of later mutation or deallocation of the source.
// Handle 0 itself is a no-op: the caller is only moving its program
// counter, and the current buffer is returned unchanged.
func (m *Memory) SwapProgram(h uint32) ([]uint32, error) {
	if h == 0 {
		return m.arrays[0], nil
	}
	src, err := m.lookup(h)
	if err != nil {
		return nil, err
	}
	dup := make([]uint32, len(src))
	copy(dup, src)
	m.arrays[0] = dup
	return dup, nil
}

func (m *Memory) lookup(h uint32) ([]uint32, error) {
	if h >= uint32(len(m.arrays)) || m.arrays[h] == nil {
		return nil, fmt.Errorf("%w: %d is not allocated", ErrInvalidHandle, h)
	}
	return m.arrays[h], nil
}
