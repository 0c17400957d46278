package renderer

import (
	"encoding/binary"

	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/math"
)

// UniformArena is a window over persistently mapped uniform memory holding
// Count elements, each starting on a stride aligned to the device's minimum
// uniform buffer offset alignment.
type UniformArena struct {
	name        string
	data        []byte
	elementSize uint64
	stride      uint64
	count       uint32
}

// NewUniformArena lays out count elements of elementSize bytes over data.
func NewUniformArena(name string, data []byte, elementSize uint64, count uint32, alignment uint64) (*UniformArena, error) {
	stride := math.CalculateStride(elementSize, alignment)
	if need := stride * uint64(count); uint64(len(data)) < need {
		return nil, core.NewProgrammerError("uniform %q needs %d bytes, buffer has %d", name, need, len(data))
	}
	return &UniformArena{
		name:        name,
		data:        data,
		elementSize: elementSize,
		stride:      stride,
		count:       count,
	}, nil
}

// ArenaSize is the number of bytes an arena of count elements occupies.
func ArenaSize(elementSize uint64, count uint32, alignment uint64) uint64 {
	return math.CalculateStride(elementSize, alignment) * uint64(count)
}

func (a *UniformArena) Name() string        { return a.name }
func (a *UniformArena) Stride() uint64      { return a.stride }
func (a *UniformArena) ElementSize() uint64 { return a.elementSize }
func (a *UniformArena) Count() uint32       { return a.count }

// WriteElement encodes value, little endian, into element index. Blank struct
// fields are written as zeros, which is how callers express std140 padding.
func (a *UniformArena) WriteElement(index uint32, value any) error {
	if index >= a.count {
		return core.NewProgrammerError("uniform %q: element %d out of range (%d elements)", a.name, index, a.count)
	}
	size := binary.Size(value)
	if size < 0 {
		return core.NewProgrammerError("uniform %q: value of type %T has no fixed size", a.name, value)
	}
	if uint64(size) > a.elementSize {
		return core.NewProgrammerError("uniform %q: value of %d bytes does not fit element of %d", a.name, size, a.elementSize)
	}
	offset := uint64(index) * a.stride
	if _, err := binary.Encode(a.data[offset:offset+a.elementSize], binary.LittleEndian, value); err != nil {
		return core.NewProgrammerError("uniform %q: %v", a.name, err)
	}
	return nil
}

// Element returns the raw bytes of element index.
func (a *UniformArena) Element(index uint32) []byte {
	offset := uint64(index) * a.stride
	return a.data[offset : offset+a.elementSize]
}

// UniformSet holds the arenas of one swapchain image.
type UniformSet struct {
	arenas map[string]*UniformArena
}

func newUniformSet() *UniformSet {
	return &UniformSet{arenas: make(map[string]*UniformArena)}
}

// Get returns the arena for the named uniform, or nil.
func (s *UniformSet) Get(name string) *UniformArena {
	return s.arenas[name]
}

// Write is shorthand for Get(name).WriteElement(index, value).
func (s *UniformSet) Write(name string, index uint32, value any) error {
	a := s.arenas[name]
	if a == nil {
		return core.NewProgrammerError("unknown uniform %q", name)
	}
	return a.WriteElement(index, value)
}
