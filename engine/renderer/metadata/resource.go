package metadata

type BufferUsage uint32

const (
	BUFFER_USAGE_VERTEX BufferUsage = 1 << iota
	BUFFER_USAGE_INDEX
	BUFFER_USAGE_UNIFORM
	BUFFER_USAGE_TRANSFER_SRC
	BUFFER_USAGE_TRANSFER_DST
)

type MemoryProperty uint32

const (
	MEMORY_PROPERTY_DEVICE_LOCAL MemoryProperty = 1 << iota
	MEMORY_PROPERTY_HOST_VISIBLE
	MEMORY_PROPERTY_HOST_COHERENT
)

type BufferDesc struct {
	Label  string
	Size   uint64
	Usage  BufferUsage
	Memory MemoryProperty
}

func (d BufferDesc) HostVisible() bool {
	return d.Memory&MEMORY_PROPERTY_HOST_VISIBLE != 0
}

type ImageDesc struct {
	Label   string
	Kind    AttachmentKind
	Format  Format
	Extent  Extent
	Sampled bool
}
