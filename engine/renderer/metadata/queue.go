package metadata

type QueueCapability uint32

const (
	QUEUE_CAPABILITY_GRAPHICS QueueCapability = 1 << iota
	QUEUE_CAPABILITY_COMPUTE
	QUEUE_CAPABILITY_TRANSFER
	QUEUE_CAPABILITY_SPARSE
	QUEUE_CAPABILITY_PROTECTED
	QUEUE_CAPABILITY_PRESENT
)

func (c QueueCapability) Has(other QueueCapability) bool {
	return c&other == other
}

/** @brief Declares a queue family the application needs. The first requirement drives all rendering. */
type QueueRequirement struct {
	Capabilities QueueCapability
	Count        uint32
	Priorities   []float32
}

/** @brief Device limits the render graph depends on. */
type DeviceLimits struct {
	MinUniformBufferOffsetAlignment uint64
	MaxImageDimension2D             uint32
}
