package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type VulkanBuffer struct {
	context *VulkanContext
	desc    md.BufferDesc

	Handle vk.Buffer
	Memory vk.DeviceMemory

	// Host visible buffers stay mapped for their whole life.
	mapped    []byte
	destroyed bool
}

func BufferCreate(context *VulkanContext, desc md.BufferDesc) (*VulkanBuffer, error) {
	if desc.Size == 0 {
		return nil, core.NewProgrammerError("buffer %q has zero size", desc.Label)
	}
	buf := &VulkanBuffer{context: context, desc: desc}
	device := context.Device.LogicalDevice

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.Size),
		Usage:       vkBufferUsage(desc.Usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(device, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		return nil, creationResult("buffer "+desc.Label, res)
	}
	buf.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits, vkMemoryProperties(desc.Memory))
	if err != nil {
		vk.DestroyBuffer(device, handle, context.Allocator)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	err = context.locks.SafeCall(MemoryManagement, func() error {
		if res := vk.AllocateMemory(device, &allocateInfo, context.Allocator, &memory); res != vk.Success {
			return creationResult("buffer memory "+desc.Label, res)
		}
		return nil
	})
	if err != nil {
		vk.DestroyBuffer(device, handle, context.Allocator)
		return nil, err
	}
	buf.Memory = memory

	if res := vk.BindBufferMemory(device, handle, memory, 0); res != vk.Success {
		_ = buf.Destroy()
		return nil, creationResult("buffer memory binding "+desc.Label, res)
	}

	if desc.HostVisible() {
		var ptr unsafe.Pointer
		if res := vk.MapMemory(device, memory, 0, vk.DeviceSize(desc.Size), 0, &ptr); res != vk.Success {
			_ = buf.Destroy()
			return nil, creationResult("buffer mapping "+desc.Label, res)
		}
		buf.mapped = mappedBytes(ptr, desc.Size)
	}
	return buf, nil
}

func (vb *VulkanBuffer) Desc() md.BufferDesc {
	return vb.desc
}

func (vb *VulkanBuffer) Mapped() []byte {
	return vb.mapped
}

func (vb *VulkanBuffer) Write(offset uint64, data []byte) error {
	if vb.mapped == nil {
		return core.NewProgrammerError("buffer %q is not host visible", vb.desc.Label)
	}
	if offset+uint64(len(data)) > uint64(len(vb.mapped)) {
		return core.NewProgrammerError("write of %d bytes at %d overflows buffer %q", len(data), offset, vb.desc.Label)
	}
	copy(vb.mapped[offset:], data)
	if vb.desc.Memory&md.MEMORY_PROPERTY_HOST_COHERENT == 0 {
		return vb.flush(offset, uint64(len(data)))
	}
	return nil
}

func (vb *VulkanBuffer) flush(offset, size uint64) error {
	// Flushes must cover whole atoms.
	atom := uint64(vb.context.Device.Properties.Limits.NonCoherentAtomSize)
	if atom == 0 {
		atom = 1
	}
	start := offset / atom * atom
	end := (offset + size + atom - 1) / atom * atom
	length := vk.DeviceSize(end - start)
	if end > vb.desc.Size {
		length = vk.DeviceSize(vk.WholeSize)
	}
	r := vk.MappedMemoryRange{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: vb.Memory,
		Offset: vk.DeviceSize(start),
		Size:   length,
	}
	return runtimeResult("flush "+vb.desc.Label, vk.FlushMappedMemoryRanges(vb.context.Device.LogicalDevice, 1, []vk.MappedMemoryRange{r}))
}

func (vb *VulkanBuffer) Destroy() error {
	if vb.destroyed {
		return core.NewProgrammerError("buffer %q destroyed twice", vb.desc.Label)
	}
	vb.destroyed = true
	device := vb.context.Device.LogicalDevice
	if vb.mapped != nil {
		vk.UnmapMemory(device, vb.Memory)
		vb.mapped = nil
	}
	if vb.Memory != nil {
		vk.FreeMemory(device, vb.Memory, vb.context.Allocator)
		vb.Memory = nil
	}
	if vb.Handle != nil {
		vk.DestroyBuffer(device, vb.Handle, vb.context.Allocator)
		vb.Handle = nil
	}
	return nil
}
