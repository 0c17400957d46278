package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

/**
 * @brief A descriptor set layout together with the bindings it was built from.
 */
type VulkanDescriptorSetLayout struct {
	context  *VulkanContext
	Handle   vk.DescriptorSetLayout
	bindings []md.DescriptorBinding
}

func DescriptorSetLayoutCreate(context *VulkanContext, bindings []md.DescriptorBinding) (*VulkanDescriptorSetLayout, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vkDescriptorType(b.Type),
			DescriptorCount: 1,
			StageFlags:      vkShaderStages(b.Stages),
		}
	}
	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}
	var handle vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &info, context.Allocator, &handle); res != vk.Success {
		return nil, creationResult("descriptor set layout", res)
	}
	return &VulkanDescriptorSetLayout{context: context, Handle: handle, bindings: bindings}, nil
}

func (l *VulkanDescriptorSetLayout) Bindings() []md.DescriptorBinding {
	return l.bindings
}

func (l *VulkanDescriptorSetLayout) Destroy() {
	if l.Handle != nil {
		vk.DestroyDescriptorSetLayout(l.context.Device.LogicalDevice, l.Handle, l.context.Allocator)
		l.Handle = nil
	}
}

type VulkanDescriptorPool struct {
	context *VulkanContext
	Handle  vk.DescriptorPool
}

func DescriptorPoolCreate(context *VulkanContext, sizes []md.DescriptorPoolSize, maxSets uint32) (*VulkanDescriptorPool, error) {
	poolSizes := make([]vk.DescriptorPoolSize, 0, len(sizes))
	for _, s := range sizes {
		if s.Count == 0 {
			continue
		}
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            vkDescriptorType(s.Type),
			DescriptorCount: s.Count,
		})
	}
	if len(poolSizes) == 0 || maxSets == 0 {
		return nil, core.NewProgrammerError("descriptor pool needs at least one descriptor and one set")
	}
	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       maxSets,
	}
	var handle vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &info, context.Allocator, &handle); res != vk.Success {
		return nil, creationResult("descriptor pool", res)
	}
	return &VulkanDescriptorPool{context: context, Handle: handle}, nil
}

func (p *VulkanDescriptorPool) Allocate(layout renderer.DescriptorSetLayout) (renderer.DescriptorSet, error) {
	l := layout.(*VulkanDescriptorSetLayout)
	info := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.Handle,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{l.Handle},
	}
	sets := make([]vk.DescriptorSet, 1)
	err := p.context.locks.SafeCall(ResourceManagement, func() error {
		if res := vk.AllocateDescriptorSets(p.context.Device.LogicalDevice, &info, &sets[0]); res != vk.Success {
			return creationResult("descriptor set", res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &VulkanDescriptorSet{context: p.context, Handle: sets[0]}, nil
}

// Destroy releases the pool and every set allocated from it.
func (p *VulkanDescriptorPool) Destroy() {
	if p.Handle != nil {
		vk.DestroyDescriptorPool(p.context.Device.LogicalDevice, p.Handle, p.context.Allocator)
		p.Handle = nil
	}
}

type VulkanDescriptorSet struct {
	context *VulkanContext
	Handle  vk.DescriptorSet
}

func (s *VulkanDescriptorSet) Update(writes []renderer.DescriptorWrite) error {
	vkWrites := make([]vk.WriteDescriptorSet, 0, len(writes))
	for _, w := range writes {
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          s.Handle,
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorType:  vkDescriptorType(w.Type),
			DescriptorCount: 1,
		}
		switch w.Type {
		case md.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER:
			img, ok := w.Image.(*VulkanImage)
			if !ok || w.Sampler == nil {
				return core.NewProgrammerError("binding %d needs an image and a sampler", w.Binding)
			}
			layout := vk.ImageLayoutShaderReadOnlyOptimal
			if img.desc.Kind == md.ATTACHMENT_KIND_DEPTH {
				layout = vk.ImageLayoutDepthStencilReadOnlyOptimal
			}
			write.PImageInfo = []vk.DescriptorImageInfo{{
				Sampler:     w.Sampler.(*VulkanSampler).Handle,
				ImageView:   img.View,
				ImageLayout: layout,
			}}
		default:
			buf, ok := w.Buffer.(*VulkanBuffer)
			if !ok {
				return core.NewProgrammerError("binding %d needs a buffer", w.Binding)
			}
			r := w.Range
			if r == 0 {
				r = buf.desc.Size
			}
			write.PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: buf.Handle,
				Offset: 0,
				Range:  vk.DeviceSize(r),
			}}
		}
		vkWrites = append(vkWrites, write)
	}
	vk.UpdateDescriptorSets(s.context.Device.LogicalDevice, uint32(len(vkWrites)), vkWrites, 0, nil)
	return nil
}
