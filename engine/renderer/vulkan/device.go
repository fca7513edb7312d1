package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/core"
)

const portabilitySubsetExtension = "VK_KHR_portability_subset"

// selectPhysicalDevice picks the first device that has a queue family able
// to render and present to the surface, at least one surface format and one
// present mode, and the swapchain extension.
func (ctx *DeviceContext) selectPhysicalDevice() error {
	var count uint32
	if err := ResultError(vk.EnumeratePhysicalDevices(ctx.Instance, &count, nil), "vkEnumeratePhysicalDevices"); err != nil {
		return err
	}
	if count == 0 {
		return errors.New("no devices which support Vulkan were found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := ResultError(vk.EnumeratePhysicalDevices(ctx.Instance, &count, devices), "vkEnumeratePhysicalDevices"); err != nil {
		return err
	}

	for _, device := range devices[:count] {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(device, &properties)
		properties.Deref()
		name := cString(properties.DeviceName[:])

		family, ok, err := ctx.graphicsPresentFamily(device)
		if err != nil {
			return err
		}
		if !ok {
			core.LogInfo("Device '%s' has no graphics+present queue family, skipping.", name)
			continue
		}

		extensions, err := deviceExtensions(device)
		if err != nil {
			return err
		}
		if !hasName(extensions, vk.KhrSwapchainExtensionName) {
			core.LogInfo("Device '%s' lacks %s, skipping.", name, vk.KhrSwapchainExtensionName)
			continue
		}

		formats, modes, err := ctx.surfaceSupport(device)
		if err != nil {
			return err
		}
		if len(formats) == 0 || len(modes) == 0 {
			core.LogInfo("Required swapchain support not present on '%s', skipping.", name)
			continue
		}
		format, err := chooseSurfaceFormat(formats)
		if err != nil {
			return err
		}

		ctx.PhysicalDevice = device
		ctx.Properties = properties
		ctx.GraphicsQueueFamily = family
		ctx.SurfaceFormat = format
		ctx.PresentMode = choosePresentMode(modes, ctx.settings.PreferMailbox)
		vk.GetPhysicalDeviceMemoryProperties(device, &ctx.Memory)
		ctx.Memory.Deref()

		logDevice(name, properties)
		core.LogInfo("Surface format %d, present mode %d.", ctx.SurfaceFormat.Format, ctx.PresentMode)
		return nil
	}
	return errors.New("no physical devices were found which meet the requirements")
}

func (ctx *DeviceContext) graphicsPresentFamily(device vk.PhysicalDevice) (uint32, bool, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	properties := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, properties)

	families := make([]queueFamily, count)
	for i := range properties[:count] {
		properties[i].Deref()
		var supportsPresent vk.Bool32
		res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), ctx.Surface, &supportsPresent)
		if err := ResultError(res, "vkGetPhysicalDeviceSurfaceSupportKHR"); err != nil {
			return 0, false, err
		}
		families[i] = queueFamily{
			Graphics: vk.QueueFlagBits(properties[i].QueueFlags)&vk.QueueGraphicsBit != 0,
			Present:  supportsPresent == vk.True,
		}
	}
	family, ok := pickQueueFamily(families)
	return family, ok, nil
}

func (ctx *DeviceContext) surfaceSupport(device vk.PhysicalDevice) ([]vk.SurfaceFormat, []vk.PresentMode, error) {
	var formatCount uint32
	if err := ResultError(vk.GetPhysicalDeviceSurfaceFormats(device, ctx.Surface, &formatCount, nil), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return nil, nil, err
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if formatCount > 0 {
		if err := ResultError(vk.GetPhysicalDeviceSurfaceFormats(device, ctx.Surface, &formatCount, formats), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
			return nil, nil, err
		}
		for i := range formats {
			formats[i].Deref()
		}
	}

	var modeCount uint32
	if err := ResultError(vk.GetPhysicalDeviceSurfacePresentModes(device, ctx.Surface, &modeCount, nil), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return nil, nil, err
	}
	modes := make([]vk.PresentMode, modeCount)
	if modeCount > 0 {
		if err := ResultError(vk.GetPhysicalDeviceSurfacePresentModes(device, ctx.Surface, &modeCount, modes), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
			return nil, nil, err
		}
	}
	return formats[:formatCount], modes[:modeCount], nil
}

func deviceExtensions(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := ResultError(vk.EnumerateDeviceExtensionProperties(device, "", &count, nil), "vkEnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}
	properties := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if err := ResultError(vk.EnumerateDeviceExtensionProperties(device, "", &count, properties), "vkEnumerateDeviceExtensionProperties"); err != nil {
			return nil, err
		}
	}
	names := make([]string, 0, count)
	for i := range properties[:count] {
		properties[i].Deref()
		names = append(names, cString(properties[i].ExtensionName[:]))
	}
	return names, nil
}

func (ctx *DeviceContext) createLogicalDevice() error {
	core.LogInfo("Creating logical device...")

	extensions := []string{vk.KhrSwapchainExtensionName}
	available, err := deviceExtensions(ctx.PhysicalDevice)
	if err != nil {
		return err
	}
	if hasName(available, portabilitySubsetExtension) {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtension)
		extensions = append(extensions, portabilitySubsetExtension)
	}

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: ctx.GraphicsQueueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}

	var device vk.Device
	if err := ResultError(vk.CreateDevice(ctx.PhysicalDevice, &deviceCreateInfo, ctx.Allocator, &device), "vkCreateDevice"); err != nil {
		return err
	}
	ctx.Device = device
	core.LogInfo("Logical device created.")

	var queue vk.Queue
	vk.GetDeviceQueue(ctx.Device, ctx.GraphicsQueueFamily, 0, &queue)
	ctx.GraphicsQueue = queue
	return nil
}

func logDevice(name string, properties vk.PhysicalDeviceProperties) {
	core.LogInfo("Selected device: '%s'.", name)
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}
	api := vk.Version(properties.ApiVersion)
	core.LogInfo("Vulkan API version: %d.%d.%d", api.Major(), api.Minor(), api.Patch())
}
