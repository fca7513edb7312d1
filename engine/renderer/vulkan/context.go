package vulkan

import (
	"runtime"
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/config"
	"github.com/spaghettifunk/phase/engine/core"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// WindowSurface is what the device context needs from the windowing layer.
type WindowSurface interface {
	InstanceProcAddr() unsafe.Pointer
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type Settings struct {
	AppName       string
	Validation    bool
	PreferMailbox bool
	ClearColor    ClearColor
	ShaderDir     string
	FenceTimeout  time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		AppName:       cfg.Application.Name,
		Validation:    cfg.Renderer.Validation,
		PreferMailbox: cfg.Renderer.PreferMailbox,
		ClearColor:    ClearColor(cfg.Renderer.ClearColor),
		ShaderDir:     cfg.Renderer.ShaderDir,
		FenceTimeout:  time.Duration(cfg.Renderer.FenceTimeoutMS) * time.Millisecond,
	}
}

// DeviceContext owns the instance, the presentation surface, the logical
// device and its single graphics+present queue. It is created once and is
// immutable until Destroy.
type DeviceContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	PhysicalDevice      vk.PhysicalDevice
	Properties          vk.PhysicalDeviceProperties
	Memory              vk.PhysicalDeviceMemoryProperties
	SurfaceFormat       vk.SurfaceFormat
	PresentMode         vk.PresentMode
	GraphicsQueueFamily uint32

	Device        vk.Device
	GraphicsQueue vk.Queue
	CommandPool   vk.CommandPool
	CommandBuffer *CommandBuffer

	settings  Settings
	destroyed bool
}

// NewDeviceContext brings up the API against the given window. Any failure
// destroys what was created so far and returns an error marked core.ErrInit.
func NewDeviceContext(window WindowSurface, settings Settings) (*DeviceContext, error) {
	ctx := &DeviceContext{settings: settings}
	if err := ctx.initialize(window); err != nil {
		ctx.Destroy()
		return nil, core.MarkInit(err)
	}
	return ctx, nil
}

func (ctx *DeviceContext) initialize(window WindowSurface) error {
	procAddr := window.InstanceProcAddr()
	if procAddr == nil {
		return errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "loading the Vulkan library")
	}

	if err := ctx.createInstance(window.RequiredInstanceExtensions()); err != nil {
		return err
	}
	core.LogInfo("Vulkan instance created.")

	if ctx.settings.Validation {
		if err := ctx.createDebugCallback(); err != nil {
			return err
		}
		core.LogDebug("Vulkan debugger created.")
	}

	surface, err := window.CreateSurface(ctx.Instance)
	if err != nil {
		return errors.Wrap(err, "creating window surface")
	}
	ctx.Surface = surface
	core.LogDebug("Vulkan surface created.")

	if err := ctx.selectPhysicalDevice(); err != nil {
		return err
	}
	if err := ctx.createLogicalDevice(); err != nil {
		return err
	}

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: ctx.GraphicsQueueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := ResultError(vk.CreateCommandPool(ctx.Device, &poolCreateInfo, ctx.Allocator, &pool), "vkCreateCommandPool"); err != nil {
		return err
	}
	ctx.CommandPool = pool
	core.LogDebug("Graphics command pool created.")

	cb, err := NewCommandBuffer(ctx, ctx.CommandPool)
	if err != nil {
		return err
	}
	ctx.CommandBuffer = cb
	return nil
}

func (ctx *DeviceContext) createInstance(windowExtensions []string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(ctx.settings.AppName),
		PEngineName:        VulkanSafeString("Phase"),
	}

	extensions := append([]string{}, windowExtensions...)
	if !hasName(extensions, "VK_KHR_surface") {
		extensions = append(extensions, "VK_KHR_surface")
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if ctx.settings.Validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
		available, err := instanceLayers()
		if err != nil {
			return err
		}
		if !hasName(available, validationLayerName) {
			return errors.Newf("required validation layer is missing: %s", validationLayerName)
		}
		layers = []string{validationLayerName}
		core.LogInfo("Validation layers enabled.")
	}
	for _, ext := range extensions {
		core.LogDebug("Required instance extension: %s", ext)
	}

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if err := ResultError(vk.CreateInstance(&createInfo, ctx.Allocator, &instance), "vkCreateInstance"); err != nil {
		return err
	}
	ctx.Instance = instance
	return errors.Wrap(vk.InitInstance(ctx.Instance), "loading instance functions")
}

func instanceLayers() ([]string, error) {
	var count uint32
	if err := ResultError(vk.EnumerateInstanceLayerProperties(&count, nil), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	properties := make([]vk.LayerProperties, count)
	if err := ResultError(vk.EnumerateInstanceLayerProperties(&count, properties), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range properties[:count] {
		properties[i].Deref()
		names = append(names, cString(properties[i].LayerName[:]))
	}
	return names, nil
}

func (ctx *DeviceContext) createDebugCallback() error {
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit),
		PfnCallback: dbgCallbackFunc,
	}
	var dbg vk.DebugReportCallback
	if err := ResultError(vk.CreateDebugReportCallback(ctx.Instance, &debugCreateInfo, ctx.Allocator, &dbg), "vkCreateDebugReportCallback"); err != nil {
		return err
	}
	ctx.debugCallback = dbg
	return nil
}

// SurfaceCapabilities re-queries the surface, whose current extent follows
// the window.
func (ctx *DeviceContext) SurfaceCapabilities() (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(ctx.PhysicalDevice, ctx.Surface, &caps)
	if err := ResultError(res, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

// FindMemoryType returns the index of a memory type allowed by typeBits that
// has every requested property flag.
func (ctx *DeviceContext) FindMemoryType(typeBits uint32, flags vk.MemoryPropertyFlagBits) (uint32, error) {
	for i := uint32(0); i < ctx.Memory.MemoryTypeCount; i++ {
		memoryType := ctx.Memory.MemoryTypes[i]
		memoryType.Deref()
		if typeBits&(1<<i) != 0 && vk.MemoryPropertyFlagBits(memoryType.PropertyFlags)&flags == flags {
			return i, nil
		}
	}
	return 0, errors.Newf("no memory type matches bits %#x with flags %#x", typeBits, uint32(flags))
}

func (ctx *DeviceContext) WaitIdle() error {
	if ctx.Device == nil {
		return nil
	}
	return ResultError(vk.DeviceWaitIdle(ctx.Device), "vkDeviceWaitIdle")
}

// Destroy releases everything in reverse creation order. It is safe on a
// partially initialized context and on repeated calls.
func (ctx *DeviceContext) Destroy() {
	if ctx.destroyed {
		return
	}
	ctx.destroyed = true

	if ctx.CommandBuffer != nil {
		ctx.CommandBuffer.Free(ctx, ctx.CommandPool)
		ctx.CommandBuffer = nil
	}
	if ctx.CommandPool != nil {
		core.LogDebug("Destroying command pool...")
		vk.DestroyCommandPool(ctx.Device, ctx.CommandPool, ctx.Allocator)
		ctx.CommandPool = nil
	}
	ctx.GraphicsQueue = nil
	if ctx.Device != nil {
		core.LogDebug("Destroying logical device...")
		vk.DestroyDevice(ctx.Device, ctx.Allocator)
		ctx.Device = nil
	}
	// Physical devices are not destroyed.
	ctx.PhysicalDevice = nil

	if ctx.Surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
		ctx.Surface = vk.NullSurface
	}
	if ctx.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugCallback, ctx.Allocator)
		ctx.debugCallback = vk.NullDebugReportCallback
	}
	if ctx.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
