package platform

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the GLFW window and turns its callbacks into state the host
// loop polls once per iteration.
type Platform struct {
	Window *glfw.Window

	quit         bool
	cursorInside bool
	cursorX      float64
	cursorY      float64

	onResize func(width, height uint32)
}

func New() *Platform {
	return &Platform{
		Window: nil,
	}
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return errors.Wrap(err, "initializing glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.New("glfw reports no Vulkan loader")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return errors.Wrap(err, "creating window")
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetCursorPosCallback(p.cursorPosCallback)
	p.Window.SetCursorEnterCallback(p.cursorEnterCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events and reports whether the host
// should keep running.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.quit
}

// OnResize registers the handler for framebuffer size changes, in pixels.
func (p *Platform) OnResize(fn func(width, height uint32)) {
	p.onResize = fn
}

func (p *Platform) SetTitle(title string) {
	p.Window.SetTitle(title)
}

// Cursor returns the last cursor position in window coordinates and whether
// the cursor is inside the window.
func (p *Platform) Cursor() (float64, float64, bool) {
	return p.cursorX, p.cursorY, p.cursorInside
}

// Size is the window size in the same coordinates as Cursor.
func (p *Platform) Size() (uint32, uint32) {
	w, h := p.Window.GetSize()
	return uint32(w), uint32(h)
}

// FramebufferSize is the drawable size in pixels.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

func (p *Platform) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "creating window surface")
	}
	return vk.SurfaceFromPointer(surface), nil
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		core.LogInfo("Escape pressed, shutting down.")
		p.quit = true
	}
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	p.cursorX = xpos
	p.cursorY = ypos
}

func (p *Platform) cursorEnterCallback(w *glfw.Window, entered bool) {
	p.cursorInside = entered
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	if p.onResize != nil {
		p.onResize(uint32(width), uint32(height))
	}
}

func (p *Platform) closeCallback(w *glfw.Window) {
	core.LogInfo("Window closed, shutting down.")
	p.quit = true
}
