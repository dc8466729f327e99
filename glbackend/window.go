package glbackend

import (
	"log"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/config"
	"github.com/mogaika/obj_scene_viewer/rendercontext"
)

// keys toggling the render settings
var settingKeys = map[glfw.Key]string{
	glfw.Key1:  "render_mode",
	glfw.Key2:  "cull_mode",
	glfw.Key3:  "shadows",
	glfw.Key4:  "reflections",
	glfw.KeyB:  "blinn",
	glfw.KeyF1: "debug",
}

// Window is a glfw window owning the OpenGL context. Create it on the main
// thread, with runtime.LockOSThread in effect.
type Window struct {
	window *glfw.Window
	Device *Device
}

func NewWindow(title string, width, height int) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "Failed to init glfw")
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)

	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "Failed to create window")
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, errors.Wrap(err, "Failed to initialize OpenGL")
	}
	log.Printf("[gl] Version: %q", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.DebugMessageCallback(openglLogCallback, nil)

	w := &Window{window: window}
	w.Device = NewDevice(window.SwapBuffers)
	window.SetKeyCallback(w.onKey)
	return w, nil
}

func (w *Window) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if key == glfw.KeyEscape {
		w.window.SetShouldClose(true)
		return
	}
	if name, ok := settingKeys[key]; ok {
		settings := config.GetSettings()
		if err := settings.Toggle(name); err != nil {
			log.Printf("[gl] %v", err)
			return
		}
		config.SetSettings(settings)
	}
}

// Viewport covers the whole framebuffer.
func (w *Window) Viewport() rendercontext.Viewport {
	width, height := w.window.GetFramebufferSize()
	return rendercontext.Viewport{Width: int32(width), Height: int32(height)}
}

// ProcessEvents polls window events and reports whether the window stays open.
func (w *Window) ProcessEvents() bool {
	glfw.PollEvents()
	return !w.window.ShouldClose()
}

func (w *Window) Destroy() {
	w.Device.Destroy()
	w.window.Destroy()
	glfw.Terminate()
}

func openglLogCallback(source uint32, gltype uint32, id uint32,
	severity uint32, length int32, message string, userParam unsafe.Pointer) {

	if severity == gl.DEBUG_SEVERITY_NOTIFICATION {
		return
	}
	log.Printf("[gl] id:%v severity:%v src:%v type:%v %q",
		id, glConstToString[severity], glConstToString[source], glConstToString[gltype], message)
	if gltype == gl.DEBUG_TYPE_ERROR && config.GetSettings().Debug {
		panic(message)
	}
}

var glConstToString = map[uint32]string{
	gl.DEBUG_SOURCE_API:             "API",
	gl.DEBUG_SOURCE_WINDOW_SYSTEM:   "WINDOW SYSTEM",
	gl.DEBUG_SOURCE_SHADER_COMPILER: "SHADER COMPILER",
	gl.DEBUG_SOURCE_THIRD_PARTY:     "THIRD PARTY",
	gl.DEBUG_SOURCE_APPLICATION:     "APPLICATION",
	gl.DEBUG_SOURCE_OTHER:           "OTHER",

	gl.DEBUG_TYPE_ERROR:               "ERROR",
	gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR: "DEPRECATED BEHAVIOR",
	gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:  "UNDEFINED BEHAVIOR",
	gl.DEBUG_TYPE_PORTABILITY:         "PORTABILITY",
	gl.DEBUG_TYPE_PERFORMANCE:         "PERFORMANCE",
	gl.DEBUG_TYPE_OTHER:               "OTHER",

	gl.DEBUG_SEVERITY_HIGH:   "HIGH",
	gl.DEBUG_SEVERITY_MEDIUM: "MEDIUM",
	gl.DEBUG_SEVERITY_LOW:    "LOW",
}
