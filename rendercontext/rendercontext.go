// Package rendercontext holds the render state shared by all passes of a
// frame: camera view, projection, viewport and the bound render target.
package rendercontext

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var ErrPassInFlight = errors.New("render pass already in flight")

type Viewport struct {
	X, Y          int32
	Width, Height int32
}

func (v Viewport) Aspect() float32 {
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

// Target is an off-screen render target. nil is the default framebuffer.
type Target interface {
	TargetName() string
}

// Binder applies target and viewport changes to the device.
type Binder interface {
	BindTarget(t Target)
	SetViewport(v Viewport)
}

type Context struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Viewport   Viewport
	Target     Target

	binder Binder
	pass   string
}

func New(b Binder, view, projection mgl32.Mat4, viewport Viewport) *Context {
	return &Context{
		View:       view,
		Projection: projection,
		Viewport:   viewport,
		binder:     b,
	}
}

// Pass is the name of the pass in flight, empty when none is.
func (c *Context) Pass() string { return c.pass }

// Enter starts pass and returns the function that puts view, projection,
// viewport and target back the way they were. Call it deferred so it also
// runs when the pass panics. Passes do not nest.
func (c *Context) Enter(pass string) (restore func(), err error) {
	if c.pass != "" {
		return nil, errors.Wrapf(ErrPassInFlight, "cannot enter %q while %q runs", pass, c.pass)
	}
	c.pass = pass

	view, projection, viewport, target := c.View, c.Projection, c.Viewport, c.Target
	done := false
	return func() {
		if done {
			return
		}
		done = true
		c.View = view
		c.Projection = projection
		c.Target = target
		c.Viewport = viewport
		if c.binder != nil {
			c.binder.BindTarget(target)
			c.binder.SetViewport(viewport)
		}
		c.pass = ""
	}, nil
}

// Bind makes t the render target and v the viewport.
func (c *Context) Bind(t Target, v Viewport) {
	c.Target = t
	c.Viewport = v
	if c.binder != nil {
		c.binder.BindTarget(t)
		c.binder.SetViewport(v)
	}
}

func (c *Context) SetViewport(v Viewport) {
	c.Viewport = v
	if c.binder != nil {
		c.binder.SetViewport(v)
	}
}

func (c *Context) ProjectionView() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}
