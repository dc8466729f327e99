package config

import (
	"log"

	"github.com/pkg/errors"
)

// RenderMode is the polygon rasterization mode of the main pass.
type RenderMode int

const (
	RenderFill RenderMode = iota
	RenderPoint
	RenderLine
)

var renderModeNames = [...]string{"fill", "point", "line"}

func (m RenderMode) String() string {
	if m >= 0 && int(m) < len(renderModeNames) {
		return renderModeNames[m]
	}
	return "unknown"
}

// Next cycles fill, point, line.
func (m RenderMode) Next() RenderMode { return (m + 1) % RenderMode(len(renderModeNames)) }

// CullMode selects the faces dropped in the main pass.
type CullMode int

const (
	CullBack CullMode = iota
	CullFront
)

var cullModeNames = [...]string{"back", "front"}

func (m CullMode) String() string {
	if m >= 0 && int(m) < len(cullModeNames) {
		return cullModeNames[m]
	}
	return "unknown"
}

func (m CullMode) Next() CullMode { return (m + 1) % CullMode(len(cullModeNames)) }

// Settings are the runtime toggles of the viewer.
type Settings struct {
	Shadows     bool
	Reflections bool
	// Blinn selects Blinn-Phong over Phong for lit models
	Blinn bool
	// Debug makes render-pass programming errors panic
	Debug bool

	RenderMode RenderMode
	CullMode   CullMode
}

func DefaultSettings() Settings {
	return Settings{
		Shadows:     true,
		Reflections: true,
		Blinn:       true,
	}
}

var currentSettings = DefaultSettings()

func GetSettings() Settings {
	return currentSettings
}

func SetSettings(s Settings) {
	currentSettings = s
}

// Toggle flips one of the named switches: shadows, reflections, blinn, debug.
// The modes render_mode and cull_mode step to their next value instead.
func (s *Settings) Toggle(key string) error {
	var v *bool
	switch key {
	case "shadows":
		v = &s.Shadows
	case "reflections":
		v = &s.Reflections
	case "blinn":
		v = &s.Blinn
	case "debug":
		v = &s.Debug
	case "render_mode":
		s.RenderMode = s.RenderMode.Next()
		log.Printf("[config] Changed render mode to %v", s.RenderMode)
		return nil
	case "cull_mode":
		s.CullMode = s.CullMode.Next()
		log.Printf("[config] Changed cull mode to %v", s.CullMode)
		return nil
	default:
		return errors.Errorf("Unknown setting %q", key)
	}
	*v = !*v
	if *v {
		log.Printf("[config] Enabled %s", key)
	} else {
		log.Printf("[config] Disabled %s", key)
	}
	return nil
}
