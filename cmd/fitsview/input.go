package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/fitsview"
)

// glfwWindow adapts a GLFW window to fitsview.Window.
type glfwWindow struct {
	w *glfw.Window
}

func (g glfwWindow) NativeHandles() (display, window uintptr) {
	return nativeHandles(g.w)
}

func (g glfwWindow) FramebufferSize() (width, height int) {
	return g.w.GetFramebufferSize()
}

// bindInput routes window events to v.
func bindInput(win *glfw.Window, v *viewer) {
	var (
		dragging     bool
		lastX, lastY float64
	)

	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		v.resize(width, height)
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		v.zoomBy(yoff)
	})
	win.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		dragging = action == glfw.Press
		lastX, lastY = w.GetCursorPos()
	})
	win.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		if !dragging {
			return
		}
		ww, wh := w.GetSize()
		v.drag(x-lastX, y-lastY, ww, wh)
		lastX, lastY = x, y
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		if key == glfw.KeyEscape {
			w.SetShouldClose(true)
			return
		}
		handleKey(v, key)
	})
}

var transferKeys = map[glfw.Key]fitsview.Transfer{
	glfw.Key1: fitsview.TransferLinear,
	glfw.Key2: fitsview.TransferLog,
	glfw.Key3: fitsview.TransferSqrt,
	glfw.Key4: fitsview.TransferAsinh,
}

// handleKey applies a view key binding and reports whether key is bound.
func handleKey(v *viewer, key glfw.Key) bool {
	if t, ok := transferKeys[key]; ok {
		v.setTransfer(t)
		return true
	}
	switch key {
	case glfw.KeyLeftBracket:
		v.adjustBrightness(-brightnessStep)
	case glfw.KeyRightBracket:
		v.adjustBrightness(brightnessStep)
	case glfw.KeyMinus:
		v.scaleContrast(1 / contrastStep)
	case glfw.KeyEqual:
		v.scaleContrast(contrastStep)
	case glfw.KeyR:
		v.reset()
	default:
		return false
	}
	return true
}
