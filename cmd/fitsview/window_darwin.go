//go:build darwin

package main

import "github.com/go-gl/glfw/v3.3/glfw"

// nativeHandles returns the NSWindow. Metal needs no display handle.
func nativeHandles(w *glfw.Window) (display, window uintptr) {
	return 0, w.GetCocoaWindow()
}
