//go:build windows

package main

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"golang.org/x/sys/windows"
)

// nativeHandles returns the module instance and HWND.
func nativeHandles(w *glfw.Window) (display, window uintptr) {
	var instance windows.Handle
	_ = windows.GetModuleHandleEx(0, nil, &instance)
	return uintptr(instance), uintptr(unsafe.Pointer(w.GetWin32Window()))
}
