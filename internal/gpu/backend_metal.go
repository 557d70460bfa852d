// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build darwin

package gpu

import (
	"github.com/gogpu/gputypes"

	// Import Metal backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/metal"
)

var defaultBackends = []gputypes.Backend{gputypes.BackendMetal}
