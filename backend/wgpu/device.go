// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// GPUInfo describes the adapter selected for a standalone device.
type GPUInfo struct {
	Name       string
	DeviceType gputypes.DeviceType
}

func (i GPUInfo) String() string {
	if i.Name == "" {
		return "unknown GPU"
	}
	return fmt.Sprintf("%s (%v)", i.Name, i.DeviceType)
}
