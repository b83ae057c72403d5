package shaders

import (
	_ "embed"
)

//go:embed simulate.wgsl
var SimulateWGSL string

//go:embed points.wgsl
var PointsWGSL string

const (
	SimulateEntry = "simulate"
	PointsVertex  = "vs_main"
	PointsFrag    = "fs_main"

	// WorkgroupSize matches @workgroup_size in simulate.wgsl.
	WorkgroupSize = 64
)
