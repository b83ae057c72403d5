package shaders

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileOrSkip(t *testing.T, name, src string) []byte {
	t.Helper()
	require.NotEmpty(t, src, "%s source is empty", name)

	spirv, err := naga.Compile(src)
	if err != nil {
		msg := err.Error()
		for _, known := range []string{"runtime-sized arrays not yet implemented", "not yet implemented", "not supported", "unsupported", "lowering error"} {
			if strings.Contains(msg, known) {
				t.Skipf("Skipping %s: naga limitation: %v", name, err)
			}
		}
		t.Fatalf("failed to compile %s: %v", name, err)
	}
	return spirv
}

func assertSPIRV(t *testing.T, spirv []byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(spirv), 4, "SPIR-V too short")
	magic := uint32(spirv[0]) |
		uint32(spirv[1])<<8 |
		uint32(spirv[2])<<16 |
		uint32(spirv[3])<<24
	assert.Equal(t, uint32(0x07230203), magic, "invalid SPIR-V magic")
}

func TestSimulateShaderCompiles(t *testing.T) {
	assertSPIRV(t, compileOrSkip(t, "simulate.wgsl", SimulateWGSL))
}

func TestPointsShaderCompiles(t *testing.T) {
	assertSPIRV(t, compileOrSkip(t, "points.wgsl", PointsWGSL))
}

func TestEntryPointsPresent(t *testing.T) {
	assert.Contains(t, SimulateWGSL, "fn "+SimulateEntry+"(")
	assert.Contains(t, SimulateWGSL, "@workgroup_size(64)")
	assert.Contains(t, PointsWGSL, "fn "+PointsVertex+"(")
	assert.Contains(t, PointsWGSL, "fn "+PointsFrag+"(")
}

func TestPointsShaderSpriteRules(t *testing.T) {
	// the Go preview renderer in core/points.go mirrors these expressions
	assert.Contains(t, PointsWGSL, "min(params.pixel_ratio, 2.0)")
	assert.NotContains(t, PointsWGSL, "clamp(params.pixel_ratio")
	assert.Contains(t, PointsWGSL, "mix(1.0, 0.35, life)")
	assert.Contains(t, PointsWGSL, "smoothstep(0.4, 1.0, d)")
	assert.Contains(t, PointsWGSL, "smoothstep(0.0, 0.08, life)")
	assert.Contains(t, PointsWGSL, "smoothstep(0.7, 1.0, life)")
}
