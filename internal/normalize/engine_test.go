// SPDX-License-Identifier: Apache-2.0

package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/dictionary"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/normalize"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/trio"
)

func newEngine(t *testing.T) *normalize.Engine {
	t.Helper()
	tables, err := dictionary.Default()
	require.NoError(t, err)
	e, err := normalize.New(tables)
	require.NoError(t, err)
	return e
}

// ---------------------------------------------------------------------------
// Tokenize
// ---------------------------------------------------------------------------

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"ROOM TEMP 4", []string{"ROOM", "TEMP", "4"}},
		{"ZN-T_SP", []string{"ZN", "T", "SP"}},
		{"SA..Flow  Max", []string{"SA", "Flow", "Max"}},
		{"ZnTempSP", []string{"Zn", "Temp", "SP"}},
		{"VAVFlow", []string{"VAVFlow"}},
		{"DAT2Sp", []string{"DAT2Sp"}},
		{"oaDmprPos", []string{"oa", "Dmpr", "Pos"}},
		{"__", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Tokenize(tt.in))
		})
	}
}

// ---------------------------------------------------------------------------
// Normalize
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	tests := []struct {
		name           string
		point          trio.Point
		ctx            normalize.Context
		validateOutput func(t *testing.T, out normalize.Point)
	}{
		{
			name:  "room temperature sensor",
			point: trio.Point{DisplayName: "ROOM TEMP 4", ObjectKind: "AI", ObjectInstance: 39, Unit: "°F"},
			validateOutput: func(t *testing.T, out normalize.Point) {
				assert.True(t, out.Success)
				assert.Equal(t, dictionary.FunctionSensor, out.PointFunction)
				assert.Equal(t, "Room Temperature 4", out.NormalizedName)
				assert.Equal(t, "Room Temperature", out.ExpandedDescription)
				assert.Equal(t, normalize.MethodAcronymExpansion, out.NormalizationMethod)
				// (0.8 + 0.9 + 0.1) / 3 plus the units boost.
				assert.InDelta(t, 0.7, out.ConfidenceScore, 1e-9)
				assert.Equal(t, normalize.LevelMedium, out.ConfidenceLevel)
				assert.Contains(t, out.AppliedRules, "context:units")
			},
		},
		{
			name:  "setpoint hint appended to description",
			point: trio.Point{DisplayName: "ZN-T SP"},
			validateOutput: func(t *testing.T, out normalize.Point) {
				assert.Equal(t, dictionary.FunctionSetpoint, out.PointFunction)
				assert.Equal(t, "Zone Temperature Setpoint", out.NormalizedName)
				assert.Equal(t, "Zone Temperature Setpoint", out.ExpandedDescription)
				assert.Equal(t, []string{
					"expand:ZN=Zone",
					"expand:T=Temperature",
					"expand:SP=Setpoint",
					"function:SP=setpoint",
				}, out.AppliedRules)
				assert.InDelta(t, 0.7, out.ConfidenceScore, 1e-9)
			},
		},
		{
			name:  "first function hint wins",
			point: trio.Point{DisplayName: "FAN SS STATUS"},
			validateOutput: func(t *testing.T, out normalize.Point) {
				assert.Equal(t, dictionary.FunctionCommand, out.PointFunction)
				assert.Equal(t, "Fan Start Stop Command", out.ExpandedDescription)
				assert.Equal(t, "Fan Start Stop Status", out.NormalizedName)
			},
		},
		{
			name:  "camel case tokens",
			point: trio.Point{DisplayName: "oaDmprPos"},
			validateOutput: func(t *testing.T, out normalize.Point) {
				require.Len(t, out.Tokens, 3)
				assert.Equal(t, "Outside Air Damper Position", out.NormalizedName)
			},
		},
		{
			name:  "unknown tokens pass through",
			point: trio.Point{DisplayName: "XQ ZZ"},
			validateOutput: func(t *testing.T, out normalize.Point) {
				assert.True(t, out.Success)
				assert.Equal(t, normalize.MethodPassthrough, out.NormalizationMethod)
				assert.InDelta(t, 0.1, out.ConfidenceScore, 1e-9)
				assert.Equal(t, normalize.LevelUnknown, out.ConfidenceLevel)
				assert.Equal(t, "Xq Zz", out.NormalizedName)
			},
		},
		{
			name:  "context boosts clamp at one",
			point: trio.Point{DisplayName: "SAT"},
			ctx:   normalize.Context{EquipmentType: "AHU", VendorName: "Trane", Units: "°F"},
			validateOutput: func(t *testing.T, out normalize.Point) {
				assert.Equal(t, 1.0, out.ConfidenceScore)
				assert.Equal(t, normalize.LevelHigh, out.ConfidenceLevel)
				assert.Contains(t, out.AppliedRules, "context:equipment")
				assert.Contains(t, out.AppliedRules, "context:vendor")
			},
		},
		{
			name:  "unknown equipment type gives no boost",
			point: trio.Point{DisplayName: "TEMP"},
			ctx:   normalize.Context{EquipmentType: "Unknown"},
			validateOutput: func(t *testing.T, out normalize.Point) {
				assert.InDelta(t, 0.9, out.ConfidenceScore, 1e-9)
				assert.NotContains(t, out.AppliedRules, "context:equipment")
			},
		},
		{
			name:  "empty display name fails softly",
			point: trio.Point{DisplayName: "   "},
			validateOutput: func(t *testing.T, out normalize.Point) {
				assert.False(t, out.Success)
				assert.NotEmpty(t, out.Error)
				assert.Equal(t, "   ", out.NormalizedName)
			},
		},
		{
			name:  "delimiters only fails softly",
			point: trio.Point{DisplayName: "--__"},
			validateOutput: func(t *testing.T, out normalize.Point) {
				assert.False(t, out.Success)
				assert.Equal(t, "--__", out.NormalizedName)
			},
		},
	}

	e := newEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Normalize(tt.point, tt.ctx)
			assert.Equal(t, tt.point, out.Source)
			assert.Equal(t, tt.point.DisplayName, out.OriginalName)
			tt.validateOutput(t, out)
		})
	}
}

func TestNormalize_ScoreBounds(t *testing.T) {
	e := newEngine(t)
	ctx := normalize.Context{EquipmentType: "VAV", VendorName: "Trane", Units: "cfm"}
	for _, name := range []string{"SAT", "ZN-T", "q", "DA FLOW SP", "AHU1 SF SS", "x y z w", "1 2 3"} {
		for _, c := range []normalize.Context{{}, ctx} {
			out := e.Normalize(trio.Point{DisplayName: name}, c)
			assert.GreaterOrEqual(t, out.ConfidenceScore, 0.0, name)
			assert.LessOrEqual(t, out.ConfidenceScore, 1.0, name)
			assert.Equal(t, normalize.LevelFor(out.ConfidenceScore), out.ConfidenceLevel, name)
		}
	}
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, normalize.LevelHigh, normalize.LevelFor(1))
	assert.Equal(t, normalize.LevelHigh, normalize.LevelFor(0.8))
	assert.Equal(t, normalize.LevelMedium, normalize.LevelFor(0.79))
	assert.Equal(t, normalize.LevelMedium, normalize.LevelFor(0.5))
	assert.Equal(t, normalize.LevelLow, normalize.LevelFor(0.2))
	assert.Equal(t, normalize.LevelUnknown, normalize.LevelFor(0.19))
	assert.Equal(t, normalize.LevelUnknown, normalize.LevelFor(0))

	rank := map[normalize.Level]int{
		normalize.LevelUnknown: 0, normalize.LevelLow: 1, normalize.LevelMedium: 2, normalize.LevelHigh: 3,
	}
	prev := -1
	for s := 0.0; s <= 1.0; s += 0.01 {
		r := rank[normalize.LevelFor(s)]
		assert.GreaterOrEqual(t, r, prev)
		prev = r
	}
}
