package partprogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		description string
		want        ParamType
	}{
		{"yes/no marker", "1", "Door present yes/no", TypeBoolean},
		{"yes=1/no=0 marker", "0", "Back panel yes=1/no=0", TypeBoolean},
		{"binary value with yes mention", "1", "set to yes for doors", TypeBoolean},
		{"binary value without yes mention", "1", "number of shelves", TypeNumber},
		{"plain number", "560,5", "Cabinet width", TypeNumber},
		{"non-binary with yes mention", "560", "yes this is the width", TypeNumber},
		{"case insensitive marker", "0", "Drawer YES/NO", TypeBoolean},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyType(tt.value, tt.description))
		})
	}
}

func TestDeduplicate(t *testing.T) {
	in := []Parameter{
		{Name: "A", SortID: 1},
		{Name: "B", SortID: 2},
		{Name: "A", SortID: 3},
	}
	out := Deduplicate(in)
	assert.Equal(t, []Parameter{{Name: "A", SortID: 1}, {Name: "B", SortID: 2}}, out,
		"first occurrence wins, order preserved")
}

func TestIsPerPartParameter(t *testing.T) {
	assert.True(t, IsPerPartParameter("X_C_Y"))
	assert.True(t, IsPerPartParameter("Y_C_X"))
	assert.True(t, IsPerPartParameter("HRUB"), "thickness literal is per-part")
	assert.True(t, IsPerPartParameter("X_C_Z"), "Z is allowed as the second axis")
	assert.False(t, IsPerPartParameter("Z_C_Y"), "Z is restricted from the first axis")
	assert.False(t, IsPerPartParameter("LX"))
	assert.False(t, IsPerPartParameter("X_C_Y_EXTRA"))
	assert.False(t, IsPerPartParameter("x_c_y"), "pattern is case sensitive")
}

func TestIsAxisPairParameter(t *testing.T) {
	assert.True(t, IsAxisPairParameter("X_C_Y"))
	assert.False(t, IsAxisPairParameter("HRUB"), "thickness is counted separately at import")
}

func TestIsExcludedParameter(t *testing.T) {
	assert.True(t, IsExcludedParameter("_VERSION"))
	assert.False(t, IsExcludedParameter("LX"))
}
