package hcl_adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestNewEvalContext_Environment(t *testing.T) {
	// --- Arrange ---
	environ := []string{
		"SDK=/opt/sdk",
		"EMPTY=",
		"WITH_EQUALS=a=b",
		"1LEADING_DIGIT=x",
		"ProgramFiles(x86)=C:\\x86",
		"=C:=C:\\",
		"NOEQUALS",
	}

	// --- Act ---
	ectx := newEvalContext(environ)

	// --- Assert ---
	env, ok := ectx.Variables["env"]
	require.True(t, ok)
	require.True(t, env.Type().IsObjectType())

	got := make(map[string]string)
	for name, v := range env.AsValueMap() {
		require.Equal(t, cty.String, v.Type())
		got[name] = v.AsString()
	}
	assert.Equal(t, map[string]string{
		"SDK":         "/opt/sdk",
		"EMPTY":       "",
		"WITH_EQUALS": "a=b",
	}, got)

	assert.Contains(t, ectx.Functions, "format")
}
