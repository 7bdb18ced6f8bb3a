package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-handoff-server/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestNonBlank(t *testing.T) {
	require.Nil(t, utils.NonBlank(""))
	require.Nil(t, utils.NonBlank("   \t"))

	v := utils.NonBlank("  device-123 ")
	require.NotNil(t, v)
	require.Equal(t, "device-123", *v)
}

func TestValueOr(t *testing.T) {
	require.Equal(t, "anon", utils.ValueOr[string](nil, "anon"))
	require.Equal(t, "x", utils.ValueOr(utils.Ptr("x"), "anon"))
	require.Equal(t, "", utils.Value[string](nil))
}
