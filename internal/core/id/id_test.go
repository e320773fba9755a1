package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsVersion7(t *testing.T) {
	v := New()
	assert.Equal(t, 7, int(v.Version()))
	assert.False(t, IsNil(v))
}

func TestParse_RoundTrip(t *testing.T) {
	v := New()
	parsed, err := Parse(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, parsed)

	_, err = Parse("not-a-uuid")
	assert.Error(t, err)
}
