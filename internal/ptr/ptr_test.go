package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTo(t *testing.T) {
	p := To(3)
	*p = 4
	assert.Equal(t, 4, *p)
}

func TestDeref(t *testing.T) {
	assert.Equal(t, "stored", Deref(nil, "stored"))
	assert.Equal(t, "patched", Deref(To("patched"), "stored"))
	assert.False(t, Deref(To(false), true))
}
