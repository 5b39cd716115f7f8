package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := New("service-key")
	assert.NoError(t, err)

	opaque, err := c.Obscure(42, "Run 5km before breakfast")
	assert.NoError(t, err)
	assert.NotEqual(t, "Run 5km before breakfast", opaque)

	plain, err := c.Reveal(42, opaque)
	assert.NoError(t, err)
	assert.Equal(t, "Run 5km before breakfast", plain)
}

func TestCipher_PerUserKeys(t *testing.T) {
	c, err := New("service-key")
	assert.NoError(t, err)

	opaque, err := c.Obscure(42, "secret plan")
	assert.NoError(t, err)

	_, err = c.Reveal(43, opaque)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestCipher_RejectsGarbage(t *testing.T) {
	c, err := New("service-key")
	assert.NoError(t, err)

	_, err = c.Reveal(1, "not base64!!")
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = c.Reveal(1, "c2hvcnQ=")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNew_EmptyKey(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
