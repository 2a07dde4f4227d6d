package csrf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	g, err := New("s3cret")
	require.NoError(t, err)

	tok := g.Token("session-a")
	assert.Len(t, tok, 64)
	assert.Equal(t, tok, g.Token("session-a"), "tokens are deterministic per session")
	assert.NoError(t, g.Check("session-a", tok))

	assert.ErrorIs(t, g.Check("session-b", tok), ErrInvalidToken)
	assert.ErrorIs(t, g.Check("session-a", ""), ErrInvalidToken)
	assert.ErrorIs(t, g.Check("", tok), ErrInvalidToken)
	assert.ErrorIs(t, g.Check("session-a", "not-hex"), ErrInvalidToken)
}

func TestSecretsDiffer(t *testing.T) {
	a, err := New("")
	require.NoError(t, err)
	b, err := New("")
	require.NoError(t, err)
	assert.NotEqual(t, a.Token("x"), b.Token("x"))

	c, _ := New("same")
	d, _ := New("same")
	assert.Equal(t, c.Token("x"), d.Token("x"))
}
