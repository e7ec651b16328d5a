package wireguard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/curve25519"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

func TestGenerateKeypair_Clamping(t *testing.T) {
	for i := 0; i < 64; i++ {
		kp, err := GenerateKeypair()
		require.NoError(t, err)

		priv, err := base64.StdEncoding.DecodeString(kp.PrivateKey)
		require.NoError(t, err)
		require.Len(t, priv, 32)

		assert.Zero(t, priv[0]&0x07, "low bits of byte 0 must be cleared")
		assert.Zero(t, priv[31]&0x80, "high bit of byte 31 must be cleared")
		assert.Equal(t, byte(0x40), priv[31]&0x40, "bit 6 of byte 31 must be set")
	}
}

func TestGenerateKeypair_PublicKeyIsX25519OfPrivate(t *testing.T) {
	for i := 0; i < 16; i++ {
		kp, err := GenerateKeypair()
		require.NoError(t, err)

		priv, err := base64.StdEncoding.DecodeString(kp.PrivateKey)
		require.NoError(t, err)
		want, err := curve25519.X25519(priv, curve25519.Basepoint)
		require.NoError(t, err)
		assert.Equal(t, base64.StdEncoding.EncodeToString(want), kp.PublicKey)

		wk, err := wgtypes.ParseKey(kp.PrivateKey)
		require.NoError(t, err)
		assert.Equal(t, wk.PublicKey().String(), kp.PublicKey)
	}
}

func TestKeyGenerator_DeterministicWithFixedRand(t *testing.T) {
	seed := bytes.Repeat([]byte{0xFF}, 32)
	g := &KeyGenerator{Rand: bytes.NewReader(seed)}

	kp, err := g.Generate()
	require.NoError(t, err)

	priv, _ := base64.StdEncoding.DecodeString(kp.PrivateKey)
	assert.Equal(t, byte(0xF8), priv[0])
	assert.Equal(t, byte(0x7F), priv[31])
	assert.Len(t, kp.PublicKey, 44)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestKeyGenerator_RandomFailure(t *testing.T) {
	g := &KeyGenerator{Rand: failingReader{}}
	_, err := g.Generate()
	assert.ErrorContains(t, err, "no entropy")
}

func TestKeyGenerator_Unique(t *testing.T) {
	a, err := GenerateKeypair()
	require.NoError(t, err)
	b, err := GenerateKeypair()
	require.NoError(t, err)
	assert.NotEqual(t, a.PrivateKey, b.PrivateKey)
	assert.NotEqual(t, a.PublicKey, b.PublicKey)
}

func TestPublicKeyFromPrivate(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	pub, err := PublicKeyFromPrivate(kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, pub)

	_, err = PublicKeyFromPrivate("not-a-key")
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)
	assert.NoError(t, ParseKey(kp.PublicKey))
	assert.Error(t, ParseKey(""))
	assert.Error(t, ParseKey("c2hvcnQ="))
}
