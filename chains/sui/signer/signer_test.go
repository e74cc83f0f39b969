package signer

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func testSeed() []byte {
	seed := make([]byte, seedLength)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return seed
}

func TestNewSignerEncodings(t *testing.T) {
	seed := testSeed()

	fromSeed, err := NewSignerFromSeed(seed)
	require.NoError(t, err)

	keystore := base64.StdEncoding.EncodeToString(append([]byte{ed25519Flag}, seed...))
	fromKeystore, err := NewSigner(keystore)
	require.NoError(t, err)
	require.Equal(t, fromSeed.Address(), fromKeystore.Address())

	fromHex, err := NewSigner("0x" + hex.EncodeToString(seed))
	require.NoError(t, err)
	require.Equal(t, fromSeed.Address(), fromHex.Address())

	full := ed25519.NewKeyFromSeed(seed)
	fromFull, err := NewSigner(hex.EncodeToString(full))
	require.NoError(t, err)
	require.Equal(t, fromSeed.Address(), fromFull.Address())
}

func TestNewSignerRejectsInvalidKeys(t *testing.T) {
	for _, key := range []string{
		"",
		"not a key",
		base64.StdEncoding.EncodeToString(append([]byte{0x01}, testSeed()...)),
		base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
	} {
		_, err := NewSigner(key)
		require.Error(t, err, key)
	}
}

func TestAddressDerivation(t *testing.T) {
	s, err := NewSignerFromSeed(testSeed())
	require.NoError(t, err)

	expected := blake2b.Sum256(append([]byte{0x00}, s.PublicKey()...))
	require.Equal(t, "0x"+hex.EncodeToString(expected[:]), s.Address())
	require.Len(t, s.Address(), 66)
}

func TestSignTransaction(t *testing.T) {
	s, err := NewSignerFromSeed(testSeed())
	require.NoError(t, err)

	txBytes := []byte{0, 0, 1, 2, 3}
	encoded, err := s.SignTransaction(txBytes)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Len(t, raw, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	require.Equal(t, ed25519Flag, raw[0])

	signature := raw[1 : 1+ed25519.SignatureSize]
	publicKey := raw[1+ed25519.SignatureSize:]
	require.Equal(t, s.PublicKey(), publicKey)

	digest := blake2b.Sum256(append([]byte{0, 0, 0}, txBytes...))
	require.True(t, ed25519.Verify(publicKey, digest[:], signature))
}
