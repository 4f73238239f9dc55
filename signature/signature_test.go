package signature_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"inframint-validator-service/signature"
)

func TestVerify(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(err)

	message := "consume:ent-1:10"
	sig := ed25519.Sign(privateKey, []byte(message))

	ok, err := signature.Verify(
		base58.Encode(publicKey),
		base58.Encode(sig),
		message,
	)
	require.NoError(err)
	require.True(ok)
}

func TestVerifyWrongSigner(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	ownerKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(err)
	_, otherPrivateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(err)

	message := "consume:ent-1:10"
	sig := ed25519.Sign(otherPrivateKey, []byte(message))

	ok, err := signature.Verify(
		base58.Encode(ownerKey),
		base58.Encode(sig),
		message,
	)
	require.NoError(err)
	require.False(ok)
}

func TestVerifyTamperedMessage(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(err)

	sig := ed25519.Sign(privateKey, []byte("consume:ent-1:10"))

	ok, err := signature.Verify(
		base58.Encode(publicKey),
		base58.Encode(sig),
		"consume:ent-1:9999",
	)
	require.NoError(err)
	require.False(ok)
}

func TestVerifyMalformedInputs(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(err)
	sig := ed25519.Sign(privateKey, []byte("msg"))

	_, err = signature.Verify("not-base58-0OIl", base58.Encode(sig), "msg")
	require.Error(err)

	_, err = signature.Verify(base58.Encode(publicKey), "not-base58-0OIl", "msg")
	require.Error(err)

	_, err = signature.Verify(base58.Encode([]byte("short")), base58.Encode(sig), "msg")
	require.Error(err)

	_, err = signature.Verify(base58.Encode(publicKey), base58.Encode([]byte("short")), "msg")
	require.Error(err)
}
