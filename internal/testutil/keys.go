package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/openpgp"       //nolint:staticcheck // test fixtures
	"golang.org/x/crypto/openpgp/armor" //nolint:staticcheck // test fixtures
)

// NewSigningKey generates a throwaway OpenPGP key. Generation is slow;
// callers share keys across tests.
func NewSigningKey(name, email string) (*openpgp.Entity, error) {
	return openpgp.NewEntity(name, "", email, nil)
}

// BinaryKey serializes the public part of e.
func BinaryKey(t testing.TB, e *openpgp.Entity) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Serialize(&buf))
	return buf.Bytes()
}

// ArmoredKey serializes the public part of e as an ASCII-armored block,
// the form keyservers return.
func ArmoredKey(t testing.TB, e *openpgp.Entity) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, e.Serialize(w))
	require.NoError(t, w.Close())
	return buf.Bytes()
}
