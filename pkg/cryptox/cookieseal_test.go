package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealAndOpenCookieValue(t *testing.T) {
	t.Setenv("COOKIE_SEAL_KEY", "test-seal-key")
	ResetSealKeyForTesting()
	t.Cleanup(ResetSealKeyForTesting)

	sealed, err := SealCookieValue("refresh-token-value")
	require.NoError(t, err)
	require.NotEqual(t, "refresh-token-value", sealed)

	opened, err := OpenCookieValue(sealed)
	require.NoError(t, err)
	require.Equal(t, "refresh-token-value", opened)
}

func TestSealIsNonDeterministic(t *testing.T) {
	t.Setenv("COOKIE_SEAL_KEY", "test-seal-key")
	ResetSealKeyForTesting()
	t.Cleanup(ResetSealKeyForTesting)

	a, err := SealCookieValue("same-value")
	require.NoError(t, err)
	b, err := SealCookieValue("same-value")
	require.NoError(t, err)

	// Random nonce per seal
	require.NotEqual(t, a, b)
}

func TestOpenRejectsTamperedValue(t *testing.T) {
	t.Setenv("COOKIE_SEAL_KEY", "test-seal-key")
	ResetSealKeyForTesting()
	t.Cleanup(ResetSealKeyForTesting)

	sealed, err := SealCookieValue("secret")
	require.NoError(t, err)

	// Flip a character in the payload
	tampered := []byte(sealed)
	if tampered[len(tampered)-1] == 'A' {
		tampered[len(tampered)-1] = 'B'
	} else {
		tampered[len(tampered)-1] = 'A'
	}

	_, err = OpenCookieValue(string(tampered))
	require.Error(t, err)
}

func TestOpenRejectsGarbage(t *testing.T) {
	t.Setenv("COOKIE_SEAL_KEY", "test-seal-key")
	ResetSealKeyForTesting()
	t.Cleanup(ResetSealKeyForTesting)

	_, err := OpenCookieValue("not base64!!")
	require.Error(t, err)

	_, err = OpenCookieValue("dG9vc2hvcnQ")
	require.Error(t, err)
}
