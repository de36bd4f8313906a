package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "jobboard", TTL: time.Hour}
}

func TestIssueAndParse(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("user-1")
	require.NoError(t, err)

	claims, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UID)
	assert.Equal(t, "jobboard", claims.Issuer)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	tok, err := newJWTer().Issue("user-1")
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other-secret"), Issuer: "jobboard", TTL: time.Hour}
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	foreign := &JWTer{Secret: []byte("test-secret"), Issuer: "somebody-else", TTL: time.Hour}
	tok, err := foreign.Issue("user-1")
	require.NoError(t, err)

	_, err = newJWTer().Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "jobboard", TTL: -2 * time.Minute}
	tok, err := j.Issue("user-1")
	require.NoError(t, err)

	_, err = newJWTer().Parse(tok)
	assert.Error(t, err, "leeway is 60s, a token two minutes stale is out")
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := newJWTer().Parse("not.a.token")
	assert.Error(t, err)
}
