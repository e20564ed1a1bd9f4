package secretary

import (
	"testing"

	"github.com/osseasofertas/review-platform/internal/config"
	"github.com/stretchr/testify/assert"
)

func newTestSecretary(t *testing.T) *Secretary {
	t.Helper()
	s, err := NewSecretaryService(&config.SecretConfig{SecretKey: "jds__63h3_7ds"})
	assert.NoError(t, err)
	return s
}

func TestEncodeDecode(t *testing.T) {
	s := newTestSecretary(t)
	ciphered := s.Encode("jane@example.com")
	assert.NotEqual(t, "jane@example.com", ciphered)
	deciphered, err := s.Decode(ciphered)
	assert.NoError(t, err)
	assert.Equal(t, "jane@example.com", deciphered)
}

func TestEncodeDeterministic(t *testing.T) {
	// equal plaintexts must cipher identically so emails stay comparable
	s := newTestSecretary(t)
	assert.Equal(t, s.Encode("jane@example.com"), s.Encode("jane@example.com"))
}

func TestDecodeGarbage(t *testing.T) {
	s := newTestSecretary(t)
	_, err := s.Decode("not hex at all")
	assert.Error(t, err)
	_, err = s.Decode("deadbeef")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestSecretary(t)
	accessToken, refreshToken, userID, err := s.NewToken()
	assert.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.NotEmpty(t, userID)

	parsedID, err := s.ValidateToken(accessToken)
	assert.NoError(t, err)
	assert.Equal(t, userID, parsedID)

	parsedID, err = s.ValidateToken(refreshToken)
	assert.NoError(t, err)
	assert.Equal(t, userID, parsedID)
}

func TestGetTokenForUser(t *testing.T) {
	s := newTestSecretary(t)
	accessToken, err := s.GetTokenForUser("user-1")
	assert.NoError(t, err)
	parsedID, err := s.ValidateToken(accessToken)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", parsedID)
}

func TestValidateTokenRejectsForeignKey(t *testing.T) {
	s := newTestSecretary(t)
	other, err := NewSecretaryService(&config.SecretConfig{SecretKey: "a completely different key"})
	assert.NoError(t, err)
	accessToken, err := other.GetTokenForUser("user-1")
	assert.NoError(t, err)
	_, err = s.ValidateToken(accessToken)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	s := newTestSecretary(t)
	_, err := s.ValidateToken("not.a.token")
	assert.Error(t, err)
}
