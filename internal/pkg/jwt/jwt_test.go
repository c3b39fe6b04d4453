package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	token, expiresIn, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	token, _, err := svc.GenerateAccessToken("user-1", "shop-1", "owner")
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestValidateSSEToken_RejectsForeignSignature(t *testing.T) {
	token, _, err := NewJWTService("other-secret", "1h").GenerateSSEToken("user-1")
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", "1h").ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestGenerateAccessToken_Claims(t *testing.T) {
	svc := NewJWTService("test-secret", "15m")

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "shop-1", "manager")
	require.NoError(t, err)
	assert.NotZero(t, expiresAt)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	shopID, _ := decoded.Get("shop_id")
	assert.Equal(t, "shop-1", shopID)

	_, _, err = NewJWTService("test-secret", "soon").GenerateAccessToken("user-1", "shop-1", "owner")
	assert.Error(t, err)
}

func TestBatchConfirmationToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")
	want := BatchConfirmation{ShopID: "shop-1", UserID: "user-1", PeriodID: "period-1", Digest: "abc123"}

	token, expiresAt, err := svc.GenerateBatchConfirmationToken(want)
	require.NoError(t, err)
	assert.NotZero(t, expiresAt)

	got, err := svc.ValidateBatchConfirmationToken(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidateBatchConfirmationToken_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	access, _, err := svc.GenerateAccessToken("user-1", "shop-1", "owner")
	require.NoError(t, err)
	_, err = svc.ValidateBatchConfirmationToken(access)
	assert.Error(t, err, "access token")

	foreign, _, err := NewJWTService("other-secret", "1h").GenerateBatchConfirmationToken(BatchConfirmation{ShopID: "s", UserID: "u", PeriodID: "p", Digest: "d"})
	require.NoError(t, err)
	_, err = svc.ValidateBatchConfirmationToken(foreign)
	assert.Error(t, err, "foreign signature")

	noDigest, _, err := svc.GenerateBatchConfirmationToken(BatchConfirmation{ShopID: "s", UserID: "u", PeriodID: "p"})
	require.NoError(t, err)
	_, err = svc.ValidateBatchConfirmationToken(noDigest)
	assert.Error(t, err, "missing digest")
}
