package api

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camrelay/internal/camera"
	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/errors"
)

const (
	testSecret   = "test-shared-secret-with-enough-entropy"
	testIssuer   = "https://issuer.example.com/"
	testAudience = "camrelay-api"
)

func hsToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		Subject:   "operator-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func hsAuth(s *conf.Settings) {
	s.Auth.Enabled = true
	s.Auth.Secret = testSecret
	s.Auth.Issuer = testIssuer
	s.Auth.Audience = testAudience
}

func TestAuthMiddleware_HS256(t *testing.T) {
	t.Parallel()

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"someone-else"}

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.example.com/"

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantCode   int
		wantReason string
	}{
		{name: "valid token", header: "Bearer " + hsToken(t, validClaims()), wantCode: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + hsToken(t, validClaims()), wantCode: http.StatusOK},
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized, wantReason: authReasonMissing},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantCode: http.StatusUnauthorized, wantReason: authReasonFormat},
		{name: "expired", header: "Bearer " + hsToken(t, expired), wantCode: http.StatusUnauthorized, wantReason: authReasonExpired},
		{name: "wrong audience", header: "Bearer " + hsToken(t, wrongAudience), wantCode: http.StatusUnauthorized, wantReason: authReasonClaims},
		{name: "wrong issuer", header: "Bearer " + hsToken(t, wrongIssuer), wantCode: http.StatusUnauthorized, wantReason: authReasonClaims},
		{name: "no expiry", header: "Bearer " + hsToken(t, noExpiry), wantCode: http.StatusUnauthorized, wantReason: authReasonClaims},
		{name: "wrong key", header: "Bearer " + otherKey, wantCode: http.StatusUnauthorized, wantReason: authReasonInvalid},
		{name: "garbage", header: "Bearer not.a.jwt", wantCode: http.StatusUnauthorized, wantReason: authReasonInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			recorder := &recordingAuth{}
			env := setupTestEnvironment(t, hsAuth, WithAuthRecorder(recorder))
			env.svc.On("List", mock.Anything).Return([]camera.CameraSummary{}, nil).Maybe()

			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := env.do(http.MethodGet, "/api/v2/cameras", "", headers)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantReason != "" {
				assert.Equal(t, []string{tt.wantReason}, recorder.reasons)
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				env.svc.AssertNotCalled(t, "List", mock.Anything)
			}
		})
	}
}

func TestAuthMiddleware_HealthStaysOpen(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, hsAuth)
	env.health.On("Ping", mock.Anything).Return(nil)

	rec := env.do(http.MethodGet, "/api/v2/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_RS256(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	keyFile := filepath.Join(t.TempDir(), "issuer.pem")
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	env := setupTestEnvironment(t, func(s *conf.Settings) {
		s.Auth.Enabled = true
		s.Auth.PublicKeyFile = keyFile
		s.Auth.Audience = testAudience
	})
	env.svc.On("List", mock.Anything).Return([]camera.CameraSummary{}, nil)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims()).SignedString(key)
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/api/v2/cameras", "", map[string]string{"Authorization": "Bearer " + signed})
	assert.Equal(t, http.StatusOK, rec.Code)

	// An HS256 token must not pass an RS256 validator.
	rec = env.do(http.MethodGet, "/api/v2/cameras", "", map[string]string{"Authorization": "Bearer " + hsToken(t, validClaims())})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNew_AuthKeyFileMissing(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Auth.Enabled = true
	settings.Auth.PublicKeyFile = filepath.Join(t.TempDir(), "missing.pem")

	_, err := newTokenValidator(settings.Auth)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
