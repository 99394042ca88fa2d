package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "expensely-backend/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testProjectID = "expensely-test"

// FirebaseVerifierTestSuite verifies tokens against a fake certificate endpoint
type FirebaseVerifierTestSuite struct {
	suite.Suite
	key      *rsa.PrivateKey
	server   *httptest.Server
	hits     atomic.Int32
	verifier *FirebaseVerifier
	now      time.Time
}

func selfSignedPEM(t *testing.T, key *rsa.PrivateKey) string {
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.system.gserviceaccount.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

// SetupSuite runs before all tests in the suite
func (suite *FirebaseVerifierTestSuite) SetupSuite() {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	suite.Require().NoError(err)
	suite.key = key

	certs := map[string]string{"kid-1": selfSignedPEM(suite.T(), key)}
	suite.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.hits.Add(1)
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(certs)
	}))
}

// TearDownSuite runs after all tests in the suite
func (suite *FirebaseVerifierTestSuite) TearDownSuite() {
	suite.server.Close()
}

// SetupTest runs before each test
func (suite *FirebaseVerifierTestSuite) SetupTest() {
	suite.hits.Store(0)
	suite.now = time.Now()
	suite.verifier = NewFirebaseVerifier(testProjectID,
		WithCertsURL(suite.server.URL),
		WithHTTPClient(suite.server.Client()),
		WithClock(func() time.Time { return suite.now }),
	)
}

func (suite *FirebaseVerifierTestSuite) claims() *firebaseClaims {
	return &firebaseClaims{
		Email:    "Alice@Example.com",
		Name:     "Alice",
		AuthTime: suite.now.Add(-time.Minute).Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "firebase-uid-1",
			Issuer:    "https://securetoken.google.com/" + testProjectID,
			Audience:  jwt.ClaimStrings{testProjectID},
			IssuedAt:  jwt.NewNumericDate(suite.now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(suite.now.Add(time.Hour)),
		},
	}
}

func (suite *FirebaseVerifierTestSuite) sign(claims *firebaseClaims, kid string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(suite.key)
	suite.Require().NoError(err)
	return signed
}

// TestVerifyValidToken tests the happy path
func (suite *FirebaseVerifierTestSuite) TestVerifyValidToken() {
	principal, err := suite.verifier.Verify(context.Background(), suite.sign(suite.claims(), "kid-1"))

	suite.Require().NoError(err)
	suite.Equal("firebase-uid-1", principal.UID)
	suite.Equal("alice@example.com", principal.Email)
	suite.Equal("Alice", principal.Name)
}

// TestCertificatesAreCached tests that certificates are fetched once per max-age
func (suite *FirebaseVerifierTestSuite) TestCertificatesAreCached() {
	token := suite.sign(suite.claims(), "kid-1")

	for i := 0; i < 3; i++ {
		_, err := suite.verifier.Verify(context.Background(), token)
		suite.Require().NoError(err)
	}
	suite.Equal(int32(1), suite.hits.Load())

	suite.now = suite.now.Add(2 * time.Hour)
	claims := suite.claims()
	_, err := suite.verifier.Verify(context.Background(), suite.sign(claims, "kid-1"))
	suite.Require().NoError(err)
	suite.Equal(int32(2), suite.hits.Load())
}

// TestVerifyRejections tests every claim the verifier enforces
func (suite *FirebaseVerifierTestSuite) TestVerifyRejections() {
	tests := []struct {
		name   string
		mutate func(c *firebaseClaims)
		kid    string
	}{
		{"wrong audience", func(c *firebaseClaims) { c.Audience = jwt.ClaimStrings{"other-project"} }, "kid-1"},
		{"wrong issuer", func(c *firebaseClaims) { c.Issuer = "https://securetoken.google.com/other" }, "kid-1"},
		{"expired", func(c *firebaseClaims) { c.ExpiresAt = jwt.NewNumericDate(suite.now.Add(-time.Minute)) }, "kid-1"},
		{"missing expiry", func(c *firebaseClaims) { c.ExpiresAt = nil }, "kid-1"},
		{"issued in the future", func(c *firebaseClaims) { c.IssuedAt = jwt.NewNumericDate(suite.now.Add(time.Hour)) }, "kid-1"},
		{"auth time in the future", func(c *firebaseClaims) { c.AuthTime = suite.now.Add(time.Hour).Unix() }, "kid-1"},
		{"empty subject", func(c *firebaseClaims) { c.Subject = "" }, "kid-1"},
		{"missing email", func(c *firebaseClaims) { c.Email = "" }, "kid-1"},
		{"unknown kid", func(c *firebaseClaims) {}, "kid-unknown"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			claims := suite.claims()
			tt.mutate(claims)

			principal, err := suite.verifier.Verify(context.Background(), suite.sign(claims, tt.kid))

			suite.Nil(principal)
			suite.True(apperrors.IsAuthorization(err), "got %v", err)
		})
	}
}

// TestRejectsHMACSignedToken tests that only RS256 is accepted
func (suite *FirebaseVerifierTestSuite) TestRejectsHMACSignedToken() {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, suite.claims())
	token.Header["kid"] = "kid-1"
	signed, err := token.SignedString([]byte("secret"))
	suite.Require().NoError(err)

	_, err = suite.verifier.Verify(context.Background(), signed)

	suite.True(apperrors.IsAuthorization(err))
}

// TestUnknownKidDoesNotRefetchFreshCertificates tests that tokens naming an
// unknown kid cannot force certificate fetches while the cache is fresh
func (suite *FirebaseVerifierTestSuite) TestUnknownKidDoesNotRefetchFreshCertificates() {
	_, err := suite.verifier.Verify(context.Background(), suite.sign(suite.claims(), "kid-1"))
	suite.Require().NoError(err)
	suite.Require().Equal(int32(1), suite.hits.Load())

	bogus := suite.sign(suite.claims(), "kid-bogus")
	for i := 0; i < 50; i++ {
		_, err := suite.verifier.Verify(context.Background(), bogus)
		suite.True(apperrors.IsAuthorization(err), "got %v", err)
	}
	suite.Equal(int32(1), suite.hits.Load())

	// A rotated key is picked up once the refresh interval has passed.
	suite.now = suite.now.Add(minRefreshInterval)
	_, err = suite.verifier.Verify(context.Background(), suite.sign(suite.claims(), "kid-bogus"))
	suite.True(apperrors.IsAuthorization(err))
	suite.Equal(int32(2), suite.hits.Load())

	_, err = suite.verifier.Verify(context.Background(), suite.sign(suite.claims(), "kid-1"))
	suite.NoError(err)
	suite.Equal(int32(2), suite.hits.Load())
}

// TestCertificateEndpointFailure tests that an unreachable endpoint is an
// internal failure rather than a rejected credential
func (suite *FirebaseVerifierTestSuite) TestCertificateEndpointFailure() {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	verifier := NewFirebaseVerifier(testProjectID, WithCertsURL(failing.URL), WithClock(func() time.Time { return suite.now }))

	principal, err := verifier.Verify(context.Background(), suite.sign(suite.claims(), "kid-1"))

	suite.Nil(principal)
	suite.Require().Error(err)
	suite.False(apperrors.IsAuthorization(err), "got %v", err)
	suite.Equal(apperrors.CodeInternal, apperrors.Code(err))
	suite.Equal(http.StatusInternalServerError, apperrors.HTTPStatus(err))
}

func TestFirebaseVerifierTestSuite(t *testing.T) {
	suite.Run(t, new(FirebaseVerifierTestSuite))
}

func TestMaxAge(t *testing.T) {
	assert.Equal(t, 19302*time.Second, maxAge("public, max-age=19302, must-revalidate, no-transform"))
	assert.Equal(t, defaultCertsTTL, maxAge("no-cache"))
	assert.Equal(t, defaultCertsTTL, maxAge("max-age=abc"))
	assert.Equal(t, defaultCertsTTL, maxAge(""))
}
