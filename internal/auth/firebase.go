package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "expensely-backend/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	// FirebaseCertsURL serves the x509 certificates that sign Firebase ID tokens.
	FirebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

	firebaseIssuerPrefix = "https://securetoken.google.com/"
	defaultCertsTTL      = time.Hour

	// minRefreshInterval bounds refetches triggered by an unknown kid while
	// the cached set is still fresh.
	minRefreshInterval = time.Minute
)

// certFetchError marks a failure to load the signing certificates. It is
// returned as is so callers can tell an outage from a bad token.
type certFetchError struct {
	err error
}

func (e *certFetchError) Error() string { return e.err.Error() }

func (e *certFetchError) Unwrap() error { return e.err }

type firebaseClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	AuthTime int64  `json:"auth_time"`
	jwt.RegisteredClaims
}

// FirebaseVerifier validates Firebase ID tokens for one project.
type FirebaseVerifier struct {
	projectID  string
	certsURL   string
	httpClient *http.Client
	now        func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time

	fetches singleflight.Group
}

// FirebaseOption customizes a FirebaseVerifier
type FirebaseOption func(*FirebaseVerifier)

// WithCertsURL overrides the certificate endpoint
func WithCertsURL(url string) FirebaseOption {
	return func(v *FirebaseVerifier) { v.certsURL = url }
}

// WithHTTPClient sets the client used for certificate fetches
func WithHTTPClient(client *http.Client) FirebaseOption {
	return func(v *FirebaseVerifier) { v.httpClient = client }
}

// WithClock sets the time source used for claim validation and cache expiry
func WithClock(now func() time.Time) FirebaseOption {
	return func(v *FirebaseVerifier) { v.now = now }
}

// NewFirebaseVerifier creates a verifier for tokens issued to projectID
func NewFirebaseVerifier(projectID string, opts ...FirebaseOption) *FirebaseVerifier {
	v := &FirebaseVerifier{
		projectID:  projectID,
		certsURL:   FirebaseCertsURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify validates signature, audience, issuer and lifetime of an ID token
func (v *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(rawToken, &firebaseClaims{}, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(firebaseIssuerPrefix+v.projectID),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		var fetchErr *certFetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*firebaseClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidCredential
	}
	if len(claims.Subject) > 128 {
		return nil, fmt.Errorf("%w: subject too long", apperrors.ErrInvalidCredential)
	}
	if claims.AuthTime > v.now().Unix() {
		return nil, fmt.Errorf("%w: auth_time is in the future", apperrors.ErrInvalidCredential)
	}
	return principalFromClaims(claims.Subject, claims.Email, claims.Name)
}

// key returns the public key for kid. The certificate set is refetched when
// it has expired, or when kid is unknown and the last fetch is older than
// minRefreshInterval.
func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := v.now()
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := now.Before(v.expiresAt)
	recent := now.Sub(v.fetchedAt) < minRefreshInterval
	v.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}
	if fresh && recent {
		return nil, fmt.Errorf("no certificate for kid %q", kid)
	}

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("no certificate for kid %q", kid)
}

// refresh loads the certificate set. Concurrent callers share one request.
func (v *FirebaseVerifier) refresh(ctx context.Context) error {
	_, err, _ := v.fetches.Do("certs", func() (interface{}, error) {
		return nil, v.fetch(ctx)
	})
	if err != nil {
		return &certFetchError{err: err}
	}
	return nil
}

func (v *FirebaseVerifier) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return fmt.Errorf("build certificate request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch certificates: unexpected status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode certificates: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return fmt.Errorf("parse certificate %s: %w", kid, err)
		}
		keys[kid] = key
	}

	now := v.now()
	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = now
	v.expiresAt = now.Add(maxAge(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()
	return nil
}

// maxAge extracts max-age from a Cache-Control header.
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(directive), "=")
		if !found || !strings.EqualFold(name, "max-age") {
			continue
		}
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultCertsTTL
}
