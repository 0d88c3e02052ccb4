package sigv4

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Signature protocol constants.
const (
	// Algorithm identifies the signing algorithm in Authorization headers
	// and presigned query strings.
	Algorithm = "AWS4-HMAC-SHA256"

	// ServiceS3 is the service component of the credential scope.
	ServiceS3 = "s3"

	// UnsignedPayload is the sentinel payload hash for requests whose
	// body is not covered by the signature (presigned URLs).
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// EmptyStringSHA256 is the hex SHA-256 of an empty body.
	EmptyStringSHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// TimeFormat is the ISO 8601 basic timestamp format used on the wire.
	TimeFormat = "20060102T150405Z"

	// DateFormat is the calendar-date component of the credential scope.
	DateFormat = "20060102"

	terminator = "aws4_request"
)

// Header and query parameter names set by the signer.
const (
	AmzDateKey          = "X-Amz-Date"
	AmzContentSHAKey    = "X-Amz-Content-Sha256"
	AmzAlgorithmKey     = "X-Amz-Algorithm"
	AmzCredentialKey    = "X-Amz-Credential"
	AmzExpiresKey       = "X-Amz-Expires"
	AmzSignedHeadersKey = "X-Amz-SignedHeaders"
	AmzSignatureKey     = "X-Amz-Signature"

	authorizationHeader = "Authorization"
)

// Errors returned for malformed signer inputs. These are programmer
// errors; the signer never partially signs a request.
var (
	ErrNoCredentials = errors.New("sigv4: empty credentials")
	ErrNoRegion      = errors.New("sigv4: empty region")
	ErrMissingHost   = errors.New("sigv4: request has no host")
	ErrInvalidTTL    = errors.New("sigv4: presign ttl must be positive")
)

// Credentials holds the long-term access key pair used for signing.
// Immutable for the lifetime of a Signer.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Signer computes SigV4 signatures for outgoing requests. Safe for
// concurrent use.
type Signer struct {
	creds   Credentials
	region  string
	service string

	// signContentLength includes content-length in the signed header set
	// when the request carries a known body length. Off by default:
	// net/http emits Content-Length itself, and some transports rewrite
	// it, which would invalidate the signature.
	signContentLength bool

	keys *signingKeyCache
}

// Option configures a Signer.
type Option func(*Signer)

// WithCredentials sets the access key pair used for signing.
func WithCredentials(accessKeyID, secretAccessKey string) Option {
	return func(s *Signer) {
		s.creds = Credentials{AccessKeyID: accessKeyID, SecretAccessKey: secretAccessKey}
	}
}

// WithRegion sets the region component of the credential scope.
func WithRegion(region string) Option {
	return func(s *Signer) { s.region = region }
}

// WithService overrides the service component of the credential scope.
// Defaults to "s3".
func WithService(service string) Option {
	return func(s *Signer) { s.service = service }
}

// WithSignedContentLength includes the Content-Length header in the
// signed set for requests with a known body length.
func WithSignedContentLength() Option {
	return func(s *Signer) { s.signContentLength = true }
}

// New builds a Signer. Credentials and region are required.
func New(opts ...Option) (*Signer, error) {
	s := &Signer{
		service: ServiceS3,
		keys:    newSigningKeyCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.creds.AccessKeyID == "" || s.creds.SecretAccessKey == "" {
		return nil, ErrNoCredentials
	}
	if s.region == "" {
		return nil, ErrNoRegion
	}
	return s, nil
}

// Sign computes header-based authentication for req at signingTime. It
// sets X-Amz-Date, X-Amz-Content-Sha256 and Authorization on the request.
// payloadHash is the hex SHA-256 of the exact body bytes to be sent; pass
// an empty string for bodyless requests. The signature is a pure function
// of the request, the timestamp and the credentials: signing the same
// inputs twice yields an identical Authorization value.
func (s *Signer) Sign(req *http.Request, payloadHash string, signingTime time.Time) error {
	host := requestHost(req)
	if host == "" {
		return ErrMissingHost
	}
	if payloadHash == "" {
		payloadHash = EmptyStringSHA256
	}

	t := signingTime.UTC()
	amzDate := t.Format(TimeFormat)
	date := t.Format(DateFormat)

	req.Header.Set(AmzDateKey, amzDate)
	req.Header.Set(AmzContentSHAKey, payloadHash)

	if s.signContentLength && req.ContentLength > 0 {
		req.Header.Set("Content-Length", strconv.FormatInt(req.ContentLength, 10))
	}

	names := signedHeaderNames(req.Header)
	block, list := canonicalHeaders(req.Header, host, names)

	canonical := buildCanonicalRequest(
		req.Method,
		canonicalPath(req.URL),
		canonicalQueryString(req.URL.Query()),
		block,
		list,
		payloadHash,
	)

	scope := s.scope(date)
	signature := s.signature(date, amzDate, scope, canonical)

	req.Header.Set(authorizationHeader, fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm, s.creds.AccessKeyID, scope, list, signature,
	))
	return nil
}

// Presign computes query-string authentication for req and returns the
// signed URL. The only signed header is host and the payload hash is the
// UNSIGNED-PAYLOAD sentinel, so any client holding the URL can perform
// the request within the ttl. signingTime is the reference timestamp the
// ttl counts from (capture time, not request time). req is not modified.
func (s *Signer) Presign(req *http.Request, ttl time.Duration, signingTime time.Time) (*url.URL, error) {
	host := requestHost(req)
	if host == "" {
		return nil, ErrMissingHost
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	t := signingTime.UTC()
	amzDate := t.Format(TimeFormat)
	date := t.Format(DateFormat)
	scope := s.scope(date)

	q := req.URL.Query()
	q.Set(AmzAlgorithmKey, Algorithm)
	q.Set(AmzCredentialKey, s.creds.AccessKeyID+"/"+scope)
	q.Set(AmzDateKey, amzDate)
	q.Set(AmzExpiresKey, strconv.FormatInt(int64(ttl/time.Second), 10))
	q.Set(AmzSignedHeadersKey, "host")
	q.Del(AmzSignatureKey)

	block, list := canonicalHeaders(nil, host, []string{"host"})
	canonicalQuery := canonicalQueryString(q)

	canonical := buildCanonicalRequest(
		req.Method,
		canonicalPath(req.URL),
		canonicalQuery,
		block,
		list,
		UnsignedPayload,
	)

	signature := s.signature(date, amzDate, scope, canonical)

	// The signature covers the sorted query above and is appended last,
	// excluded from its own input.
	signed := *req.URL
	signed.RawQuery = canonicalQuery + "&" + AmzSignatureKey + "=" + signature
	return &signed, nil
}

// scope returns the credential scope string for the given calendar date.
func (s *Signer) scope(date string) string {
	return strings.Join([]string{date, s.region, s.service, terminator}, "/")
}

// signature derives the signing key for date and signs the string to sign
// built from the canonical request.
func (s *Signer) signature(date, amzDate, scope, canonicalRequest string) string {
	stringToSign := strings.Join([]string{
		Algorithm,
		amzDate,
		scope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	key := s.keys.Get(s.creds.SecretAccessKey, date, s.region, s.service)
	return fmt.Sprintf("%x", hmacSHA256(key, []byte(stringToSign)))
}

// requestHost returns the host the request will be sent to, preferring
// the explicit req.Host override.
func requestHost(req *http.Request) string {
	if req.Host != "" {
		return req.Host
	}
	if req.URL != nil {
		return req.URL.Host
	}
	return ""
}
