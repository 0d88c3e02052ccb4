package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// hmacSHA256 computes HMAC-SHA256 of data with the given key.
func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// sha256Hex returns the lower-case hex SHA-256 digest of data.
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// deriveSigningKey performs the SigV4 key derivation chain:
//
//	kDate    = HMAC-SHA256("AWS4"+secret, date)
//	kRegion  = HMAC-SHA256(kDate, region)
//	kService = HMAC-SHA256(kRegion, service)
//	kSigning = HMAC-SHA256(kService, "aws4_request")
//
// date must be the UTC calendar date (YYYYMMDD) of the request timestamp;
// a mismatched date produces a signature the server cannot verify.
func deriveSigningKey(secret, date, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(date))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte(terminator))
}

// signingKeyCache memoizes derived signing keys per date/region/service.
// Entries are immutable after insert. The cache key embeds the calendar
// date, so a key derived yesterday can never be served for today's
// requests. Credentials are fixed for the owning Signer's lifetime, which
// is why the secret is not part of the key.
type signingKeyCache struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

func newSigningKeyCache() *signingKeyCache {
	return &signingKeyCache{keys: make(map[string][]byte)}
}

// Get returns the signing key for the given scope components, deriving
// and caching it on first use.
func (c *signingKeyCache) Get(secret, date, region, service string) []byte {
	id := date + "/" + region + "/" + service

	c.mu.RLock()
	key, ok := c.keys[id]
	c.mu.RUnlock()
	if ok {
		return key
	}

	key = deriveSigningKey(secret, date, region, service)

	c.mu.Lock()
	c.keys[id] = key
	c.mu.Unlock()
	return key
}
