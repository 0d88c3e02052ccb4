package simples3

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/simple-s3/pkg/simples3/sigv4"
)

// HTTPClient is the transport collaborator. The library never retries,
// pools or times out on its own; supply an *http.Client configured with
// whatever policy the application needs.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Observer receives one measurement per client operation. The metrics
// subpackage provides a Prometheus-backed implementation.
type Observer interface {
	Observe(op string, bytes int64, err error, dur time.Duration)
}

// Config options for the client
type Config struct {
	AccessKeyID     string // Access key identifier
	SecretAccessKey string // Secret access key
	Bucket          string // Bucket name
	Region          Region // Region identifier (default: us-east-1)
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UseSSL          bool   // Use SSL for connections (default: true)

	// SignContentLength includes Content-Length in the signed header set
	// for uploads. Leave off when the transport rewrites the header.
	SignContentLength bool
}

// Client is the object-store facade. Safe for concurrent use.
type Client struct {
	bucket string
	scheme string
	host   string

	signer *sigv4.Signer
	http   HTTPClient
	obs    Observer

	now func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.http = h }
}

// WithObserver installs an operation observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.obs = o }
}

// New creates a client for one bucket. Credentials, bucket and region are
// fixed for the client's lifetime.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, ErrEmptyCredentials
	}
	if cfg.Bucket == "" {
		return nil, ErrEmptyBucket
	}
	if cfg.Region == "" {
		cfg.Region = RegionUSEast1
	}

	scheme := "https"
	host := cfg.Region.Endpoint()
	if cfg.Endpoint != "" {
		s, h, err := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
		if err != nil {
			return nil, err
		}
		scheme, host = s, h
	} else if !cfg.UseSSL {
		scheme = "http"
	}

	signerOpts := []sigv4.Option{
		sigv4.WithCredentials(cfg.AccessKeyID, cfg.SecretAccessKey),
		sigv4.WithRegion(string(cfg.Region)),
	}
	if cfg.SignContentLength {
		signerOpts = append(signerOpts, sigv4.WithSignedContentLength())
	}
	signer, err := sigv4.New(signerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	c := &Client{
		bucket: cfg.Bucket,
		scheme: scheme,
		host:   host,
		signer: signer,
		http:   http.DefaultClient,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// splitEndpoint accepts "host:port" or a full URL and returns scheme and
// host. useSSL only applies when the endpoint carries no scheme.
func splitEndpoint(endpoint string, useSSL bool) (scheme, host string, err error) {
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil || u.Host == "" {
			return "", "", fmt.Errorf("invalid endpoint %q", endpoint)
		}
		return u.Scheme, u.Host, nil
	}
	if useSSL {
		return "https", endpoint, nil
	}
	return "http", endpoint, nil
}

// PutOption configures a single upload.
type PutOption func(*putOptions)

type putOptions struct {
	acl          ACL
	storageClass StorageClass
	cacheControl CacheControl
	contentType  string
	extraHeaders http.Header
}

// WithACL applies a canned ACL to the uploaded object.
func WithACL(acl ACL) PutOption {
	return func(o *putOptions) { o.acl = acl }
}

// WithStorageClass selects the redundancy class for the uploaded object.
func WithStorageClass(sc StorageClass) PutOption {
	return func(o *putOptions) { o.storageClass = sc }
}

// WithCacheControl sets the Cache-Control header stored with the object.
func WithCacheControl(cc CacheControl) PutOption {
	return func(o *putOptions) { o.cacheControl = cc }
}

// WithContentType overrides the payload's detected content type.
func WithContentType(ct string) PutOption {
	return func(o *putOptions) { o.contentType = ct }
}

// WithExtraHeader adds an arbitrary header to the upload. Extra headers
// join the signed set.
func WithExtraHeader(name, value string) PutOption {
	return func(o *putOptions) {
		if o.extraHeaders == nil {
			o.extraHeaders = http.Header{}
		}
		o.extraHeaders.Add(name, value)
	}
}

// Put uploads payload under key. The body is hashed before transmission
// and streamed from the payload's restartable source.
func (c *Client) Put(ctx context.Context, key string, payload Payload, opts ...PutOption) error {
	return c.observe("put", payload.Len(), func() error {
		if key == "" {
			return ErrEmptyKey
		}

		var po putOptions
		for _, opt := range opts {
			opt(&po)
		}

		meta, err := buildObjectMetadata(payload, po)
		if err != nil {
			return fmt.Errorf("failed to analyze payload: %w", err)
		}

		body, err := payload.Open()
		if err != nil {
			return fmt.Errorf("failed to open payload: %w", err)
		}

		u := c.objectURL(key)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), body)
		if err != nil {
			body.Close()
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header = envelopeHeaders(meta, po.extraHeaders)
		req.ContentLength = meta.ContentLength

		if err := c.signer.Sign(req, meta.ContentSHA256, c.now()); err != nil {
			body.Close()
			return fmt.Errorf("failed to sign request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("put %q: %w", key, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return protocolError("put", key, resp)
		}
		return nil
	})
}

// buildObjectMetadata runs the payload's content analysis once and fixes
// the result into an immutable record.
func buildObjectMetadata(payload Payload, po putOptions) (ObjectMetadata, error) {
	sha, err := payload.SHA256()
	if err != nil {
		return ObjectMetadata{}, err
	}
	md5sum, err := payload.MD5()
	if err != nil {
		return ObjectMetadata{}, err
	}

	contentType := payload.ContentType()
	if po.contentType != "" {
		contentType = po.contentType
	}

	return ObjectMetadata{
		ContentLength: payload.Len(),
		ContentSHA256: sha,
		ContentMD5:    md5sum,
		ContentType:   contentType,
		CacheControl:  po.cacheControl,
		ACL:           po.acl,
		StorageClass:  po.storageClass,
	}, nil
}

// Get fetches an object and returns its full body in memory. Use
// Download for large objects.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := c.observe("get", 0, func() error {
		resp, err := c.send(ctx, http.MethodGet, key, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return protocolError("get", key, resp)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("get %q: reading body: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Download streams an object into dst and returns the number of bytes
// written.
func (c *Client) Download(ctx context.Context, key string, dst io.Writer) (int64, error) {
	var n int64
	err := c.observe("download", 0, func() error {
		resp, err := c.send(ctx, http.MethodGet, key, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return protocolError("download", key, resp)
		}

		n, err = io.Copy(dst, resp.Body)
		if err != nil {
			return fmt.Errorf("download %q: %w", key, err)
		}
		return nil
	})
	return n, err
}

// Delete removes an object. Deleting a missing object is not an error at
// the protocol level.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.observe("delete", 0, func() error {
		resp, err := c.send(ctx, http.MethodDelete, key, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
			return protocolError("delete", key, resp)
		}
		return nil
	})
}

// Stat fetches object metadata without the body.
func (c *Client) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	var info *ObjectInfo
	err := c.observe("stat", 0, func() error {
		resp, err := c.send(ctx, http.MethodHead, key, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return protocolError("stat", key, resp)
		}

		info = &ObjectInfo{
			Key:         key,
			ContentType: resp.Header.Get("Content-Type"),
			ETag:        strings.Trim(resp.Header.Get("ETag"), "\""),
		}
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			info.Size, _ = strconv.ParseInt(cl, 10, 64)
		}
		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			info.LastModified, _ = time.Parse(http.TimeFormat, lm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ListParams narrows a bucket listing.
type ListParams struct {
	Prefix  string
	Marker  string
	MaxKeys int
}

// List fetches a bucket listing. Entries come back in document order; on
// a non-200 status the raw body is carried in the returned ProtocolError
// unparsed.
func (c *Client) List(ctx context.Context, params ListParams) (*ListResult, error) {
	var result *ListResult
	err := c.observe("list", 0, func() error {
		query := url.Values{}
		if params.Prefix != "" {
			query.Set("prefix", params.Prefix)
		}
		if params.Marker != "" {
			query.Set("marker", params.Marker)
		}
		if params.MaxKeys > 0 {
			query.Set("max-keys", strconv.Itoa(params.MaxKeys))
		}

		resp, err := c.send(ctx, http.MethodGet, "", query)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return protocolError("list", "", resp)
		}

		result, err = parseListing(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PresignURL generates a time-limited URL for one action on key,
// anchored at the current time. An empty method defaults to GET.
func (c *Client) PresignURL(method, key string, ttl time.Duration) (string, error) {
	return c.PresignURLAt(method, key, ttl, c.now())
}

// PresignURLAt generates a presigned URL whose ttl counts from the given
// reference timestamp (capture time, not request time).
func (c *Client) PresignURLAt(method, key string, ttl time.Duration, at time.Time) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	if method == "" {
		method = http.MethodGet
	}

	u := c.objectURL(key)
	req := &http.Request{Method: method, URL: u, Host: u.Host}

	signed, err := c.signer.Presign(req, ttl, at)
	if err != nil {
		return "", fmt.Errorf("failed to presign %q: %w", key, err)
	}
	return signed.String(), nil
}

// send builds, signs and performs a bodyless request for key.
func (c *Client) send(ctx context.Context, method, key string, query url.Values) (*http.Response, error) {
	if key == "" && method != http.MethodGet {
		return nil, ErrEmptyKey
	}

	u := c.objectURL(key)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if err := c.signer.Sign(req, "", c.now()); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", strings.ToLower(method), key, err)
	}
	return resp, nil
}

// observe wraps an operation with the installed Observer, if any.
func (c *Client) observe(op string, bytes int64, fn func() error) error {
	if c.obs == nil {
		return fn()
	}
	start := c.now()
	err := fn()
	c.obs.Observe(op, bytes, err, time.Since(start))
	return err
}

// Wire shape of a service error body.
type errorResponse struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

// protocolError captures a non-2xx response, keeping the raw body so
// callers can decide policy.
func protocolError(op, key string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	perr := &ProtocolError{
		Op:         op,
		Key:        key,
		StatusCode: resp.StatusCode,
		Body:       body,
	}
	var parsed errorResponse
	if err := xml.Unmarshal(body, &parsed); err == nil {
		perr.Code = parsed.Code
	}
	return perr
}
