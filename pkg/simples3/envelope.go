package simples3

import (
	"net/http"
	"net/url"

	"github.com/aws/smithy-go/encoding/httpbinding"
)

// objectURL builds the request URL /{bucket}/{key} on the configured
// host. Keys are path-escaped with the same escaper the AWS SDK uses for
// S3 (RFC 3986, slash kept as separator); the signer takes the escaped
// path as-is.
func (c *Client) objectURL(key string) *url.URL {
	p := "/" + c.bucket
	if key != "" {
		p += "/" + key
	}

	u := &url.URL{Scheme: c.scheme, Host: c.host, Path: p}
	if escaped := httpbinding.EscapePath(p, false); escaped != p {
		u.RawPath = escaped
	}
	return u
}

// envelopeHeaders assembles the header set the signer will protect and
// the transport will send for an upload. Content-Length is deliberately
// absent: net/http emits it from Request.ContentLength, and carrying it
// in the header map as well would send it twice. Whether it joins the
// signed set is the signer's SignContentLength knob.
func envelopeHeaders(meta ObjectMetadata, extra http.Header) http.Header {
	h := http.Header{}
	if meta.ContentType != "" {
		h.Set("Content-Type", meta.ContentType)
	}
	if meta.ContentMD5 != "" {
		h.Set("Content-MD5", meta.ContentMD5)
	}
	if meta.CacheControl != "" {
		h.Set("Cache-Control", string(meta.CacheControl))
	}
	if meta.ACL != "" {
		h.Set("X-Amz-Acl", string(meta.ACL))
	}
	if meta.StorageClass != "" {
		h.Set("X-Amz-Storage-Class", string(meta.StorageClass))
	}
	for name, values := range extra {
		for _, v := range values {
			h.Add(name, v)
		}
	}
	return h
}
