package simples3_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-s3/pkg/simples3"
)

// fakeTransport records the outgoing request and replies with a canned
// response.
type fakeTransport struct {
	req     *http.Request
	reqBody []byte

	status int
	header http.Header
	body   string
	err    error
}

func (f *fakeTransport) Do(req *http.Request) (*http.Response, error) {
	f.req = req
	if req.Body != nil {
		f.reqBody, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	if f.err != nil {
		return nil, f.err
	}
	header := f.header
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: f.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func newTestClient(t *testing.T, ft *fakeTransport) *simples3.Client {
	t.Helper()
	client, err := simples3.New(simples3.Config{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		Bucket:          "bucket",
		Region:          simples3.RegionUSEast1,
	}, simples3.WithHTTPClient(ft))
	require.NoError(t, err)
	return client
}

func TestNew_Validation(t *testing.T) {
	_, err := simples3.New(simples3.Config{Bucket: "bucket"})
	assert.ErrorIs(t, err, simples3.ErrEmptyCredentials)

	_, err = simples3.New(simples3.Config{AccessKeyID: "AKID", SecretAccessKey: "SECRET"})
	assert.ErrorIs(t, err, simples3.ErrEmptyBucket)
}

func TestNew_CustomEndpoint(t *testing.T) {
	client, err := simples3.New(simples3.Config{
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Bucket:          "bucket",
		Endpoint:        "http://localhost:9000",
	})
	require.NoError(t, err)

	u, err := client.PresignURL(http.MethodGet, "key", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/bucket/key?"), u)
}

func TestNew_RegionEndpoint(t *testing.T) {
	client, err := simples3.New(simples3.Config{
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Bucket:          "bucket",
		Region:          simples3.RegionEUWest1,
	})
	require.NoError(t, err)

	u, err := client.PresignURL(http.MethodGet, "key", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://s3-eu-west-1.amazonaws.com/bucket/key?"), u)
}

func TestPut_SignsAndSends(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK}
	client := newTestClient(t, ft)

	payload := simples3.NewBytesPayload([]byte("hello world"), "text/plain")
	err := client.Put(context.Background(), "greeting.txt", payload,
		simples3.WithACL(simples3.ACLPublicRead),
		simples3.WithStorageClass(simples3.StorageClassReducedRedundancy),
		simples3.WithCacheControl(simples3.CacheControlPublic),
		simples3.WithExtraHeader("X-Amz-Meta-Origin", "unit-test"),
	)
	require.NoError(t, err)

	req := ft.req
	require.NotNil(t, req)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/bucket/greeting.txt", req.URL.Path)
	assert.Equal(t, "s3.amazonaws.com", req.Host)

	assert.Equal(t, helloSHA256, req.Header.Get("X-Amz-Content-Sha256"))
	assert.Equal(t, helloMD5, req.Header.Get("Content-MD5"))
	assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
	assert.Equal(t, "public-read", req.Header.Get("X-Amz-Acl"))
	assert.Equal(t, "REDUCED_REDUNDANCY", req.Header.Get("X-Amz-Storage-Class"))
	assert.Equal(t, "public", req.Header.Get("Cache-Control"))
	assert.Equal(t, "unit-test", req.Header.Get("X-Amz-Meta-Origin"))
	assert.Equal(t, int64(11), req.ContentLength)

	auth := req.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/"), auth)
	assert.Contains(t, auth, "/us-east-1/s3/aws4_request")
	assert.Contains(t, auth, "x-amz-acl")
	assert.Contains(t, auth, "x-amz-meta-origin")

	assert.Equal(t, "hello world", string(ft.reqBody))
}

func TestPut_EmptyKey(t *testing.T) {
	client := newTestClient(t, &fakeTransport{status: http.StatusOK})
	err := client.Put(context.Background(), "", simples3.NewBytesPayload([]byte("x"), ""))
	assert.ErrorIs(t, err, simples3.ErrEmptyKey)
}

func TestPut_ProtocolError(t *testing.T) {
	const errorBody = `<?xml version="1.0"?><Error><Code>SignatureDoesNotMatch</Code><Message>denied</Message></Error>`
	ft := &fakeTransport{status: http.StatusForbidden, body: errorBody}
	client := newTestClient(t, ft)

	err := client.Put(context.Background(), "key", simples3.NewBytesPayload([]byte("x"), ""))
	require.Error(t, err)

	var perr *simples3.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
	assert.Equal(t, "SignatureDoesNotMatch", perr.Code)
	assert.Equal(t, errorBody, string(perr.Body))
}

func TestGet_ReturnsBody(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: "hello world"}
	client := newTestClient(t, ft)

	data, err := client.Get(context.Background(), "greeting.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	req := ft.req
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/bucket/greeting.txt", req.URL.Path)
	// Bodyless requests sign the empty-body hash.
	assert.Equal(t, emptySHA256, req.Header.Get("X-Amz-Content-Sha256"))
	assert.NotEmpty(t, req.Header.Get("Authorization"))
}

func TestGet_NotFound(t *testing.T) {
	ft := &fakeTransport{status: http.StatusNotFound, body: `<Error><Code>NoSuchKey</Code></Error>`}
	client := newTestClient(t, ft)

	_, err := client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, simples3.ErrObjectNotFound)

	var perr *simples3.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "NoSuchKey", perr.Code)
}

func TestGet_TransportErrorPassthrough(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	client := newTestClient(t, &fakeTransport{err: cause})

	_, err := client.Get(context.Background(), "key")
	assert.ErrorIs(t, err, cause)
}

func TestDownload_Streams(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: "hello world"}
	client := newTestClient(t, ft)

	var buf bytes.Buffer
	n, err := client.Download(context.Background(), "greeting.txt", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "hello world", buf.String())
}

func TestDelete(t *testing.T) {
	ft := &fakeTransport{status: http.StatusNoContent}
	client := newTestClient(t, ft)

	require.NoError(t, client.Delete(context.Background(), "greeting.txt"))
	assert.Equal(t, http.MethodDelete, ft.req.Method)
	assert.Equal(t, "/bucket/greeting.txt", ft.req.URL.Path)
}

func TestStat_ParsesHeaders(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Length", "11")
	header.Set("Content-Type", "text/plain")
	header.Set("ETag", `"5eb63bbbe01eeed093cb22bb8f5acdc3"`)
	header.Set("Last-Modified", "Fri, 14 Mar 2025 09:26:53 GMT")

	ft := &fakeTransport{status: http.StatusOK, header: header}
	client := newTestClient(t, ft)

	info, err := client.Stat(context.Background(), "greeting.txt")
	require.NoError(t, err)

	assert.Equal(t, http.MethodHead, ft.req.Method)
	assert.Equal(t, "greeting.txt", info.Key)
	assert.Equal(t, int64(11), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", info.ETag)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC), info.LastModified)
}

func TestList_QueryAndParse(t *testing.T) {
	const body = `<ListBucketResult>
  <Contents><Key>a.txt</Key><LastModified>2025-03-14T09:26:53.000Z</LastModified><Size>1</Size></Contents>
  <Contents><Key>b.txt</Key><LastModified>2025-03-15T10:00:00.000Z</LastModified><Size>2</Size></Contents>
</ListBucketResult>`
	ft := &fakeTransport{status: http.StatusOK, body: body}
	client := newTestClient(t, ft)

	result, err := client.List(context.Background(), simples3.ListParams{
		Prefix:  "photos/",
		Marker:  "photos/0001",
		MaxKeys: 100,
	})
	require.NoError(t, err)

	req := ft.req
	assert.Equal(t, "/bucket", req.URL.Path)
	q := req.URL.Query()
	assert.Equal(t, "photos/", q.Get("prefix"))
	assert.Equal(t, "photos/0001", q.Get("marker"))
	assert.Equal(t, "100", q.Get("max-keys"))

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "a.txt", result.Entries[0].Key)
	assert.Equal(t, "b.txt", result.Entries[1].Key)
}

func TestList_NonOKReturnsRawBody(t *testing.T) {
	ft := &fakeTransport{status: http.StatusForbidden, body: "access denied, not xml"}
	client := newTestClient(t, ft)

	_, err := client.List(context.Background(), simples3.ListParams{})
	var perr *simples3.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "access denied, not xml", string(perr.Body))
	assert.Empty(t, perr.Code)
}

func TestList_MalformedXML(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: `<ListBucketResult><Contents>`}
	client := newTestClient(t, ft)

	_, err := client.List(context.Background(), simples3.ListParams{})
	var parseErr *simples3.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestPresignURL_Shape(t *testing.T) {
	client := newTestClient(t, &fakeTransport{})
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	u, err := client.PresignURLAt("", "file1.md", 3600*time.Second, at)
	require.NoError(t, err)

	assert.Contains(t, u, "https://s3.amazonaws.com/bucket/file1.md?")
	assert.Contains(t, u, "X-Amz-Algorithm=AWS4-HMAC-SHA256")
	assert.Contains(t, u, "X-Amz-Expires=3600")
	assert.Contains(t, u, "X-Amz-SignedHeaders=host")
	assert.Contains(t, u, "X-Amz-Date=20250314T092653Z")
	assert.Contains(t, u, "X-Amz-Signature=")

	// Same reference timestamp, same signature.
	again, err := client.PresignURLAt("", "file1.md", 3600*time.Second, at)
	require.NoError(t, err)
	assert.Equal(t, u, again)
}

func TestPresignURL_EscapedKey(t *testing.T) {
	client := newTestClient(t, &fakeTransport{})

	u, err := client.PresignURL(http.MethodPut, "summer 2025/report.txt", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, u, "/bucket/summer%202025/report.txt?")
}

func TestPresignURL_InvalidInputs(t *testing.T) {
	client := newTestClient(t, &fakeTransport{})

	_, err := client.PresignURL(http.MethodGet, "", time.Hour)
	assert.ErrorIs(t, err, simples3.ErrEmptyKey)

	_, err = client.PresignURL(http.MethodGet, "key", 0)
	assert.Error(t, err)
}

// observerFunc adapts a func to the Observer interface.
type observerFunc func(op string, bytes int64, err error, dur time.Duration)

func (f observerFunc) Observe(op string, bytes int64, err error, dur time.Duration) {
	f(op, bytes, err, dur)
}

func TestObserver_SeesOperations(t *testing.T) {
	var ops []string
	var bytesSeen int64

	ft := &fakeTransport{status: http.StatusOK}
	client, err := simples3.New(simples3.Config{
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Bucket:          "bucket",
	},
		simples3.WithHTTPClient(ft),
		simples3.WithObserver(observerFunc(func(op string, n int64, err error, dur time.Duration) {
			ops = append(ops, op)
			bytesSeen += n
		})),
	)
	require.NoError(t, err)

	require.NoError(t, client.Put(context.Background(), "k", simples3.NewBytesPayload([]byte("hello world"), "")))
	_, _ = client.Get(context.Background(), "k")

	assert.Equal(t, []string{"put", "get"}, ops)
	assert.Equal(t, int64(11), bytesSeen)
}
