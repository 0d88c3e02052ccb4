package simples3

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

const defaultContentType = "application/octet-stream"

// Payload is an upload source: a byte length, content hashes, a content
// type and a restartable stream. Hashing reads the source once; Open
// must return a fresh stream positioned at the start so the body can be
// transmitted after hashing.
type Payload interface {
	// Len returns the exact byte length of the body.
	Len() int64

	// SHA256 returns the hex-encoded SHA-256 of the body.
	SHA256() (string, error)

	// MD5 returns the base64-encoded MD5 of the body.
	MD5() (string, error)

	// ContentType returns the MIME type of the body.
	ContentType() string

	// Open returns a stream positioned at the start of the body.
	Open() (io.ReadCloser, error)
}

// digests computes both content hashes in a single pass.
func digests(r io.Reader) (sha256Hex, md5Base64 string, err error) {
	sh := sha256.New()
	mh := md5.New()
	if _, err := io.Copy(io.MultiWriter(sh, mh), r); err != nil {
		return "", "", err
	}
	return hex.EncodeToString(sh.Sum(nil)), base64.StdEncoding.EncodeToString(mh.Sum(nil)), nil
}

// bytesPayload serves an in-memory body.
type bytesPayload struct {
	data        []byte
	contentType string

	once      sync.Once
	sha256Hex string
	md5B64    string
}

// NewBytesPayload wraps an in-memory byte slice. An empty contentType is
// sniffed from the data.
func NewBytesPayload(data []byte, contentType string) Payload {
	if contentType == "" {
		if len(data) > 0 {
			contentType = http.DetectContentType(data)
		} else {
			contentType = defaultContentType
		}
	}
	return &bytesPayload{data: data, contentType: contentType}
}

func (p *bytesPayload) Len() int64          { return int64(len(p.data)) }
func (p *bytesPayload) ContentType() string { return p.contentType }

func (p *bytesPayload) SHA256() (string, error) {
	p.hash()
	return p.sha256Hex, nil
}

func (p *bytesPayload) MD5() (string, error) {
	p.hash()
	return p.md5B64, nil
}

func (p *bytesPayload) hash() {
	p.once.Do(func() {
		p.sha256Hex, p.md5B64, _ = digests(bytes.NewReader(p.data))
	})
}

func (p *bytesPayload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(p.data)), nil
}

// filePayload serves a body from disk. Every Open returns a fresh file
// handle, so hashing and transmission each get their own stream.
type filePayload struct {
	path        string
	size        int64
	contentType string

	once      sync.Once
	sha256Hex string
	md5B64    string
	hashErr   error
}

// NewFilePayload wraps a file on disk. The content type is resolved from
// the file extension, falling back to sniffing the leading bytes.
func NewFilePayload(path string) (Payload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat payload file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = sniffFile(path)
	}

	return &filePayload{path: path, size: info.Size(), contentType: contentType}, nil
}

func sniffFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return defaultContentType
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && n == 0 {
		return defaultContentType
	}
	return http.DetectContentType(buf[:n])
}

func (p *filePayload) Len() int64          { return p.size }
func (p *filePayload) ContentType() string { return p.contentType }

func (p *filePayload) SHA256() (string, error) {
	p.hash()
	return p.sha256Hex, p.hashErr
}

func (p *filePayload) MD5() (string, error) {
	p.hash()
	return p.md5B64, p.hashErr
}

func (p *filePayload) hash() {
	p.once.Do(func() {
		f, err := os.Open(p.path)
		if err != nil {
			p.hashErr = fmt.Errorf("open payload file: %w", err)
			return
		}
		defer f.Close()
		p.sha256Hex, p.md5B64, p.hashErr = digests(f)
	})
}

func (p *filePayload) Open() (io.ReadCloser, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open payload file: %w", err)
	}
	return f, nil
}

// readerPayload serves a body from a pre-opened stream. The reader must
// seek back to the start between hashing and transmission, so only one
// stream can be active at a time.
type readerPayload struct {
	r           io.ReadSeeker
	size        int64
	contentType string

	once      sync.Once
	sha256Hex string
	md5B64    string
	hashErr   error
}

// NewReaderPayload wraps an open seekable stream of a known size. An
// empty contentType defaults to application/octet-stream.
func NewReaderPayload(r io.ReadSeeker, size int64, contentType string) Payload {
	if contentType == "" {
		contentType = defaultContentType
	}
	return &readerPayload{r: r, size: size, contentType: contentType}
}

func (p *readerPayload) Len() int64          { return p.size }
func (p *readerPayload) ContentType() string { return p.contentType }

func (p *readerPayload) SHA256() (string, error) {
	p.hash()
	return p.sha256Hex, p.hashErr
}

func (p *readerPayload) MD5() (string, error) {
	p.hash()
	return p.md5B64, p.hashErr
}

func (p *readerPayload) hash() {
	p.once.Do(func() {
		if _, err := p.r.Seek(0, io.SeekStart); err != nil {
			p.hashErr = fmt.Errorf("%w: %v", ErrNotSeekable, err)
			return
		}
		p.sha256Hex, p.md5B64, p.hashErr = digests(p.r)
	})
}

func (p *readerPayload) Open() (io.ReadCloser, error) {
	if _, err := p.r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSeekable, err)
	}
	return io.NopCloser(p.r), nil
}
