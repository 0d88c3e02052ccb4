// Package simples3 provides a minimal client for S3-compatible object
// storage services with request signing implemented in-process (AWS
// Signature Version 4), so it works against any S3-compatible endpoint
// without pulling in a full SDK.
//
// It exposes a single Client facade for object operations (Put, Get,
// Download, Delete, List, Stat) and presigned URL generation. The HTTP
// transport is a collaborator supplied through the HTTPClient interface;
// the client itself performs no retries, pooling or timeout handling.
//
// Payload Handling
//
// Upload sources are modeled by the Payload interface: a byte length, a
// content hash, a content type and a restartable stream. Use
// NewBytesPayload, NewFilePayload or NewReaderPayload depending on
// whether the data lives in memory, on disk or behind an open seekable
// stream. Hashing happens once and is memoized; the body is re-opened
// (or rewound) for transmission.
package simples3
