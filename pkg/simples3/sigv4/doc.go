// Package sigv4 implements AWS Signature Version 4 request signing for
// S3-compatible object storage services.
//
// Signing proceeds in three steps. First the request is reduced to a
// canonical form: `<METHOD>\n<PATH>\n<QUERY>\n<HEADERS>\n<SIGNED_HEADERS>\n<PAYLOAD_HASH>`,
// where the query parameters are sorted by name, header names are
// lower-cased and sorted, and the payload hash is the hex SHA-256 of the
// body (or the UNSIGNED-PAYLOAD sentinel). Second, a string to sign is
// built from the algorithm name, the request timestamp, the credential
// scope (date/region/service/aws4_request) and the SHA-256 of the
// canonical request. Third, the string to sign is HMAC'd with a signing
// key derived from the secret key through a four-step HMAC-SHA256 chain
// keyed by date, region and service.
//
// The result is carried either in the Authorization header (Sign) or in
// the query string of a presigned URL (Presign).
//
// A Signer holds immutable credentials and may be used concurrently. The
// derived-key cache is the only shared state and is safe for parallel use.
package sigv4
