package simples3

import "time"

// ACL is a canned access-control preset applied to an uploaded object.
type ACL string

// Canned ACL constants (typed).
const (
	ACLPrivate                ACL = "private"
	ACLPublicRead             ACL = "public-read"
	ACLPublicReadWrite        ACL = "public-read-write"
	ACLAuthenticatedRead      ACL = "authenticated-read"
	ACLBucketOwnerRead        ACL = "bucket-owner-read"
	ACLBucketOwnerFullControl ACL = "bucket-owner-full-control"
)

// StorageClass selects the redundancy class an object is stored with.
type StorageClass string

// Storage class constants (typed).
const (
	StorageClassStandard          StorageClass = "STANDARD"
	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"
	StorageClassStandardIA        StorageClass = "STANDARD_IA"
	StorageClassOnezoneIA         StorageClass = "ONEZONE_IA"
	StorageClassGlacier           StorageClass = "GLACIER"
)

// CacheControl is a response caching preset sent with uploads.
type CacheControl string

// Cache control constants (typed).
const (
	CacheControlNoCache CacheControl = "no-cache"
	CacheControlNoStore CacheControl = "no-store"
	CacheControlPublic  CacheControl = "public"
	CacheControlPrivate CacheControl = "private"
)

// Region is a well-known region identifier for the hosted service.
// S3-compatible services with their own hostnames use Config.Endpoint
// instead of the region table.
type Region string

// Well-known region constants (typed).
const (
	RegionUSEast1      Region = "us-east-1"
	RegionUSWest1      Region = "us-west-1"
	RegionUSWest2      Region = "us-west-2"
	RegionEUWest1      Region = "eu-west-1"
	RegionEUCentral1   Region = "eu-central-1"
	RegionAPSoutheast1 Region = "ap-southeast-1"
	RegionAPSoutheast2 Region = "ap-southeast-2"
	RegionAPNortheast1 Region = "ap-northeast-1"
	RegionSAEast1      Region = "sa-east-1"
)

// regionEndpoints is the static region-to-host table. The default region
// maps to the bare service host; every other region is addressed as
// s3-{region}.
var regionEndpoints = map[Region]string{
	RegionUSEast1:      "s3.amazonaws.com",
	RegionUSWest1:      "s3-us-west-1.amazonaws.com",
	RegionUSWest2:      "s3-us-west-2.amazonaws.com",
	RegionEUWest1:      "s3-eu-west-1.amazonaws.com",
	RegionEUCentral1:   "s3-eu-central-1.amazonaws.com",
	RegionAPSoutheast1: "s3-ap-southeast-1.amazonaws.com",
	RegionAPSoutheast2: "s3-ap-southeast-2.amazonaws.com",
	RegionAPNortheast1: "s3-ap-northeast-1.amazonaws.com",
	RegionSAEast1:      "s3-sa-east-1.amazonaws.com",
}

// Endpoint returns the service host for the region.
func (r Region) Endpoint() string {
	if host, ok := regionEndpoints[r]; ok {
		return host
	}
	return "s3-" + string(r) + ".amazonaws.com"
}

// Valid reports whether the region is in the well-known table.
func (r Region) Valid() bool {
	_, ok := regionEndpoints[r]
	return ok
}

// ObjectMetadata is the immutable record describing an upload payload,
// produced once per Put and passed by value to the request envelope.
type ObjectMetadata struct {
	ContentLength int64
	ContentSHA256 string // hex
	ContentMD5    string // base64
	ContentType   string
	CacheControl  CacheControl
	ACL           ACL
	StorageClass  StorageClass
}

// ListingEntry is one object returned by a bucket listing, in document
// order.
type ListingEntry struct {
	Key          string
	LastModified time.Time
	ETag         string
	Size         int64
	StorageClass StorageClass
}

// ObjectInfo is the metadata returned by Stat.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}
