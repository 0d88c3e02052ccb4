package simples3

import (
	"encoding/xml"
	"io"
	"time"
)

// ListResult is a parsed bucket listing. Entries preserve document order.
type ListResult struct {
	Name        string
	Prefix      string
	Marker      string
	IsTruncated bool
	NextMarker  string
	Entries     []ListingEntry
}

// Wire shape of a ListBucketResult response.
type listBucketResult struct {
	XMLName     xml.Name       `xml:"ListBucketResult"`
	Name        string         `xml:"Name"`
	Prefix      string         `xml:"Prefix"`
	Marker      string         `xml:"Marker"`
	IsTruncated bool           `xml:"IsTruncated"`
	NextMarker  string         `xml:"NextMarker"`
	Contents    []listContents `xml:"Contents"`
}

type listContents struct {
	Key          string    `xml:"Key"`
	LastModified time.Time `xml:"LastModified"`
	ETag         string    `xml:"ETag"`
	Size         int64     `xml:"Size"`
	StorageClass string    `xml:"StorageClass"`
}

// parseListing decodes a bucket-listing XML body. Malformed XML fails the
// whole parse; there is no partial result.
func parseListing(r io.Reader) (*ListResult, error) {
	var doc listBucketResult
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Op: "list", Err: err}
	}

	result := &ListResult{
		Name:        doc.Name,
		Prefix:      doc.Prefix,
		Marker:      doc.Marker,
		IsTruncated: doc.IsTruncated,
		NextMarker:  doc.NextMarker,
		Entries:     make([]ListingEntry, 0, len(doc.Contents)),
	}
	for _, c := range doc.Contents {
		result.Entries = append(result.Entries, ListingEntry{
			Key:          c.Key,
			LastModified: c.LastModified,
			ETag:         c.ETag,
			Size:         c.Size,
			StorageClass: StorageClass(c.StorageClass),
		})
	}
	return result, nil
}
