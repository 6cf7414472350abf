// Package page implements the fixed-size page codec: a big-endian header
// of {page_id, data_length} followed by an opaque payload, zero-padded to
// PageSize. The header layout and zero-pad-to-size discipline follow
// Felmond13-novusdb's storage/page.go; this codec is deliberately thinner
// than that one (no slot directory, no CRC, no page-type tag) because the
// catalog-as-page-0 design here needs only "page id + payload bytes".
package page

import (
	"encoding/binary"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
)

// HeaderSize is the encoded size of {page_id: i32, data_length: i32}.
const HeaderSize = 8

// DefaultPageSize is the spec's target page size.
const DefaultPageSize = 4096

// ID identifies a page's slot index on disk. Page 0 is always the catalog.
type ID int32

const CatalogPageID ID = 0

// Page is the in-memory decoded form of one on-disk page: an id and an
// opaque payload of at most PageSize-HeaderSize bytes.
type Page struct {
	ID      ID
	Payload []byte
}

// Encode serializes p into exactly pageSize bytes. Returns PageOverflow if
// the payload does not fit.
func Encode(p *Page, pageSize int) ([]byte, error) {
	if len(p.Payload) > pageSize-HeaderSize {
		return nil, dberrors.New(dberrors.PageOverflow,
			"page %d payload %d bytes exceeds capacity %d", p.ID, len(p.Payload), pageSize-HeaderSize)
	}
	buf := make([]byte, pageSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.ID))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(p.Payload)))
	copy(buf[HeaderSize:], p.Payload)
	return buf, nil
}

// Decode parses a full pageSize-byte buffer into a Page. Returns
// StorageCorrupt if the buffer is short or the header is inconsistent.
func Decode(buf []byte, pageSize int) (*Page, error) {
	if len(buf) != pageSize {
		return nil, dberrors.New(dberrors.StorageCorrupt,
			"expected %d bytes, got %d", pageSize, len(buf))
	}
	id := ID(binary.BigEndian.Uint32(buf[0:4]))
	dataLen := int(binary.BigEndian.Uint32(buf[4:8]))
	if dataLen < 0 || dataLen > pageSize-HeaderSize {
		return nil, dberrors.New(dberrors.StorageCorrupt,
			"page %d declares invalid data_length %d", id, dataLen)
	}
	payload := make([]byte, dataLen)
	copy(payload, buf[HeaderSize:HeaderSize+dataLen])
	return &Page{ID: id, Payload: payload}, nil
}

// New builds a Page with the given id and payload, for callers that
// construct pages before they've been assigned a final disk slot.
func New(id ID, payload []byte) *Page {
	return &Page{ID: id, Payload: payload}
}
