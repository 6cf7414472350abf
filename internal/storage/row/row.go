// Package row implements the positional Row tuple and its binary codec
// for non-catalog pages. The tag-byte-per-value scheme (so a page's
// payload is self-describing without consulting the table schema) is
// grounded on tinySQL's internal/storage/pager/row_codec.go
// MarshalRow/UnmarshalRow.
package row

import (
	"encoding/binary"
	"time"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
)

// Row is a fixed-arity, positional tuple of values. A nil element is SQL
// NULL. Non-null elements are one of int64, string, or time.Time.
type Row []any

// Clone returns a shallow copy (values are themselves immutable).
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

const (
	tagNull     byte = 0x00
	tagInt      byte = 0x01
	tagText     byte = 0x02
	tagDate     byte = 0x03
	tagDateTime byte = 0x04
)

const dateLayout = "2006-01-02"
const dateTimeLayout = "2006-01-02 15:04:05"

func appendValue(buf []byte, v any, isDateTime bool) []byte {
	switch val := v.(type) {
	case nil:
		return append(buf, tagNull)
	case int64:
		buf = append(buf, tagInt)
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(val))
		return append(buf, tmp[:]...)
	case string:
		tag := tagText
		return appendString(append(buf, tag), val)
	case time.Time:
		tag := tagDate
		layout := dateLayout
		if isDateTime {
			tag = tagDateTime
			layout = dateTimeLayout
		}
		return appendString(append(buf, tag), val.Format(layout))
	default:
		panic("row: unsupported value type")
	}
}

func appendString(buf []byte, s string) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(s)))
	buf = append(buf, tmp[:]...)
	return append(buf, s...)
}

// EncodeRows serializes an ordered sequence of rows into a page payload.
// isDateTimeCol(i) tells the codec whether column i should be re-read as
// a DATETIME (vs DATE) time.Time; callers pass the owning table's
// ColumnTypes so Decode can reconstruct the right Go representation.
func EncodeRows(rows []Row, isDateTimeCol func(col int) bool) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(rows)))
	for _, r := range rows {
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(len(r)))
		buf = append(buf, tmp[:]...)
		for i, v := range r {
			buf = appendValue(buf, v, isDateTimeCol(i))
		}
	}
	return buf
}

// DecodeRows parses a page payload encoded by EncodeRows.
func DecodeRows(buf []byte) ([]Row, error) {
	if len(buf) < 4 {
		if len(buf) == 0 {
			return nil, nil
		}
		return nil, dberrors.New(dberrors.StorageCorrupt, "row payload too short")
	}
	pos := 0
	count := int(binary.BigEndian.Uint32(buf[pos : pos+4]))
	pos += 4
	rows := make([]Row, 0, count)
	for i := 0; i < count; i++ {
		if pos+2 > len(buf) {
			return nil, dberrors.New(dberrors.StorageCorrupt, "truncated row header")
		}
		arity := int(binary.BigEndian.Uint16(buf[pos : pos+2]))
		pos += 2
		r := make(Row, arity)
		for c := 0; c < arity; c++ {
			if pos >= len(buf) {
				return nil, dberrors.New(dberrors.StorageCorrupt, "truncated row values")
			}
			tag := buf[pos]
			pos++
			switch tag {
			case tagNull:
				r[c] = nil
			case tagInt:
				if pos+8 > len(buf) {
					return nil, dberrors.New(dberrors.StorageCorrupt, "truncated int value")
				}
				r[c] = int64(binary.BigEndian.Uint64(buf[pos : pos+8]))
				pos += 8
			case tagText, tagDate, tagDateTime:
				if pos+4 > len(buf) {
					return nil, dberrors.New(dberrors.StorageCorrupt, "truncated string length")
				}
				slen := int(binary.BigEndian.Uint32(buf[pos : pos+4]))
				pos += 4
				if pos+slen > len(buf) {
					return nil, dberrors.New(dberrors.StorageCorrupt, "truncated string value")
				}
				s := string(buf[pos : pos+slen])
				pos += slen
				switch tag {
				case tagText:
					r[c] = s
				case tagDate:
					t, err := time.Parse(dateLayout, s)
					if err != nil {
						return nil, dberrors.Wrap(dberrors.StorageCorrupt, err, "parse date")
					}
					r[c] = t
				case tagDateTime:
					t, err := time.Parse(dateTimeLayout, s)
					if err != nil {
						return nil, dberrors.Wrap(dberrors.StorageCorrupt, err, "parse datetime")
					}
					r[c] = t
				}
			default:
				return nil, dberrors.New(dberrors.StorageCorrupt, "unknown value tag 0x%02x", tag)
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}
