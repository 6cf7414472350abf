// Package disk implements page-granular file I/O against a single flat
// file, grounded on tinySQL's internal/storage/pager readPageRaw/
// writePageRaw seek-and-read-exactly-PageSize idiom, stripped of WAL and
// CRC framing — shadow paging is this engine's sole atomicity mechanism
// (spec §4.1, §4.4), so the disk layer stays a dumb page blitter.
package disk

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
)

// Manager performs unlocked, uncached page I/O against one file. The
// BufferPool is the only caller expected to hold it; no caching or
// locking happens here (spec §4.1).
type Manager struct {
	file     *os.File
	pageSize int
	log      *logrus.Entry
}

// Open opens (creating if absent) the database file at path. If the file
// is freshly created, page 0 is seeded with an empty catalog payload.
func Open(path string, pageSize int, seedCatalog func() []byte) (*Manager, error) {
	log := logrus.WithField("component", "disk")
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, dberrors.Wrap(dberrors.StorageCorrupt, err, "open %s", path)
	}
	m := &Manager{file: f, pageSize: pageSize, log: log}

	if fresh {
		log.WithField("path", path).Info("bootstrapping new database file")
		p := page.New(page.CatalogPageID, seedCatalog())
		if err := m.WritePage(p); err != nil {
			f.Close()
			return nil, err
		}
	}
	return m, nil
}

// PageSize reports the configured page size.
func (m *Manager) PageSize() int { return m.pageSize }

// ReadPage reads and decodes the page at the given id.
func (m *Manager) ReadPage(id page.ID) (*page.Page, error) {
	buf := make([]byte, m.pageSize)
	off := int64(id) * int64(m.pageSize)
	n, err := m.file.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, dberrors.Wrap(dberrors.StorageCorrupt, err, "read page %d", id)
	}
	if n != m.pageSize {
		return nil, dberrors.New(dberrors.StorageCorrupt, "short read on page %d: got %d bytes", id, n)
	}
	p, err := page.Decode(buf, m.pageSize)
	if err != nil {
		return nil, err
	}
	if p.ID != id {
		m.log.WithFields(logrus.Fields{"want": id, "got": p.ID}).Warn("page id mismatch on read")
	}
	return p, nil
}

// WritePage encodes and writes p at its own id's slot.
func (m *Manager) WritePage(p *page.Page) error {
	buf, err := page.Encode(p, m.pageSize)
	if err != nil {
		return err
	}
	off := int64(p.ID) * int64(m.pageSize)
	if _, err := m.file.WriteAt(buf, off); err != nil {
		return dberrors.Wrap(dberrors.StorageCorrupt, err, "write page %d", p.ID)
	}
	return nil
}

// Sync flushes OS buffers for the underlying file.
func (m *Manager) Sync() error {
	if err := m.file.Sync(); err != nil {
		return dberrors.Wrap(dberrors.StorageCorrupt, err, "fsync")
	}
	return nil
}

// Close releases the underlying file handle.
func (m *Manager) Close() error { return m.file.Close() }
