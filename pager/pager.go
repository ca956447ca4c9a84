// Package pager implements the paged, file-backed block I/O layer the
// B-tree core is built on. It knows nothing about node layout; it only
// hands out and persists fixed-size byte slices by page number, and
// separately reads/writes the 100-byte database header embedded in the
// start of the file.
package pager

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
)

// HeaderSize is the width of the database header living at the start of the file.
const HeaderSize = 100

// DefaultPageSize is used when a file is created fresh.
const DefaultPageSize = 1024

// MinPageSize and MaxPageSize bound the page sizes a pager will accept.
const (
	MinPageSize = 512
	MaxPageSize = 65536
)

// ErrNoHeader is returned by ReadHeader when the underlying file is empty.
var ErrNoHeader = errors.New("pager: file has no header")

// ErrInvalidPageNo is returned by ReadPage/WritePage for an out-of-range page number.
var ErrInvalidPageNo = errors.New("pager: invalid page number")

// ErrPageSizeNotSet is returned by any page operation before SetPageSize has been called.
var ErrPageSizeNotSet = errors.New("pager: page size not configured")

// ErrInvalidPageSize is returned by SetPageSize for a size outside [MinPageSize, MaxPageSize].
var ErrInvalidPageSize = errors.New("pager: invalid page size")

// Page is an in-memory handle to one page's worth of bytes. The caller owns
// the handle until it releases it via Pager.ReleaseMemPage.
type Page struct {
	Number uint32
	Data   []byte
}

// Pager is a file-backed page store. It tracks only the page size and the
// number of pages currently allocated; it keeps no page cache of its own.
type Pager struct {
	file       *os.File
	pageSize   uint16
	totalPages uint32
	logger     *log.Logger
}

// Open opens filename for read/write, creating it if necessary.
func Open(filename string) (*Pager, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "pager: open %s", filename)
	}
	return &Pager{
		file:   f,
		logger: log.New(os.Stderr, "pager: ", log.LstdFlags),
	}, nil
}

// ReadHeader returns the file's first HeaderSize bytes, or ErrNoHeader if
// the file is empty.
func (p *Pager) ReadHeader() ([]byte, error) {
	info, err := p.file.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "pager: stat")
	}
	if info.Size() == 0 {
		return nil, ErrNoHeader
	}
	header := make([]byte, HeaderSize)
	if _, err := p.file.ReadAt(header, 0); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "pager: read header")
	}
	return header, nil
}

// WriteHeader persists header to the first HeaderSize bytes of the file.
func (p *Pager) WriteHeader(header []byte) error {
	if len(header) != HeaderSize {
		return errors.Errorf("pager: invalid header size %d", len(header))
	}
	if _, err := p.file.WriteAt(header, 0); err != nil {
		return errors.Wrap(err, "pager: write header")
	}
	p.logger.Printf("wrote header")
	return nil
}

// SetPageSize fixes the page size for all subsequent page I/O. It must be
// called before any ReadPage/WritePage/AllocatePage call. If the file
// already holds data, the current page count is derived from the file size.
func (p *Pager) SetPageSize(n uint16) error {
	if n < MinPageSize || uint32(n) > MaxPageSize {
		return ErrInvalidPageSize
	}
	p.pageSize = n
	info, err := p.file.Stat()
	if err != nil {
		return errors.Wrap(err, "pager: stat")
	}
	if info.Size() > 0 {
		p.totalPages = uint32(info.Size()) / uint32(n)
	}
	return nil
}

// PageSize returns the page size configured via SetPageSize, or 0 if unset.
func (p *Pager) PageSize() uint16 {
	return p.pageSize
}

// TotalPages returns the number of pages currently allocated in the file.
func (p *Pager) TotalPages() uint32 {
	return p.totalPages
}

func (p *Pager) pageOffset(n uint32) int64 {
	return int64(n-1) * int64(p.pageSize)
}

func (p *Pager) pageIsValid(n uint32) error {
	if n == 0 || n > p.totalPages {
		return ErrInvalidPageNo
	}
	return nil
}

// ReadPage loads page npage from the file into a freshly allocated buffer.
func (p *Pager) ReadPage(npage uint32) (*Page, error) {
	if p.pageSize == 0 {
		return nil, ErrPageSizeNotSet
	}
	if err := p.pageIsValid(npage); err != nil {
		return nil, err
	}
	data := make([]byte, p.pageSize)
	if _, err := p.file.ReadAt(data, p.pageOffset(npage)); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "pager: read page %d", npage)
	}
	p.logger.Printf("read page %d", npage)
	return &Page{Number: npage, Data: data}, nil
}

// WritePage persists page's bytes back to its slot in the file.
func (p *Pager) WritePage(page *Page) error {
	if p.pageSize == 0 {
		return ErrPageSizeNotSet
	}
	if err := p.pageIsValid(page.Number); err != nil {
		return err
	}
	if uint16(len(page.Data)) != p.pageSize {
		return errors.Errorf("pager: invalid page data size: expected %d got %d", p.pageSize, len(page.Data))
	}
	if _, err := p.file.WriteAt(page.Data, p.pageOffset(page.Number)); err != nil {
		return errors.Wrapf(err, "pager: write page %d", page.Number)
	}
	p.logger.Printf("wrote page %d", page.Number)
	return nil
}

// ReleaseMemPage relinquishes a page handle. The pager keeps no cache, so
// this is a no-op kept for symmetry with load/free pairing at the call site.
func (p *Pager) ReleaseMemPage(page *Page) error {
	return nil
}

// AllocatePage reserves the next page number and returns it. The file
// itself grows only when that page is first written with WritePage.
// Unlike the teacher's original AllocatePage, failure is reported rather
// than silently ignored (REDESIGN FLAG 3).
func (p *Pager) AllocatePage() (uint32, error) {
	if p.pageSize == 0 {
		return 0, ErrPageSizeNotSet
	}
	p.totalPages++
	return p.totalPages, nil
}

// IsEmpty reports whether the backing file currently has zero bytes.
func (p *Pager) IsEmpty() (bool, error) {
	info, err := p.file.Stat()
	if err != nil {
		return false, errors.Wrap(err, "pager: stat")
	}
	return info.Size() == 0, nil
}

// Close flushes and closes the backing file.
func (p *Pager) Close() error {
	return p.file.Close()
}
