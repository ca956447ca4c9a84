package btree

import (
	"chidbgo/codec"
	"chidbgo/pager"

	"github.com/pkg/errors"
)

// DefaultPageSize is used whenever Open initializes a brand new file.
const DefaultPageSize = pager.DefaultPageSize

// RootPage is the page number of the very first tree Open creates.
const RootPage = 1

// BTree wraps a Pager with the node-level and algorithmic operations of
// spec §4.3. It holds no state of its own beyond the pager handle.
type BTree struct {
	Pager *pager.Pager
}

// Open acquires filename through the pager using DefaultPageSize for a
// brand new file. See OpenWithPageSize to override that.
func Open(filename string) (*BTree, error) {
	return OpenWithPageSize(filename, DefaultPageSize)
}

// OpenWithPageSize acquires filename through the pager. If the file is
// empty, it configures pageSize, allocates page 1 as an empty TABLE_LEAF,
// and writes the fixed database header. Otherwise pageSize is ignored and
// the existing header is read and validated instead.
func OpenWithPageSize(filename string, pageSize uint16) (*BTree, error) {
	pgr, err := pager.Open(filename)
	if err != nil {
		return nil, err
	}
	bt := &BTree{Pager: pgr}

	header, err := pgr.ReadHeader()
	if errors.Is(err, pager.ErrNoHeader) {
		if err := pgr.SetPageSize(pageSize); err != nil {
			return nil, err
		}
		root, err := NewNode(pgr, TableLeaf)
		if err != nil {
			return nil, err
		}
		if root.PageNo != RootPage {
			return nil, errors.Errorf("btree: expected root page %d, got %d", RootPage, root.PageNo)
		}
		if err := pgr.WriteHeader(buildDefaultHeader(pageSize)); err != nil {
			return nil, err
		}
		return bt, nil
	}
	if err != nil {
		return nil, err
	}

	pageSize = codec.ReadU16BE(header[16:])
	if err := pgr.SetPageSize(pageSize); err != nil {
		return nil, err
	}
	if err := validateHeader(header, pageSize); err != nil {
		return nil, err
	}
	return bt, nil
}

// GetNodeByPage loads the node stored at pageNo.
func (bt *BTree) GetNodeByPage(pageNo uint32) (*Node, error) {
	return LoadNode(bt.Pager, pageNo)
}

// NewNode allocates and initializes a fresh node of typ, returning its page number.
func (bt *BTree) NewNode(typ NodeType) (uint32, error) {
	n, err := NewNode(bt.Pager, typ)
	if err != nil {
		return 0, err
	}
	return n.PageNo, nil
}

// WriteNode persists n's header and page back through the pager.
func (bt *BTree) WriteNode(n *Node) error {
	return WriteNode(bt.Pager, n)
}

// FreeNode releases n's page handle.
func (bt *BTree) FreeNode(n *Node) error {
	return FreeNode(bt.Pager, n)
}

// Close closes the underlying file.
func (bt *BTree) Close() error {
	return bt.Pager.Close()
}
