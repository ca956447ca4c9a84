// Package btree implements the on-disk node layout and the B-tree
// algorithms (open, find, insert, split) that operate on it. It is the
// only package that knows how a page's bytes decode into cells; it talks
// to storage exclusively through the pager's interface.
package btree

import (
	"chidbgo/codec"
	"chidbgo/pager"

	"github.com/pkg/errors"
)

// NodeType identifies one of the four on-disk node layouts.
type NodeType byte

const (
	TableInternal NodeType = 0x05
	TableLeaf     NodeType = 0x0D
	IndexInternal NodeType = 0x02
	IndexLeaf     NodeType = 0x0A
)

func (t NodeType) String() string {
	switch t {
	case TableInternal:
		return "TableInternal"
	case TableLeaf:
		return "TableLeaf"
	case IndexInternal:
		return "IndexInternal"
	case IndexLeaf:
		return "IndexLeaf"
	default:
		return "Unknown"
	}
}

// IsInternal reports whether t is one of the two internal node types.
func (t NodeType) IsInternal() bool {
	return t == TableInternal || t == IndexInternal
}

// IsLeaf reports whether t is one of the two leaf node types.
func (t NodeType) IsLeaf() bool {
	return !t.IsInternal()
}

// IsIndex reports whether t belongs to an index tree.
func (t NodeType) IsIndex() bool {
	return t == IndexInternal || t == IndexLeaf
}

// IsTable reports whether t belongs to a table tree.
func (t NodeType) IsTable() bool {
	return t == TableInternal || t == TableLeaf
}

func headerSize(t NodeType) uint16 {
	if t.IsInternal() {
		return 12
	}
	return 8
}

const indexCellMagic = 0x0B030404

// ErrCellNo is returned for an out-of-range cell index.
var ErrCellNo = errors.New("btree: invalid cell number")

// ErrInvalidNodeType is returned when a node's type byte doesn't match any known layout.
var ErrInvalidNodeType = errors.New("btree: invalid node type")

// Node is the parsed view of one page: its header fields plus a reference
// to the page bytes it was parsed from. Mutating accessors write straight
// through to Page.Data; WriteNode still has to be called to persist them.
type Node struct {
	Page   *pager.Page
	PageNo uint32
	Type   NodeType
	Origin int

	FreeOffset  uint16
	NCells      uint16
	CellsOffset uint16
	RightPage   uint32 // internal nodes only
}

// LoadNode reads pageNo through pgr and parses its header.
func LoadNode(pgr *pager.Pager, pageNo uint32) (*Node, error) {
	page, err := pgr.ReadPage(pageNo)
	if err != nil {
		return nil, errors.Wrapf(err, "btree: load node %d", pageNo)
	}
	return nodeFromPage(page, pageNo), nil
}

func nodeFromPage(page *pager.Page, pageNo uint32) *Node {
	origin := codec.NodeOrigin(pageNo)
	data := page.Data
	typ := NodeType(data[origin])
	n := &Node{
		Page:        page,
		PageNo:      pageNo,
		Type:        typ,
		Origin:      origin,
		FreeOffset:  codec.ReadU16BE(data[origin+1:]),
		NCells:      codec.ReadU16BE(data[origin+3:]),
		CellsOffset: codec.ReadU16BE(data[origin+5:]),
	}
	if typ.IsInternal() {
		n.RightPage = codec.ReadU32BE(data[origin+8:])
	}
	return n
}

// FreeNode releases a node's page handle back to the pager.
func FreeNode(pgr *pager.Pager, n *Node) error {
	if n == nil {
		return nil
	}
	return pgr.ReleaseMemPage(n.Page)
}

func initEmptyNode(page *pager.Page, pageNo uint32, typ NodeType) *Node {
	origin := codec.NodeOrigin(pageNo)
	return &Node{
		Page:        page,
		PageNo:      pageNo,
		Type:        typ,
		Origin:      origin,
		FreeOffset:  uint16(origin) + headerSize(typ),
		NCells:      0,
		CellsOffset: uint16(len(page.Data)),
		RightPage:   0,
	}
}

// NewNode allocates a fresh page and initializes it as an empty node of typ.
func NewNode(pgr *pager.Pager, typ NodeType) (*Node, error) {
	pageNo, err := pgr.AllocatePage()
	if err != nil {
		return nil, errors.Wrap(err, "btree: allocate page")
	}
	page, err := pgr.ReadPage(pageNo)
	if err != nil {
		return nil, errors.Wrapf(err, "btree: read new page %d", pageNo)
	}
	n := initEmptyNode(page, pageNo, typ)
	if err := WriteNode(pgr, n); err != nil {
		return nil, err
	}
	return n, nil
}

// InitEmptyNode reinitializes an already-allocated page as an empty node,
// used when a split reuses the old child's page as one of the two halves
// or reuses the old root's page as the new internal root.
func InitEmptyNode(pgr *pager.Pager, pageNo uint32, typ NodeType) (*Node, error) {
	page, err := pgr.ReadPage(pageNo)
	if err != nil {
		return nil, errors.Wrapf(err, "btree: read page %d", pageNo)
	}
	n := initEmptyNode(page, pageNo, typ)
	if err := WriteNode(pgr, n); err != nil {
		return nil, err
	}
	return n, nil
}

// WriteNode re-serializes n's header into its page and submits the page to
// the pager for writeback.
func WriteNode(pgr *pager.Pager, n *Node) error {
	data := n.Page.Data
	origin := n.Origin
	data[origin] = byte(n.Type)
	codec.WriteU16BE(data[origin+1:], n.FreeOffset)
	codec.WriteU16BE(data[origin+3:], n.NCells)
	codec.WriteU16BE(data[origin+5:], n.CellsOffset)
	if n.Type.IsInternal() {
		codec.WriteU32BE(data[origin+8:], n.RightPage)
	}
	n.Page.Number = n.PageNo
	return pgr.WritePage(n.Page)
}

func (n *Node) cellOffsetArrayStart() int {
	return n.Origin + int(headerSize(n.Type))
}

func (n *Node) cellOffset(i uint16) (uint16, error) {
	if i >= n.NCells {
		return 0, ErrCellNo
	}
	pos := n.cellOffsetArrayStart() + 2*int(i)
	return codec.ReadU16BE(n.Page.Data[pos:]), nil
}

// Fits reports whether cell can be inserted without exceeding the node's
// free space.
func (n *Node) Fits(cell *Cell) bool {
	needed := 2 + CellSize(n.Type, cell)
	free := n.CellsOffset - n.FreeOffset
	return needed <= free
}
