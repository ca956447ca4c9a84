package btree

import "chidbgo/codec"

// Cell is a tagged view over one of the four cell layouts. Only the fields
// relevant to Type are meaningful; Go's zero-initialization means the rest
// are always a defined zero rather than undefined memory, so one flat
// struct stands in for the source's per-variant union cleanly.
type Cell struct {
	Type NodeType
	Key  uint32

	ChildPage uint32 // TableInternal, IndexInternal
	Data      []byte // TableLeaf payload
	KeyPk     uint32 // IndexInternal, IndexLeaf
}

// CellSize returns the serialized size in bytes of a cell of the given
// type. The TABLE_* "varint" size/key fields are fixed at 4 bytes each in
// this format (see DESIGN.md), so every variant has a size computable
// without decoding the cell itself except for TableLeaf's payload length.
func CellSize(typ NodeType, cell *Cell) uint16 {
	switch typ {
	case TableInternal:
		return 8
	case TableLeaf:
		return 8 + uint16(len(cell.Data))
	case IndexInternal:
		return 16
	case IndexLeaf:
		return 12
	default:
		return 0
	}
}

// GetCell decodes the i-th cell of n.
func (n *Node) GetCell(i uint16) (*Cell, error) {
	offset, err := n.cellOffset(i)
	if err != nil {
		return nil, err
	}
	data := n.Page.Data
	cell := &Cell{Type: n.Type}
	switch n.Type {
	case TableInternal:
		cell.ChildPage = codec.ReadU32BE(data[offset:])
		cell.Key = codec.ReadU32BE(data[offset+4:])
	case TableLeaf:
		size := codec.ReadU32BE(data[offset:])
		cell.Key = codec.ReadU32BE(data[offset+4:])
		cell.Data = append([]byte(nil), data[offset+8:offset+8+uint16(size)]...)
	case IndexInternal:
		cell.ChildPage = codec.ReadU32BE(data[offset:])
		cell.Key = codec.ReadU32BE(data[offset+8:])
		cell.KeyPk = codec.ReadU32BE(data[offset+12:])
	case IndexLeaf:
		cell.Key = codec.ReadU32BE(data[offset+4:])
		cell.KeyPk = codec.ReadU32BE(data[offset+8:])
	default:
		return nil, ErrInvalidNodeType
	}
	return cell, nil
}

func writeCellBytes(data []byte, offset uint16, cell *Cell) {
	switch cell.Type {
	case TableInternal:
		codec.WriteU32BE(data[offset:], cell.ChildPage)
		codec.WriteU32BE(data[offset+4:], cell.Key)
	case TableLeaf:
		codec.WriteU32BE(data[offset:], uint32(len(cell.Data)))
		codec.WriteU32BE(data[offset+4:], cell.Key)
		copy(data[offset+8:], cell.Data)
	case IndexInternal:
		codec.WriteU32BE(data[offset:], cell.ChildPage)
		codec.WriteU32BE(data[offset+4:], indexCellMagic)
		codec.WriteU32BE(data[offset+8:], cell.Key)
		codec.WriteU32BE(data[offset+12:], cell.KeyPk)
	case IndexLeaf:
		codec.WriteU32BE(data[offset:], indexCellMagic)
		codec.WriteU32BE(data[offset+4:], cell.Key)
		codec.WriteU32BE(data[offset+8:], cell.KeyPk)
	}
}

// InsertCell inserts cell at offset-array position i, shifting later
// entries up by one slot. Callers must have already checked n.Fits(cell).
func (n *Node) InsertCell(i uint16, cell *Cell) error {
	if i > n.NCells {
		return ErrCellNo
	}
	size := CellSize(n.Type, cell)
	newCellsOffset := n.CellsOffset - size
	writeCellBytes(n.Page.Data, newCellsOffset, cell)
	n.CellsOffset = newCellsOffset

	start := n.cellOffsetArrayStart()
	old := make([]byte, 2*int(n.NCells))
	copy(old, n.Page.Data[start:start+2*int(n.NCells)])

	shifted := make([]byte, 0, len(old)+2)
	shifted = append(shifted, old[:2*int(i)]...)
	newEntry := make([]byte, 2)
	codec.WriteU16BE(newEntry, newCellsOffset)
	shifted = append(shifted, newEntry...)
	shifted = append(shifted, old[2*int(i):]...)

	copy(n.Page.Data[start:start+len(shifted)], shifted)

	n.NCells++
	n.FreeOffset += 2
	return nil
}

// FindCell performs the linear scan shared by descent, insertion, and
// cursor seeking: the first cell index whose key is >= key. It returns
// n.NCells (with a nil cell) if every cell's key is smaller.
func FindCell(n *Node, key uint32) (uint16, *Cell, error) {
	var i uint16
	for i = 0; i < n.NCells; i++ {
		cell, err := n.GetCell(i)
		if err != nil {
			return 0, nil, err
		}
		if key <= cell.Key {
			return i, cell, nil
		}
	}
	return i, nil, nil
}
