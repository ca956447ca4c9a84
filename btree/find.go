package btree

import (
	"chidbgo/codec"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when Find cannot locate key.
var ErrNotFound = errors.New("btree: key not found")

// Find walks from root looking for key, returning the table payload bytes
// (for a table tree) or the keyPk packed as big-endian u32 (for an index
// tree).
func (bt *BTree) Find(root uint32, key uint32) ([]byte, error) {
	npage := root
	var btn *Node

	for {
		if btn != nil {
			if err := bt.FreeNode(btn); err != nil {
				return nil, err
			}
		}
		node, err := bt.GetNodeByPage(npage)
		if err != nil {
			return nil, err
		}
		btn = node
		if btn.Type.IsLeaf() {
			break
		}

		i, cell, err := FindCell(btn, key)
		if err != nil {
			bt.FreeNode(btn)
			return nil, err
		}
		if i == btn.NCells {
			npage = btn.RightPage
			continue
		}
		if btn.Type == IndexInternal && cell.Key == key {
			data := make([]byte, 4)
			codec.WriteU32BE(data, cell.KeyPk)
			bt.FreeNode(btn)
			return data, nil
		}
		npage = cell.ChildPage
	}
	defer bt.FreeNode(btn)

	i, cell, err := FindCell(btn, key)
	if err != nil {
		return nil, err
	}
	if i == btn.NCells || cell.Key != key {
		return nil, ErrNotFound
	}

	switch btn.Type {
	case TableLeaf:
		out := make([]byte, len(cell.Data))
		copy(out, cell.Data)
		return out, nil
	case IndexLeaf:
		out := make([]byte, 4)
		codec.WriteU32BE(out, cell.KeyPk)
		return out, nil
	default:
		return nil, ErrInvalidNodeType
	}
}
