// Package cursor implements the traversal cursor (§4.4): a path from a
// tree's root down to a current cell, supporting ordered forward/backward
// iteration and three flavors of seek. Next/Prev/seek behave asymmetrically
// between table and index trees because, unlike table-internal cells,
// index-internal cells are themselves legitimate stopping positions.
package cursor

import (
	"chidbgo/btree"
	"chidbgo/codec"

	"github.com/pkg/errors"
)

// Type mirrors the original's CURSOR_UNSPECIFIED/CURSOR_READ/CURSOR_WRITE
// tag. It is informational only here: both read and write cursors use the
// same traversal machinery, since the core has no in-place cell mutation
// via the cursor.
type Type int

const (
	Unspecified Type = iota
	Read
	Write
)

// defaultMaxDepth mirrors DEFAULT_CURSOR_MAX_DEPTH from the original; the
// path grows past it instead of failing (§9 "fixed-capacity cursor path").
const defaultMaxDepth = 5

var (
	// ErrNoNext is returned by Next when the tree has no further entries.
	ErrNoNext = errors.New("cursor: no next entry")
	// ErrNoPrev is returned by Prev when the tree has no earlier entries.
	ErrNoPrev = errors.New("cursor: no previous entry")
	// ErrKeyNotFound is returned by the seek family when the requested key (or
	// the nearest qualifying key) does not exist.
	ErrKeyNotFound = errors.New("cursor: key not found")

	errTableInternalStop = errors.New("cursor: invariant violated, stopped on a TABLE_INTERNAL cell")
)

// Cursor walks one B-tree, tracking a path of (node, cell index) pairs from
// the root down to the current position.
type Cursor struct {
	bt    *btree.BTree
	typ   Type
	root  uint32
	nodes []*btree.Node
	cells []uint16
	depth int
}

// Init opens a cursor of the given type over the tree rooted at root.
func Init(bt *btree.BTree, typ Type, root uint32) (*Cursor, error) {
	node, err := bt.GetNodeByPage(root)
	if err != nil {
		return nil, err
	}
	c := &Cursor{
		bt:    bt,
		typ:   typ,
		root:  root,
		nodes: make([]*btree.Node, 1, defaultMaxDepth),
		cells: make([]uint16, 1, defaultMaxDepth),
	}
	c.nodes[0] = node
	c.cells[0] = 0
	return c, nil
}

// Free releases every node handle held along the current path.
func (c *Cursor) Free() error {
	for _, n := range c.nodes[:c.depth+1] {
		if n != nil {
			if err := c.bt.FreeNode(n); err != nil {
				return err
			}
		}
	}
	c.nodes = nil
	c.cells = nil
	return nil
}

func (c *Cursor) currentNode() *btree.Node { return c.nodes[c.depth] }
func (c *Cursor) currentCell() uint16      { return c.cells[c.depth] }
func (c *Cursor) isLeaf() bool             { return c.currentNode().Type.IsLeaf() }

// IsEmpty reports whether the tree's root currently has zero cells — the
// case callers must special-case before Rewind, per §4.4.2.
func (c *Cursor) IsEmpty() bool {
	return c.depth == 0 && c.currentNode().NCells == 0
}

// descendCurrent pushes the child reached from the active position: the
// matching cell's child_page if cells[depth] < n_cells, else right_page.
func (c *Cursor) descendCurrent() error {
	n := c.currentNode()
	cellNo := c.currentCell()
	var nextPage uint32
	if cellNo == n.NCells {
		nextPage = n.RightPage
	} else {
		cell, err := n.GetCell(cellNo)
		if err != nil {
			return err
		}
		nextPage = cell.ChildPage
	}
	child, err := c.bt.GetNodeByPage(nextPage)
	if err != nil {
		return err
	}
	c.depth++
	if c.depth < len(c.nodes) {
		c.nodes[c.depth] = child
		c.cells[c.depth] = 0
	} else {
		c.nodes = append(c.nodes, child)
		c.cells = append(c.cells, 0)
	}
	return nil
}

// descendRightmost pushes the child reached from the active position, then
// repositions the new frame's cell index to one-past-its-last-cell (or, on
// a leaf, to its last valid cell) so repeated calls walk the rightmost path.
func (c *Cursor) descendRightmost() error {
	if err := c.descendCurrent(); err != nil {
		return err
	}
	child := c.currentNode()
	if child.Type.IsLeaf() {
		if child.NCells > 0 {
			c.cells[c.depth] = child.NCells - 1
		}
	} else {
		c.cells[c.depth] = child.NCells
	}
	return nil
}

func (c *Cursor) ascend() error {
	n := c.currentNode()
	if err := c.bt.FreeNode(n); err != nil {
		return err
	}
	c.nodes[c.depth] = nil
	c.depth--
	return nil
}

func (c *Cursor) ascendToRoot() error {
	for c.depth != 0 {
		if err := c.ascend(); err != nil {
			return err
		}
	}
	return nil
}

// Rewind repositions the cursor at the leftmost leaf entry of the tree.
// Callers must check IsEmpty first; rewinding an empty root leaves the
// cursor positioned on a leaf with no valid cell.
func (c *Cursor) Rewind() error {
	if err := c.ascendToRoot(); err != nil {
		return err
	}
	c.cells[0] = 0
	for !c.isLeaf() {
		if err := c.descendCurrent(); err != nil {
			return err
		}
	}
	return nil
}

// Next advances the cursor to the following entry in key order.
func (c *Cursor) Next() error {
	n := c.currentNode()
	if n.Type == btree.TableInternal {
		return errTableInternalStop
	}

	if c.currentCell()+1 < n.NCells {
		c.cells[c.depth]++
		if n.Type == btree.IndexInternal {
			for !c.isLeaf() {
				if err := c.descendCurrent(); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if c.isLeaf() {
		if c.depth == 0 {
			return ErrNoNext
		}
		exhausted := true
		for i := 0; i < c.depth; i++ {
			if c.cells[i] != c.nodes[i].NCells {
				exhausted = false
				break
			}
		}
		if exhausted {
			return ErrNoNext
		}
		for {
			if c.depth == 0 {
				return ErrNoNext
			}
			if err := c.ascend(); err != nil {
				return err
			}
			if c.currentCell() < c.currentNode().NCells {
				break
			}
		}
		if c.currentNode().Type == btree.IndexInternal {
			return nil
		}
		c.cells[c.depth]++
		for !c.isLeaf() {
			if err := c.descendCurrent(); err != nil {
				return err
			}
		}
		return nil
	}

	if n.Type == btree.IndexInternal {
		c.cells[c.depth] = n.NCells
		for !c.isLeaf() {
			if err := c.descendCurrent(); err != nil {
				return err
			}
		}
		return nil
	}

	return errTableInternalStop
}

// Prev moves the cursor to the preceding entry in key order.
//
// On an INDEX_INTERNAL cell, the predecessor is always the rightmost leaf
// entry of that cell's own child subtree — unlike Next's easy step, this
// does not depend on cells[depth], so it is handled unconditionally before
// the leaf/ascend logic below (see DESIGN.md: the original's cursor_prev
// never implements this case at all).
func (c *Cursor) Prev() error {
	n := c.currentNode()
	if n.Type == btree.TableInternal {
		return errTableInternalStop
	}

	if n.Type == btree.IndexInternal {
		for !c.isLeaf() {
			if err := c.descendRightmost(); err != nil {
				return err
			}
		}
		return nil
	}

	if c.currentCell() > 0 {
		c.cells[c.depth]--
		return nil
	}

	if c.depth == 0 || !c.hasPrevAncestor() {
		return ErrNoPrev
	}

	for {
		if err := c.ascend(); err != nil {
			return err
		}
		anc := c.currentNode()
		if c.currentCell() > 0 {
			c.cells[c.depth]--
			if anc.Type != btree.IndexInternal {
				for !c.isLeaf() {
					if err := c.descendRightmost(); err != nil {
						return err
					}
				}
			}
			return nil
		}
	}
}

// hasPrevAncestor reports whether ascending can ever land on a position
// with an earlier entry: an ancestor, of either internal type, whose cell
// index is greater than zero. This must match the stopping condition used
// by the ascend loop in Prev exactly, or that loop could walk past the
// root.
func (c *Cursor) hasPrevAncestor() bool {
	for i := c.depth - 1; i >= 0; i-- {
		if c.cells[i] > 0 {
			return true
		}
	}
	return false
}

// seekPartial implements the shared descent of the seek family: ascend to
// root, then at each internal node find the first cell with key >= target,
// stopping early on an exact INDEX_INTERNAL match. Returns the final
// landing index and cell (nil cell if the index equals n_cells).
func (c *Cursor) seekPartial(key uint32) (uint16, *btree.Cell, error) {
	if err := c.ascendToRoot(); err != nil {
		return 0, nil, err
	}
	for !c.isLeaf() {
		node := c.currentNode()
		i, cell, err := btree.FindCell(node, key)
		if err != nil {
			return 0, nil, err
		}
		c.cells[c.depth] = i
		if node.Type == btree.IndexInternal && cell != nil && cell.Key == key {
			return i, cell, nil
		}
		if err := c.descendCurrent(); err != nil {
			return 0, nil, err
		}
	}
	node := c.currentNode()
	i, cell, err := btree.FindCell(node, key)
	if err != nil {
		return 0, nil, err
	}
	c.cells[c.depth] = i
	return i, cell, nil
}

// Seek positions the cursor exactly on key, or reports ErrKeyNotFound.
func (c *Cursor) Seek(key uint32) error {
	i, cell, err := c.seekPartial(key)
	if err != nil {
		return err
	}
	if i == c.currentNode().NCells || cell.Key != key {
		return ErrKeyNotFound
	}
	return nil
}

// SeekGE positions the cursor on the smallest key >= key.
func (c *Cursor) SeekGE(key uint32) error {
	i, cell, err := c.seekPartial(key)
	if err != nil {
		return err
	}
	node := c.currentNode()

	if i == node.NCells {
		if node.Type == btree.TableLeaf {
			return ErrKeyNotFound
		}
		return c.nextOrKeyNotFound()
	}

	switch node.Type {
	case btree.TableLeaf:
		return nil
	case btree.IndexInternal:
		return nil
	case btree.IndexLeaf:
		if cell.Key >= key {
			return nil
		}
		return c.nextOrKeyNotFound()
	default:
		return errTableInternalStop
	}
}

// SeekGT positions the cursor on the smallest key > key.
func (c *Cursor) SeekGT(key uint32) error {
	i, cell, err := c.seekPartial(key)
	if err != nil {
		return err
	}
	node := c.currentNode()
	if i == node.NCells || cell.Key == key {
		return c.nextOrKeyNotFound()
	}
	return nil
}

func (c *Cursor) nextOrKeyNotFound() error {
	if err := c.Next(); err != nil {
		if errors.Is(err, ErrNoNext) {
			return ErrKeyNotFound
		}
		return err
	}
	return nil
}

// Key returns the active cell's key.
func (c *Cursor) Key() (uint32, error) {
	cell, err := c.currentNode().GetCell(c.currentCell())
	if err != nil {
		return 0, err
	}
	return cell.Key, nil
}

// Data returns the active cell's payload: table rows return their raw
// bytes, index entries return their keyPk packed as big-endian u32.
func (c *Cursor) Data() ([]byte, error) {
	node := c.currentNode()
	cell, err := node.GetCell(c.currentCell())
	if err != nil {
		return nil, err
	}
	switch node.Type {
	case btree.TableLeaf:
		out := make([]byte, len(cell.Data))
		copy(out, cell.Data)
		return out, nil
	case btree.IndexLeaf, btree.IndexInternal:
		out := make([]byte, 4)
		codec.WriteU32BE(out, cell.KeyPk)
		return out, nil
	default:
		return nil, errTableInternalStop
	}
}
