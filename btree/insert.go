package btree

import "github.com/pkg/errors"

// ErrDuplicate is returned when inserting a key already present at a leaf.
var ErrDuplicate = errors.New("btree: duplicate key")

// Insert adds cell to the tree rooted at root, preemptively splitting the
// root if it is already full before descending.
func (bt *BTree) Insert(root uint32, cell *Cell) error {
	rootNode, err := bt.GetNodeByPage(root)
	if err != nil {
		return err
	}
	full := !rootNode.Fits(cell)
	if err := bt.FreeNode(rootNode); err != nil {
		return err
	}
	if full {
		if _, err := bt.split(0, root, 0); err != nil {
			return err
		}
	}
	return bt.insertNonFull(root, cell)
}

// insertNonFull descends from npage to a leaf, splitting any full child it
// must pass through along the way (REDESIGN FLAG 4: the capacity check is
// re-verified at each descent step, not only once before the first call).
func (bt *BTree) insertNonFull(npage uint32, cell *Cell) error {
	node, err := bt.GetNodeByPage(npage)
	if err != nil {
		return err
	}
	defer bt.FreeNode(node)

	i, existing, err := FindCell(node, cell.Key)
	if err != nil {
		return err
	}
	if node.Type.IsLeaf() && existing != nil && existing.Key == cell.Key {
		return ErrDuplicate
	}

	if node.Type.IsLeaf() {
		if err := node.InsertCell(i, cell); err != nil {
			return err
		}
		return bt.WriteNode(node)
	}

	var childPage uint32
	if i == node.NCells {
		childPage = node.RightPage
	} else {
		childPage = existing.ChildPage
	}

	child, err := bt.GetNodeByPage(childPage)
	if err != nil {
		return err
	}
	childFull := !child.Fits(cell)
	if err := bt.FreeNode(child); err != nil {
		return err
	}

	if childFull {
		if _, err := bt.split(npage, childPage, i); err != nil {
			return err
		}
		return bt.insertNonFull(npage, cell)
	}
	return bt.insertNonFull(childPage, cell)
}

// InsertInTable inserts a (key, data) pair into the table tree rooted at root.
func (bt *BTree) InsertInTable(root uint32, key uint32, data []byte) error {
	return bt.Insert(root, &Cell{Type: TableLeaf, Key: key, Data: data})
}

// InsertInIndex inserts a (keyIdx, keyPk) pair into the index tree rooted at root.
func (bt *BTree) InsertInIndex(root uint32, keyIdx uint32, keyPk uint32) error {
	return bt.Insert(root, &Cell{Type: IndexLeaf, Key: keyIdx, KeyPk: keyPk})
}
