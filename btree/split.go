package btree

// split splits the node at childPage (a child of parentPage, reached via
// parent cell index parentNCell), or the root itself when parentPage == 0.
// It returns the page number of the new lower-half node.
//
// Three nodes end up touched: the new lower half (a freshly allocated
// page), the upper half (the old childPage page reinitialized, or — for a
// root split — a freshly allocated page), and the parent (a freshly
// initialized internal root, or the existing parent with the promoted
// cell inserted).
func (bt *BTree) split(parentPage, childPage uint32, parentNCell uint16) (uint32, error) {
	isRoot := parentPage == 0

	child, err := bt.GetNodeByPage(childPage)
	if err != nil {
		return 0, err
	}
	defer bt.FreeNode(child)

	lowerHalf, err := NewNode(bt.Pager, child.Type)
	if err != nil {
		return 0, err
	}
	defer bt.FreeNode(lowerHalf)
	lowerHalfPage := lowerHalf.PageNo

	medianIdx := child.NCells / 2
	upperBound := medianIdx
	if child.Type == TableLeaf {
		upperBound = medianIdx + 1
	}
	for i := uint16(0); i < upperBound; i++ {
		cell, err := child.GetCell(i)
		if err != nil {
			return 0, err
		}
		if err := lowerHalf.InsertCell(i, cell); err != nil {
			return 0, err
		}
	}

	median, err := child.GetCell(medianIdx)
	if err != nil {
		return 0, err
	}
	if lowerHalf.Type.IsInternal() {
		lowerHalf.RightPage = median.ChildPage
	}

	var upperHalf *Node
	var upperHalfPage uint32
	if isRoot {
		upperHalf, err = NewNode(bt.Pager, child.Type)
		if err != nil {
			return 0, err
		}
		upperHalfPage = upperHalf.PageNo
	} else {
		upperHalf, err = InitEmptyNode(bt.Pager, childPage, child.Type)
		if err != nil {
			return 0, err
		}
		upperHalfPage = childPage
	}
	defer bt.FreeNode(upperHalf)

	j := uint16(0)
	for i := medianIdx + 1; i < child.NCells; i++ {
		cell, err := child.GetCell(i)
		if err != nil {
			return 0, err
		}
		if err := upperHalf.InsertCell(j, cell); err != nil {
			return 0, err
		}
		j++
	}
	if upperHalf.Type.IsInternal() {
		upperHalf.RightPage = child.RightPage
	}

	var parent *Node
	if isRoot {
		parentType := TableInternal
		if child.Type.IsIndex() {
			parentType = IndexInternal
		}
		parent, err = InitEmptyNode(bt.Pager, childPage, parentType)
		if err != nil {
			return 0, err
		}
	} else {
		parent, err = bt.GetNodeByPage(parentPage)
		if err != nil {
			return 0, err
		}
	}
	defer bt.FreeNode(parent)

	promoted := promoteCell(median, lowerHalfPage)
	if err := parent.InsertCell(parentNCell, promoted); err != nil {
		return 0, err
	}
	if isRoot {
		parent.RightPage = upperHalfPage
	}

	if err := bt.WriteNode(parent); err != nil {
		return 0, err
	}
	if err := bt.WriteNode(upperHalf); err != nil {
		return 0, err
	}
	if err := bt.WriteNode(lowerHalf); err != nil {
		return 0, err
	}

	return lowerHalfPage, nil
}

// promoteCell builds the cell inserted into the parent on a split: the
// internal-format separator pointing at the new lower half.
func promoteCell(median *Cell, newChildPage uint32) *Cell {
	switch median.Type {
	case IndexInternal, TableInternal:
		promoted := *median
		promoted.ChildPage = newChildPage
		return &promoted
	case IndexLeaf:
		return &Cell{Type: IndexInternal, Key: median.Key, ChildPage: newChildPage, KeyPk: median.KeyPk}
	case TableLeaf:
		return &Cell{Type: TableInternal, Key: median.Key, ChildPage: newChildPage}
	default:
		return median
	}
}
