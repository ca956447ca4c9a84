package cursor

import (
	"path/filepath"
	"testing"

	"chidbgo/btree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTree(t *testing.T) *btree.BTree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cursor.db")
	bt, err := btree.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { bt.Close() })
	return bt
}

// Scenario 6 (spec §8): rewinding and repeatedly calling Next visits every
// row in ascending key order, and Prev reverses it exactly.
func TestRewindNextVisitsRowsInOrder(t *testing.T) {
	bt := openTree(t)
	keys := []uint32{30, 10, 50, 20, 40, 5, 45, 35, 15, 25}
	for _, k := range keys {
		require.NoError(t, bt.InsertInTable(btree.RootPage, k, []byte{byte(k)}))
	}

	c, err := Init(bt, Read, btree.RootPage)
	require.NoError(t, err)
	defer c.Free()

	require.False(t, c.IsEmpty())
	require.NoError(t, c.Rewind())

	var got []uint32
	for {
		k, err := c.Key()
		require.NoError(t, err)
		got = append(got, k)
		if err := c.Next(); err != nil {
			assert.ErrorIs(t, err, ErrNoNext)
			break
		}
	}
	assert.Equal(t, []uint32{5, 10, 15, 20, 25, 30, 35, 40, 45, 50}, got)

	var back []uint32
	for {
		k, err := c.Key()
		require.NoError(t, err)
		back = append(back, k)
		if err := c.Prev(); err != nil {
			assert.ErrorIs(t, err, ErrNoPrev)
			break
		}
	}
	assert.Equal(t, []uint32{50, 45, 40, 35, 30, 25, 20, 15, 10, 5}, back)
}

func TestRewindEmptyTree(t *testing.T) {
	bt := openTree(t)
	c, err := Init(bt, Read, btree.RootPage)
	require.NoError(t, err)
	defer c.Free()
	assert.True(t, c.IsEmpty())
}

func TestSeekExactAndMissing(t *testing.T) {
	bt := openTree(t)
	for _, k := range []uint32{10, 20, 30, 40} {
		require.NoError(t, bt.InsertInTable(btree.RootPage, k, []byte{byte(k)}))
	}

	c, err := Init(bt, Read, btree.RootPage)
	require.NoError(t, err)
	defer c.Free()

	require.NoError(t, c.Seek(20))
	k, err := c.Key()
	require.NoError(t, err)
	assert.EqualValues(t, 20, k)

	err = c.Seek(25)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSeekGEAndGT(t *testing.T) {
	bt := openTree(t)
	for _, k := range []uint32{10, 20, 30, 40} {
		require.NoError(t, bt.InsertInTable(btree.RootPage, k, []byte{byte(k)}))
	}

	c, err := Init(bt, Read, btree.RootPage)
	require.NoError(t, err)
	defer c.Free()

	require.NoError(t, c.SeekGE(25))
	k, err := c.Key()
	require.NoError(t, err)
	assert.EqualValues(t, 30, k)

	require.NoError(t, c.SeekGE(30))
	k, err = c.Key()
	require.NoError(t, err)
	assert.EqualValues(t, 30, k)

	require.NoError(t, c.SeekGT(30))
	k, err = c.Key()
	require.NoError(t, err)
	assert.EqualValues(t, 40, k)

	err = c.SeekGT(40)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	err = c.SeekGE(1000)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestOrderedTraversalAfterSplit(t *testing.T) {
	bt := openTree(t)
	const n = 300
	for i := uint32(0); i < n; i++ {
		require.NoError(t, bt.InsertInTable(btree.RootPage, i, []byte{byte(i)}))
	}

	c, err := Init(bt, Read, btree.RootPage)
	require.NoError(t, err)
	defer c.Free()

	require.NoError(t, c.Rewind())
	var count uint32
	for {
		k, err := c.Key()
		require.NoError(t, err)
		assert.Equal(t, count, k)
		count++
		if err := c.Next(); err != nil {
			assert.ErrorIs(t, err, ErrNoNext)
			break
		}
	}
	assert.EqualValues(t, n, count)
}

func TestIndexTreeOrderedTraversal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idxcursor.db")
	bt, err := btree.Open(path)
	require.NoError(t, err)
	defer bt.Close()

	idxRootNode, err := btree.NewNode(bt.Pager, btree.IndexLeaf)
	require.NoError(t, err)
	idxRoot := idxRootNode.PageNo

	const n = 250
	for i := uint32(0); i < n; i++ {
		require.NoError(t, bt.InsertInIndex(idxRoot, i, i*2))
	}

	c, err := Init(bt, Read, idxRoot)
	require.NoError(t, err)
	defer c.Free()

	require.NoError(t, c.Rewind())
	var count uint32
	for {
		k, err := c.Key()
		require.NoError(t, err)
		assert.Equal(t, count, k)
		count++
		if err := c.Next(); err != nil {
			assert.ErrorIs(t, err, ErrNoNext)
			break
		}
	}
	assert.EqualValues(t, n, count)
}

// Guards against a prior bug in the INDEX_INTERNAL ascend-search branch of
// Prev: landing back on an internal cell that isn't the rightmost one (the
// one reached via right_page) must step to the *preceding* cell, not stay
// put, or Prev would walk backward through keys out of order.
func TestIndexTreeReverseTraversalThroughInternalNode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idxcursor-prev.db")
	bt, err := btree.Open(path)
	require.NoError(t, err)
	defer bt.Close()

	idxRootNode, err := btree.NewNode(bt.Pager, btree.IndexLeaf)
	require.NoError(t, err)
	idxRoot := idxRootNode.PageNo

	// Enough entries to force the root to split at least twice, so an
	// internal node ends up with more than one cell to walk backward
	// through (not just a single cell plus right_page).
	const n = 400
	for i := uint32(0); i < n; i++ {
		require.NoError(t, bt.InsertInIndex(idxRoot, i, i*2))
	}

	root, err := bt.GetNodeByPage(idxRoot)
	require.NoError(t, err)
	require.True(t, root.Type.IsInternal(), "expected index root to have split")
	require.Greater(t, root.NCells, uint16(1), "expected more than one internal cell")

	c, err := Init(bt, Read, idxRoot)
	require.NoError(t, err)
	defer c.Free()

	require.NoError(t, c.Rewind())
	for i := uint32(0); i < n-1; i++ {
		require.NoError(t, c.Next())
	}

	var got []uint32
	for {
		k, err := c.Key()
		require.NoError(t, err)
		got = append(got, k)
		if err := c.Prev(); err != nil {
			assert.ErrorIs(t, err, ErrNoPrev)
			break
		}
	}

	want := make([]uint32, n)
	for i := range want {
		want[i] = uint32(n-1) - uint32(i)
	}
	assert.Equal(t, want, got)
}
