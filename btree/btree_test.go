package btree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBTree(t *testing.T) *BTree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	bt, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { bt.Close() })
	return bt
}

// Scenario 1 (spec §8): a freshly opened file is exactly one page, with a
// valid default header and an empty TABLE_LEAF root.
func TestOpenFreshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	bt, err := Open(path)
	require.NoError(t, err)
	defer bt.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, DefaultPageSize, info.Size())

	header, err := bt.Pager.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, "SQLite format 3\x00", string(header[:16]))
	assert.Equal(t, []byte{0x04, 0x00}, header[0x10:0x12])

	root, err := bt.GetNodeByPage(RootPage)
	require.NoError(t, err)
	assert.Equal(t, TableLeaf, root.Type)
	assert.EqualValues(t, 0, root.NCells)
	assert.EqualValues(t, 108, root.FreeOffset)
	assert.EqualValues(t, DefaultPageSize, root.CellsOffset)
}

func TestOpenReopenValidatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	bt, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, bt.InsertInTable(RootPage, 1, []byte("hello")))
	require.NoError(t, bt.Close())

	bt2, err := Open(path)
	require.NoError(t, err)
	defer bt2.Close()

	data, err := bt2.Find(RootPage, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

// Scenario 2: single insert, then find round-trips the exact payload.
func TestInsertAndFindSingleRow(t *testing.T) {
	bt := openBTree(t)
	require.NoError(t, bt.InsertInTable(RootPage, 42, []byte("the answer")))

	data, err := bt.Find(RootPage, 42)
	require.NoError(t, err)
	assert.Equal(t, []byte("the answer"), data)

	_, err = bt.Find(RootPage, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Scenario 3: re-inserting an existing key in a table tree is rejected.
func TestInsertDuplicateKeyRejected(t *testing.T) {
	bt := openBTree(t)
	require.NoError(t, bt.InsertInTable(RootPage, 1, []byte("a")))
	err := bt.InsertInTable(RootPage, 1, []byte("b"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestInsertOrderIndependentLookup(t *testing.T) {
	bt := openBTree(t)
	keys := []uint32{50, 10, 90, 30, 70, 20, 80, 40, 60, 5}
	for _, k := range keys {
		require.NoError(t, bt.InsertInTable(RootPage, k, []byte{byte(k)}))
	}
	for _, k := range keys {
		data, err := bt.Find(RootPage, k)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(k)}, data)
	}
}

// Scenario 4: enough rows to force at least one leaf split; every key must
// remain findable afterward and the root must have become an internal node.
func TestInsertForcesLeafSplit(t *testing.T) {
	bt := openBTree(t)
	const n = 400
	payload := make([]byte, 64)
	for i := 0; i < n; i++ {
		require.NoError(t, bt.InsertInTable(RootPage, uint32(i), payload))
	}

	root, err := bt.GetNodeByPage(RootPage)
	require.NoError(t, err)
	assert.True(t, root.Type.IsInternal(), "expected root to have split into an internal node")

	for i := 0; i < n; i++ {
		data, err := bt.Find(RootPage, uint32(i))
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	}
}

// Scenario 5: an index tree supports insert and exact-match find on keyIdx,
// yielding the associated keyPk.
func TestIndexTreeInsertAndFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	bt, err := Open(path)
	require.NoError(t, err)
	defer bt.Close()

	idxRootNode, err := NewNode(bt.Pager, IndexLeaf)
	require.NoError(t, err)
	idxRoot := idxRootNode.PageNo

	for i := uint32(0); i < 200; i++ {
		require.NoError(t, bt.InsertInIndex(idxRoot, i, i*10+1))
	}

	for i := uint32(0); i < 200; i++ {
		data, err := bt.Find(idxRoot, i)
		require.NoError(t, err)
		got := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
		assert.Equal(t, i*10+1, got)
	}
}

func TestCellRoundTripAllTypes(t *testing.T) {
	bt := openBTree(t)
	node, err := NewNode(bt.Pager, TableLeaf)
	require.NoError(t, err)

	cell := &Cell{Type: TableLeaf, Key: 99, Data: []byte("payload")}
	require.NoError(t, node.InsertCell(0, cell))

	got, err := node.GetCell(0)
	require.NoError(t, err)
	assert.EqualValues(t, 99, got.Key)
	assert.Equal(t, []byte("payload"), got.Data)
}

func TestFindCellScansInKeyOrder(t *testing.T) {
	bt := openBTree(t)
	node, err := NewNode(bt.Pager, TableLeaf)
	require.NoError(t, err)

	for i, k := range []uint32{10, 20, 30} {
		require.NoError(t, node.InsertCell(uint16(i), &Cell{Type: TableLeaf, Key: k, Data: []byte{byte(k)}}))
	}

	i, cell, err := FindCell(node, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, i)
	assert.EqualValues(t, 20, cell.Key)

	i, cell, err = FindCell(node, 100)
	require.NoError(t, err)
	assert.Nil(t, cell)
	assert.EqualValues(t, node.NCells, i)
}

func TestValidateHeaderRejectsBadMagic(t *testing.T) {
	header := buildDefaultHeader(DefaultPageSize)
	header[0] = 'X'
	err := validateHeader(header, DefaultPageSize)
	assert.ErrorIs(t, err, ErrCorruptHeader)
}

func TestValidateHeaderRejectsNonZeroReservedByte(t *testing.T) {
	header := buildDefaultHeader(DefaultPageSize)
	header[0x20] = 1
	err := validateHeader(header, DefaultPageSize)
	assert.ErrorIs(t, err, ErrCorruptHeader)
}

func TestValidateHeaderAcceptsDefault(t *testing.T) {
	header := buildDefaultHeader(DefaultPageSize)
	assert.NoError(t, validateHeader(header, DefaultPageSize))
}
