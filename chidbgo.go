// Package chidbgo is a didactic single-file relational storage engine
// built around an on-disk B-tree, modeled on chidb's page format. It
// wires the pager, btree, and cursor packages together behind one
// Options-configured entry point.
package chidbgo

import (
	"chidbgo/btree"
	"chidbgo/cursor"

	"github.com/pkg/errors"
)

// PageCacheSizeInitial mirrors the teacher's PageCacheSizeInitial /
// original's PAGE_CACHE_SIZE_INITIAL constant. It equals the value the
// btree package writes into the file header's page-cache-size field, but
// nothing reads this constant; no cache is implemented (the pager keeps no
// page cache).
const PageCacheSizeInitial = 20000

// Options configures Open. The zero value is valid and selects defaults.
type Options struct {
	// PageSize is used only when creating a brand new file; it is ignored
	// (and overridden from the file's own header) when opening an existing
	// one.
	PageSize uint16
}

func (o Options) pageSize() uint16 {
	if o.PageSize == 0 {
		return btree.DefaultPageSize
	}
	return o.PageSize
}

// DB is the top-level handle over one chidb-format file.
type DB struct {
	bt *btree.BTree
}

// Open opens (or creates) filename as a chidb-format database file.
func Open(filename string, opts Options) (*DB, error) {
	bt, err := btree.OpenWithPageSize(filename, opts.pageSize())
	if err != nil {
		return nil, errors.Wrap(err, "chidbgo: open")
	}
	return &DB{bt: bt}, nil
}

// Close releases the underlying file.
func (db *DB) Close() error {
	return db.bt.Close()
}

// NewTable allocates a fresh, empty table tree and returns its root page.
func (db *DB) NewTable() (uint32, error) {
	return db.bt.NewNode(btree.TableLeaf)
}

// NewIndex allocates a fresh, empty index tree and returns its root page.
func (db *DB) NewIndex() (uint32, error) {
	return db.bt.NewNode(btree.IndexLeaf)
}

// InsertRow inserts a (key, data) pair into the table tree rooted at root.
func (db *DB) InsertRow(root uint32, key uint32, data []byte) error {
	return db.bt.InsertInTable(root, key, data)
}

// InsertIndexEntry inserts a (keyIdx, keyPk) pair into the index tree
// rooted at root.
func (db *DB) InsertIndexEntry(root uint32, keyIdx uint32, keyPk uint32) error {
	return db.bt.InsertInIndex(root, keyIdx, keyPk)
}

// Find looks up key in the tree rooted at root, returning a table row's
// raw bytes or an index entry's keyPk packed as big-endian u32.
func (db *DB) Find(root uint32, key uint32) ([]byte, error) {
	return db.bt.Find(root, key)
}

// NewCursor opens a read cursor over the tree rooted at root.
func (db *DB) NewCursor(root uint32) (*cursor.Cursor, error) {
	return cursor.Init(db.bt, cursor.Read, root)
}

// RootPage is the page number of the very first tree Open creates.
const RootPage = btree.RootPage
