// Command chidbgo is a minimal, non-interactive driver over the chidbgo
// storage engine: open a database file, insert rows, look one up, or dump
// a table in key order. It supplements the original's interactive shell
// (excluded from the core engine) with table-row insert, find, and a
// cursor-driven dump; index trees, table creation, and seeks are not
// reachable from it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"chidbgo"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	file := fs.String("file", "", "path to the database file")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal("chidbgo: -file is required")
	}

	db, err := chidbgo.Open(*file, chidbgo.Options{})
	if err != nil {
		log.Fatalf("chidbgo: open %s: %v", *file, err)
	}
	defer db.Close()

	args := fs.Args()
	switch cmd {
	case "insert":
		runInsert(db, args)
	case "find":
		runFind(db, args)
	case "dump":
		runDump(db, args)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  chidbgo insert -file db.chidb <root> <key> <value>
  chidbgo find   -file db.chidb <root> <key>
  chidbgo dump   -file db.chidb <root>`)
}

func runInsert(db *chidbgo.DB, args []string) {
	if len(args) != 3 {
		usage()
		os.Exit(2)
	}
	root := mustUint32(args[0])
	key := mustUint32(args[1])
	if err := db.InsertRow(root, key, []byte(args[2])); err != nil {
		log.Fatalf("chidbgo: insert: %v", err)
	}
}

func runFind(db *chidbgo.DB, args []string) {
	if len(args) != 2 {
		usage()
		os.Exit(2)
	}
	root := mustUint32(args[0])
	key := mustUint32(args[1])
	data, err := db.Find(root, key)
	if err != nil {
		log.Fatalf("chidbgo: find: %v", err)
	}
	fmt.Println(string(data))
}

func runDump(db *chidbgo.DB, args []string) {
	if len(args) != 1 {
		usage()
		os.Exit(2)
	}
	root := mustUint32(args[0])

	c, err := db.NewCursor(root)
	if err != nil {
		log.Fatalf("chidbgo: dump: %v", err)
	}
	defer c.Free()

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	if c.IsEmpty() {
		return
	}
	if err := c.Rewind(); err != nil {
		log.Fatalf("chidbgo: dump: %v", err)
	}
	for {
		key, err := c.Key()
		if err != nil {
			log.Fatalf("chidbgo: dump: %v", err)
		}
		data, err := c.Data()
		if err != nil {
			log.Fatalf("chidbgo: dump: %v", err)
		}
		fmt.Fprintf(w, "%d\t%s\n", key, data)
		if err := c.Next(); err != nil {
			break
		}
	}
}

func mustUint32(s string) uint32 {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		log.Fatalf("chidbgo: invalid integer %q: %v", s, err)
	}
	return uint32(v)
}
