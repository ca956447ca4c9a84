package btree

import (
	"bytes"

	"chidbgo/codec"

	"github.com/pkg/errors"
)

// MagicBytes is the literal ASCII prefix every valid database file starts with.
var MagicBytes = []byte("SQLite format 3\x00")

const (
	fixedByteOffset  = 0x12
	zeroRegionStart  = 0x18
	zeroRegionEnd    = 0x64 // exclusive
	schemaFormatOff  = 0x2C
	pageCacheSizeOff = 0x30
	textEncodingOff  = 0x38

	defaultSchemaFormat  = 1
	defaultPageCacheSize = 20000
	defaultTextEncoding  = 1
)

var fixedBytes = []byte{0x01, 0x01, 0x00, 0x40, 0x20, 0x20}

// ErrCorruptHeader is returned when a file's header fails any of the
// fixed-field invariants of spec §3.1.
var ErrCorruptHeader = errors.New("btree: corrupt header")

func buildDefaultHeader(pageSize uint16) []byte {
	header := make([]byte, codec.HeaderSize)
	copy(header, MagicBytes)
	codec.WriteU16BE(header[16:], pageSize)
	copy(header[fixedByteOffset:], fixedBytes)
	codec.WriteU32BE(header[schemaFormatOff:], defaultSchemaFormat)
	codec.WriteU32BE(header[pageCacheSizeOff:], defaultPageCacheSize)
	codec.WriteU32BE(header[textEncodingOff:], defaultTextEncoding)
	return header
}

func inReservedWindow(i int) bool {
	for _, off := range []int{schemaFormatOff, pageCacheSizeOff, textEncodingOff} {
		if i >= off && i < off+4 {
			return true
		}
	}
	return false
}

func validateHeader(header []byte, pageSize uint16) error {
	if len(header) != codec.HeaderSize {
		return ErrCorruptHeader
	}
	if !bytes.Equal(header[:len(MagicBytes)], MagicBytes) {
		return ErrCorruptHeader
	}
	if codec.ReadU16BE(header[16:]) != pageSize {
		return ErrCorruptHeader
	}
	if !bytes.Equal(header[fixedByteOffset:fixedByteOffset+len(fixedBytes)], fixedBytes) {
		return ErrCorruptHeader
	}
	for i := zeroRegionStart; i < zeroRegionEnd; i++ {
		if inReservedWindow(i) {
			continue
		}
		if header[i] != 0 {
			return ErrCorruptHeader
		}
	}
	if codec.ReadU32BE(header[schemaFormatOff:]) != defaultSchemaFormat {
		return ErrCorruptHeader
	}
	if codec.ReadU32BE(header[pageCacheSizeOff:]) != defaultPageCacheSize {
		return ErrCorruptHeader
	}
	if codec.ReadU32BE(header[textEncodingOff:]) != defaultTextEncoding {
		return ErrCorruptHeader
	}
	return nil
}
