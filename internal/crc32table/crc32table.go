// Package crc32table provides the 256-entry CRC32 hash used to derive
// keyword word IDs and to probe the hitblock keyword hash table for
// collisions. It wraps the standard library's IEEE polynomial table: no
// third-party library in the retrieval pack implements a standalone CRC32,
// and hash/crc32 already exposes exactly the byte-table construction the
// specification asks for, so reaching past the standard library here would
// just reimplement it.
package crc32table

import "hash/crc32"

// Table is the 256-entry CRC32 table (IEEE polynomial) used for keyword
// hashing throughout the dictionary.
var Table = crc32.MakeTable(crc32.IEEE)

// Sum computes the CRC32 checksum of b using Table.
func Sum(b []byte) uint32 {
	return crc32.Checksum(b, Table)
}
