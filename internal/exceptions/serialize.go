package exceptions

import (
	"encoding/binary"
	"sort"
)

// Blob is the serialized trie: a depth-first sequence of fixed Node
// headers, followed by a region of zero-terminated mapping strings, plus
// the 256-entry first-byte table that hoists the initial step of every
// lookup out of the node walk.
type Blob struct {
	Nodes         []byte
	FirstByteNode [256]uint32
	// FirstByteSet distinguishes "no root child for this byte" from a
	// legitimately-zero offset (the first node in depth-first order
	// always lands at offset 0).
	FirstByteSet [256]bool
}

// Finalize sorts every node's children by byte value, lays the trie out
// depth-first, and rewrites the "no mapping" placeholder to 0 once real
// offsets are known (spec.md §4.H).
func (t *Builder) Finalize() Blob {
	sortChildren(t.root)

	var order []*bnode
	var walk func(n *bnode)
	walk = func(n *bnode) {
		order = append(order, n)
		for _, c := range n.children {
			walk(c)
		}
	}
	for _, c := range t.root.children {
		walk(c)
	}

	offsets := make([]uint32, len(order))
	index := make(map[*bnode]int, len(order))
	var cursor uint32
	for i, n := range order {
		index[n] = i
		offsets[i] = cursor
		cursor += nodeHeaderSize(n)
	}
	mappingBase := cursor

	mappingOffsets := make([]uint32, len(order))
	var mappingRegion []byte
	for i, n := range order {
		if !n.hasMapping {
			continue // placeholder stays 0: no accepted rule at this prefix
		}
		mappingOffsets[i] = mappingBase + uint32(len(mappingRegion))
		mappingRegion = append(mappingRegion, n.mapping...)
		mappingRegion = append(mappingRegion, 0)
	}

	nodes := make([]byte, mappingBase)
	for i, n := range order {
		buf := nodes[offsets[i]:]
		binary.LittleEndian.PutUint32(buf[0:4], mappingOffsets[i])
		buf[4] = byte(len(n.children))
		pos := 5
		for _, c := range n.children {
			buf[pos] = c.b
			pos++
		}
		for _, c := range n.children {
			binary.LittleEndian.PutUint32(buf[pos:pos+4], offsets[index[c]])
			pos += 4
		}
	}

	blob := Blob{Nodes: append(nodes, mappingRegion...)}
	for _, c := range t.root.children {
		blob.FirstByteNode[c.b] = offsets[index[c]]
		blob.FirstByteSet[c.b] = true
	}
	return blob
}

func nodeHeaderSize(n *bnode) uint32 {
	return 4 + 1 + uint32(len(n.children))*(1+4)
}

func sortChildren(n *bnode) {
	sort.Slice(n.children, func(i, j int) bool { return n.children[i].b < n.children[j].b })
	for _, c := range n.children {
		sortChildren(c)
	}
}
