package exceptions

import "encoding/binary"

// Lookup walks key through the trie, starting with the 256-entry
// first-byte table, and returns the mapping recorded for key if key names
// an accepted rule.
func Lookup(blob Blob, key []byte) ([]byte, bool) {
	if len(key) == 0 || !blob.FirstByteSet[key[0]] {
		return nil, false
	}
	offset := blob.FirstByteNode[key[0]]
	rest := key[1:]

	for {
		mappingOffset, childValues, childOffsets := readNode(blob.Nodes, offset)
		if len(rest) == 0 {
			if mappingOffset == 0 {
				return nil, false
			}
			return readMapping(blob.Nodes, mappingOffset), true
		}
		next := rest[0]
		idx := -1
		for i, v := range childValues {
			if v == next {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, false
		}
		offset = childOffsets[idx]
		rest = rest[1:]
	}
}

func readNode(nodes []byte, offset uint32) (mappingOffset uint32, childValues []byte, childOffsets []uint32) {
	buf := nodes[offset:]
	mappingOffset = binary.LittleEndian.Uint32(buf[0:4])
	numChildren := int(buf[4])
	pos := 5
	childValues = buf[pos : pos+numChildren]
	pos += numChildren
	childOffsets = make([]uint32, numChildren)
	for i := 0; i < numChildren; i++ {
		childOffsets[i] = binary.LittleEndian.Uint32(buf[pos : pos+4])
		pos += 4
	}
	return mappingOffset, childValues, childOffsets
}

func readMapping(nodes []byte, offset uint32) []byte {
	end := offset
	for nodes[end] != 0 {
		end++
	}
	return nodes[offset:end]
}
