package ast

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes the shape and payload of the subtree rooted at id. Two
// subtrees with the same fingerprint print identically.
func Fingerprint(t *Tree, id NodeID) uint64 {
	h := xxh3.New()
	var buf [6]byte
	t.Walk(id, func(n NodeID) bool {
		node := t.node(n)
		buf[0] = byte(node.Kind)
		buf[1] = byte(node.Flags)
		binary.LittleEndian.PutUint32(buf[2:], uint32(len(node.children)))
		h.Write(buf[:])
		h.Write([]byte(node.Str))
		h.Write([]byte{0})
		return true
	})
	return h.Sum64()
}
