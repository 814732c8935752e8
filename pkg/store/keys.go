package store

import (
	"encoding/binary"
)

// Key prefixes.
const (
	NamespacePrefix byte = 0x30 // uri -> namespace record
	PrefixIndex     byte = 0x31 // prefix -> uri
	BinaryPrefix    byte = 0x40 // content hash -> s2 compressed content

	// SystemPrefix is reserved for store metadata.
	SystemPrefix byte = 0xFF
)

// System metadata keys.
var (
	KeyNamespaceRoot  = []byte{SystemPrefix, 0x10} // present once the namespace area is provisioned
	KeyNamespaceIndex = []byte{SystemPrefix, 0x11} // last generated prefix index
)

// encodeStringKey lays out [prefix(1) | len(2) | s].
func encodeStringKey(prefix byte, s string) []byte {
	key := make([]byte, 3+len(s))
	key[0] = prefix
	binary.BigEndian.PutUint16(key[1:3], uint16(len(s)))
	copy(key[3:], s)
	return key
}

// decodeStringKey reverses encodeStringKey. ok is false for a malformed key.
func decodeStringKey(key []byte) (prefix byte, s string, ok bool) {
	if len(key) < 3 {
		return 0, "", false
	}
	n := int(binary.BigEndian.Uint16(key[1:3]))
	if len(key) != 3+n {
		return 0, "", false
	}
	return key[0], string(key[3:]), true
}

// EncodeBinaryKey encodes a content hash: [prefix(1) | hash].
func EncodeBinaryKey(hash []byte) []byte {
	key := make([]byte, 1+len(hash))
	key[0] = BinaryPrefix
	copy(key[1:], hash)
	return key
}

func encodeCounter(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func decodeCounter(val []byte) int64 {
	if len(val) < 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(val))
}
