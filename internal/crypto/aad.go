package icrypto

import (
	"encoding/binary"
)

const (
	aadStore     = "STORE"
	aadSlot      = "SLOT"
	aadTransport = "TRANSPORT"
)

// AADTokenStore binds the persisted store blob to its storage key.
func AADTokenStore(storageKey string, ver int) []byte {
	return buildAAD(aadStore, storageKey, ver)
}

// AADTokenSlot binds a token ciphertext to the slot it was written for, so a
// ciphertext copied between slots fails to open.
func AADTokenSlot(slot string, ver int) []byte {
	return buildAAD(aadSlot, slot, ver)
}

func AADTransport(ver int) []byte {
	return buildAAD(aadTransport, ver)
}

func buildAAD(parts ...any) []byte {
	var res []byte
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			res = appendLenPrefix(res, []byte(v))
		case []byte:
			res = appendLenPrefix(res, v)
		case uint64:
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, v)
			res = append(res, b...)
		case int:
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, uint32(v))
			res = append(res, b...)
		}
	}
	return res
}

func appendLenPrefix(b, data []byte) []byte {
	l := make([]byte, 4)
	binary.BigEndian.PutUint32(l, uint32(len(data)))
	b = append(b, l...)
	b = append(b, data...)
	return b
}
