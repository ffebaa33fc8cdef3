package storage

import (
	"encoding/binary"
)

const (
	merklePrefix    = "m"
	sizeConstantKey = "s"
	oracleKey       = "o"
)

func merkleKey(pos Position) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(pos))

	return append([]byte(merklePrefix), key...)
}

func sizeKey() []byte {
	return []byte(sizeConstantKey)
}

func sizeKeyValue(size uint64) ([]byte, []byte) {
	sizeValue := make([]byte, 8)
	binary.BigEndian.PutUint64(sizeValue, size)

	return sizeKey(), sizeValue
}

func oracleKeyValue(name string) ([]byte, []byte) {
	return []byte(oracleKey), []byte(name)
}
