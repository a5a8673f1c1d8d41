package storage

import (
	"crypto/sha256"
	"encoding/hex"
)

// digest returns the hex-encoded SHA-256 of a stored document. FS uses it to
// recognise its own writes and SQLite stores it next to the payload.
func digest(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
