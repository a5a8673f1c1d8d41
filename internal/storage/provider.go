// Package storage implements the persistence collaborator: a small
// key/value store holding one JSON document per key.
package storage

// Keys used by the stores.
const (
	KeyProfile = "profile"
	KeyRecords = "records"
	KeyGrowth  = "growth"
	KeyDiaries = "diaries"
)

// KV is the persistence collaborator.
type KV interface {
	// Load returns the stored payload for key. ok is false when the key is absent.
	Load(key string) (data []byte, ok bool, err error)
	// Save durably replaces the payload for key.
	Save(key string, data []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
