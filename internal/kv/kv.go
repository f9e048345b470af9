// Package kv persists opaque values under string keys. The entity store keeps
// one serialized collection per key.
package kv

// Keys used by the entity store.
const (
	KeyMembers       = "baby_growth_members"
	KeyRecords       = "baby_growth_records"
	KeySettings      = "baby_growth_settings"
	KeyCurrentMember = "baby_growth_current_member"
	KeyLastSync      = "baby_growth_last_sync"
)

// Adapter reads and writes values by key. A missing key is reported as
// ok == false with a nil error.
type Adapter interface {
	Read(key string) (value []byte, ok bool, err error)
	Write(key string, value []byte) error
	Remove(key string) error
	// WriteMany stores all values or none of them. A nil value removes the key.
	WriteMany(values map[string][]byte) error
	IsAvailable() bool
}
