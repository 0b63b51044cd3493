package hashring

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Typed-key helpers. Each converts a key deterministically to bytes before
// invoking the byte-key lookup, so the same key under the same overload
// always routes identically.

// StringKey converts a string key to its UTF-8 bytes.
func StringKey(key string) []byte { return []byte(key) }

// Uint32Key converts a uint32 key to 4 big-endian bytes.
func Uint32Key(key uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], key)
	return buf[:]
}

// Int32Key converts an int32 key to 4 big-endian two's-complement bytes.
func Int32Key(key int32) []byte { return Uint32Key(uint32(key)) }

// Int64Key converts an int64 key to 8 big-endian two's-complement bytes.
func Int64Key(key int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(key))
	return buf[:]
}

// UUIDKey converts a UUID key to its 16 raw bytes.
func UUIDKey(key uuid.UUID) []byte {
	buf := make([]byte, 16)
	copy(buf, key[:])
	return buf
}

// GetServerString routes a string key.
func (r *Ring[S]) GetServerString(key string) (S, error) {
	return r.GetServer(StringKey(key))
}

// GetServerUint32 routes a uint32 key.
func (r *Ring[S]) GetServerUint32(key uint32) (S, error) {
	return r.GetServer(Uint32Key(key))
}

// GetServerInt32 routes an int32 key.
func (r *Ring[S]) GetServerInt32(key int32) (S, error) {
	return r.GetServer(Int32Key(key))
}

// GetServerInt64 routes an int64 key.
func (r *Ring[S]) GetServerInt64(key int64) (S, error) {
	return r.GetServer(Int64Key(key))
}

// GetServerUUID routes a UUID key.
func (r *Ring[S]) GetServerUUID(key uuid.UUID) (S, error) {
	return r.GetServer(UUIDKey(key))
}

// TryGetServerString is TryGetServer for a string key.
func (r *Ring[S]) TryGetServerString(key string) (S, bool) {
	return r.TryGetServer(StringKey(key))
}

// GetServersString returns up to count distinct servers for a string key.
func (r *Ring[S]) GetServersString(key string, count int) ([]S, error) {
	return r.GetServers(StringKey(key), count)
}
