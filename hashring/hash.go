package hashring

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/sha3"
)

// Hasher turns a byte key into a digest. Implementations must be
// deterministic, reject nil input, and return at least four bytes; only
// the first four bytes are used to derive a ring position.
type Hasher interface {
	Sum(data []byte) ([]byte, error)
	Name() string
}

// SHA1 is the default ring hash algorithm. Digests are 20 bytes.
type SHA1 struct{}

// Sum computes the SHA-1 digest of data.
func (SHA1) Sum(data []byte) ([]byte, error) {
	if data == nil {
		return nil, ErrNilKey
	}
	sum := sha1.Sum(data)
	return sum[:], nil
}

// Name returns the algorithm name.
func (SHA1) Name() string { return "sha1" }

// MD5 hashes keys with MD5. Digests are 16 bytes.
type MD5 struct{}

// Sum computes the MD5 digest of data.
func (MD5) Sum(data []byte) ([]byte, error) {
	if data == nil {
		return nil, ErrNilKey
	}
	sum := md5.Sum(data)
	return sum[:], nil
}

// Name returns the algorithm name.
func (MD5) Name() string { return "md5" }

// SHA3 hashes keys with SHA3-256. Digests are 32 bytes.
type SHA3 struct{}

// Sum computes the SHA3-256 digest of data.
func (SHA3) Sum(data []byte) ([]byte, error) {
	if data == nil {
		return nil, ErrNilKey
	}
	sum := sha3.Sum256(data)
	return sum[:], nil
}

// Name returns the algorithm name.
func (SHA3) Name() string { return "sha3-256" }

// XXHash64 hashes keys with the non-cryptographic xxHash64 function.
// Digests are 8 bytes. Considerably faster than the cryptographic
// algorithms when adversarial keys are not a concern.
type XXHash64 struct{}

// Sum computes the xxHash64 digest of data, big-endian encoded.
func (XXHash64) Sum(data []byte) ([]byte, error) {
	if data == nil {
		return nil, ErrNilKey
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], xxhash.Sum64(data))
	return buf[:], nil
}

// Name returns the algorithm name.
func (XXHash64) Name() string { return "xxhash64" }

// ringPosition derives the ring position for key under h: the first four
// digest bytes interpreted as a big-endian uint32. The interpretation is
// fixed for the lifetime of a ring and every snapshot it creates.
func ringPosition(h Hasher, key []byte) (uint32, error) {
	sum, err := h.Sum(key)
	if err != nil {
		return 0, err
	}
	if len(sum) < 4 {
		return 0, ErrShortDigest
	}
	return binary.BigEndian.Uint32(sum[:4]), nil
}
