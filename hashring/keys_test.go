package hashring

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestKeyConversions(t *testing.T) {
	if !bytes.Equal(StringKey("abc"), []byte("abc")) {
		t.Fatal("StringKey must return the UTF-8 bytes")
	}
	if !bytes.Equal(Uint32Key(0x01020304), []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatal("Uint32Key must be big-endian")
	}
	if !bytes.Equal(Int32Key(-1), []byte{0xff, 0xff, 0xff, 0xff}) {
		t.Fatal("Int32Key must be two's-complement big-endian")
	}
	if !bytes.Equal(Int64Key(1), []byte{0, 0, 0, 0, 0, 0, 0, 1}) {
		t.Fatal("Int64Key must be big-endian")
	}

	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	if !bytes.Equal(UUIDKey(u), u[:]) {
		t.Fatal("UUIDKey must return the raw 16 bytes")
	}
}

func TestTypedLookupsDeterministic(t *testing.T) {
	r := New[string]()
	r.AddRange([]string{"s1", "s2", "s3"})
	if _, err := r.CreateSnapshot(); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	lookups := []func() (string, error){
		func() (string, error) { return r.GetServerString("session-9") },
		func() (string, error) { return r.GetServerUint32(42) },
		func() (string, error) { return r.GetServerInt32(-7) },
		func() (string, error) { return r.GetServerInt64(1 << 40) },
		func() (string, error) { return r.GetServerUUID(u) },
	}
	for i, lookup := range lookups {
		first, err := lookup()
		if err != nil {
			t.Fatalf("lookup %d failed: %v", i, err)
		}
		for j := 0; j < 5; j++ {
			got, err := lookup()
			if err != nil {
				t.Fatalf("lookup %d failed: %v", i, err)
			}
			if got != first {
				t.Fatalf("lookup %d: nondeterministic %s vs %s", i, first, got)
			}
		}
	}
}

func TestTypedLookupMatchesByteLookup(t *testing.T) {
	r := New[string]()
	r.AddRange([]string{"s1", "s2", "s3", "s4"})
	if _, err := r.CreateSnapshot(); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	viaTyped, err := r.GetServerString("some key")
	if err != nil {
		t.Fatalf("typed lookup failed: %v", err)
	}
	viaBytes, err := r.GetServer([]byte("some key"))
	if err != nil {
		t.Fatalf("byte lookup failed: %v", err)
	}
	if viaTyped != viaBytes {
		t.Fatalf("typed and byte lookups disagree: %s vs %s", viaTyped, viaBytes)
	}

	viaTypedU32, err := r.GetServerUint32(0x01020304)
	if err != nil {
		t.Fatalf("typed lookup failed: %v", err)
	}
	viaBytesU32, err := r.GetServer([]byte{0x01, 0x02, 0x03, 0x04})
	if err != nil {
		t.Fatalf("byte lookup failed: %v", err)
	}
	if viaTypedU32 != viaBytesU32 {
		t.Fatalf("uint32 lookups disagree: %s vs %s", viaTypedU32, viaBytesU32)
	}
}

func TestTryGetServerString(t *testing.T) {
	r := New[string]()
	if _, ok := r.TryGetServerString("k"); ok {
		t.Fatal("TryGetServerString must report absence without snapshots")
	}

	r.Add("s1")
	r.CreateSnapshot()
	got, ok := r.TryGetServerString("k")
	if !ok || got != "s1" {
		t.Fatalf("want s1, got %q ok=%v", got, ok)
	}
}
