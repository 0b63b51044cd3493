package election

import (
	"strings"
	"testing"
	"time"
)

func TestLeaderInfoRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	info := NewLeaderInfo("p1", now, 5*time.Minute, map[string]string{"host": "node-a"})

	data, err := EncodeLeaderInfo(info)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// The wire field names are a stable contract.
	for _, field := range []string{`"ParticipantId":"p1"`, `"AcquiredAt"`, `"ExpiresAt"`, `"Metadata"`} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("wire form missing %s: %s", field, data)
		}
	}

	decoded, err := DecodeLeaderInfo(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.ParticipantID != "p1" {
		t.Fatalf("want p1, got %s", decoded.ParticipantID)
	}
	if !decoded.AcquiredAt.Equal(info.AcquiredAt) || !decoded.ExpiresAt.Equal(info.ExpiresAt) {
		t.Fatalf("timestamps did not round-trip: %+v vs %+v", decoded, info)
	}
	if decoded.Metadata["host"] != "node-a" {
		t.Fatalf("metadata did not round-trip: %v", decoded.Metadata)
	}
}

func TestLeaderInfoOmitsEmptyMetadata(t *testing.T) {
	info := NewLeaderInfo("p1", time.Now(), time.Minute, nil)
	data, err := EncodeLeaderInfo(info)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if strings.Contains(string(data), "Metadata") {
		t.Fatalf("empty metadata must be omitted: %s", data)
	}
}

func TestLeaderInfoValidity(t *testing.T) {
	now := time.Now()
	info := NewLeaderInfo("p1", now, 5*time.Minute, nil)

	if !info.IsValid(now) {
		t.Fatal("fresh lease must be valid")
	}
	if info.IsValid(now.Add(5 * time.Minute)) {
		t.Fatal("lease must expire at its deadline")
	}
	if got := info.TimeToExpiry(now); got != 5*time.Minute {
		t.Fatalf("want 5m to expiry, got %v", got)
	}
	if got := info.TimeToExpiry(now.Add(6 * time.Minute)); got >= 0 {
		t.Fatalf("expired lease must report negative expiry, got %v", got)
	}
}

func TestLeaderInfoClone(t *testing.T) {
	info := NewLeaderInfo("p1", time.Now(), time.Minute, map[string]string{"k": "v"})
	clone := info.Clone()
	clone.Metadata["k"] = "mutated"
	if info.Metadata["k"] != "v" {
		t.Fatal("clone must not share metadata")
	}

	var nilInfo *LeaderInfo
	if nilInfo.Clone() != nil {
		t.Fatal("cloning nil must yield nil")
	}
}

func TestHolderFragment(t *testing.T) {
	frag, err := HolderFragment("p1")
	if err != nil {
		t.Fatalf("HolderFragment failed: %v", err)
	}
	if frag != `"ParticipantId":"p1"` {
		t.Fatalf("unexpected fragment: %s", frag)
	}

	// The fragment must appear verbatim in the encoded record so
	// substring holder checks work.
	data, err := EncodeLeaderInfo(NewLeaderInfo("p1", time.Now(), time.Minute, nil))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(string(data), frag) {
		t.Fatalf("fragment %s not found in %s", frag, data)
	}

	// Participants with JSON-special characters stay consistent between
	// fragment and record.
	quoted := `p"quoted"`
	frag, err = HolderFragment(quoted)
	if err != nil {
		t.Fatalf("HolderFragment failed: %v", err)
	}
	data, err = EncodeLeaderInfo(NewLeaderInfo(quoted, time.Now(), time.Minute, nil))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(string(data), frag) {
		t.Fatalf("fragment %s not found in %s", frag, data)
	}
}

func TestEncodeNil(t *testing.T) {
	if _, err := EncodeLeaderInfo(nil); err == nil {
		t.Fatal("encoding nil must fail")
	}
	if _, err := DecodeLeaderInfo([]byte("not json")); err == nil {
		t.Fatal("decoding garbage must fail")
	}
}
