package chd

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

// buildV5Header assembles a minimal valid CHD v5 header.
func buildV5Header(rawSHA1, sha1, parentSHA1 [20]byte) []byte {
	header := make([]byte, headerSize)
	copy(header[0:8], "MComprHD")
	binary.BigEndian.PutUint32(header[8:12], headerSize)
	binary.BigEndian.PutUint32(header[12:16], 5)
	binary.BigEndian.PutUint32(header[16:20], CodecZstd)
	binary.BigEndian.PutUint64(header[32:40], 8*4096) // logical bytes
	binary.BigEndian.PutUint32(header[56:60], 4096)   // hunk bytes
	binary.BigEndian.PutUint32(header[60:64], 2448)   // unit bytes (CD-ROM)
	copy(header[rawSHA1Offset:], rawSHA1[:])
	copy(header[sha1Offset:], sha1[:])
	copy(header[parentSHA1Offset:], parentSHA1[:])
	return header
}

func TestParseCHDHeader(t *testing.T) {
	var raw, compressed, parent [20]byte
	for i := range raw {
		raw[i] = byte(i + 1)
		compressed[i] = byte(0xA0 + i)
	}

	info, err := ParseCHDHeader(bytes.NewReader(buildV5Header(raw, compressed, parent)))
	if err != nil {
		t.Fatalf("ParseCHDHeader() error = %v", err)
	}

	if info.Version != 5 {
		t.Errorf("Version = %d, want 5", info.Version)
	}
	if info.RawSHA1 != "0102030405060708090A0B0C0D0E0F1011121314" {
		t.Errorf("RawSHA1 = %s", info.RawSHA1)
	}
	if !strings.HasPrefix(info.SHA1, "A0A1A2") {
		t.Errorf("SHA1 = %s", info.SHA1)
	}
	// Parent SHA1 is all zeros: standalone image.
	if info.ParentSHA1 != "" {
		t.Errorf("ParentSHA1 = %q, want empty", info.ParentSHA1)
	}
	if info.TotalHunks != 8 {
		t.Errorf("TotalHunks = %d, want 8", info.TotalHunks)
	}
	if !info.IsCompressed() {
		t.Error("IsCompressed() = false for a zstd CHD")
	}
	if !info.IsCDROM() {
		t.Error("IsCDROM() = false for 2448-byte units")
	}
}

func TestParseCHDHeader_Rejects(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		header := buildV5Header([20]byte{}, [20]byte{}, [20]byte{})
		copy(header[0:8], "NotAChd!")
		if _, err := ParseCHDHeader(bytes.NewReader(header)); err == nil {
			t.Error("expected an error for invalid magic")
		}
	})
	t.Run("old version", func(t *testing.T) {
		header := buildV5Header([20]byte{}, [20]byte{}, [20]byte{})
		binary.BigEndian.PutUint32(header[12:16], 4)
		if _, err := ParseCHDHeader(bytes.NewReader(header)); err == nil {
			t.Error("expected an error for a v4 header")
		}
	})
	t.Run("truncated", func(t *testing.T) {
		if _, err := ParseCHDHeader(bytes.NewReader([]byte("MComprHD"))); err == nil {
			t.Error("expected an error for a truncated header")
		}
	})
}
