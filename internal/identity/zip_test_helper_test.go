package identity

import (
	"archive/zip"
	"os"
	"testing"
)

// writeTestZip creates a single-member zip archive for shortcut tests.
func writeTestZip(t *testing.T, path, memberName string, data []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	member, err := w.Create(memberName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := member.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
