package hexline

import (
	"bytes"
	"strings"
	"testing"
)

func TestWrite_AsciiAndHexLines(t *testing.T) {
	var out bytes.Buffer
	if err := Write(&out, bytes.NewReader([]byte("AB")), 0, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[0], " A B") {
		t.Errorf("ascii line = %q, want to contain %q", lines[0], " A B")
	}
	if !strings.Contains(lines[1], "4142") {
		t.Errorf("hex line = %q, want to contain %q", lines[1], "4142")
	}
}

func TestWrite_ByteLimit(t *testing.T) {
	var out bytes.Buffer
	data := bytes.Repeat([]byte{0x41}, 100)
	if err := Write(&out, bytes.NewReader(data), 4, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	// The ascii line stops at exactly byteLimit bytes: " A" * 4.
	if !strings.Contains(lines[0], " A A A A") {
		t.Errorf("ascii line = %q, want to contain 4 repetitions of \" A\"", lines[0])
	}
	if !strings.Contains(lines[1], "41") {
		t.Errorf("hex line = %q, want to contain at least one 41", lines[1])
	}
}

func TestWrite_HexLineGroupsFourByteFields(t *testing.T) {
	var out bytes.Buffer
	data := []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x11, 0x22}
	if err := Write(&out, bytes.NewReader(data), 0, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out.String())
	}
	// A space separates the first 4-byte field (a TIFF byte-order+magic
	// pair, or a RIFF fourCC) from the second (e.g. a chunk size word).
	if !strings.Contains(lines[1], "aabbccdd eeff1122") {
		t.Errorf("hex line = %q, want two 4-byte fields separated by a space", lines[1])
	}
}
