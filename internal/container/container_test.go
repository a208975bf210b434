package container

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sequence(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

func writeSample(t *testing.T, path string, codec Codec) []byte {
	t.Helper()
	w, err := Create(path, WithCodec(codec))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	data := sequence(4 * 5 * 3)
	shape := []uint64{4, 5, 3}
	if err := w.DefineVariable("a.png", shape, []uint64{0, 0, 0}, shape); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}
	if err := w.Put("a.png", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := w.DefineAttribute("metadata", "a.png: cat\n"); err != nil {
		t.Fatalf("DefineAttribute: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return data
}

func TestRoundTripBothCodecs(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecSnappy} {
		t.Run(string(codec), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "images.ivc")
			want := writeSample(t, path, codec)

			r, err := Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer r.Close()

			if names := r.Variables(); len(names) != 1 || names[0] != "a.png" {
				t.Fatalf("unexpected variables %v", names)
			}
			info, err := r.Inquire("a.png")
			if err != nil {
				t.Fatalf("Inquire: %v", err)
			}
			got, err := r.Read("a.png", info.Full())
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Fatal("payload mismatch")
			}
			value, ok := r.Attribute("metadata")
			if !ok || value != "a.png: cat\n" {
				t.Fatalf("unexpected attribute %q ok=%v", value, ok)
			}
			if r.Engine() != engineTag {
				t.Fatalf("unexpected engine %q", r.Engine())
			}
		})
	}
}

func TestReadSubBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.ivc")
	data := writeSample(t, path, CodecSnappy)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	got, err := r.Read("a.png", Selection{Start: []uint64{1, 2, 0}, Count: []uint64{2, 2, 3}})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var want []byte
	for y := 1; y < 3; y++ {
		start := (y*5 + 2) * 3
		want = append(want, data[start:start+6]...)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("sub-box mismatch: got %v want %v", got, want)
	}
}

func TestPartialBlockLeavesZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.ivc")
	w, err := Create(path, WithCodec(CodecNone))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.DefineVariable("half", []uint64{2, 4}, []uint64{0, 2}, []uint64{2, 2}); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}
	if err := w.Put("half", []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	info, _ := r.Inquire("half")
	got, err := r.Read("half", info.Full())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []byte{0, 0, 1, 2, 0, 0, 3, 4}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestWriterValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.ivc")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer w.Abort()

	shape := []uint64{2, 2, 3}
	if err := w.DefineVariable("x", shape, []uint64{0, 0, 0}, shape); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}
	if err := w.DefineVariable("x", shape, []uint64{0, 0, 0}, shape); !errors.Is(err, ErrVariableExists) {
		t.Fatalf("expected ErrVariableExists, got %v", err)
	}
	if err := w.DefineVariable("y", shape, []uint64{1, 0, 0}, shape); !errors.Is(err, ErrSelection) {
		t.Fatalf("expected ErrSelection, got %v", err)
	}
	if err := w.Put("x", []byte{1, 2, 3}); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
	if err := w.Put("missing", nil); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("expected ErrUnknownVariable, got %v", err)
	}
	if err := w.DefineAttribute("metadata", "a"); err != nil {
		t.Fatalf("DefineAttribute: %v", err)
	}
	if err := w.DefineAttribute("metadata", "b"); !errors.Is(err, ErrAttributeExists) {
		t.Fatalf("expected ErrAttributeExists, got %v", err)
	}
}

func TestAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "images.ivc")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	shape := []uint64{1, 1, 3}
	if err := w.DefineVariable("x", shape, []uint64{0, 0, 0}, shape); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}
	if err := w.Put("x", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir after abort, found %d entries", len(entries))
	}
}

func TestOpenRejectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.ivc")
	writeSample(t, path, CodecSnappy)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	cases := map[string]func([]byte) []byte{
		"header": func(b []byte) []byte { b[0] = 'X'; return b },
		"footer": func(b []byte) []byte { b[len(b)-1] = 0; return b },
		"index":  func(b []byte) []byte { b[len(b)-footerSize-1] ^= 0xff; return b },
		"short":  func(b []byte) []byte { return b[:10] },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			corrupt := filepath.Join(t.TempDir(), "bad.ivc")
			if err := os.WriteFile(corrupt, mutate(append([]byte(nil), raw...)), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := Open(corrupt); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestReadDetectsBlockCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.ivc")
	writeSample(t, path, CodecNone)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[len(magic)+3] ^= 0xff
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	info, _ := r.Inquire("a.png")
	if _, err := r.Read("a.png", info.Full()); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestReadRejectsOutOfBoundsSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.ivc")
	writeSample(t, path, CodecSnappy)
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	_, err = r.Read("a.png", Selection{Start: []uint64{3, 0, 0}, Count: []uint64{2, 5, 3}})
	if !errors.Is(err, ErrSelection) {
		t.Fatalf("expected ErrSelection, got %v", err)
	}
	if _, err := r.Read("nope", Selection{}); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("expected ErrUnknownVariable, got %v", err)
	}
}
