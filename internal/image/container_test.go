package image

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestCompiledContainerRoundTrip(t *testing.T) {
	img := &Compiled{
		Target:   "falcon-r1",
		Capacity: 4096,
		Data:     []byte{0xde, 0xad, 0xbe, 0xef},
	}

	var buf bytes.Buffer
	if err := EncodeCompiled(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeCompiled(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Target != img.Target || got.Capacity != img.Capacity || !bytes.Equal(got.Data, img.Data) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLinkedContainerRoundTrip(t *testing.T) {
	img := &Linked{Target: "falcon-r1", Consumed: 12, Data: []byte{1, 2, 3}}

	var buf bytes.Buffer
	if err := EncodeLinked(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeLinked(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Consumed != 12 || !bytes.Equal(got.Data, img.Data) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDecodeRejectsWrongKind(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeCompiled(&buf, &Compiled{Data: []byte{1}}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeLinked(&buf); err == nil || !strings.Contains(err.Error(), "kind") {
		t.Fatalf("expected kind mismatch error, got %v", err)
	}
}

func TestDecodeRejectsUnknownSchema(t *testing.T) {
	var buf bytes.Buffer
	env := envelope{
		Magic:  containerMagic,
		Schema: ContainerSchema + 1,
		Kind:   kindCompiled,
		Data:   []byte{1},
	}
	if err := msgpack.NewEncoder(&buf).Encode(&env); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeCompiled(&buf); err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("expected schema mismatch error, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeCompiled(bytes.NewReader([]byte("not msgpack at all"))); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seq.qei")

	img := &Compiled{Target: "t", Capacity: 1024, Data: make([]byte, 256)}
	img.Data[10] = 0x7f
	if err := WriteCompiledFile(path, img); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadCompiledFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Size() != 256 || got.Data[10] != 0x7f {
		t.Fatalf("file round trip mismatch")
	}
}

func TestReadCompiledFileMissing(t *testing.T) {
	if _, err := ReadCompiledFile(filepath.Join(t.TempDir(), "missing.qei")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
