package image

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Container schema version - increment when the envelope format changes.
const ContainerSchema uint16 = 1

// containerMagic guards against feeding arbitrary files to the decoder.
const containerMagic = "QEI"

const (
	kindCompiled uint8 = 1
	kindLinked   uint8 = 2
)

// envelope is the msgpack wire form shared by compiled and linked
// images.
type envelope struct {
	Magic    string
	Schema   uint16
	Kind     uint8
	Target   string
	Capacity uint32
	Consumed uint32
	Data     []byte
}

func decodeEnvelope(r io.Reader, wantKind uint8) (*envelope, error) {
	dec := msgpack.NewDecoder(r)
	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, err
	}
	if env.Magic != containerMagic {
		return nil, fmt.Errorf("not an image container (bad magic %q)", env.Magic)
	}
	if env.Schema != ContainerSchema {
		return nil, fmt.Errorf("unsupported container schema %d (want %d)", env.Schema, ContainerSchema)
	}
	if env.Kind != wantKind {
		return nil, fmt.Errorf("wrong container kind %d (want %d)", env.Kind, wantKind)
	}
	return &env, nil
}

// EncodeCompiled writes a compiled image container.
func EncodeCompiled(w io.Writer, img *Compiled) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&envelope{
		Magic:    containerMagic,
		Schema:   ContainerSchema,
		Kind:     kindCompiled,
		Target:   img.Target,
		Capacity: img.Capacity,
		Data:     img.Data,
	})
}

// DecodeCompiled reads a compiled image container.
func DecodeCompiled(r io.Reader) (*Compiled, error) {
	env, err := decodeEnvelope(r, kindCompiled)
	if err != nil {
		return nil, err
	}
	return &Compiled{Target: env.Target, Capacity: env.Capacity, Data: env.Data}, nil
}

// EncodeLinked writes a linked image container.
func EncodeLinked(w io.Writer, img *Linked) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&envelope{
		Magic:    containerMagic,
		Schema:   ContainerSchema,
		Kind:     kindLinked,
		Target:   img.Target,
		Consumed: img.Consumed,
		Data:     img.Data,
	})
}

// DecodeLinked reads a linked image container.
func DecodeLinked(r io.Reader) (*Linked, error) {
	env, err := decodeEnvelope(r, kindLinked)
	if err != nil {
		return nil, err
	}
	return &Linked{Target: env.Target, Consumed: env.Consumed, Data: env.Data}, nil
}

// ReadCompiledFile loads a compiled image container from disk.
func ReadCompiledFile(path string) (*Compiled, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := DecodeCompiled(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// WriteCompiledFile stores a compiled image container on disk.
func WriteCompiledFile(path string, img *Compiled) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeCompiled(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// WriteLinkedFile stores a linked image container on disk.
func WriteLinkedFile(path string, img *Linked) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeLinked(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
