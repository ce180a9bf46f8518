/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package flat

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Vector file layout, little endian:
//
//	magic    [4]byte "TKRV"
//	version  uint32
//	dim      uint32
//	count    uint32
//	modelLen uint16, then modelLen bytes of model id
//	digest   [32]byte SHA-256 of the records file
//	vectors  count*dim float32, row-major, unit length
var magic = [4]byte{'T', 'K', 'R', 'V'}

const formatVersion uint32 = 1

type header struct {
	Dim     int
	Count   int
	ModelID string
	Digest  [sha256.Size]byte
}

func encodeVectors(h header, vectors []float32) ([]byte, error) {
	if len(vectors) != h.Count*h.Dim {
		return nil, fmt.Errorf("vector length mismatch: got %d want %d", len(vectors), h.Count*h.Dim)
	}
	if len(h.ModelID) > math.MaxUint16 {
		return nil, fmt.Errorf("model id too long: %d bytes", len(h.ModelID))
	}

	var buf bytes.Buffer
	buf.Grow(4 + 12 + 2 + len(h.ModelID) + sha256.Size + 4*len(vectors))
	buf.Write(magic[:])
	fixed := []uint32{formatVersion, uint32(h.Dim), uint32(h.Count)}
	if err := binary.Write(&buf, binary.LittleEndian, fixed); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(h.ModelID))); err != nil {
		return nil, err
	}
	buf.WriteString(h.ModelID)
	buf.Write(h.Digest[:])
	if err := binary.Write(&buf, binary.LittleEndian, vectors); err != nil {
		return nil, fmt.Errorf("cannot write vectors: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeHeader(r io.Reader) (header, error) {
	var h header

	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return h, fmt.Errorf("cannot read magic: %w", err)
	}
	if m != magic {
		return h, fmt.Errorf("not a token index file")
	}

	var fixed [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return h, fmt.Errorf("cannot read header: %w", err)
	}
	if fixed[0] != formatVersion {
		return h, fmt.Errorf("unsupported index format version %d", fixed[0])
	}
	h.Dim, h.Count = int(fixed[1]), int(fixed[2])

	var modelLen uint16
	if err := binary.Read(r, binary.LittleEndian, &modelLen); err != nil {
		return h, fmt.Errorf("cannot read model id: %w", err)
	}
	model := make([]byte, modelLen)
	if _, err := io.ReadFull(r, model); err != nil {
		return h, fmt.Errorf("cannot read model id: %w", err)
	}
	h.ModelID = string(model)

	if _, err := io.ReadFull(r, h.Digest[:]); err != nil {
		return h, fmt.Errorf("cannot read records digest: %w", err)
	}
	return h, nil
}

func decodeVectors(data []byte) (header, []float32, error) {
	r := bytes.NewReader(data)
	h, err := decodeHeader(r)
	if err != nil {
		return h, nil, err
	}

	expected := int64(h.Count) * int64(h.Dim) * 4
	if int64(r.Len()) != expected {
		return h, nil, fmt.Errorf("vector data size mismatch: got %d want %d (count=%d dim=%d)",
			r.Len(), expected, h.Count, h.Dim)
	}
	vectors := make([]float32, h.Count*h.Dim)
	if err := binary.Read(r, binary.LittleEndian, vectors); err != nil {
		return h, nil, fmt.Errorf("cannot read vectors: %w", err)
	}
	return h, vectors, nil
}
