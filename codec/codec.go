// Package codec serializes tensors into a self-describing binary frame.
//
// The frame is a breaking-change boundary: bytes written by one frame
// version may no longer decode after a format change, so the version lives
// in the magic.
//
// Frame layout (all integers little-endian):
//
//	magic      [4]byte  "PGT1"
//	compress   uint8    compression algorithm for the payload
//	batch      uint32
//	nspatial   uint8
//	spatial    [nspatial]uint32
//	channels   uint32
//	payload    block-compressed float32 data
//	checksum   uint32   CRC32C over everything before it
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/permgo/internal/hash"
	"github.com/hupe1980/permgo/tensor"
)

var magic = [4]byte{'P', 'G', 'T', '1'}

var (
	// ErrBadMagic is returned when the frame does not start with the
	// expected magic bytes.
	ErrBadMagic = errors.New("codec: bad magic")

	// ErrChecksum is returned when the frame checksum does not match.
	ErrChecksum = errors.New("codec: checksum mismatch")

	// ErrTruncated is returned when the frame is shorter than its header
	// claims.
	ErrTruncated = errors.New("codec: truncated frame")
)

// Encode serializes a tensor into a framed byte slice.
func Encode(t *tensor.Tensor, compression CompressionType) ([]byte, error) {
	if t == nil {
		return nil, errors.New("codec: nil tensor")
	}

	shape := t.Shape()
	data := t.Data()

	payload := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(v))
	}

	compressed, err := compressBlock(payload, compression)
	if err != nil {
		return nil, fmt.Errorf("codec: compress payload: %w", err)
	}

	headerSize := 4 + 1 + 4 + 1 + 4*len(shape.Spatial) + 4
	frame := make([]byte, 0, headerSize+len(compressed)+4)

	frame = append(frame, magic[:]...)
	frame = append(frame, byte(compression))
	frame = binary.LittleEndian.AppendUint32(frame, uint32(shape.Batch))
	frame = append(frame, byte(len(shape.Spatial)))
	for _, d := range shape.Spatial {
		frame = binary.LittleEndian.AppendUint32(frame, uint32(d))
	}
	frame = binary.LittleEndian.AppendUint32(frame, uint32(shape.Channels))
	frame = append(frame, compressed...)
	frame = binary.LittleEndian.AppendUint32(frame, hash.CRC32C(frame))

	return frame, nil
}

// Decode deserializes a framed byte slice back into a tensor.
func Decode(frame []byte) (*tensor.Tensor, error) {
	if len(frame) < 4+1+4+1+4+4 {
		return nil, ErrTruncated
	}
	if [4]byte(frame[:4]) != magic {
		return nil, ErrBadMagic
	}

	body := frame[:len(frame)-4]
	sum := binary.LittleEndian.Uint32(frame[len(frame)-4:])
	if hash.CRC32C(body) != sum {
		return nil, ErrChecksum
	}

	compression := CompressionType(frame[4])
	off := 5

	batch := int(binary.LittleEndian.Uint32(frame[off:]))
	off += 4

	nspatial := int(frame[off])
	off++
	if len(body) < off+4*nspatial+4 {
		return nil, ErrTruncated
	}

	spatial := make([]int, nspatial)
	for i := range spatial {
		spatial[i] = int(binary.LittleEndian.Uint32(frame[off:]))
		off += 4
	}

	channels := int(binary.LittleEndian.Uint32(frame[off:]))
	off += 4

	shape := tensor.Shape{Batch: batch, Spatial: spatial, Channels: channels}
	if !shape.Valid() {
		return nil, fmt.Errorf("codec: invalid shape %s", shape)
	}

	payload, err := decompressBlock(body[off:], compression)
	if err != nil {
		return nil, fmt.Errorf("codec: decompress payload: %w", err)
	}
	if len(payload) != shape.Elements()*4 {
		return nil, ErrTruncated
	}

	data := make([]float32, shape.Elements())
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}

	return tensor.FromSlice(shape, data)
}
