// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/console/lib/codec"
	"github.com/bureau-foundation/console/lib/syncstate"
)

const (
	// Magic opens every snapshot file.
	Magic = "BCSN"

	// Version is the format version Write produces and Read accepts.
	Version = 1

	// HeaderSize is the fixed header length in bytes.
	HeaderSize = len(Magic) + 1 + 1 + 8 + blake3Size

	// MaxPayloadSize bounds the uncompressed payload Read will accept.
	MaxPayloadSize = 1 << 30

	blake3Size = 32
)

var (
	// ErrNotSnapshot is returned when the magic bytes do not match.
	ErrNotSnapshot = errors.New("snapshot: not a snapshot file")

	// ErrChecksum is returned when the payload does not hash to the
	// header checksum.
	ErrChecksum = errors.New("snapshot: checksum mismatch")
)

// Header describes a snapshot payload.
type Header struct {
	Version     uint8
	Compression Compression
	Size        uint64
	Checksum    [blake3Size]byte
}

// Write encodes snapshot and writes it to w. It returns the header it
// wrote, whose Compression may be CompressionNone when the requested
// compression did not help.
func Write(w io.Writer, snapshot syncstate.Snapshot, compression Compression) (Header, error) {
	data, err := codec.Marshal(snapshot)
	if err != nil {
		return Header{}, fmt.Errorf("snapshot: encoding: %w", err)
	}

	payload, err := compress(data, compression)
	if errors.Is(err, errIncompressible) {
		payload, compression = data, CompressionNone
	} else if err != nil {
		return Header{}, err
	}

	header := Header{
		Version:     Version,
		Compression: compression,
		Size:        uint64(len(data)),
		Checksum:    blake3.Sum256(data),
	}
	if _, err := w.Write(header.marshal()); err != nil {
		return Header{}, fmt.Errorf("snapshot: writing header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return Header{}, fmt.Errorf("snapshot: writing payload: %w", err)
	}
	return header, nil
}

// Read reads and verifies one snapshot from r, consuming r to EOF.
func Read(r io.Reader) (syncstate.Snapshot, Header, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return syncstate.Snapshot{}, Header{}, err
	}

	payload, err := io.ReadAll(io.LimitReader(r, MaxPayloadSize+1))
	if err != nil {
		return syncstate.Snapshot{}, header, fmt.Errorf("snapshot: reading payload: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return syncstate.Snapshot{}, header, fmt.Errorf("snapshot: payload exceeds %d bytes", MaxPayloadSize)
	}

	data, err := decompress(payload, header.Compression, int(header.Size))
	if err != nil {
		return syncstate.Snapshot{}, header, err
	}
	if blake3.Sum256(data) != header.Checksum {
		return syncstate.Snapshot{}, header, ErrChecksum
	}

	var snapshot syncstate.Snapshot
	if err := codec.Unmarshal(data, &snapshot); err != nil {
		return syncstate.Snapshot{}, header, fmt.Errorf("snapshot: decoding: %w", err)
	}
	return snapshot, header, nil
}

// ReadHeader reads and validates the fixed header.
func ReadHeader(r io.Reader) (Header, error) {
	buffer := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buffer); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, fmt.Errorf("%w: truncated header", ErrNotSnapshot)
		}
		return Header{}, fmt.Errorf("snapshot: reading header: %w", err)
	}
	if !bytes.Equal(buffer[:len(Magic)], []byte(Magic)) {
		return Header{}, ErrNotSnapshot
	}

	offset := len(Magic)
	header := Header{
		Version:     buffer[offset],
		Compression: Compression(buffer[offset+1]),
		Size:        binary.BigEndian.Uint64(buffer[offset+2 : offset+10]),
	}
	copy(header.Checksum[:], buffer[offset+10:])

	if header.Version != Version {
		return Header{}, fmt.Errorf("snapshot: unsupported format version %d", header.Version)
	}
	if header.Compression > CompressionZstd {
		return Header{}, fmt.Errorf("snapshot: unsupported compression %s", header.Compression)
	}
	if header.Size > MaxPayloadSize {
		return Header{}, fmt.Errorf("snapshot: payload size %d exceeds %d bytes", header.Size, MaxPayloadSize)
	}
	return header, nil
}

func (h Header) marshal() []byte {
	buffer := make([]byte, 0, HeaderSize)
	buffer = append(buffer, Magic...)
	buffer = append(buffer, h.Version, byte(h.Compression))
	buffer = binary.BigEndian.AppendUint64(buffer, h.Size)
	return append(buffer, h.Checksum[:]...)
}
