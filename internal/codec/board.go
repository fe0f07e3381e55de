// Package codec encodes board positions for the wire: one size byte followed
// by a raw deflate stream of row-major cell bytes, base64url encoded.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"goarena/internal/domain/board"
)

// dictionary primes the compressor with the three cell values.
var dictionary = []byte{byte(board.Black), byte(board.White), byte(board.Empty)}

var ErrCorruptState = errors.New("corrupt board state")

func EncodeBoard(b *board.Board) (string, error) {
	size := b.Size()
	if size > 255 {
		return "", fmt.Errorf("codec: board size %d does not fit a byte", size)
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(size))

	w, err := flate.NewWriterDict(&buf, flate.BestCompression, dictionary)
	if err != nil {
		return "", fmt.Errorf("codec: new writer: %w", err)
	}
	cells := b.Cells()
	raw := make([]byte, len(cells))
	for i, c := range cells {
		raw[i] = byte(c)
	}
	if _, err = w.Write(raw); err != nil {
		return "", fmt.Errorf("codec: compress: %w", err)
	}
	if err = w.Close(); err != nil {
		return "", fmt.Errorf("codec: compress: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeBoard rebuilds a board from EncodeBoard output. Any malformed payload
// yields ErrCorruptState and no partial board.
func DecodeBoard(state string) (*board.Board, error) {
	data, err := base64.URLEncoding.DecodeString(state)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrCorruptState, err)
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: payload too short", ErrCorruptState)
	}
	size := int(data[0])
	if size == 0 {
		return nil, fmt.Errorf("%w: zero size", ErrCorruptState)
	}

	r := flate.NewReaderDict(bytes.NewReader(data[1:]), dictionary)
	defer r.Close()

	raw := make([]byte, size*size)
	if _, err = io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: inflate: %v", ErrCorruptState, err)
	}
	// trailing cells mean the size byte lies
	if n, _ := r.Read(make([]byte, 1)); n != 0 {
		return nil, fmt.Errorf("%w: trailing data", ErrCorruptState)
	}

	cells := make([]board.Color, len(raw))
	for i, v := range raw {
		cells[i] = board.Color(v)
	}
	b, err := board.FromCells(size, cells)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return b, nil
}
