package archive

import (
	"encoding/binary"
	"fmt"

	"tilecanvas/pixops"

	"github.com/klauspost/compress/zstd"
)

const tileBytes = pixops.TileSize * pixops.TileSize * 4 * 2

// Encoder and decoder are safe for concurrent EncodeAll and DecodeAll.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// encodeTile returns the samples of t as compressed little-endian uint16.
func encodeTile(t *pixops.Tile) []byte {
	raw := make([]byte, 0, tileBytes)
	for _, v := range t {
		raw = binary.LittleEndian.AppendUint16(raw, v)
	}
	return encoder.EncodeAll(raw, nil)
}

func decodeTile(t *pixops.Tile, data []byte) error {
	raw, err := decoder.DecodeAll(data, make([]byte, 0, tileBytes))
	if err != nil {
		return fmt.Errorf("decompress tile: %w", err)
	}
	if len(raw) != tileBytes {
		return fmt.Errorf("tile holds %d bytes, want %d", len(raw), tileBytes)
	}
	for i := range t {
		t[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return nil
}
