// Package image loads boot images for the machine.
//
// A boot image is a sequence of 32-bit words stored big-endian. The
// loader normalizes byte order, enforces a size cap, and transparently
// decompresses zstd-packed images (".zst" suffix). It also computes a
// BLAKE3 fingerprint so runs can identify the exact image they booted.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/cbv/um32/internal/types"
)

// MaxImageSize is the maximum accepted image size in bytes, after
// decompression.
const MaxImageSize = 256 * 1024 * 1024

// Loader errors.
var (
	ErrTruncated = errors.New("image is not a whole number of 32-bit words")
	ErrEmpty     = errors.New("image is empty")
	ErrTooLarge  = errors.New("image too large")
)

// Load reads a boot image from disk. Files ending in .zst are
// decompressed first.
func Load(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		decoder, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer decoder.Close()
		r = decoder
	}

	return Read(r)
}

// Read decodes a stream of big-endian 32-bit words.
func Read(r io.Reader) ([]uint32, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, MaxImageSize)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(data[i*4:])
	}
	return words, nil
}

// Fingerprint computes the BLAKE3 digest of an image's word sequence.
// The digest is taken over the big-endian byte form, so it matches the
// on-disk representation of an uncompressed image.
func Fingerprint(words []uint32) types.Fingerprint {
	h := blake3.New()
	var buf [4]byte
	for _, w := range words {
		binary.BigEndian.PutUint32(buf[:], w)
		h.Write(buf[:])
	}
	var f types.Fingerprint
	copy(f[:], h.Sum(nil))
	return f
}
