package imageutil

import (
	"bytes"
	"encoding/binary"

	"github.com/rwcarlsen/goexif/exif"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// readOrientation returns the EXIF orientation stored in an encoded image,
// or 1 when there is none. Missing or malformed metadata leaves the image as
// stored.
func readOrientation(format string, b []byte) int {
	payload := exifPayload(format, b)
	if len(payload) == 0 {
		return 1
	}
	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		return 1
	}
	return orientation
}

// exifPayload locates the EXIF block of an encoded image in a form the exif
// decoder reads: a whole JPEG or TIFF file, or the bare TIFF structure stored
// in PNG and WebP chunks.
func exifPayload(format string, b []byte) []byte {
	switch format {
	case "jpeg", "tiff":
		return b
	case "png":
		data, _ := pngChunk(b, "eXIf")
		return data
	case "webp":
		data, _ := riffChunk(b, "EXIF")
		return bytes.TrimPrefix(data, []byte("Exif\x00\x00"))
	}
	return nil
}

func isAnimatedPNG(b []byte) bool {
	_, ok := pngChunk(b, "acTL")
	return ok
}

// pngChunk returns the data of the first chunk of the given type.
func pngChunk(b []byte, chunkType string) ([]byte, bool) {
	if !bytes.HasPrefix(b, pngSignature) {
		return nil, false
	}
	for off := len(pngSignature); off+8 <= len(b); {
		length := int(binary.BigEndian.Uint32(b[off:]))
		typ := string(b[off+4 : off+8])
		start := off + 8
		end := start + length
		if length < 0 || end+4 > len(b) {
			return nil, false
		}
		if typ == chunkType {
			return b[start:end], true
		}
		if typ == "IEND" {
			return nil, false
		}
		off = end + 4 // crc
	}
	return nil, false
}

// riffChunk returns the data of the first top-level chunk of a RIFF container
// such as WebP.
func riffChunk(b []byte, fourCC string) ([]byte, bool) {
	if len(b) < 12 || string(b[:4]) != "RIFF" {
		return nil, false
	}
	for off := 12; off+8 <= len(b); {
		length := int(binary.LittleEndian.Uint32(b[off+4:]))
		start := off + 8
		end := start + length
		if length < 0 || end > len(b) {
			return nil, false
		}
		if string(b[off:off+4]) == fourCC {
			return b[start:end], true
		}
		off = end + length%2 // chunks are padded to even sizes
	}
	return nil, false
}
