package id3

import (
	"encoding/binary"
	"os"
)

// mpeg1Layer3Bitrates maps the frame header bitrate index to kbit/s.
var mpeg1Layer3Bitrates = [...]int{
	0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320,
}

// sniffDuration estimates the track length in seconds from the first
// MPEG audio frame header, assuming constant bitrate. Returns 0 when
// the stream cannot be read; the value is display-only.
func sniffDuration(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	offset := 0
	if len(data) > 10 && string(data[:3]) == "ID3" {
		// syncsafe tag size at bytes 6-9
		size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
		offset = 10 + size
	}

	for i := offset; i+4 < len(data); i++ {
		header := binary.BigEndian.Uint32(data[i : i+4])
		if header&0xFFE00000 != 0xFFE00000 {
			continue
		}
		version := header >> 19 & 0x3
		layer := header >> 17 & 0x3
		if version != 0x3 || layer != 0x1 { // MPEG-1 Layer III only
			continue
		}
		index := int(header >> 12 & 0xF)
		if index <= 0 || index >= len(mpeg1Layer3Bitrates) {
			return 0
		}
		bitrate := mpeg1Layer3Bitrates[index] * 1000
		audioBytes := len(data) - i
		return audioBytes * 8 / bitrate
	}
	return 0
}
