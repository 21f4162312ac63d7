package protocol

import (
	"encoding/binary"
	"fmt"
)

// Wire frame layout, fixed for interop with the server-side decoder:
//
//	byte 0    magic constant
//	byte 1    frame type
//	bytes 2-3 sequence number, big-endian
//	bytes 4-5 sample count, big-endian
//	bytes 6-7 checksum, big-endian
//	bytes 8-  sample payload, int16 little-endian, acquisition order
const (
	FrameMagic     = 0xA5
	FrameTypeAudio = 0x01

	HeaderSize = 8
)

// FrameHeader is the fixed preamble of every binary wire unit.
type FrameHeader struct {
	Magic       byte
	Type        byte
	Sequence    uint16
	SampleCount uint16
	Checksum    uint16
}

// Checksum sums the absolute sample values modulo 2^16.
func Checksum(samples []int16) uint16 {
	var sum uint32
	for _, s := range samples {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		sum += uint32(v)
	}
	return uint16(sum)
}

// AppendAudioFrame assembles header plus payload into dst and returns the
// extended slice. dst is typically a preallocated buffer sliced to zero
// length, so steady-state framing allocates nothing.
func AppendAudioFrame(dst []byte, seq uint16, samples []int16) []byte {
	var hdr [HeaderSize]byte
	hdr[0] = FrameMagic
	hdr[1] = FrameTypeAudio
	binary.BigEndian.PutUint16(hdr[2:4], seq)
	binary.BigEndian.PutUint16(hdr[4:6], uint16(len(samples)))
	binary.BigEndian.PutUint16(hdr[6:8], Checksum(samples))

	dst = append(dst, hdr[:]...)
	for _, s := range samples {
		dst = append(dst, byte(uint16(s)), byte(uint16(s)>>8))
	}
	return dst
}

// DecodeAudioFrame parses a wire unit back into its header and samples. It
// verifies magic, type, sample count and checksum, so the server side (and
// tests) can rely on a decoded frame being internally consistent.
func DecodeAudioFrame(data []byte) (FrameHeader, []int16, error) {
	if len(data) < HeaderSize {
		return FrameHeader{}, nil, fmt.Errorf("frame too short: %d bytes", len(data))
	}

	hdr := FrameHeader{
		Magic:       data[0],
		Type:        data[1],
		Sequence:    binary.BigEndian.Uint16(data[2:4]),
		SampleCount: binary.BigEndian.Uint16(data[4:6]),
		Checksum:    binary.BigEndian.Uint16(data[6:8]),
	}

	if hdr.Magic != FrameMagic {
		return hdr, nil, fmt.Errorf("bad magic 0x%02X", hdr.Magic)
	}
	if hdr.Type != FrameTypeAudio {
		return hdr, nil, fmt.Errorf("unknown frame type 0x%02X", hdr.Type)
	}

	payload := data[HeaderSize:]
	if len(payload) != int(hdr.SampleCount)*2 {
		return hdr, nil, fmt.Errorf("sample count %d does not match payload of %d bytes",
			hdr.SampleCount, len(payload))
	}

	samples := make([]int16, hdr.SampleCount)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}

	if got := Checksum(samples); got != hdr.Checksum {
		return hdr, samples, fmt.Errorf("checksum mismatch: header %d, payload %d", hdr.Checksum, got)
	}

	return hdr, samples, nil
}
