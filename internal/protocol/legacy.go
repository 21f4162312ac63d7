package protocol

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LegacyAudioPacket is the JSON wire format some server deployments still
// expect: samples inlined as a decimal array. The binary frame is canonical;
// this encoder exists only for interop with receivers that predate it.
type LegacyAudioPacket struct {
	Type       string  `json:"type"`
	Format     string  `json:"format"`
	SampleRate int     `json:"sampleRate"`
	Data       []int16 `json:"data"`
}

// EncodeLegacyAudio renders a block of samples as the legacy JSON packet,
// thinning to every strideth sample the way the firmware did to keep packet
// sizes down. stride values below 1 are treated as 1.
func EncodeLegacyAudio(samples []int16, sampleRate, stride int) string {
	if stride < 1 {
		stride = 1
	}

	var sb strings.Builder
	sb.WriteString(`{"type":"audio","format":"pcm","sampleRate":`)
	sb.WriteString(strconv.Itoa(sampleRate))
	sb.WriteString(`,"data":[`)
	for i := 0; i < len(samples); i += stride {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(samples[i])))
	}
	sb.WriteString("]}")
	return sb.String()
}

// DecodeLegacyAudio parses a legacy JSON packet, for receiver-side use.
func DecodeLegacyAudio(data []byte) (LegacyAudioPacket, error) {
	var pkt LegacyAudioPacket
	err := json.Unmarshal(data, &pkt)
	return pkt, err
}
