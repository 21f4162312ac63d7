package protocol

import "testing"

func TestEncodeLegacyAudio(t *testing.T) {
	samples := []int16{10, 20, 30, 40, 50, 60, 70, 80}

	encoded := EncodeLegacyAudio(samples, 44100, 4)

	pkt, err := DecodeLegacyAudio([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeLegacyAudio() error = %v", err)
	}
	if pkt.Type != "audio" {
		t.Errorf("Type = %q, want audio", pkt.Type)
	}
	if pkt.Format != "pcm" {
		t.Errorf("Format = %q, want pcm", pkt.Format)
	}
	if pkt.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", pkt.SampleRate)
	}

	// Stride 4 keeps samples 0 and 4 only.
	want := []int16{10, 50}
	if len(pkt.Data) != len(want) {
		t.Fatalf("Data length = %d, want %d", len(pkt.Data), len(want))
	}
	for i := range want {
		if pkt.Data[i] != want[i] {
			t.Errorf("Data[%d] = %d, want %d", i, pkt.Data[i], want[i])
		}
	}
}

func TestEncodeLegacyAudio_StrideBelowOne(t *testing.T) {
	encoded := EncodeLegacyAudio([]int16{1, 2, 3}, 16000, 0)

	pkt, err := DecodeLegacyAudio([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeLegacyAudio() error = %v", err)
	}
	if len(pkt.Data) != 3 {
		t.Errorf("Data length = %d, want 3 (stride clamped to 1)", len(pkt.Data))
	}
}

func TestEncodeLegacyAudio_Empty(t *testing.T) {
	encoded := EncodeLegacyAudio(nil, 16000, 4)

	pkt, err := DecodeLegacyAudio([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeLegacyAudio() error = %v", err)
	}
	if len(pkt.Data) != 0 {
		t.Errorf("Data length = %d, want 0", len(pkt.Data))
	}
}
