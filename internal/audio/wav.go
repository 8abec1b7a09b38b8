package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"tunespot/internal/domain"
)

const wavMimeType = "audio/wav"

var errEmptyRecording = errors.New("recording captured no audio")

// writeWAV encodes interleaved 16-bit samples into a temporary WAV file.
func writeWAV(dir string, samples []int, sampleRate int, channels int) (domain.AudioAsset, error) {
	if len(samples) == 0 {
		return domain.AudioAsset{}, errEmptyRecording
	}

	f, err := os.CreateTemp(dir, "tunespot-*.wav")
	if err != nil {
		return domain.AudioAsset{}, fmt.Errorf("failed to create recording file: %w", err)
	}
	path := f.Name()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		_ = os.Remove(path)
		return domain.AudioAsset{}, fmt.Errorf("failed to encode recording: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return domain.AudioAsset{}, fmt.Errorf("failed to finalize recording: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return domain.AudioAsset{}, err
	}

	return domain.AudioAsset{Location: path, MimeType: wavMimeType, Temporary: true}, nil
}

// samplesFromS16LE converts little-endian signed 16-bit PCM to samples.
// A trailing odd byte is dropped.
func samplesFromS16LE(pcm []byte) []int {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	return samples
}
