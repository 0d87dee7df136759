package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/arkio/model"
)

// waveCodec reads and writes RIFF WAVE data (16-bit PCM). Wave entries are
// raw RIFF bytes in both modes; there is no separate text form and no
// binary-mode marker.
type waveCodec struct{}

func (waveCodec) Tag() string { return "wm" }

func (c waveCodec) Check(value any) (any, error) {
	w, ok := value.(model.Wave)
	if !ok {
		return nil, mismatch("wm", "want model.Wave, got %T", value)
	}
	if err := w.Samples.Validate(); err != nil {
		return nil, mismatch("wm", "%v", err)
	}
	if w.Samples.Rows < 1 {
		return nil, mismatch("wm", "wave needs at least one channel, got %d", w.Samples.Rows)
	}
	if w.Info.SampleRate <= 0 {
		return nil, mismatch("wm", "invalid sample rate %v", w.Info.SampleRate)
	}
	w.Info.Channels = w.Samples.Rows
	w.Info.Duration = float64(w.Samples.Cols) / float64(w.Info.SampleRate)
	return w, nil
}

func (c waveCodec) Encode(w io.Writer, value any, _ bool) error {
	wave := value.(model.Wave)
	var (
		channels   = wave.Samples.Rows
		frames     = wave.Samples.Cols
		blockAlign = channels * 2
		dataSize   = frames * blockAlign
	)

	var hdr [44]byte
	copy(hdr[0:], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], uint32(36+dataSize))
	copy(hdr[8:], "WAVE")
	copy(hdr[12:], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:], 16)
	binary.LittleEndian.PutUint16(hdr[20:], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:], uint32(wave.Info.SampleRate))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(wave.Info.SampleRate)*uint32(blockAlign))
	binary.LittleEndian.PutUint16(hdr[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:], 16) // bits per sample
	copy(hdr[36:], "data")
	binary.LittleEndian.PutUint32(hdr[40:], uint32(dataSize))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	buf := make([]byte, dataSize)
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			s := clampPCM16(wave.Samples.At(ch, f))
			binary.LittleEndian.PutUint16(buf[(f*channels+ch)*2:], uint16(s))
		}
	}
	_, err := w.Write(buf)
	return err
}

func (c waveCodec) Decode(r *bufio.Reader) (any, error) {
	var id [4]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return nil, err
	}
	if string(id[:]) != "RIFF" {
		return nil, fmt.Errorf("not RIFF data (got %q)", id[:])
	}
	riffSize, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return nil, err
	}
	if string(id[:]) != "WAVE" {
		return nil, fmt.Errorf("not a WAVE stream (got %q)", id[:])
	}

	var (
		sampleRate uint32
		channels   int
		blockAlign int
		haveFmt    bool
		pcm        []byte
		havePCM    bool
		consumed   = uint32(4) // the "WAVE" id counts toward riffSize
	)
	for consumed < riffSize {
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nil, err
		}
		size, err := readU32(r)
		if err != nil {
			return nil, err
		}
		consumed += 8
		switch string(id[:]) {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, err
			}
			if size < 16 {
				return nil, fmt.Errorf("short fmt chunk (%d bytes)", size)
			}
			if format := binary.LittleEndian.Uint16(body[0:]); format != 1 {
				return nil, fmt.Errorf("unsupported WAVE format %d (only PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:]))
			sampleRate = binary.LittleEndian.Uint32(body[4:])
			blockAlign = int(binary.LittleEndian.Uint16(body[12:]))
			if bits := binary.LittleEndian.Uint16(body[14:]); bits != 16 {
				return nil, fmt.Errorf("unsupported sample width %d (only 16-bit)", bits)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("data chunk before fmt chunk")
			}
			pcm = make([]byte, size)
			if _, err := io.ReadFull(r, pcm); err != nil {
				return nil, err
			}
			havePCM = true
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return nil, err
			}
		}
		consumed += size
		if size%2 == 1 && consumed < riffSize {
			// RIFF chunks are word aligned.
			if _, err := r.Discard(1); err != nil {
				return nil, err
			}
			consumed++
		}
	}
	if !havePCM {
		return nil, fmt.Errorf("missing data chunk")
	}
	if channels < 1 || blockAlign != channels*2 {
		return nil, fmt.Errorf("inconsistent fmt chunk: channels=%d blockAlign=%d", channels, blockAlign)
	}

	frames := len(pcm) / blockAlign
	samples := model.NewMatrix[model.BaseFloat](channels, frames)
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			s := int16(binary.LittleEndian.Uint16(pcm[(f*channels+ch)*2:]))
			samples.Set(ch, f, model.BaseFloat(s))
		}
	}
	return model.Wave{
		Info: model.WaveInfo{
			SampleRate: float32(sampleRate),
			Channels:   channels,
			Duration:   float64(frames) / float64(sampleRate),
		},
		Samples: samples,
	}, nil
}

func readU32(r *bufio.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func clampPCM16[F model.Float](v F) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
