package synthesis

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/wav"

	"github.com/zhouzirui/voiceify/internal/config"
	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

const (
	toneSampleRate = beep.SampleRate(22050)
	toneMaxWords   = 400
	toneGap        = 60 * time.Millisecond
)

// ToneBackend 离线后端：每个词合成一段正弦音，音高由声音 ID 决定。用于本地开发与测试。
type ToneBackend struct {
	tempDir string
}

// NewToneBackend 创建正弦音后端
func NewToneBackend() *ToneBackend {
	return &ToneBackend{tempDir: os.TempDir()}
}

// Name 后端名称
func (b *ToneBackend) Name() string { return config.BackendTone }

// Synthesize 生成 WAV 音频
func (b *ToneBackend) Synthesize(ctx context.Context, req speechmodel.Request) (*Audio, error) {
	words := strings.Fields(req.Text)
	if len(words) == 0 {
		return nil, fmt.Errorf("tone text is empty")
	}
	if len(words) > toneMaxWords {
		words = words[:toneMaxWords]
	}

	base := basePitch(req.Voice)
	segments := make([]beep.Streamer, 0, len(words)*2)
	for i, word := range words {
		freq := base * (1 + 0.06*float64(i%4))
		tone, err := generators.SineTone(toneSampleRate, freq)
		if err != nil {
			return nil, fmt.Errorf("sine tone %.1fHz: %w", freq, err)
		}
		segments = append(segments,
			beep.Take(toneSampleRate.N(wordDuration(word)), tone),
			generators.Silence(toneSampleRate.N(toneGap)),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stream := &effects.Gain{Streamer: beep.Seq(segments...), Gain: -0.7}
	format := beep.Format{SampleRate: toneSampleRate, NumChannels: 1, Precision: 2}

	f, err := os.CreateTemp(b.tempDir, "voiceify-tone-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := wav.Encode(f, stream, format); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		return nil, fmt.Errorf("read temp file: %w", err)
	}
	return &Audio{Data: data, Format: "wav"}, nil
}

// basePitch 将声音 ID 映射到 160-400Hz
func basePitch(voice string) float64 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(voice)))
	return 160 + float64(h.Sum32()%240)
}

func wordDuration(word string) time.Duration {
	d := 80*time.Millisecond + time.Duration(utf8.RuneCountInString(word))*30*time.Millisecond
	return min(d, 400*time.Millisecond)
}
