// Package audio 负责合成结果的自动播放。
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const (
	targetSampleRate = beep.SampleRate(48000)
	maxAudioBytes    = 50 << 20
)

// ErrInterrupted 播放被新的播放请求打断
var ErrInterrupted = errors.New("playback interrupted")

// Player 通过默认音频设备播放远端音频
type Player struct {
	httpClient *http.Client

	mu                 sync.Mutex
	speakerInitialized bool
	stop               chan struct{}
	clearSpeaker       func()
}

// NewPlayer 创建播放器，扬声器在首次播放时初始化
func NewPlayer(httpClient *http.Client) *Player {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Player{httpClient: httpClient, clearSpeaker: speaker.Clear}
}

// Play 下载并播放 audioURL，阻塞到播放完成、被打断或 ctx 结束
func (p *Player) Play(ctx context.Context, audioURL string) error {
	data, err := p.fetch(ctx, audioURL)
	if err != nil {
		return err
	}

	streamer, format, err := Decode(data)
	if err != nil {
		return err
	}
	defer streamer.Close()

	done := make(chan struct{})
	stop, err := p.start(streamer, format, done)
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-stop:
		return ErrInterrupted
	case <-ctx.Done():
		p.clearSpeaker()
		return ctx.Err()
	}
}

// Stop 停止当前播放
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.speakerInitialized {
		p.haltLocked()
		return
	}
	p.interruptLocked()
}

func (p *Player) start(streamer beep.StreamSeekCloser, format beep.Format, done chan struct{}) (chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.speakerInitialized {
		if err := speaker.Init(targetSampleRate, targetSampleRate.N(time.Second/10)); err != nil {
			return nil, fmt.Errorf("failed to initialize speaker: %w", err)
		}
		p.speakerInitialized = true
	}

	p.haltLocked()

	stop := make(chan struct{})
	p.stop = stop

	resampled := beep.Resample(3, format.SampleRate, targetSampleRate, streamer)
	speaker.Play(beep.Seq(resampled, beep.Callback(func() {
		close(done)
	})))

	log.Printf("[audio] playing %v at %d Hz", format.SampleRate.D(streamer.Len()).Round(time.Millisecond), format.SampleRate)
	return stop, nil
}

// haltLocked 先清空扬声器再唤醒旧的 Play，旧 streamer 关闭时已不在播放队列中
func (p *Player) haltLocked() {
	p.clearSpeaker()
	p.interruptLocked()
}

func (p *Player) interruptLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

func (p *Player) fetch(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build audio request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch audio: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return data, nil
}

// Decode 解码 WAV（RIFF 头）或 MP3，其余情况先按 MP3 再按 WAV 尝试
func Decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	if bytes.HasPrefix(data, []byte("RIFF")) {
		return wav.Decode(bytes.NewReader(data))
	}

	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err == nil {
		return streamer, format, nil
	}

	streamer, format, wavErr := wav.Decode(bytes.NewReader(data))
	if wavErr == nil {
		return streamer, format, nil
	}

	return nil, beep.Format{}, fmt.Errorf("unsupported audio format (mp3: %v, wav: %v)", err, wavErr)
}
