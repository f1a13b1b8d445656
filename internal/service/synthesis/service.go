package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/voiceify/internal/metrics"
	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

// ErrBackend 后端合成失败，处理器据此返回 502
var ErrBackend = errors.New("speech synthesis failed")

// Store 音频对象存储
type Store interface {
	Save(name string, data []byte) error
	Exists(name string) bool
}

// Service 合成服务：缓存命中直接返回已有文件，否则调用后端并落盘
type Service struct {
	backend   Backend
	store     Store
	cache     Cache
	publicURL string
	metrics   *metrics.Metrics
}

// NewService 创建合成服务，cache 与 m 可以为 nil
func NewService(backend Backend, store Store, cache Cache, publicURL string, m *metrics.Metrics) *Service {
	return &Service{
		backend:   backend,
		store:     store,
		cache:     cache,
		publicURL: strings.TrimRight(publicURL, "/"),
		metrics:   m,
	}
}

// BackendName 当前后端名称
func (s *Service) BackendName() string {
	return s.backend.Name()
}

// Synthesize 返回可公开访问的音频 URL
func (s *Service) Synthesize(ctx context.Context, req speechmodel.Request) (string, error) {
	key := CacheKey(req.Voice, req.Text)

	if s.cache != nil {
		name, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Printf("[synthesis] cache lookup failed: %v", err)
		} else if ok && s.store.Exists(name) {
			s.metrics.ObserveCache(true)
			return s.AudioURL(name), nil
		}
		s.metrics.ObserveCache(false)
	}

	start := time.Now()
	audio, err := s.backend.Synthesize(ctx, req)
	s.metrics.ObserveSynthesis(s.backend.Name(), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBackend, s.backend.Name(), err)
	}
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("%w: %s returned no audio", ErrBackend, s.backend.Name())
	}

	format := audio.Format
	if format == "" {
		format = "mp3"
	}
	name := uuid.New().String() + "." + format
	if err := s.store.Save(name, audio.Data); err != nil {
		return "", fmt.Errorf("store audio: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, name); err != nil {
			log.Printf("[synthesis] cache store failed: %v", err)
		}
	}

	log.Printf("[synthesis] backend=%s voice=%s bytes=%d file=%s", s.backend.Name(), req.Voice, len(audio.Data), name)
	return s.AudioURL(name), nil
}

// AudioURL 拼接 {publicURL}/audio/{name}
func (s *Service) AudioURL(name string) string {
	return s.publicURL + "/audio/" + name
}
