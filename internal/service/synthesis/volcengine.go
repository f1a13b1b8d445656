package synthesis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/voiceify/internal/config"
	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

const volcengineFormat = "mp3"

var errResourceMismatch = errors.New("resource ID is mismatched with speaker related resource")

// VolcengineBackend 火山引擎单向流式 TTS 后端
type VolcengineBackend struct {
	cfg        config.SpeechConfig
	dialer     *websocket.Dialer
	maxRetries int
	retryDelay time.Duration
}

// NewVolcengineBackend 创建火山引擎后端
func NewVolcengineBackend(cfg config.SpeechConfig) *VolcengineBackend {
	return &VolcengineBackend{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
		},
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// Name 后端名称
func (b *VolcengineBackend) Name() string { return config.BackendVolcengine }

type volcengineRequest struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string `json:"speaker"`
		Text        string `json:"text"`
		AudioParams struct {
			Format     string `json:"format"`
			SampleRate int    `json:"sample_rate"`
		} `json:"audio_params"`
	} `json:"req_params"`
}

type volcengineResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Synthesize 依次尝试请求声音与默认声音，仅在资源不匹配时回退
func (b *VolcengineBackend) Synthesize(ctx context.Context, req speechmodel.Request) (*Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("TTS text is empty")
	}

	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	speakers := speakerCandidates(req.Voice, b.cfg.TTSVoice)
	if len(speakers) == 0 {
		return nil, fmt.Errorf("no TTS speaker for voice %q", req.Voice)
	}

	var lastErr error
	for i, speaker := range speakers {
		data, err := b.synthesizeWithSpeaker(ctx, speaker, req.Text)
		if err == nil {
			if i > 0 {
				log.Printf("[TTS] fallback voice %s succeeded", speaker)
			}
			return &Audio{Data: data, Format: volcengineFormat}, nil
		}
		if !errors.Is(err, errResourceMismatch) {
			return nil, err
		}
		log.Printf("[TTS] voice %s resource mismatch: %v", speaker, err)
		lastErr = err
	}
	return nil, lastErr
}

func (b *VolcengineBackend) synthesizeWithSpeaker(ctx context.Context, speaker, text string) ([]byte, error) {
	header := http.Header{}
	header.Set("X-Api-App-Key", b.cfg.AppID)
	header.Set("X-Api-Access-Key", b.cfg.AccessToken)
	header.Set("X-Api-Resource-Id", b.cfg.ResourceID)
	header.Set("X-Api-Connect-Id", uuid.New().String())

	conn, err := b.dialWithRetry(ctx, header)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var payload volcengineRequest
	payload.User.UID = uuid.New().String()
	payload.ReqParams.Speaker = speaker
	payload.ReqParams.Text = text
	payload.ReqParams.AudioParams.Format = volcengineFormat
	payload.ReqParams.AudioParams.SampleRate = 24000

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %w", err)
	}
	compressed, err := gzipBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to compress TTS request: %w", err)
	}

	request := encodeFrame(&frame{
		msgType:       fullClientRequest,
		serialization: serializationJSON,
		compression:   compressionGzip,
		payload:       compressed,
	})
	if err := conn.WriteMessage(websocket.BinaryMessage, request); err != nil {
		return nil, fmt.Errorf("failed to send TTS request: %w", err)
	}

	var audio bytes.Buffer
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to read TTS response: %w", err)
		}

		msg, err := decodeFrame(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode TTS message: %w", err)
		}

		chunk, err := msg.body()
		if err != nil {
			return nil, fmt.Errorf("failed to decompress TTS payload: %w", err)
		}

		switch msg.msgType {
		case errorMessage:
			return nil, serverError(msg.errorCode, chunk)

		case audioOnlyServerResponse:
			audio.Write(chunk)

		case fullServerResponse:
			if msg.hasEvent() && msg.event == eventSessionFailed {
				return nil, serverError(0, chunk)
			}
			if len(chunk) > 0 {
				var serverResp volcengineResponse
				if err := json.Unmarshal(chunk, &serverResp); err != nil {
					log.Printf("[TTS] failed to unmarshal response payload: %v", err)
				} else {
					if serverResp.Code != 0 && serverResp.Code != 20000000 {
						return nil, serverError(uint32(serverResp.Code), []byte(serverResp.Message))
					}
					if serverResp.Data != "" {
						decoded, err := base64.StdEncoding.DecodeString(serverResp.Data)
						if err != nil {
							return nil, fmt.Errorf("failed to decode base64 audio chunk: %w", err)
						}
						audio.Write(decoded)
					}
				}
			}

		default:
			log.Printf("[TTS] unexpected message type: %d", msg.msgType)
		}

		if msg.last() {
			if audio.Len() == 0 {
				return nil, fmt.Errorf("TTS audio is empty")
			}
			return audio.Bytes(), nil
		}
	}
}

// dialWithRetry 握手失败时线性退避重试；鉴权等 HTTP 拒绝不重试
func (b *VolcengineBackend) dialWithRetry(ctx context.Context, header http.Header) (*websocket.Conn, error) {
	attempts := max(b.maxRetries, 1)

	var lastErr error
	for i := 0; i < attempts; i++ {
		conn, resp, err := b.dialer.DialContext(ctx, b.cfg.BaseURL, header)
		if err == nil {
			if logid := resp.Header.Get("X-Tt-Logid"); logid != "" {
				log.Printf("[TTS] connected with logid: %s", logid)
			}
			return conn, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("TTS WebSocket handshake rejected: status %d", resp.StatusCode)
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * b.retryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to TTS WebSocket after %d attempts: %w", attempts, lastErr)
}

func serverError(code uint32, payload []byte) error {
	text := strings.TrimSpace(string(payload))
	if strings.Contains(text, errResourceMismatch.Error()) {
		return fmt.Errorf("TTS error %d: %w", code, errResourceMismatch)
	}
	return fmt.Errorf("TTS error %d: %s", code, text)
}

// speakerCandidates 目录中的声音 ID（如 "Joanna"）不是火山音色，此时直接使用默认音色
func speakerCandidates(requested, fallback string) []string {
	requested = strings.TrimSpace(requested)
	fallback = strings.TrimSpace(fallback)

	var candidates []string
	if strings.Contains(requested, "_") {
		candidates = append(candidates, requested)
	}
	if fallback != "" && !strings.EqualFold(fallback, requested) {
		candidates = append(candidates, fallback)
	}
	return candidates
}
