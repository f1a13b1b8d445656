package synthesis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/voiceify/internal/config"
	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

type ttsSession struct {
	header  http.Header
	request volcengineRequest
}

// fakeTTSServer 记录每次连接的请求，并交给 reply 回写服务端帧
type fakeTTSServer struct {
	mu       sync.Mutex
	sessions []ttsSession
	reply    func(conn *websocket.Conn, session int)
}

func (s *fakeTTSServer) start(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sess ttsSession
		sess.header = r.Header.Clone()
		if f, err := decodeFrame(data); err == nil {
			if body, err := f.body(); err == nil {
				_ = json.Unmarshal(body, &sess.request)
			}
		}

		s.mu.Lock()
		s.sessions = append(s.sessions, sess)
		idx := len(s.sessions) - 1
		s.mu.Unlock()

		s.reply(conn, idx)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (s *fakeTTSServer) recorded() []ttsSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ttsSession(nil), s.sessions...)
}

func send(conn *websocket.Conn, f *frame) {
	_ = conn.WriteMessage(websocket.BinaryMessage, encodeFrame(f))
}

func newTestVolcengine(url string) *VolcengineBackend {
	b := NewVolcengineBackend(config.SpeechConfig{
		AppID:       "app",
		AccessToken: "token",
		ResourceID:  "seed-tts-1.0",
		BaseURL:     url,
		TTSVoice:    "en_female_amy_jupiter_bigtts",
		Timeout:     5 * time.Second,
	})
	b.retryDelay = 0
	return b
}

func TestVolcengineCollectsAudioFrames(t *testing.T) {
	srv := &fakeTTSServer{reply: func(conn *websocket.Conn, _ int) {
		send(conn, &frame{msgType: audioOnlyServerResponse, flags: flagPositiveSequence, sequence: 1, payload: []byte("abc")})
		gz, _ := gzipBytes([]byte("def"))
		send(conn, &frame{msgType: audioOnlyServerResponse, flags: flagNegativeSequence, sequence: -2, compression: compressionGzip, payload: gz})
	}}
	b := newTestVolcengine(srv.start(t))

	audio, err := b.Synthesize(context.Background(), speechmodel.Request{Text: "Hello there", Voice: "Joanna"})
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(audio.Data))
	assert.Equal(t, "mp3", audio.Format)

	sessions := srv.recorded()
	require.Len(t, sessions, 1)
	assert.Equal(t, "app", sessions[0].header.Get("X-Api-App-Key"))
	assert.Equal(t, "token", sessions[0].header.Get("X-Api-Access-Key"))
	assert.Equal(t, "seed-tts-1.0", sessions[0].header.Get("X-Api-Resource-Id"))
	assert.NotEmpty(t, sessions[0].header.Get("X-Api-Connect-Id"))
	assert.Equal(t, "Hello there", sessions[0].request.ReqParams.Text)
	assert.Equal(t, "en_female_amy_jupiter_bigtts", sessions[0].request.ReqParams.Speaker)
	assert.Equal(t, "mp3", sessions[0].request.ReqParams.AudioParams.Format)
}

func TestVolcengineFinishesOnSessionEvent(t *testing.T) {
	srv := &fakeTTSServer{reply: func(conn *websocket.Conn, _ int) {
		send(conn, &frame{msgType: audioOnlyServerResponse, flags: flagPositiveSequence, sequence: 1, payload: []byte("xyz")})
		send(conn, &frame{msgType: fullServerResponse, flags: flagWithEvent, event: eventSessionFinished, sessionID: "s-1", serialization: serializationJSON, payload: []byte(`{"code":20000000}`)})
	}}
	b := newTestVolcengine(srv.start(t))

	audio, err := b.Synthesize(context.Background(), speechmodel.Request{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(audio.Data))
}

func TestVolcengineFallsBackOnResourceMismatch(t *testing.T) {
	srv := &fakeTTSServer{reply: func(conn *websocket.Conn, session int) {
		if session == 0 {
			send(conn, &frame{msgType: errorMessage, errorCode: 45000000, payload: []byte(`{"error":"resource ID is mismatched with speaker related resource"}`)})
			return
		}
		send(conn, &frame{msgType: audioOnlyServerResponse, flags: flagLastNoSequence, payload: []byte("ok")})
	}}
	b := newTestVolcengine(srv.start(t))

	audio, err := b.Synthesize(context.Background(), speechmodel.Request{Text: "hi", Voice: "en_male_custom_bigtts"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(audio.Data))

	sessions := srv.recorded()
	require.Len(t, sessions, 2)
	assert.Equal(t, "en_male_custom_bigtts", sessions[0].request.ReqParams.Speaker)
	assert.Equal(t, "en_female_amy_jupiter_bigtts", sessions[1].request.ReqParams.Speaker)
}

func TestVolcengineReportsServerErrors(t *testing.T) {
	srv := &fakeTTSServer{reply: func(conn *websocket.Conn, _ int) {
		send(conn, &frame{msgType: fullServerResponse, serialization: serializationJSON, payload: []byte(`{"code":40000001,"message":"text too long"}`)})
	}}
	b := newTestVolcengine(srv.start(t))

	_, err := b.Synthesize(context.Background(), speechmodel.Request{Text: "hi", Voice: "en_male_custom_bigtts"})
	assert.ErrorContains(t, err, "text too long")
	assert.Len(t, srv.recorded(), 1)
}

func TestVolcengineRejectsEmptyAudio(t *testing.T) {
	srv := &fakeTTSServer{reply: func(conn *websocket.Conn, _ int) {
		send(conn, &frame{msgType: audioOnlyServerResponse, flags: flagLastNoSequence})
	}}
	b := newTestVolcengine(srv.start(t))

	_, err := b.Synthesize(context.Background(), speechmodel.Request{Text: "hi"})
	assert.ErrorContains(t, err, "audio is empty")
}

func TestVolcengineDoesNotRetryRejectedHandshake(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	b := newTestVolcengine("ws" + strings.TrimPrefix(srv.URL, "http"))
	_, err := b.Synthesize(context.Background(), speechmodel.Request{Text: "hi"})

	assert.ErrorContains(t, err, "status 401")
	assert.Equal(t, int32(1), hits.Load())
}

func TestVolcengineRetriesUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	b := newTestVolcengine(url)
	_, err := b.Synthesize(context.Background(), speechmodel.Request{Text: "hi"})
	assert.ErrorContains(t, err, "after 3 attempts")
}

func TestSpeakerCandidates(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		fallback  string
		want      []string
	}{
		{name: "catalog voice uses fallback", requested: "Joanna", fallback: "en_female_amy_jupiter_bigtts", want: []string{"en_female_amy_jupiter_bigtts"}},
		{name: "native speaker first", requested: "zh_female_vv_uranus_bigtts", fallback: "en_female_amy_jupiter_bigtts", want: []string{"zh_female_vv_uranus_bigtts", "en_female_amy_jupiter_bigtts"}},
		{name: "duplicates ignored", requested: "EN_voice_x", fallback: "en_voice_x", want: []string{"EN_voice_x"}},
		{name: "nothing usable", requested: "Amy", fallback: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, speakerCandidates(tt.requested, tt.fallback))
		})
	}
}
