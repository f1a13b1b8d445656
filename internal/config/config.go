package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合客户端、网关与日志的配置项。
type Config struct {
	Client  ClientConfig
	Gateway GatewayConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	gateway, err := loadGatewayConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Client: client, Gateway: gateway, Log: logCfg}, nil
}

// ClientConfig 描述合成端点及客户端行为。
type ClientConfig struct {
	APIURL       string
	HTTPTimeout  time.Duration
	DownloadDir  string
	Autoplay     bool
	VoicesFile   string
	DefaultVoice string
}

// Validate 检查客户端运行所需的配置。
func (c ClientConfig) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("VOICEIFY_API_URL is required")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("invalid VOICEIFY_API_URL value %q: must be an http(s) URL", c.APIURL)
	}
	return nil
}

func loadClientConfig() (ClientConfig, error) {
	timeout, err := parseDurationEnv("VOICEIFY_HTTP_TIMEOUT", 0)
	if err != nil {
		return ClientConfig{}, err
	}

	autoplay, err := parseBoolEnv("VOICEIFY_AUTOPLAY", true)
	if err != nil {
		return ClientConfig{}, err
	}

	return ClientConfig{
		APIURL:       strings.TrimSpace(os.Getenv("VOICEIFY_API_URL")),
		HTTPTimeout:  timeout,
		DownloadDir:  getEnvOrDefault("VOICEIFY_DOWNLOAD_DIR", "."),
		Autoplay:     autoplay,
		VoicesFile:   strings.TrimSpace(os.Getenv("VOICEIFY_VOICES_FILE")),
		DefaultVoice: strings.TrimSpace(os.Getenv("VOICEIFY_DEFAULT_VOICE")),
	}, nil
}

// GatewayConfig 描述参考合成网关。
type GatewayConfig struct {
	Addr      string
	PublicURL string
	AudioDir  string
	Backend   string
	RedisURL  string
	CacheTTL  time.Duration
	Speech    SpeechConfig
}

// SpeechConfig 描述火山引擎语音合成配置
type SpeechConfig struct {
	AppID       string
	AccessToken string
	ResourceID  string
	BaseURL     string
	TTSVoice    string
	Timeout     time.Duration
}

// Enabled 表示是否提供了必需的凭证。
func (c SpeechConfig) Enabled() bool {
	return c.AppID != "" && c.AccessToken != ""
}

const (
	// BackendTone 离线正弦音后端
	BackendTone = "tone"
	// BackendVolcengine 火山引擎流式合成后端
	BackendVolcengine = "volcengine"
)

func loadGatewayConfig() (GatewayConfig, error) {
	addr, err := parseListenAddr(os.Getenv("PORT"))
	if err != nil {
		return GatewayConfig{}, err
	}

	cacheTTL, err := parseDurationEnv("GATEWAY_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return GatewayConfig{}, err
	}

	speechTimeout, err := parseDurationEnv("SPEECH_TIMEOUT", 30*time.Second)
	if err != nil {
		return GatewayConfig{}, err
	}

	speech := SpeechConfig{
		AppID:       strings.TrimSpace(os.Getenv("SPEECH_APP_ID")),
		AccessToken: strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN")),
		ResourceID:  getEnvOrDefault("SPEECH_RESOURCE_ID", "seed-tts-1.0"),
		BaseURL:     getEnvOrDefault("SPEECH_BASE_URL", "wss://openspeech.bytedance.com/api/v3/tts/unidirectional/stream"),
		TTSVoice:    getEnvOrDefault("SPEECH_TTS_VOICE", "en_female_amy_jupiter_bigtts"),
		Timeout:     speechTimeout,
	}

	defaultBackend := BackendTone
	if speech.Enabled() {
		defaultBackend = BackendVolcengine
	}
	backend := strings.ToLower(getEnvOrDefault("GATEWAY_BACKEND", defaultBackend))
	switch backend {
	case BackendTone, BackendVolcengine:
	default:
		return GatewayConfig{}, fmt.Errorf("invalid GATEWAY_BACKEND value %q", backend)
	}
	if backend == BackendVolcengine && !speech.Enabled() {
		return GatewayConfig{}, fmt.Errorf("GATEWAY_BACKEND=volcengine requires SPEECH_APP_ID and SPEECH_ACCESS_TOKEN")
	}

	publicURL := strings.TrimSpace(os.Getenv("GATEWAY_PUBLIC_URL"))
	if publicURL == "" {
		host := addr
		if strings.HasPrefix(addr, ":") {
			host = "localhost" + addr
		}
		publicURL = "http://" + host
	}

	return GatewayConfig{
		Addr:      addr,
		PublicURL: strings.TrimRight(publicURL, "/"),
		AudioDir:  getEnvOrDefault("GATEWAY_AUDIO_DIR", "audio"),
		Backend:   backend,
		RedisURL:  strings.TrimSpace(os.Getenv("REDIS_URL")),
		CacheTTL:  cacheTTL,
		Speech:    speech,
	}, nil
}

// parseListenAddr 解析监听地址。
func parseListenAddr(raw string) (string, error) {
	port := strings.TrimSpace(raw)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func loadLogConfig() (LogConfig, error) {
	maxSize := 10
	if override, err := parseOptionalIntEnv("VOICEIFY_LOG_MAX_SIZE_MB"); err != nil {
		return LogConfig{}, err
	} else if override != nil && *override > 0 {
		maxSize = *override
	}

	maxBackups := 3
	if override, err := parseOptionalIntEnv("VOICEIFY_LOG_MAX_BACKUPS"); err != nil {
		return LogConfig{}, err
	} else if override != nil && *override >= 0 {
		maxBackups = *override
	}

	return LogConfig{
		File:       getEnvOrDefault("VOICEIFY_LOG_FILE", "voiceify.log"),
		MaxSizeMB:  maxSize,
		MaxBackups: maxBackups,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseDurationEnv 接受 Go duration（"30s"）或纯数字秒数。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}
