// Package synthesis 是参考网关的合成服务：调用后端生成音频，落盘并返回可访问的 URL。
package synthesis

import (
	"context"

	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

// Audio 后端合成结果
type Audio struct {
	Data   []byte
	Format string // 文件扩展名，如 "mp3"、"wav"
}

// Backend 语音合成后端
type Backend interface {
	Name() string
	Synthesize(ctx context.Context, req speechmodel.Request) (*Audio, error)
}
