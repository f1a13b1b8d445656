// Package logging 配置标准库日志的输出位置。
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/zhouzirui/voiceify/internal/config"
)

// ToFile 把日志写入按大小滚动的文件，返回的 Closer 在退出前关闭。
// TUI 运行时日志不能写到终端，否则会破坏界面。
func ToFile(cfg config.LogConfig) io.Closer {
	writer := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	log.SetOutput(writer)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return writer
}

// ToStderr 恢复输出到标准错误
func ToStderr() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
