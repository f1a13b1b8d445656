package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DownloadFilename 生成下载文件名：voiceify-speech-<毫秒时间戳>.mp3
func DownloadFilename(now time.Time) string {
	return fmt.Sprintf("voiceify-speech-%d.mp3", now.UnixMilli())
}

// Downloader 把合成结果保存到本地目录
type Downloader struct {
	dir        string
	httpClient *http.Client
	now        func() time.Time
}

// NewDownloader 创建下载器，dir 为空时保存到当前目录
func NewDownloader(dir string, httpClient *http.Client) *Downloader {
	if dir == "" {
		dir = "."
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Downloader{
		dir:        dir,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Save 下载 audioURL 指向的资源并返回保存路径
func (d *Downloader) Save(ctx context.Context, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch audio: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	path := filepath.Join(d.dir, DownloadFilename(d.now()))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close audio file: %w", err)
	}

	return path, nil
}
