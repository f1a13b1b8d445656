// Package audio 持久化网关合成出的音频文件。
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName 文件名为空或包含路径成分
var ErrInvalidName = errors.New("invalid audio object name")

// FileStore 把音频保存到本地目录（默认 audio/）
type FileStore struct {
	Dir string
}

// NewFileStore 创建文件存储
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "audio"
	}
	return &FileStore{Dir: dir}
}

// Save 写入 {dir}/{name}
func (fs *FileStore) Save(name string, data []byte) error {
	path, err := fs.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fs.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create audio dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write audio %s: %w", name, err)
	}
	return nil
}

// Exists 判断对象是否存在
func (fs *FileStore) Exists(name string) bool {
	path, err := fs.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Path 返回对象在磁盘上的路径，拒绝目录穿越
func (fs *FileStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	return filepath.Join(fs.Dir, name), nil
}
