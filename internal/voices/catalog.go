// Package voices 提供声音选择器的候选列表。
package voices

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

// Defaults 未配置声音文件时使用的内置列表
var Defaults = []speechmodel.Voice{
	{ID: "Joanna", Label: "Joanna (US English, female)", Language: "en-US"},
	{ID: "Matthew", Label: "Matthew (US English, male)", Language: "en-US"},
	{ID: "Amy", Label: "Amy (British English, female)", Language: "en-GB"},
	{ID: "Brian", Label: "Brian (British English, male)", Language: "en-GB"},
	{ID: "Aditi", Label: "Aditi (Indian English, female)", Language: "en-IN"},
}

// Catalog 有序的声音列表
type Catalog struct {
	voices []speechmodel.Voice
}

type catalogFile struct {
	Voices []speechmodel.Voice `yaml:"voices"`
}

// New 使用给定的声音创建列表，忽略空 ID 与重复项
func New(voices []speechmodel.Voice) *Catalog {
	c := &Catalog{}
	seen := make(map[string]struct{}, len(voices))
	for _, v := range voices {
		v.ID = strings.TrimSpace(v.ID)
		if v.ID == "" {
			continue
		}
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}
		c.voices = append(c.voices, v)
	}
	return c
}

// Load 从 YAML 文件读取，path 为空时返回内置列表
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return New(Defaults), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read voices file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse voices file %s: %w", path, err)
	}

	catalog := New(file.Voices)
	if catalog.Len() == 0 {
		return nil, fmt.Errorf("voices file %s defines no voices", path)
	}
	return catalog, nil
}

// Voices 返回全部声音
func (c *Catalog) Voices() []speechmodel.Voice {
	out := make([]speechmodel.Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Len 声音数量
func (c *Catalog) Len() int {
	return len(c.voices)
}

// At 按下标取声音，越界时回绕
func (c *Catalog) At(i int) speechmodel.Voice {
	if len(c.voices) == 0 {
		return speechmodel.Voice{}
	}
	i %= len(c.voices)
	if i < 0 {
		i += len(c.voices)
	}
	return c.voices[i]
}

// IndexOf 返回 id 的下标，不存在时返回 -1
func (c *Catalog) IndexOf(id string) int {
	for i, v := range c.voices {
		if strings.EqualFold(v.ID, id) {
			return i
		}
	}
	return -1
}
