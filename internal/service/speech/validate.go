package speech

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxTextLength 单次合成允许的最大字符数
const MaxTextLength = 3000

var (
	// ErrEmptyInput 去除首尾空白后文本为空
	ErrEmptyInput = errors.New("text is required")
	// ErrTooLong 文本超过 MaxTextLength
	ErrTooLong = errors.New("text is too long")
)

// Validate 校验输入文本，成功时返回去除首尾空白后的文本。
// 长度按 Unicode 码点计算。
func Validate(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyInput
	}
	if utf8.RuneCountInString(trimmed) > MaxTextLength {
		return "", ErrTooLong
	}
	return trimmed, nil
}
