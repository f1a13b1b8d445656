package speech

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAudioURL 成功响应中缺少 audioUrl
var ErrMissingAudioURL = errors.New("no audio URL received from the server")

// HTTPError 合成端点返回了非 2xx 状态码
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server error: %d", e.Status)
}

// NetworkError 传输层失败（连接中断、响应体无法读取等）
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return "network error"
	}
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

const (
	msgEmptyInput = "Please enter some text to convert to speech. ✍️"
	msgTooLong    = "Text is too long. Please keep it under 3000 characters. 📝"
	msgGeneric    = "Something went wrong. Please try again."
)

// UserMessage 将错误转换为展示给用户的简短提示
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrEmptyInput):
		return msgEmptyInput
	case errors.Is(err, ErrTooLong):
		return msgTooLong
	case errors.Is(err, ErrMissingAudioURL):
		return oops("No audio URL received from the server. Please try again. 🤖")
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return oops(fmt.Sprintf("Server error: %d. Please try again. 🔄", httpErr.Status))
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Err != nil {
		return oops(netErr.Err.Error())
	}

	return oops(err.Error())
}

func oops(detail string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = msgGeneric
	}
	return "Oops! " + detail + " 🚫"
}
