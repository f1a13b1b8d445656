package speech

// Request 语音合成请求，每次提交重新构建，不做持久化
type Request struct {
	Text  string `json:"text"`
	Voice string `json:"voice"` // 声音标识，原样透传
}

// Response 合成端点成功时返回的结构
type Response struct {
	AudioURL string `json:"audioUrl"`
}
