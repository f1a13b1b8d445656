package speech

// StateKind 界面状态类型，同一时刻只有一种处于激活
type StateKind int

const (
	// StateIdle 空闲，可以提交
	StateIdle StateKind = iota
	// StateLoading 请求进行中，触发按钮禁用
	StateLoading
	// StateSuccess 合成成功，展示播放器与下载入口
	StateSuccess
	// StateError 展示错误信息，超时后自动隐藏
	StateError
)

// String 返回状态名称
func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// State 当前界面状态及其负载
type State struct {
	Kind     StateKind
	AudioURL string // 仅 StateSuccess 有效
	Message  string // 仅 StateError 有效
	Seq      uint64 // 每次切换递增，用于识别过期的定时器
}

// TriggerEnabled 生成按钮是否可用
func (s State) TriggerEnabled() bool {
	return s.Kind != StateLoading
}

// SuccessVisible 是否展示成功区域
func (s State) SuccessVisible() bool {
	return s.Kind == StateSuccess
}

// ErrorVisible 是否展示错误区域
func (s State) ErrorVisible() bool {
	return s.Kind == StateError
}

// DownloadNotice 下载完成（或失败）后的通知
type DownloadNotice struct {
	Path string
	Err  error
}
