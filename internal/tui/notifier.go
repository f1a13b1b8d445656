package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

// StateChangedMsg 控制器状态发生切换
type StateChangedMsg speechmodel.State

// DownloadMsg 后台下载结束
type DownloadMsg speechmodel.DownloadNotice

// Notifier 把控制器回调转成 Bubble Tea 消息。
// 程序启动前到达的消息会被丢弃，界面渲染时总是读取控制器的最新状态。
type Notifier struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach 绑定运行中的程序
func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = p
}

// StateChanged 用作 controller.WithListener 回调
func (n *Notifier) StateChanged(s speechmodel.State) {
	n.send(StateChangedMsg(s))
}

// DownloadFinished 用作 controller.WithDownloadListener 回调
func (n *Notifier) DownloadFinished(d speechmodel.DownloadNotice) {
	n.send(DownloadMsg(d))
}

func (n *Notifier) send(msg tea.Msg) {
	n.mu.Lock()
	p := n.program
	n.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
