// Package tui 是 Voiceify 的终端界面：文本输入、声音选择、生成按钮、
// 加载动画、播放/下载区域与错误提示。
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
	"github.com/zhouzirui/voiceify/internal/service/speech"
	"github.com/zhouzirui/voiceify/internal/voices"
)

// Layout constants
const (
	minInputHeight  = 6
	defaultWidth    = 80
	reservedRows    = 16 // 标题、声音、按钮、结果区与帮助行
	horizontalInset = 4
	successFlash    = 600 * time.Millisecond
)

// Key bindings
const (
	keyGenerate = "alt+enter"
	keyQuit     = "ctrl+c"
	keyNext     = "tab"
	keyPrev     = "shift+tab"
	keyDownload = "ctrl+d"
	keyReplay   = "ctrl+p"
	keyDismiss  = "esc"
)

type focusArea int

const (
	focusText focusArea = iota
	focusVoice
	focusGenerate
	focusDownload
)

// Controller 界面依赖的控制器能力
type Controller interface {
	State() speechmodel.State
	OnGenerateClicked(ctx context.Context, text, voice string) error
	DownloadCurrent() bool
	Replay() bool
	Dismiss()
}

type generateDoneMsg struct {
	err error
}

type flashDoneMsg struct {
	seq uint64
}

// Model Bubble Tea 模型。界面状态只读自 Controller，模型本身只保存输入与焦点。
type Model struct {
	ctx     context.Context
	ctrl    Controller
	catalog *voices.Catalog

	input    textarea.Model
	spinner  spinner.Model
	voiceIdx int
	focus    focusArea

	width  int
	height int

	flashSeq uint64 // 成功动画对应的状态序号，0 表示无动画
	notice   string
}

// New 创建界面模型
func New(ctx context.Context, ctrl Controller, catalog *voices.Catalog, defaultVoice string) *Model {
	input := textarea.New()
	input.Placeholder = "Type or paste the text you want to hear..."
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.MaxHeight = 0
	input.SetWidth(defaultWidth - horizontalInset)
	input.SetHeight(minInputHeight)
	input.Focus()

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	voiceIdx := 0
	if idx := catalog.IndexOf(defaultVoice); idx >= 0 {
		voiceIdx = idx
	}

	return &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		catalog:  catalog,
		input:    input,
		spinner:  spin,
		voiceIdx: voiceIdx,
		focus:    focusText,
		width:    defaultWidth,
	}
}

// Init 初始化光标闪烁与加载动画
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update 处理按键、窗口尺寸与控制器消息
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(max(msg.Width-horizontalInset, 20))
		m.resizeInput()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateChangedMsg:
		return m, m.handleStateChanged(speechmodel.State(msg))

	case DownloadMsg:
		if msg.Err != nil {
			m.notice = "Download failed: " + msg.Err.Error()
		} else {
			m.notice = "Saved to " + msg.Path
		}
		return m, nil

	case generateDoneMsg:
		return m, nil

	case flashDoneMsg:
		if m.flashSeq == msg.seq {
			m.flashSeq = 0
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.focus == focusText {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit:
		return m, tea.Quit
	case keyGenerate:
		return m, m.generate()
	case keyNext:
		m.moveFocus(1)
		return m, nil
	case keyPrev:
		m.moveFocus(-1)
		return m, nil
	case keyDownload:
		m.download()
		return m, nil
	case keyReplay:
		m.ctrl.Replay()
		return m, nil
	case keyDismiss:
		if !m.ctrl.State().ErrorVisible() {
			return m, nil
		}
		// Dismiss 会同步回调 Notifier，必须离开事件循环执行
		ctrl := m.ctrl
		return m, func() tea.Msg {
			ctrl.Dismiss()
			return nil
		}
	}

	switch m.focus {
	case focusVoice:
		switch msg.String() {
		case "left", "h", "up", "k":
			m.voiceIdx = m.wrapVoice(m.voiceIdx - 1)
		case "right", "l", "down", "j":
			m.voiceIdx = m.wrapVoice(m.voiceIdx + 1)
		}
		return m, nil

	case focusGenerate:
		if msg.String() == "enter" || msg.String() == " " {
			return m, m.generate()
		}
		return m, nil

	case focusDownload:
		if msg.String() == "enter" || msg.String() == " " {
			m.download()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.resizeInput()
	return m, cmd
}

// generate 触发按钮禁用时不产生任何效果
func (m *Model) generate() tea.Cmd {
	if !m.ctrl.State().TriggerEnabled() {
		return nil
	}

	ctrl := m.ctrl
	ctx := m.ctx
	text := m.input.Value()
	voice := m.SelectedVoice().ID
	m.notice = ""

	return func() tea.Msg {
		return generateDoneMsg{err: ctrl.OnGenerateClicked(ctx, text, voice)}
	}
}

func (m *Model) download() {
	if !m.ctrl.DownloadCurrent() {
		return
	}
	m.notice = "Downloading..."
}

func (m *Model) handleStateChanged(state speechmodel.State) tea.Cmd {
	if state.Kind != speechmodel.StateSuccess {
		if m.focus == focusDownload {
			m.focus = focusGenerate
		}
		return nil
	}

	m.flashSeq = state.Seq
	seq := state.Seq
	return tea.Tick(successFlash, func(time.Time) tea.Msg {
		return flashDoneMsg{seq: seq}
	})
}

func (m *Model) moveFocus(delta int) {
	areas := []focusArea{focusText, focusVoice, focusGenerate}
	if m.ctrl.State().SuccessVisible() {
		areas = append(areas, focusDownload)
	}

	current := 0
	for i, a := range areas {
		if a == m.focus {
			current = i
		}
	}
	next := (current + delta + len(areas)) % len(areas)
	m.focus = areas[next]

	if m.focus == focusText {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// resizeInput 输入框高度随内容（含自动换行）增长，不低于 minInputHeight，不超过终端可用高度
func (m *Model) resizeInput() {
	height := max(m.wrappedRows(), minInputHeight)
	if m.height > 0 {
		height = min(height, max(m.height-reservedRows, minInputHeight))
	}
	m.input.SetHeight(height)
}

// wrappedRows 按输入框宽度估算显示行数
func (m *Model) wrappedRows() int {
	width := m.input.Width()
	rows := 0
	for _, line := range strings.Split(m.input.Value(), "\n") {
		w := lipgloss.Width(line)
		if width <= 0 || w == 0 {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}

func (m *Model) wrapVoice(i int) int {
	n := m.catalog.Len()
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// SelectedVoice 当前选中的声音
func (m *Model) SelectedVoice() speechmodel.Voice {
	return m.catalog.At(m.voiceIdx)
}

// View 渲染界面
func (m *Model) View() string {
	state := m.ctrl.State()

	var b strings.Builder
	b.WriteString(titleStyle.Render("🎙  Voiceify"))
	b.WriteString("  ")
	b.WriteString(subtitleStyle.Render("Turn your text into natural speech"))
	b.WriteString("\n\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.renderCounter())
	b.WriteString("\n\n")

	b.WriteString(m.renderVoice())
	b.WriteString("\n\n")

	b.WriteString(m.renderTrigger(state))
	b.WriteString("\n\n")

	switch state.Kind {
	case speechmodel.StateLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(" Converting your text to speech...\n")
	case speechmodel.StateSuccess:
		b.WriteString(m.renderSuccess(state))
		b.WriteString("\n")
	case speechmodel.StateError:
		b.WriteString(errorBoxStyle.Render(state.Message))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(labelStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("alt+enter generate • tab focus • ←/→ voice • ctrl+d download • ctrl+p replay • esc dismiss • ctrl+c quit"))
	return b.String()
}

func (m *Model) renderCounter() string {
	count := utf8.RuneCountInString(strings.TrimSpace(m.input.Value()))
	text := fmt.Sprintf("%d/%d", count, speech.MaxTextLength)
	if count > speech.MaxTextLength {
		return counterOverStyle.Render(text)
	}
	return counterStyle.Render(text)
}

func (m *Model) renderVoice() string {
	label := labelStyle
	if m.focus == focusVoice {
		label = focusedLabelStyle
	}
	voice := m.SelectedVoice()
	return label.Render(fmt.Sprintf("Voice: ‹ %s ›", voice.DisplayName()))
}

func (m *Model) renderTrigger(state speechmodel.State) string {
	if !state.TriggerEnabled() {
		return disabledButtonStyle.Render("🔄 Processing...")
	}
	if m.focus == focusGenerate {
		return focusedButtonStyle.Render("🎵 Generate Audio")
	}
	return buttonStyle.Render("🎵 Generate Audio")
}

func (m *Model) renderSuccess(state speechmodel.State) string {
	download := buttonStyle.Render("⬇ Download")
	if m.focus == focusDownload {
		download = focusedButtonStyle.Render("⬇ Download")
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		"✅ Your audio is ready!",
		labelStyle.Render(state.AudioURL),
		"",
		download,
	)

	box := successBoxStyle
	if m.flashSeq != 0 && m.flashSeq == state.Seq {
		box = flashBoxStyle
	}
	return box.Render(body)
}
