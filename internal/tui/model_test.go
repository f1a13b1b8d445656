package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
	"github.com/zhouzirui/voiceify/internal/voices"
)

type generateCall struct {
	text  string
	voice string
}

type fakeController struct {
	mu         sync.Mutex
	state      speechmodel.State
	calls      []generateCall
	downloads  int
	replays    int
	dismissals int
}

func (f *fakeController) State() speechmodel.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeController) setState(s speechmodel.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

func (f *fakeController) OnGenerateClicked(ctx context.Context, text, voice string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{text: text, voice: voice})
	return nil
}

func (f *fakeController) DownloadCurrent() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Kind != speechmodel.StateSuccess {
		return false
	}
	f.downloads++
	return true
}

func (f *fakeController) Replay() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replays++
	return true
}

func (f *fakeController) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dismissals++
	f.state = speechmodel.State{Kind: speechmodel.StateIdle, Seq: f.state.Seq + 1}
}

var altEnter = tea.KeyMsg{Type: tea.KeyEnter, Alt: true}

func newTestModel(ctrl *fakeController) *Model {
	catalog := voices.New([]speechmodel.Voice{
		{ID: "en-US-1", Label: "Ava"},
		{ID: "en-US-2", Label: "Ben"},
	})
	return New(context.Background(), ctrl, catalog, "en-US-1")
}

func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func TestShortcutTriggersGenerate(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)
	m.input.SetValue("Hello")

	_, cmd := m.Update(altEnter)
	msg := runCmd(t, cmd)

	done, ok := msg.(generateDoneMsg)
	require.True(t, ok)
	assert.NoError(t, done.err)
	assert.Equal(t, []generateCall{{text: "Hello", voice: "en-US-1"}}, ctrl.calls)
}

func TestShortcutIgnoredWhileLoading(t *testing.T) {
	ctrl := &fakeController{state: speechmodel.State{Kind: speechmodel.StateLoading, Seq: 1}}
	m := newTestModel(ctrl)
	m.input.SetValue("Hello")

	_, cmd := m.Update(altEnter)

	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.calls)
	assert.Contains(t, m.View(), "Processing...")
}

func TestGenerateButtonWithSelectedVoice(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)
	m.input.SetValue("Hi there")

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusVoice, m.focus)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "en-US-2", m.SelectedVoice().ID)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "en-US-1", m.SelectedVoice().ID)
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusGenerate, m.focus)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, cmd)

	assert.Equal(t, []generateCall{{text: "Hi there", voice: "en-US-2"}}, ctrl.calls)
}

func TestSuccessAndErrorViewsAreExclusive(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)

	ctrl.setState(speechmodel.State{Kind: speechmodel.StateSuccess, AudioURL: "https://x/a.mp3", Seq: 2})
	_, cmd := m.Update(StateChangedMsg(ctrl.State()))
	require.NotNil(t, cmd, "success starts the flash timer")

	view := m.View()
	assert.Contains(t, view, "https://x/a.mp3")
	assert.Contains(t, view, "Download")
	assert.NotContains(t, view, "Oops!")
	assert.NotContains(t, view, "Converting your text")

	m.Update(flashDoneMsg{seq: 2})
	assert.Zero(t, m.flashSeq)

	ctrl.setState(speechmodel.State{Kind: speechmodel.StateError, Message: "Oops! Server error: 500. Please try again. 🔄 🚫", Seq: 3})
	m.Update(StateChangedMsg(ctrl.State()))

	view = m.View()
	assert.Contains(t, view, "Server error: 500")
	assert.NotContains(t, view, "https://x/a.mp3")
	assert.NotContains(t, view, "Your audio is ready")
}

func TestDownloadAndReplayKeys(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, 0, ctrl.downloads)
	assert.Empty(t, m.notice)

	ctrl.setState(speechmodel.State{Kind: speechmodel.StateSuccess, AudioURL: "https://x/a.mp3", Seq: 1})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, 1, ctrl.downloads)
	assert.Equal(t, "Downloading...", m.notice)

	m.Update(DownloadMsg{Path: "voiceify-speech-1.mp3"})
	assert.Contains(t, m.View(), "Saved to voiceify-speech-1.mp3")

	m.Update(DownloadMsg{Err: errors.New("disk full")})
	assert.Contains(t, m.View(), "Download failed: disk full")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, 1, ctrl.replays)
}

func TestDownloadFocusOnlyInSuccess(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)

	for i := 0; i < 3; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	assert.Equal(t, focusText, m.focus)

	ctrl.setState(speechmodel.State{Kind: speechmodel.StateSuccess, AudioURL: "https://x/a.mp3", Seq: 1})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, focusDownload, m.focus)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, ctrl.downloads)

	ctrl.setState(speechmodel.State{Kind: speechmodel.StateLoading, Seq: 2})
	m.Update(StateChangedMsg(ctrl.State()))
	assert.Equal(t, focusGenerate, m.focus)
}

func TestEscDismissesError(t *testing.T) {
	ctrl := &fakeController{state: speechmodel.State{Kind: speechmodel.StateError, Message: "Oops!", Seq: 1}}
	m := newTestModel(ctrl)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 0, ctrl.dismissals, "dismiss runs outside the event loop")
	runCmd(t, cmd)

	assert.Equal(t, 1, ctrl.dismissals)
	assert.Equal(t, speechmodel.StateIdle, ctrl.State().Kind)
}

func TestInputGrowsWithContent(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	assert.Equal(t, minInputHeight, m.input.Height())

	m.input.SetValue(strings.Repeat("line\n", 12) + "last")
	m.resizeInput()
	assert.Equal(t, 13, m.input.Height())

	// 终端变矮后输入框被限制在可用高度内
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 24})
	assert.Equal(t, 24-reservedRows, m.input.Height())

	m.input.SetValue("short")
	m.resizeInput()
	assert.Equal(t, minInputHeight, m.input.Height())
}

func TestInputGrowsWithWrappedParagraph(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 200})

	paragraph := strings.Repeat("word ", 400)
	m.input.SetValue(paragraph)
	m.resizeInput()

	width := m.input.Width()
	require.Greater(t, width, 0)
	want := (lipgloss.Width(paragraph) + width - 1) / width
	assert.Greater(t, want, minInputHeight)
	assert.Equal(t, want, m.input.Height())

	// 终端高度仍然是上限
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	assert.Equal(t, 30-reservedRows, m.input.Height())
}

func TestCounterShowsTrimmedLength(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)
	m.input.SetValue("  Hello  ")
	assert.Contains(t, m.View(), "5/3000")

	m.input.SetValue(strings.Repeat("a", 3001))
	assert.Contains(t, m.View(), "3001/3000")
}

func TestQuit(t *testing.T) {
	m := newTestModel(&fakeController{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	msg := runCmd(t, cmd)

	_, ok := msg.(tea.QuitMsg)
	assert.True(t, ok)
}
