// Package controller 持有界面状态，驱动 校验 → 提交 → 成功/失败 的完整交互。
package controller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
	"github.com/zhouzirui/voiceify/internal/service/speech"
)

// DefaultErrorDismissDelay 错误提示自动隐藏的延迟
const DefaultErrorDismissDelay = 5 * time.Second

// ErrBusy 请求进行中，触发按钮处于禁用状态
var ErrBusy = errors.New("a synthesis request is already in flight")

// Submitter 向合成端点发送请求
type Submitter interface {
	Submit(ctx context.Context, req speechmodel.Request) (string, error)
}

// Saver 保存音频到本地
type Saver interface {
	Save(ctx context.Context, audioURL string) (string, error)
}

// Player 播放音频，阻塞到播放结束或被打断
type Player interface {
	Play(ctx context.Context, audioURL string) error
}

// AfterFunc 延迟执行 f，签名与 time.AfterFunc 对齐以便测试替换
type AfterFunc func(d time.Duration, f func())

// Option 配置 Controller
type Option func(*Controller)

// WithSaver 设置下载实现
func WithSaver(s Saver) Option {
	return func(c *Controller) { c.saver = s }
}

// WithPlayer 设置自动播放实现，nil 表示关闭自动播放
func WithPlayer(p Player) Option {
	return func(c *Controller) { c.player = p }
}

// WithListener 每次状态切换后回调
func WithListener(fn func(speechmodel.State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithDownloadListener 下载结束后回调
func WithDownloadListener(fn func(speechmodel.DownloadNotice)) Option {
	return func(c *Controller) { c.onDownload = fn }
}

// WithErrorDismissDelay 覆盖错误自动隐藏延迟
func WithErrorDismissDelay(d time.Duration) Option {
	return func(c *Controller) { c.dismissDelay = d }
}

// WithAfterFunc 替换定时器实现
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = fn }
}

// WithBackgroundContext 设置后台任务（播放、下载）使用的 context
func WithBackgroundContext(ctx context.Context) Option {
	return func(c *Controller) { c.background = ctx }
}

// Controller 唯一持有界面状态的地方，所有状态切换都经由它的方法完成
type Controller struct {
	mu    sync.Mutex
	state speechmodel.State

	// 最近一次成功的音频地址，作为下载目标
	downloadURL string

	submitter    Submitter
	saver        Saver
	player       Player
	onChange     func(speechmodel.State)
	onDownload   func(speechmodel.DownloadNotice)
	dismissDelay time.Duration
	afterFunc    AfterFunc
	background   context.Context

	jobs sync.WaitGroup
}

// New 创建控制器，初始状态为 Idle
func New(submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		submitter:    submitter,
		dismissDelay: DefaultErrorDismissDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		background: context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State 返回当前状态快照
func (c *Controller) State() speechmodel.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TriggerEnabled 生成按钮当前是否可用
func (c *Controller) TriggerEnabled() bool {
	return c.State().TriggerEnabled()
}

// Validate 校验输入文本
func (c *Controller) Validate(text string) (string, error) {
	return speech.Validate(text)
}

// Submit 发送一次合成请求，不修改界面状态
func (c *Controller) Submit(ctx context.Context, text, voice string) (string, error) {
	return c.submitter.Submit(ctx, speechmodel.Request{Text: text, Voice: voice})
}

// OnGenerateClicked 处理一次生成操作。
// 请求进行中再次触发时直接返回 ErrBusy，不产生任何效果。
func (c *Controller) OnGenerateClicked(ctx context.Context, text, voice string) error {
	valid, err := c.Validate(text)

	c.mu.Lock()
	if c.state.Kind == speechmodel.StateLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	if err != nil {
		snapshot := c.transitionLocked(errorState(err))
		c.mu.Unlock()
		c.notify(snapshot)
		c.scheduleDismiss(snapshot.Seq)
		return err
	}
	snapshot := c.transitionLocked(speechmodel.State{Kind: speechmodel.StateLoading})
	c.mu.Unlock()
	c.notify(snapshot)

	log.Printf("[controller] submitting %d characters, voice=%q", len([]rune(valid)), voice)

	audioURL, err := c.Submit(ctx, valid, voice)

	c.mu.Lock()
	if err != nil {
		snapshot = c.transitionLocked(errorState(err))
	} else {
		c.downloadURL = audioURL
		snapshot = c.transitionLocked(speechmodel.State{Kind: speechmodel.StateSuccess, AudioURL: audioURL})
	}
	c.mu.Unlock()
	c.notify(snapshot)

	if err != nil {
		log.Printf("[controller] conversion error: %v", err)
		c.scheduleDismiss(snapshot.Seq)
		return err
	}

	c.autoplay(audioURL)
	return nil
}

// Download 在后台把音频保存为 voiceify-speech-<时间戳>.mp3，结果通过下载回调通知
func (c *Controller) Download(audioURL string) {
	if c.saver == nil || audioURL == "" {
		return
	}

	c.jobs.Add(1)
	go func() {
		defer c.jobs.Done()

		path, err := c.saver.Save(c.background, audioURL)
		if err != nil {
			log.Printf("[controller] download failed: %v", err)
		} else {
			log.Printf("[controller] audio saved to %s", path)
		}

		if c.onDownload != nil {
			c.onDownload(speechmodel.DownloadNotice{Path: path, Err: err})
		}
	}()
}

// DownloadCurrent 下载当前成功状态下的音频，非成功状态时忽略
func (c *Controller) DownloadCurrent() bool {
	c.mu.Lock()
	url := c.downloadURL
	ok := c.state.Kind == speechmodel.StateSuccess && url != ""
	c.mu.Unlock()

	if ok {
		c.Download(url)
	}
	return ok
}

// Replay 重新播放当前音频
func (c *Controller) Replay() bool {
	state := c.State()
	if state.Kind != speechmodel.StateSuccess {
		return false
	}
	c.autoplay(state.AudioURL)
	return true
}

// Dismiss 用户主动关闭错误提示
func (c *Controller) Dismiss() {
	c.dismissIfCurrent(c.State().Seq)
}

// Wait 等待后台任务（播放、下载）结束
func (c *Controller) Wait() {
	c.jobs.Wait()
}

func (c *Controller) autoplay(audioURL string) {
	if c.player == nil {
		return
	}

	c.jobs.Add(1)
	go func() {
		defer c.jobs.Done()
		// 自动播放失败属于预期情况，只记录日志
		if err := c.player.Play(c.background, audioURL); err != nil {
			log.Printf("[controller] auto-play prevented: %v", err)
		}
	}()
}

func errorState(err error) speechmodel.State {
	return speechmodel.State{Kind: speechmodel.StateError, Message: speech.UserMessage(err)}
}

// scheduleDismiss 定时器不可取消，触发时由 dismissIfCurrent 判断是否已过期
func (c *Controller) scheduleDismiss(seq uint64) {
	c.afterFunc(c.dismissDelay, func() {
		c.dismissIfCurrent(seq)
	})
}

// dismissIfCurrent 仅当错误状态仍是 seq 对应的那一次时才回到 Idle
func (c *Controller) dismissIfCurrent(seq uint64) {
	c.mu.Lock()
	if c.state.Kind != speechmodel.StateError || c.state.Seq != seq {
		c.mu.Unlock()
		return
	}
	snapshot := c.transitionLocked(speechmodel.State{Kind: speechmodel.StateIdle})
	c.mu.Unlock()
	c.notify(snapshot)
}

func (c *Controller) transitionLocked(next speechmodel.State) speechmodel.State {
	next.Seq = c.state.Seq + 1
	c.state = next
	return next
}

func (c *Controller) notify(state speechmodel.State) {
	if c.onChange != nil {
		c.onChange(state)
	}
}
