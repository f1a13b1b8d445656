package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/voiceify/internal/controller"
	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
	"github.com/zhouzirui/voiceify/internal/voices"
)

var (
	sayText     string
	sayVoice    string
	sayDownload bool
	sayPlay     bool
)

var sayCmd = &cobra.Command{
	Use:   "say [text]",
	Short: "Convert text once without the interactive form",
	Long: `Submit text once and print each state transition.

Text comes from --text, the positional argument, or stdin when neither is given.
Exits non-zero when the attempt ends in an error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSay,
}

func init() {
	sayCmd.Flags().StringVar(&sayText, "text", "", "text to convert")
	sayCmd.Flags().StringVar(&sayVoice, "voice", "", "voice id (defaults to VOICEIFY_DEFAULT_VOICE or the first catalog voice)")
	sayCmd.Flags().BoolVar(&sayDownload, "download", false, "save the audio as voiceify-speech-<timestamp>.mp3")
	sayCmd.Flags().BoolVar(&sayPlay, "play", false, "play the audio and wait until it finishes")
}

func runSay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Client.Validate(); err != nil {
		return err
	}
	cfg.Client.Autoplay = sayPlay

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	text, err := resolveSayText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	voice := resolveSayVoice(catalog, sayVoice, cfg.Client.DefaultVoice)

	out := cmd.OutOrStdout()
	ctrl, _ := newController(cmd.Context(), cfg.Client,
		controller.WithListener(func(s speechmodel.State) {
			fmt.Fprintln(out, describeState(s))
		}),
		controller.WithDownloadListener(func(n speechmodel.DownloadNotice) {
			if n.Err != nil {
				fmt.Fprintf(out, "download failed: %v\n", n.Err)
				return
			}
			fmt.Fprintf(out, "saved %s\n", n.Path)
		}),
		// 单次执行不需要自动隐藏错误
		controller.WithAfterFunc(func(time.Duration, func()) {}),
	)

	genErr := ctrl.OnGenerateClicked(cmd.Context(), text, voice)
	if genErr == nil && sayDownload {
		ctrl.DownloadCurrent()
	}
	ctrl.Wait()

	if genErr != nil {
		return errors.New(ctrl.State().Message)
	}
	return nil
}

func resolveSayText(args []string, stdin io.Reader) (string, error) {
	if sayText != "" {
		return sayText, nil
	}
	if len(args) == 1 {
		return args[0], nil
	}
	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read text from stdin: %w", err)
	}
	return string(data), nil
}

func resolveSayVoice(catalog *voices.Catalog, flagVoice, defaultVoice string) string {
	for _, v := range []string{flagVoice, defaultVoice} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return catalog.At(0).ID
}

func describeState(s speechmodel.State) string {
	switch s.Kind {
	case speechmodel.StateLoading:
		return "loading: converting your text to speech..."
	case speechmodel.StateSuccess:
		return "success: " + s.AudioURL
	case speechmodel.StateError:
		return "error: " + s.Message
	default:
		return s.Kind.String()
	}
}
