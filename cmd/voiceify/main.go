package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/voiceify/internal/audio"
	"github.com/zhouzirui/voiceify/internal/config"
	"github.com/zhouzirui/voiceify/internal/controller"
	"github.com/zhouzirui/voiceify/internal/service/speech"
	"github.com/zhouzirui/voiceify/internal/voices"
)

var (
	apiURL     string
	voicesFile string
	noAutoplay bool
)

var rootCmd = &cobra.Command{
	Use:          "voiceify",
	Short:        "Turn text into speech from your terminal",
	SilenceUsage: true,
	Long: `Voiceify sends text to a text-to-speech endpoint and plays back the result.

Without a subcommand it opens the interactive form. The endpoint is read from
VOICEIFY_API_URL (a .env file in the working directory is honoured) or --api-url.`,
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "synthesis endpoint (overrides VOICEIFY_API_URL)")
	rootCmd.PersistentFlags().StringVar(&voicesFile, "voices", "", "YAML voice catalog (overrides VOICEIFY_VOICES_FILE)")
	rootCmd.PersistentFlags().BoolVar(&noAutoplay, "no-autoplay", false, "do not play audio automatically")

	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(voicesCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] failed to load .env file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig 读取环境配置并应用命令行覆盖
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if apiURL != "" {
		cfg.Client.APIURL = apiURL
	}
	if voicesFile != "" {
		cfg.Client.VoicesFile = voicesFile
	}
	if noAutoplay {
		cfg.Client.Autoplay = false
	}
	return cfg, nil
}

func loadCatalog(cfg *config.Config) (*voices.Catalog, error) {
	return voices.Load(cfg.Client.VoicesFile)
}

// newController 按配置组装控制器，extra 用于挂接界面回调
func newController(ctx context.Context, cfg config.ClientConfig, extra ...controller.Option) (*controller.Controller, *audio.Player) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	opts := []controller.Option{
		controller.WithSaver(speech.NewDownloader(cfg.DownloadDir, httpClient)),
		controller.WithBackgroundContext(ctx),
	}

	var player *audio.Player
	if cfg.Autoplay {
		player = audio.NewPlayer(httpClient)
		opts = append(opts, controller.WithPlayer(player))
	}

	opts = append(opts, extra...)
	return controller.New(speech.NewClientWithHTTP(cfg.APIURL, httpClient), opts...), player
}
