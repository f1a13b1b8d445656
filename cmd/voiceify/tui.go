package main

import (
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/voiceify/internal/controller"
	"github.com/zhouzirui/voiceify/internal/logging"
	"github.com/zhouzirui/voiceify/internal/tui"
)

func runInteractive(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Client.Validate(); err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	logFile := logging.ToFile(cfg.Log)
	defer logFile.Close()
	defer logging.ToStderr()

	ctx := cmd.Context()
	notifier := &tui.Notifier{}
	ctrl, player := newController(ctx, cfg.Client,
		controller.WithListener(notifier.StateChanged),
		controller.WithDownloadListener(notifier.DownloadFinished),
	)
	if player != nil {
		defer player.Stop()
	}

	model := tui.New(ctx, ctrl, catalog, cfg.Client.DefaultVoice)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	notifier.Attach(program)

	log.Printf("[voiceify] interactive session started, endpoint=%s", cfg.Client.APIURL)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	log.Printf("[voiceify] interactive session finished")
	return nil
}
