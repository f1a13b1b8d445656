package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

func TestNotifierWithoutProgramIsNoop(t *testing.T) {
	var n Notifier
	assert.NotPanics(t, func() {
		n.StateChanged(speechmodel.State{Kind: speechmodel.StateLoading})
		n.DownloadFinished(speechmodel.DownloadNotice{Path: "a.mp3"})
	})
}
