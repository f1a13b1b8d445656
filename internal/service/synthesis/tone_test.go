package synthesis

import (
	"bytes"
	"context"
	"testing"

	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

func TestToneBackendProducesWAV(t *testing.T) {
	b := &ToneBackend{tempDir: t.TempDir()}

	audio, err := b.Synthesize(context.Background(), speechmodel.Request{Text: "hello tone world", Voice: "Joanna"})
	require.NoError(t, err)
	assert.Equal(t, "wav", audio.Format)
	assert.True(t, bytes.HasPrefix(audio.Data, []byte("RIFF")))

	streamer, format, err := wav.Decode(bytes.NewReader(audio.Data))
	require.NoError(t, err)
	defer streamer.Close()
	assert.Equal(t, toneSampleRate, format.SampleRate)

	want := 0
	for _, w := range []string{"hello", "tone", "world"} {
		want += toneSampleRate.N(wordDuration(w)) + toneSampleRate.N(toneGap)
	}
	assert.Equal(t, want, streamer.Len())
}

func TestToneBackendRejectsBlankText(t *testing.T) {
	_, err := NewToneBackend().Synthesize(context.Background(), speechmodel.Request{Text: "   "})
	assert.Error(t, err)
}

func TestBasePitchDependsOnVoice(t *testing.T) {
	assert.Equal(t, basePitch("Amy"), basePitch("amy"))
	for _, v := range []string{"", "Joanna", "Matthew", "Aditi"} {
		p := basePitch(v)
		assert.GreaterOrEqual(t, p, 160.0)
		assert.Less(t, p, 400.0)
	}
}
