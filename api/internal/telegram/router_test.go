package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paddydoc/api/internal/vision"
	"paddydoc/api/internal/vision/gemini"
	"paddydoc/api/internal/vision/openai"
)

func TestSelectEngine(t *testing.T) {
	engs := &vision.Engines{
		Gemini:  gemini.New("key", ""),
		OpenAI:  openai.New("key", ""),
		Default: "gemini",
	}
	r := &Router{Engines: engs, EngManager: vision.NewManager(engs.Gemini)}

	eng, err := r.selectEngine(1, "gemini", "gemini-2.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", eng.GetModel())
	assert.Equal(t, "gemini-2.5-flash", r.EngManager.Get(1).GetModel())

	// other chats and the shared engine keep the default model
	assert.Equal(t, gemini.DefaultModel, r.EngManager.Get(2).GetModel())
	assert.Equal(t, gemini.DefaultModel, engs.Gemini.GetModel())

	eng, err = r.selectEngine(2, "gpt", "")
	require.NoError(t, err)
	assert.Same(t, engs.OpenAI, eng)
	assert.Equal(t, "gemini-2.5-flash", r.EngManager.Get(1).GetModel())

	_, err = r.selectEngine(3, "yandex", "")
	assert.ErrorIs(t, err, vision.ErrUnknownEngine)
	assert.Equal(t, gemini.DefaultModel, r.EngManager.Get(3).GetModel())
}

func TestSelectEngine_FixedModel(t *testing.T) {
	eng := new(mockEngine)
	r := &Router{Engines: &vision.Engines{OpenAI: eng}, EngManager: vision.NewManager(nil)}

	_, err := r.selectEngine(1, "gpt", "gpt-4o")
	assert.EqualError(t, err, "engine gpt has a fixed model")
	assert.Nil(t, r.EngManager.Get(1))
}
