package vision

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paddydoc/api/internal/report"
)

type mockEngine struct {
	mock.Mock
	name string
}

func (m *mockEngine) Name() string     { return m.name }
func (m *mockEngine) GetModel() string { return m.name + "-model" }
func (m *mockEngine) Analyze(ctx context.Context, image []byte, mime string) (string, error) {
	args := m.Called(ctx, image, mime)
	return args.String(0), args.Error(1)
}

func testCtx(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func TestDescribe(t *testing.T) {
	img := []byte{1, 2, 3}

	t.Run("passes text through", func(t *testing.T) {
		e := &mockEngine{name: "gemini"}
		e.On("Analyze", mock.Anything, img, "image/png").Return("The plant looks healthy.", nil)

		assert.Equal(t, "The plant looks healthy.", Describe(testCtx(t), e, img, "image/png"))
		e.AssertExpectations(t)
	})

	t.Run("maps errors to the error prefix", func(t *testing.T) {
		e := &mockEngine{name: "gemini"}
		e.On("Analyze", mock.Anything, img, "").Return("", errors.New("network timeout"))

		txt := Describe(testCtx(t), e, img, "")
		assert.Equal(t, "Error analyzing image: network timeout", txt)
		assert.Equal(t, report.ErrorReport{Message: "network timeout"}, report.Classify(txt))
	})

	t.Run("blank answer is an error", func(t *testing.T) {
		e := &mockEngine{name: "gpt"}
		e.On("Analyze", mock.Anything, img, "").Return("  \n", nil)

		r := report.Classify(Describe(testCtx(t), e, img, ""))
		assert.Equal(t, report.ErrorReport{Message: ErrEmptyResponse.Error()}, r)
	})

	t.Run("nil engine", func(t *testing.T) {
		r := report.Classify(Describe(context.Background(), nil, img, ""))
		assert.Equal(t, report.KindError, r.Kind())
	})
}

func TestEngines_GetEngine(t *testing.T) {
	g := &mockEngine{name: "gemini"}
	o := &mockEngine{name: "gpt"}
	engs := &Engines{Gemini: g, OpenAI: o}

	got, err := engs.GetEngine("")
	require.NoError(t, err)
	assert.Same(t, g, got)

	got, err = engs.GetEngine(" GPT ")
	require.NoError(t, err)
	assert.Same(t, o, got)

	got, err = engs.GetEngine("openai")
	require.NoError(t, err)
	assert.Same(t, o, got)

	engs.Default = "gpt"
	got, err = engs.GetEngine("")
	require.NoError(t, err)
	assert.Same(t, o, got)

	_, err = engs.GetEngine("yandex")
	assert.ErrorIs(t, err, ErrUnknownEngine)

	_, err = (&Engines{Gemini: g}).GetEngine("gpt")
	assert.Error(t, err)

	assert.Equal(t, []string{"gemini", "gpt"}, engs.Names())
}

func TestManager(t *testing.T) {
	g := &mockEngine{name: "gemini"}
	o := &mockEngine{name: "gpt"}
	m := NewManager(g)

	assert.Same(t, g, m.Get(1))
	m.Set(1, o)
	assert.Same(t, o, m.Get(1))
	assert.Same(t, g, m.Get(2))

	var wg sync.WaitGroup
	for i := int64(0); i < 16; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.Set(id, o)
			_ = m.Get(id)
		}(i)
	}
	wg.Wait()
}
