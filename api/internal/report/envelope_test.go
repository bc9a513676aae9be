package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("error carries message and one section", func(t *testing.T) {
		env := Encode(ErrorReport{Message: "boom"})
		assert.Equal(t, KindError, env.Kind)
		assert.Equal(t, "boom", env.Message)
		assert.Equal(t, []Section{{Title: ErrorTitle, Content: "boom"}}, env.Sections)
	})

	t.Run("empty structured report encodes an empty list", func(t *testing.T) {
		b, err := json.Marshal(Encode(Classify("")))
		require.NoError(t, err)
		assert.JSONEq(t, `{"kind":"structured","sections":[]}`, string(b))
	})
}

func TestDecode(t *testing.T) {
	in := Classify("Intro\n1. Disease Name: Blast\n2. Severity: severe")

	got, err := Decode(Encode(in))
	require.NoError(t, err)
	assert.Equal(t, in.Sections(), got.Sections())
	assert.Equal(t, KindStructured, got.Kind())

	_, err = Decode(Envelope{Kind: "weird"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}
