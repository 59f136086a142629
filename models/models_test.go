package models

import (
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{name: "long key keeps last four", key: "sk-live-abcdef123456", expected: "****************3456"},
		{name: "exactly four", key: "abcd", expected: "****"},
		{name: "shorter than four", key: "ab", expected: "**"},
		{name: "empty", key: "", expected: ""},
		{name: "surrounding whitespace ignored", key: "  12345  ", expected: "*2345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskKey(tt.key)
			assert.Equal(t, tt.expected, got)
			assert.Len(t, []rune(got), len([]rune(tt.expected)))
		})
	}
}

func TestValidateEmbedding(t *testing.T) {
	assert.NoError(t, ValidateEmbedding(nil))

	ok := pgvector.NewVector(make([]float32, EmbeddingDimensions))
	assert.NoError(t, ValidateEmbedding(&ok))

	short := pgvector.NewVector(make([]float32, 3))
	err := ValidateEmbedding(&short)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmbeddingDimensions))
}

func TestEmbeddingHooksRejectWrongWidth(t *testing.T) {
	bad := NewEmbedding([]float32{1, 2, 3})

	assert.ErrorIs(t, (&ResumeChunk{Embedding: bad}).BeforeSave(nil), ErrEmbeddingDimensions)
	assert.ErrorIs(t, (&CompanyDocChunk{Embedding: bad}).BeforeSave(nil), ErrEmbeddingDimensions)
	assert.ErrorIs(t, (&TranscriptChunk{Embedding: bad}).BeforeSave(nil), ErrEmbeddingDimensions)

	assert.NoError(t, (&ResumeChunk{}).BeforeSave(nil))
}

func TestNewEmbedding(t *testing.T) {
	assert.Nil(t, NewEmbedding(nil))

	v := NewEmbedding([]float32{0.5, 0.25})
	require.NotNil(t, v)
	assert.Equal(t, []float32{0.5, 0.25}, v.Slice())
}

func TestBaseBeforeCreate(t *testing.T) {
	p := &Profile{}
	require.NoError(t, p.BeforeCreate(nil))
	assert.Len(t, p.ID, 36)

	fixed := &Profile{Base: Base{ID: "keep-me"}}
	require.NoError(t, fixed.BeforeCreate(nil))
	assert.Equal(t, "keep-me", fixed.ID)
}

func TestResumeObjectKey(t *testing.T) {
	r := Resume{Base: Base{ID: "r1"}, ProfileID: "p1", Filename: "../../etc/cv.pdf"}
	assert.Equal(t, "resumes/p1/r1/cv.pdf", r.ObjectKey())
}
