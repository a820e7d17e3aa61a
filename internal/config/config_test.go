package config

import (
	"testing"

	"github.com/rpcpool/sphx-index/internal/dict"
	"github.com/stretchr/testify/assert"
)

func TestNewAppliesDefaults(t *testing.T) {
	o := New()
	assert.Equal(t, defaultMinWordLen, o.MinWordLen)
	assert.Equal(t, defaultMaxWordLen, o.MaxWordLen)
	assert.True(t, o.UTF8Mode)
	assert.Equal(t, dict.CRCDictMode, o.DictMode)
	assert.Equal(t, HitFormatInline, o.HitFormat)
	assert.Equal(t, HitlessNone, o.HitlessMode)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	o := New(
		WithWordLenRange(2, 16),
		WithUTF8Mode(false),
		WithDictMode(dict.WordDictMode),
		WithMinInfixLen(2),
		WithMinPrefixLen(3),
		WithMaxSubstrLen(10),
		WithHitFormat(HitFormatPlain),
		WithHitlessMode(HitlessAll),
		WithBigramIndex(true),
		WithFieldLenIndex(true),
		WithMorphology("stem-en"),
		WithStopwords([]string{"the", "a"}),
		WithWordforms(map[string]string{"running": "run"}),
		WithBlendChars("-'"),
		WithBoundaryChars(" \t\n"),
		WithSynonymsFile("/etc/sphx/synonyms.txt"),
		WithExceptionsFile("/etc/sphx/exceptions.txt"),
		WithNgramLen(3),
	)

	assert.Equal(t, 2, o.MinWordLen)
	assert.Equal(t, 16, o.MaxWordLen)
	assert.False(t, o.UTF8Mode)
	assert.Equal(t, dict.WordDictMode, o.DictMode)
	assert.Equal(t, 2, o.MinInfixLen)
	assert.Equal(t, 3, o.MinPrefixLen)
	assert.Equal(t, 10, o.MaxSubstrLen)
	assert.Equal(t, HitFormatPlain, o.HitFormat)
	assert.Equal(t, HitlessAll, o.HitlessMode)
	assert.True(t, o.BigramIndex)
	assert.True(t, o.FieldLenIndex)
	assert.Equal(t, "stem-en", o.Morphology)
	assert.Equal(t, []string{"the", "a"}, o.Stopwords)
	assert.Equal(t, "run", o.Wordforms["running"])
	assert.Equal(t, "-'", o.BlendChars)
	assert.Equal(t, " \t\n", o.BoundaryChars)
	assert.Equal(t, "/etc/sphx/synonyms.txt", o.SynonymsFile)
	assert.Equal(t, "/etc/sphx/exceptions.txt", o.ExceptionsFile)
	assert.Equal(t, 3, o.NgramLen)
}
