package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointsRoundTripCRCMode(t *testing.T) {
	cps := []Checkpoint{
		{WordID: 10, Offset: 1},
		{WordID: 2000, Offset: 4096},
	}
	buf := EncodeCheckpoints(CRCDictMode, cps)
	got, err := DecodeCheckpoints(CRCDictMode, buf)
	require.NoError(t, err)
	assert.Equal(t, cps, got)
}

func TestCheckpointsRoundTripWordMode(t *testing.T) {
	cps := []Checkpoint{
		{FirstKeyword: []byte("alpha"), Offset: 1},
		{FirstKeyword: []byte("zeta"), Offset: 777},
	}
	buf := EncodeCheckpoints(WordDictMode, cps)
	got, err := DecodeCheckpoints(WordDictMode, buf)
	require.NoError(t, err)
	assert.Equal(t, cps, got)
}

func TestDecodeCheckpointsEmpty(t *testing.T) {
	buf := EncodeCheckpoints(CRCDictMode, nil)
	got, err := DecodeCheckpoints(CRCDictMode, buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}
