package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifficultyMixValidate(t *testing.T) {
	assert.NoError(t, DefaultDifficultyMix().Validate())
	assert.NoError(t, DifficultyMix{Medium: 1}.Validate())
	// Small float drift is tolerated.
	assert.NoError(t, DifficultyMix{Easy: 0.33, Medium: 0.33, Hard: 0.33}.Validate())

	assert.Error(t, DifficultyMix{}.Validate())
	assert.Error(t, DifficultyMix{Easy: 0.5, Medium: 0.5, Hard: 0.5}.Validate())
	assert.Error(t, DifficultyMix{Easy: -0.2, Medium: 1.0, Hard: 0.2}.Validate())
}

func TestDifficultyMixRoundTrip(t *testing.T) {
	original := DifficultyMix{Easy: 0.3, Medium: 0.5, Hard: 0.2}

	value, err := original.Value()
	require.NoError(t, err)

	var scanned DifficultyMix
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)
}
