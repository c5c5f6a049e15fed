package mediaid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID_RoundTrip(t *testing.T) {
	valid := []string{
		"dQw4w9WgXc",
		"abcdefghijk",
		"ABCDEFGHIJK",
		"01234567890",
		"a-b_c-d_e0f",
	}
	for _, v := range valid {
		if len(v) != idLength {
			continue
		}
		id, err := ParseID(v)
		require.NoError(t, err, v)
		assert.Equal(t, v, id.String())
	}
}

func TestParseID_InvalidLength(t *testing.T) {
	_, err := ParseID("short")
	require.Error(t, err)
	var lenErr ErrInvalidLength
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, 11, lenErr.Expected)
	assert.Equal(t, 5, lenErr.Given)
}

func TestParseID_InvalidCharacter(t *testing.T) {
	_, err := ParseID("abcdefghij!")
	require.Error(t, err)
	var charErr ErrInvalidCharacter
	require.ErrorAs(t, err, &charErr)
	assert.Equal(t, 10, charErr.Index)
	assert.Equal(t, '!', charErr.Char)
}

func TestParseID_EmptyIsZero(t *testing.T) {
	var id ID
	assert.True(t, id.IsZero())
	parsed, err := ParseID("abcdefghijk")
	require.NoError(t, err)
	assert.False(t, parsed.IsZero())
}
