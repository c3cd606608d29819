package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const mask = '*'

// Blocklist words are long enough to avoid collisions inside ordinary words.
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"spammer", "scammer", "phishing"}, mask, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "single word keeps spacing",
			input:    "That spammer again",
			expected: "That ******* again",
			words:    []string{"spammer"},
		},
		{
			name:     "repeated word",
			input:    "scammer scammer",
			expected: "******* *******",
			words:    []string{"scammer", "scammer"},
		},
		{
			name:     "leet speak with punctuation inside",
			input:    "beware of $.c.4.m.m.3.r today",
			expected: "beware of ************* today",
			words:    []string{"scammer"},
		},
		{
			name:     "upper case and dashes",
			input:    "P-H-I-S-H-I-N-G and SPAMMER",
			expected: "*************** and *******",
			words:    []string{"phishing", "spammer"},
		},
		{
			name:     "accented text around a match",
			input:    "Un été sans spammer",
			expected: "Un été sans *******",
			words:    []string{"spammer"},
		},
		{
			name:     "trailing punctuation stays",
			input:    "no phishing!",
			expected: "no ********!",
			words:    []string{"phishing"},
		},
		{
			name:     "clean text",
			input:    "Weekend plans are set",
			expected: "Weekend plans are set",
			words:    nil,
		},
		{
			name:     "empty text",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			require.Equal(t, tt.expected, content)
			require.Equal(t, tt.words, words)
		})
	}
}

func TestModerator_Noise_Only_Entries_Are_Ignored(t *testing.T) {
	req := require.New(t)

	// Given a blocklist polluted with punctuation and blanks
	mod, err := NewModerator([]string{"...", ",,,", "", "  ", "spammer"}, mask, slog.Default())
	req.NoError(err)

	content, words := mod.Censor("Hello ... spammer")
	req.Equal("Hello ... *******", content)
	req.Equal([]string{"spammer"}, words)
}

func TestModerator_Empty_Blocklist_Is_Passthrough(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator(nil, mask, slog.Default())
	req.NoError(err)

	content, words := mod.Censor("anything goes")
	req.Equal("anything goes", content)
	req.Nil(words)
}
