package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", "alice_99", true},
		{"minimum length", "abc", true},
		{"too short", "ab", false},
		{"too long", strings.Repeat("a", 33), false},
		{"empty", "", false},
		{"spaces", "ali ce", false},
		{"special chars", "alice!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Username(tt.input))
		})
	}
}

func TestEmail(t *testing.T) {
	t.Parallel()

	assert.True(t, Email("alice@example.com"))
	assert.False(t, Email("alice@example"))
	assert.False(t, Email("not-an-email"))
	assert.False(t, Email(""))
}

func TestPassword(t *testing.T) {
	t.Parallel()

	assert.True(t, Password("Secret123"))
	assert.True(t, Password("123456"))
	assert.False(t, Password("12345"))
	assert.False(t, Password(""))
}

func TestTournamentFields(t *testing.T) {
	t.Parallel()

	assert.True(t, TournamentName("Friday Night Holdem"))
	assert.False(t, TournamentName("ab"))
	assert.False(t, TournamentName(strings.Repeat("x", 129)))

	assert.True(t, BuyInChips(10000))
	assert.False(t, BuyInChips(0))

	assert.True(t, EntryFee(0))
	assert.False(t, EntryFee(-1))

	assert.True(t, MaxPlayers(2))
	assert.True(t, MaxPlayers(8))
	assert.False(t, MaxPlayers(1))
	assert.False(t, MaxPlayers(9))

	assert.True(t, FutureDate(time.Now().Add(time.Hour)))
	assert.False(t, FutureDate(time.Now().Add(-time.Hour)))
	assert.False(t, FutureDate(time.Time{}))

	assert.True(t, Stack(0))
	assert.False(t, Stack(-5))
}
