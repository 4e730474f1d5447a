package validation

import (
	"regexp"
	"time"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Username: 3-32 chars, alphanumeric plus underscore.
func Username(v string) bool {
	return len(v) >= 3 && len(v) <= 32 && usernameRe.MatchString(v)
}

func Email(v string) bool {
	return v != "" && emailRe.MatchString(v)
}

// Password: minimum 6 characters.
func Password(v string) bool {
	return len(v) >= 6
}

// TournamentName: 3-128 chars.
func TournamentName(v string) bool {
	return len(v) >= 3 && len(v) <= 128
}

func BuyInChips(v int) bool {
	return v > 0
}

func EntryFee(v float64) bool {
	return v >= 0
}

// MaxPlayers: poker tables seat 2-8.
func MaxPlayers(v int) bool {
	return v >= 2 && v <= 8
}

func FutureDate(v time.Time) bool {
	return !v.IsZero() && v.After(time.Now())
}

func Stack(v int) bool {
	return v >= 0
}
