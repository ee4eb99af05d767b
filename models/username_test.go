package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func takenSet(names ...string) func(string) (bool, error) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(candidate string) (bool, error) { return set[candidate], nil }
}

func TestDeriveUsername(t *testing.T) {
	tests := []struct {
		name  string
		email string
		taken []string
		want  string
	}{
		{"local part", "Kim.Minsu@example.com", nil, "kim.minsu"},
		{"strips symbols", "k+i m!@example.com", nil, "kim"},
		{"suffix when taken", "admin@example.com", []string{"admin"}, "admin2"},
		{"next free suffix", "admin@example.com", []string{"admin", "admin2", "admin3"}, "admin4"},
		{"nothing usable", "+++@example.com", nil, "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveUsername(tt.email, takenSet(tt.taken...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveUsernameFallsBackToRandomSuffix(t *testing.T) {
	got, err := DeriveUsername("kim@example.com", func(string) (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "kim-"))
	assert.Len(t, got, len("kim-")+8)
}

func TestDeriveUsernamePropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	_, err := DeriveUsername("kim@example.com", func(string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}
