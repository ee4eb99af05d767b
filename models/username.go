package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var usernameCleaner = regexp.MustCompile(`[^a-z0-9_.-]+`)

// DeriveUsername builds the canonical identifier from the email local part,
// appending a counter until taken reports the candidate free.
func DeriveUsername(email string, taken func(candidate string) (bool, error)) (string, error) {
	local, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	base := usernameCleaner.ReplaceAllString(local, "")
	if base == "" {
		base = "user"
	}
	if len(base) > 140 {
		base = base[:140]
	}

	candidate := base
	for i := 2; i < 1000; i++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}
