package common

import (
	"strings"

	"github.com/google/uuid"
)

const runIDPrefix = "run_"

// NewRunID generates a unique analysis run ID
// Format: run_<uuid>
func NewRunID() string {
	return runIDPrefix + uuid.New().String()
}

// IsRunID reports whether id was produced by NewRunID
func IsRunID(id string) bool {
	if !strings.HasPrefix(id, runIDPrefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(id, runIDPrefix))
	return err == nil
}
