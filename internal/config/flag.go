package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MissingError reports a required environment value that was absent when an
// operation needing it was invoked.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return "your environment is missing " + e.Key
}

// ParseFlag converts the operator-facing flag literals into a bool. The
// accepted set matches long-standing habits: 1/t/true and 0/f/false, case
// insensitive.
func ParseFlag(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "t", "true":
		return true, nil
	case "0", "f", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid flag value %q", raw)
}

// ParseWait interprets a wait argument: an integer is a timeout in seconds,
// a true flag means the default timeout, a false flag means no wait.
func (s Settings) ParseWait(raw string) (time.Duration, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	ok, err := ParseFlag(raw)
	if err != nil {
		return 0, err
	}
	if ok {
		return s.WaitTimeout(), nil
	}
	return 0, nil
}
