package chatclient

import (
	"strconv"
	"strings"
)

// ResolveInput turns a typed line into the message to send. A bare number
// picks the matching canned question (1-based); anything else is sent as typed.
func ResolveInput(input string, questions []string) string {
	trimmed := strings.TrimSpace(input)
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 || n > len(questions) {
		return input
	}
	return questions[n-1]
}
