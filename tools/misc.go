package tools

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"
)

// SystemUri is user@hostname of the running process, used as the fallback
// sender when none is configured.
func SystemUri() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	username := "brevq"
	u, err := user.Current()
	if err == nil && u.Username != "" {
		username = u.Username
	}
	return fmt.Sprintf("%s@%s", username, hostname)
}

func DomainOfEmail(address string) (string, error) {
	at := strings.LastIndex(address, "@")
	if at < 1 {
		return "", errors.New("no domain was present in email address")
	}
	return address[at+1:], nil
}

// Truncate cuts s to at most n bytes, used to keep stored error messages bounded.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
