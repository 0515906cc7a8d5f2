package services

import "strings"

func validUsername(username string) bool {
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-' || r == '+':
		default:
			return false
		}
	}
	return username != ""
}

func isEmail(s string) bool {
	return strings.Contains(s, "@")
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
