package utils

import (
	"strings"
)

func cleanWhiteSpaceFromEachStringOfAnArray(input []string) []string {
	sanitizedArray := make([]string, len(input))
	for i, v := range input {
		sanitizedArray[i] = strings.TrimSpace(v)
	}
	return sanitizedArray
}

// SanitizeSearchParams trims the keys and every comma separated value of the
// raw query. An empty value stays empty so it can still match nothing.
func SanitizeSearchParams(input map[string]string) map[string]string {
	sanitized := make(map[string]string, len(input))
	for key, value := range input {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values := cleanWhiteSpaceFromEachStringOfAnArray(strings.Split(value, ","))
		sanitized[key] = strings.Join(values, ",")
	}
	return sanitized
}
