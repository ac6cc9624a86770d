package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// splitSecretRef splits "path#key" into its parts. key is empty when the
// reference has no '#'.
func splitSecretRef(ref string) (path, key string) {
	path, key, _ = strings.Cut(ref, "#")
	return path, key
}

// secretField extracts key from a secret's fields. Values must be strings.
func secretField(fields map[string]interface{}, key, where string) (string, error) {
	val, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %s", key, where)
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("secret value for key %q in %s is not a string", key, where)
	}
	return str, nil
}

// jsonSecretField extracts key from a JSON object secret string.
func jsonSecretField(raw, key, where string) (string, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return "", fmt.Errorf("secret %s is not a JSON object: %w", where, err)
	}
	return secretField(fields, key, where)
}
