package profile

import (
	"os"
	"strings"
)

// Env is a snapshot of environment variables. Resolution only reads from it.
type Env map[string]string

// EnvFromOS snapshots the current process environment.
func EnvFromOS() Env {
	return EnvFromList(os.Environ())
}

// EnvFromList builds a snapshot from KEY=VALUE pairs. Later duplicates win.
func EnvFromList(pairs []string) Env {
	env := make(Env, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// Get returns the first non-empty value among keys and the key it came from.
func (e Env) Get(keys ...string) (string, string) {
	for _, key := range keys {
		if value := e[key]; value != "" {
			return value, key
		}
	}
	return "", ""
}

func (e Env) Value(keys ...string) string {
	value, _ := e.Get(keys...)
	return value
}

func (e Env) IsSet(key string) bool {
	return e[key] != ""
}
