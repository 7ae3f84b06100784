// Package version определяет строку версии сборки.
package version

import (
	"context"
	"os/exec"
	"strings"
)

// Fallback версия, когда нет ни явного значения, ни git тега
const Fallback = "dev"

// gitDescribe подменяется в тестах
var gitDescribe = func(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "describe", "--tags", "--abbrev=0")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Resolve явная версия, иначе последний git тег без префикса v, иначе Fallback
func Resolve(ctx context.Context, explicit, dir string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	tag, err := gitDescribe(ctx, dir)
	if err != nil {
		return Fallback
	}
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "v")
	if tag == "" {
		return Fallback
	}
	return tag
}
