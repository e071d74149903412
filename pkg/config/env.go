package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvCandidates lists the .env locations searched, in order: next to the executable, the
// working directory, then the home directory.
func EnvCandidates() []string {
	var paths []string
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), ".env"))
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".env"))
	}
	return paths
}

// LoadEnv loads the first existing file among candidates into the process environment
// without overriding variables that are already set. It returns the loaded path, or ""
// when none was found.
func LoadEnv(candidates ...string) (string, error) {
	for _, p := range candidates {
		fi, err := os.Stat(p)
		if err != nil || fi.IsDir() {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return p, err
		}
		return p, nil
	}
	return "", nil
}
