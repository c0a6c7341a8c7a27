package confkit

import (
	"fmt"
	"os"
	"path/filepath"
)

const maxRootDepth = 8

// ProjectRoot walks upwards from the working directory until it finds go.mod
// or an etc/ directory and returns that directory.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	dir := wd
	for i := 0; i < maxRootDepth; i++ {
		if exists(filepath.Join(dir, "go.mod")) || isDir(filepath.Join(dir, "etc")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return wd, nil
}

// MustProjectPath joins the project root with rel and panics on failure.
func MustProjectPath(rel string) string {
	root, err := ProjectRoot()
	if err != nil {
		panic(err)
	}
	return filepath.Join(root, rel)
}

func exists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
