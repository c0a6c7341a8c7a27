package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

const (
	envFileVar     = "SMARTMONEY_ENV_FILE"
	envDisableVar  = "SMARTMONEY_NO_DOTENV"
	envOverloadVar = "SMARTMONEY_DOTENV_OVERLOAD"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file the first time it is called. An explicit
// file named by SMARTMONEY_ENV_FILE wins; otherwise .env files are read from
// the working directory up to the project root. Variables already set in the
// process are kept unless SMARTMONEY_DOTENV_OVERLOAD=1.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv(envDisableVar) == "1" {
		return
	}
	load := godotenv.Load
	if os.Getenv(envOverloadVar) == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv(envFileVar); envFile != "" {
		_ = load(envFile)
		return
	}

	root, err := ProjectRoot()
	if err != nil {
		_ = load(".env")
		return
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = root
	}
	for _, dir := range dirsBetween(wd, root) {
		if p := filepath.Join(dir, ".env"); exists(p) {
			_ = load(p)
		}
	}
}

// dirsBetween lists from, its parents up to and including root. When root is
// not an ancestor only from is returned.
func dirsBetween(from, root string) []string {
	dirs := []string{from}
	for dir := from; dir != root; {
		parent := filepath.Dir(dir)
		if parent == dir {
			return []string{from}
		}
		dirs = append(dirs, parent)
		dir = parent
	}
	return dirs
}
