package paths

import (
	"os"
	"path/filepath"
)

// GetStorageDir returns the directory where downloaded SDCcc releases and
// the install manifest are kept. It is a variable so tests can redirect it.
var GetStorageDir = func() string {
	if dir := os.Getenv("GOSDCCC_HOME"); dir != "" {
		return dir
	}
	if cache, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cache, "gosdccc")
	}
	return ".gosdccc"
}
