package codec

import (
	"fmt"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
)

// writeAtomic replaces name with data through a temp file in the same
// directory, so readers never see a partially written sealed file.
func writeAtomic(fs billy.Filesystem, name string, data []byte) error {
	tmp, err := fs.TempFile(filepath.Dir(name), ".clsprobe-seal-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}
	if err := fs.Rename(tmpName, name); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", name, err)
	}
	return nil
}
