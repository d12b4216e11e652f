package codec

import (
	"fmt"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// DefaultReferencePath is where the sealed reference is written and read.
const DefaultReferencePath = "fix_e"

// EncryptFile seals the plaintext file src into dst. dst is replaced
// atomically.
func (c *Codec) EncryptFile(fs billy.Filesystem, src, dst string) error {
	plain, err := util.ReadFile(fs, src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	sealed, err := c.Encrypt(plain)
	if err != nil {
		return err
	}
	return writeAtomic(fs, dst, sealed)
}

// DecryptFile reads and opens a sealed file fully into memory.
func (c *Codec) DecryptFile(fs billy.Basic, name string) ([]byte, error) {
	blob, err := util.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	plain, err := c.Decrypt(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt the reference file [%s]: %w", name, err)
	}
	return plain, nil
}
