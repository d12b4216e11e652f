package codec

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c := Default()
	inputs := [][]byte{
		nil,
		{},
		[]byte("l1,数据库名称,t,f\nA,db,t,f\n"),
		bytes.Repeat([]byte{0x00, 0xff, 0x7f}, 10000),
	}
	for _, in := range inputs {
		sealed, err := c.Encrypt(in)
		require.NoError(t, err)
		assert.Len(t, sealed, NonceSize+len(in)+16)

		out, err := c.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, len(in), len(out))
		assert.True(t, bytes.Equal(in, out))
	}
}

func TestEncrypt_FreshNonce(t *testing.T) {
	c := Default()
	a, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a[:NonceSize], b[:NonceSize])
}

func TestDecrypt_Failures(t *testing.T) {
	c := Default()
	sealed, err := c.Encrypt([]byte("reference"))
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		_, err := c.Decrypt(sealed[:5])
		require.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("tampered", func(t *testing.T) {
		bad := append([]byte(nil), sealed...)
		bad[len(bad)-1] ^= 0x01
		_, err := c.Decrypt(bad)
		require.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := New(bytes.Repeat([]byte{7}, KeySize))
		require.NoError(t, err)
		_, err = other.Decrypt(sealed)
		require.ErrorIs(t, err, ErrDecrypt)
	})
}

func TestNew(t *testing.T) {
	_, err := New([]byte("short"))
	require.Error(t, err)

	key := bytes.Repeat([]byte{1}, KeySize)
	_, err = New(key)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{1}, KeySize), key, "caller key must not be wiped")

	c, err := FromHex(hex.EncodeToString(embeddedKey[:]))
	require.NoError(t, err)
	sealed, err := Default().Encrypt([]byte("x"))
	require.NoError(t, err)
	out, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), out)

	_, err = FromHex("zz")
	require.Error(t, err)
}

func TestFiles(t *testing.T) {
	fs := memfs.New()
	plain := []byte("l1,数据库名称,t,f\n")
	require.NoError(t, util.WriteFile(fs, "answer.csv", plain, 0o644))

	c := Default()
	require.NoError(t, c.EncryptFile(fs, "answer.csv", DefaultReferencePath))

	raw, err := util.ReadFile(fs, DefaultReferencePath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "数据库名称")

	out, err := c.DecryptFile(fs, DefaultReferencePath)
	require.NoError(t, err)
	assert.Equal(t, plain, out)

	_, err = c.DecryptFile(fs, "missing")
	require.Error(t, err)

	require.NoError(t, util.WriteFile(fs, "garbage", []byte("not sealed at all"), 0o644))
	_, err = c.DecryptFile(fs, "garbage")
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestWriteAtomic(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("ref", 0o755))
	require.NoError(t, util.WriteFile(fs, "ref/fix_e", []byte("old"), 0o600))

	require.NoError(t, writeAtomic(fs, "ref/fix_e", []byte("new")))
	got, err := util.ReadFile(fs, "ref/fix_e")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	entries, err := fs.ReadDir("ref")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not be left behind")
	assert.Equal(t, "fix_e", entries[0].Name())
}
