package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/clsprobe/internal/config"
)

const (
	header    = "一级分类,二级分类,数据库名称,表名,字段名\n"
	reference = header + "A,B,db1,t1,f1\nA,C,db1,t1,f2\n"
	candidate = header + "A,B,db1,t1,f1\nX,Y,db1,t1,f9\n"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// workspace writes the plaintext reference, a candidate and the sealed
// reference into a temp dir.
func workspace(t *testing.T) (dir, sealed, cand string) {
	t.Helper()
	dir = t.TempDir()
	plain := filepath.Join(dir, "answer.csv")
	cand = filepath.Join(dir, "candidate.csv")
	sealed = filepath.Join(dir, "fix_e")
	require.NoError(t, os.WriteFile(plain, []byte(reference), 0o644))
	require.NoError(t, os.WriteFile(cand, []byte(candidate), 0o644))

	out, err := execute(t, "encrypt", plain, "-o", sealed)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	return dir, sealed, cand
}

func TestScoreCmd_Text(t *testing.T) {
	_, sealed, cand := workspace(t)

	out, err := execute(t, "score", "-r", sealed, cand)
	require.NoError(t, err)
	assert.Equal(t,
		"total classification accuracy: 50.00%\n"+
			"classification [A] accuracy: 50.00%\n", out)
}

func TestScoreCmd_Multiple(t *testing.T) {
	dir, sealed, cand := workspace(t)
	perfect := filepath.Join(dir, "perfect.csv")
	require.NoError(t, os.WriteFile(perfect, []byte(reference), 0o644))

	out, err := execute(t, "score", "-r", sealed, "-w", "2", cand, perfect)
	require.NoError(t, err)
	assert.Contains(t, out, "==> "+cand+" <==\ntotal classification accuracy: 50.00%")
	assert.Contains(t, out, "==> "+perfect+" <==\ntotal classification accuracy: 100.00%")
}

func TestScoreCmd_JSON(t *testing.T) {
	_, sealed, cand := workspace(t)

	out, err := execute(t, "score", "-r", sealed, "--json", cand)
	require.NoError(t, err)
	doc, err := oj.ParseString(out)
	require.NoError(t, err)
	m := doc.(map[string]any)
	overall := m["overall"].(map[string]any)
	assert.Equal(t, int64(1), overall["matched"])
	assert.Equal(t, int64(2), overall["total"])
	assert.Equal(t, "presence", m["matcher"])
	assert.NotContains(t, m, "units")
}

func TestScoreCmd_Select(t *testing.T) {
	_, sealed, cand := workspace(t)

	out, err := execute(t, "score", "-r", sealed, "--select", "$.units[?(@.matched == false)].field", cand)
	require.NoError(t, err)
	got, err := oj.ParseString(out)
	require.NoError(t, err)
	assert.Equal(t, []any{"db1-t1-f2"}, got)
}

func TestScoreCmd_PathMatcher(t *testing.T) {
	_, sealed, cand := workspace(t)
	out, err := execute(t, "score", "-r", sealed, "--matcher", "path", cand)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "total classification accuracy: 50.00%"))

	_, err = execute(t, "score", "-r", sealed, "--matcher", "fuzzy", cand)
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestScoreCmd_Export(t *testing.T) {
	dir, sealed, cand := workspace(t)
	dbPath := filepath.Join(dir, "runs.db")

	_, err := execute(t, "score", "-r", sealed, "--export", dbPath, cand)
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }() // safe to ignore
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM diff_units`).Scan(&n))
	assert.Equal(t, 2, n)
	var name string
	require.NoError(t, db.QueryRow(`SELECT candidate FROM runs`).Scan(&name))
	assert.Equal(t, cand, name)
}

func TestScoreCmd_Errors(t *testing.T) {
	dir, sealed, cand := workspace(t)

	_, err := execute(t, "score", "-r", filepath.Join(dir, "missing"), cand)
	require.Error(t, err)

	_, err = execute(t, "score", "-r", sealed, filepath.Join(dir, "missing.csv"))
	require.Error(t, err)

	// a plaintext file is not a sealed reference
	_, err = execute(t, "score", "-r", cand, cand)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decrypt the reference file")

	_, err = execute(t, "score", "-r", sealed)
	require.Error(t, err)
}

func TestDecryptCmd(t *testing.T) {
	dir, sealed, _ := workspace(t)

	out, err := execute(t, "decrypt", sealed)
	require.NoError(t, err)
	assert.Equal(t, reference, out)

	dst := filepath.Join(dir, "plain.csv")
	_, err = execute(t, "decrypt", sealed, "-o", dst)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, reference, string(got))
}

func TestTreeCmd(t *testing.T) {
	_, sealed, cand := workspace(t)

	out, err := execute(t, "tree", "--encrypted", sealed)
	require.NoError(t, err)
	assert.Equal(t, "A\n  B\n    db1-t1-f1\n  C\n    db1-t1-f2\n2 fields\n", out)

	out, err = execute(t, "tree", cand)
	require.NoError(t, err)
	assert.Contains(t, out, "X\n  Y\n    db1-t1-f9")

	out, err = execute(t, "tree", "-r", sealed)
	require.NoError(t, err)
	assert.Contains(t, out, "2 fields")
}

func TestScoreTool(t *testing.T) {
	_, sealed, cand := workspace(t)
	logger = zap.NewNop()
	cfg = config.Default()
	cfg.Reference = sealed

	scorer, err := referenceScorer()
	require.NoError(t, err)
	handler := scoreHandler(scorer)
	require.NotNil(t, newMCPServer(scorer))

	call := func(args map[string]any) *mcp.CallToolResult {
		t.Helper()
		req := mcp.CallToolRequest{}
		req.Params.Name = "score"
		req.Params.Arguments = args
		res, err := handler(context.Background(), req)
		require.NoError(t, err)
		require.NotEmpty(t, res.Content)
		return res
	}
	text := func(res *mcp.CallToolResult) string {
		t.Helper()
		tc, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok)
		return tc.Text
	}

	res := call(map[string]any{"candidate": cand})
	assert.False(t, res.IsError)
	assert.Contains(t, text(res), "total classification accuracy: 50.00%")

	res = call(map[string]any{"candidate": cand, "units": true})
	assert.False(t, res.IsError)
	assert.Contains(t, text(res), `"db1-t1-f2"`)

	res = call(map[string]any{})
	assert.True(t, res.IsError)

	res = call(map[string]any{"candidate": cand + ".missing"})
	assert.True(t, res.IsError)
}
