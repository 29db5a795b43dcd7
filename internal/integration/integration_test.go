// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"layoutrefine/internal/app"
)

const queriesFA = `>q0
TTTTTTTTTTGA
>q1
ACTTTTTTTTTT
>q2
CCCCCCCCCC
>q3
GGGGGGGGGG
>q4
AAAAAAAAAA
`

// Five blocks tiled back to back on chr1; q0 and q1 carry unaligned bases
// that meet across the first boundary.
const tiledDelta = `@0
>chr1
q0
0 9 0 9 0 0 0
*
@1
>chr1
q1
10 19 2 11 0 0 0
*
@2
>chr1
q2
20 29 0 9 0 0 0
*
@3
>chr1
q3
30 39 0 9 0 0 0
*
@4
>chr1
q4
40 49 0 9 1 0 0
-2
*
`

func write(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errBuf bytes.Buffer
	code := app.Run(args, &out, &errBuf)
	return out.String(), errBuf.String(), code
}

func TestEndToEnd_TSV(t *testing.T) {
	dir := t.TempDir()
	fa := write(t, dir, "q.fa", queriesFA)
	dl := write(t, dir, "a.delta", tiledDelta)

	out, errs, code := run(t, "--queries", fa, "--window-size", "2", "--output", "tsv", "--log-level", "debug", dl)
	require.Equal(t, 0, code, errs)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	require.True(t, strings.HasPrefix(lines[0], "source_file\t"))
	want := [][4]int{{0, 11, 0, 11}, {11, 22, 0, 11}, {23, 32, 0, 9}, {33, 42, 0, 9}, {43, 52, 0, 9}}
	for i, w := range want {
		prefix := fmt.Sprintf("%s\t%d\tchr1\tq%d\t%d\t%d\t%d\t%d\t+\t", dl, i, i, w[0], w[1], w[2], w[3])
		require.True(t, strings.HasPrefix(lines[i+1], prefix), "row %d: %q", i, lines[i+1])
	}
	require.Contains(t, errs, "file refined")
	require.Contains(t, errs, "run_id=")
}

func TestEndToEnd_DeltaIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	fa := write(t, dir, "q.fa", queriesFA)
	dl := write(t, dir, "a.delta", tiledDelta)

	first, errs, code := run(t, "--queries", fa, "--quiet", "--delta", dl)
	require.Equal(t, 0, code, errs)
	require.Contains(t, first, "-2\n*\n", "delta lines survive")

	again := write(t, dir, "b.delta", first)
	second, errs, code := run(t, "--queries", fa, "--quiet", "--delta", again)
	require.Equal(t, 0, code, errs)
	require.Equal(t, first, second)
}

func TestParallelMatchesSerial(t *testing.T) {
	dir := t.TempDir()
	fa := write(t, dir, "q.fa", queriesFA)
	var files []string
	for i := 0; i < 4; i++ {
		files = append(files, write(t, dir, fmt.Sprintf("f%d.delta", i), tiledDelta))
	}

	runWith := func(threads int) string {
		args := append([]string{"--queries", fa, "--quiet", "--output", "jsonl", "--threads", fmt.Sprint(threads)}, files...)
		out, errs, code := run(t, args...)
		require.Equal(t, 0, code, errs)
		return out
	}
	serial := runWith(1)
	require.Equal(t, serial, runWith(4))
	require.Len(t, strings.Split(strings.TrimSpace(serial), "\n"), 20)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	fa := write(t, dir, "q.fa", queriesFA)
	dl := write(t, dir, "a.delta", tiledDelta)
	cfg := write(t, dir, "c.yaml", fmt.Sprintf("delta: [%q]\nqueries: [%q]\noutput: json\nlog_level: error\n", dl, fa))

	out, errs, code := run(t, "--config", cfg)
	require.Equal(t, 0, code, errs)
	require.True(t, strings.HasPrefix(out, "[\n"))
	require.Contains(t, out, `"ref_start": 43`)

	out, errs, code = run(t, "--config", cfg, "--output", "tsv", "--no-header")
	require.Equal(t, 0, code, errs)
	require.False(t, strings.HasPrefix(out, "source_file"))
}

func TestTrace_WritesSpanPerFile(t *testing.T) {
	dir := t.TempDir()
	fa := write(t, dir, "q.fa", queriesFA)
	a := write(t, dir, "a.delta", tiledDelta)
	b := write(t, dir, "b.delta", tiledDelta)

	_, errs, code := run(t, "--queries", fa, "--quiet", "--trace", "--window-size", "2", a, b)
	require.Equal(t, 0, code, errs)
	require.Equal(t, 2, strings.Count(errs, `"Name":"refine.file"`), errs)
	require.Contains(t, errs, `"layoutrefine.file"`)
	require.Contains(t, errs, `"layoutrefine.gaps_closed"`)
	require.Contains(t, errs, `"layoutrefine.digest"`)
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	dl := write(t, dir, "a.delta", tiledDelta)
	fa := write(t, dir, "q.fa", queriesFA)

	_, _, code := run(t)
	require.Equal(t, 0, code, "no arguments prints help")

	out, _, code := run(t, "--version")
	require.Equal(t, 0, code)
	require.Contains(t, out, "layoutrefine version")

	_, errs, code := run(t, "--bogus")
	require.Equal(t, 2, code)
	require.NotEmpty(t, errs)

	_, _, code = run(t, "--output", "xml", dl)
	require.Equal(t, 2, code)

	_, _, code = run(t, "--queries", filepath.Join(dir, "missing.fa"), dl)
	require.Equal(t, 2, code)

	_, errs, code = run(t, "--quiet", filepath.Join(dir, "missing.delta"))
	require.Equal(t, 3, code)
	require.Contains(t, errs, "missing.delta")

	other := write(t, dir, "other.fa", ">zz\nACGT\n")
	_, errs, code = run(t, "--quiet", "--queries", other, dl)
	require.Equal(t, 3, code)
	require.Contains(t, errs, "unknown query")

	_, _, code = run(t, "--quiet", "--queries", fa, "--metrics-listen", "256.0.0.1:bad", dl)
	require.Equal(t, 2, code)
}

func TestCancelled(t *testing.T) {
	dir := t.TempDir()
	dl := write(t, dir, "a.delta", tiledDelta)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errBuf bytes.Buffer
	code := app.RunContext(ctx, []string{"--quiet", dl}, &out, &errBuf)
	require.Equal(t, 130, code)
}
