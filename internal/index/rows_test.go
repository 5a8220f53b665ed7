package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sigio "github.com/TimelordUK/sigview/internal/io"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rec.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildRowIndex(t *testing.T) {
	path := writeFile(t, "time,ch1\r\n0,1\r\n\n0.1,2\n0.2,3")
	f, err := sigio.OpenMapped(path)
	require.NoError(t, err)
	defer f.Close()

	idx, err := BuildRowIndex(f)
	require.NoError(t, err)

	head, err := idx.Header()
	require.NoError(t, err)
	assert.Equal(t, "time,ch1", string(head))

	// last line is unterminated and held back
	assert.Equal(t, 2, idx.RowCount())
	rows, err := idx.Rows(0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "0,1", string(rows[0]))
	assert.Equal(t, "0.1,2", string(rows[1]))

	row, err := idx.Row(5)
	assert.NoError(t, err)
	assert.Nil(t, row)
}

func TestAppendNewRowsAfterRefresh(t *testing.T) {
	path := writeFile(t, "time,ch1\n0,1\n0.1,")
	f, err := sigio.OpenMapped(path)
	require.NoError(t, err)
	defer f.Close()

	idx, err := BuildRowIndex(f)
	require.NoError(t, err)
	require.Equal(t, 1, idx.RowCount())

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = fh.WriteString("2\n0.2,3\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	changed, err := f.Refresh()
	require.NoError(t, err)
	require.True(t, changed)

	added, err := idx.AppendNewRows()
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	row, err := idx.Row(1)
	require.NoError(t, err)
	assert.Equal(t, "0.1,2", string(row))
}

func TestEmptyFileHasNoHeader(t *testing.T) {
	f, err := sigio.OpenMapped(writeFile(t, ""))
	require.NoError(t, err)
	defer f.Close()

	idx, err := BuildRowIndex(f)
	require.NoError(t, err)
	head, err := idx.Header()
	assert.NoError(t, err)
	assert.Nil(t, head)
	assert.Equal(t, 0, idx.RowCount())
}
