package index

import (
	"bytes"

	sigio "github.com/TimelordUK/sigview/internal/io"
)

const chunkSize = 64 * 1024

// RowIndex stores the byte offset of every data row of a delimited file.
// The first non-blank line is the header and is indexed separately.
// Blank lines are skipped. A trailing line without a newline is held back
// until it is terminated, since a recorder may still be writing it.
type RowIndex struct {
	headStart int64
	headEnd   int64
	hasHead   bool
	offsets   []int64 // start of each complete data row
	ends      []int64 // end of each row, newline excluded
	scanned   int64   // bytes consumed by complete lines
	file      *sigio.MappedFile
}

// BuildRowIndex scans file and indexes its complete rows
func BuildRowIndex(file *sigio.MappedFile) (*RowIndex, error) {
	idx := &RowIndex{
		offsets: make([]int64, 0, file.Size()/64+1),
		ends:    make([]int64, 0, file.Size()/64+1),
		file:    file,
	}
	if err := idx.scanFrom(0); err != nil {
		return nil, err
	}
	return idx, nil
}

// AppendNewRows indexes rows completed since the last scan, after the file
// has been refreshed
func (idx *RowIndex) AppendNewRows() (int, error) {
	before := len(idx.offsets)
	if err := idx.scanFrom(idx.scanned); err != nil {
		return 0, err
	}
	return len(idx.offsets) - before, nil
}

func (idx *RowIndex) scanFrom(pos int64) error {
	size := idx.file.Size()
	buf := make([]byte, chunkSize)
	lineStart := pos

	for pos < size {
		readSize := chunkSize
		if pos+int64(readSize) > size {
			readSize = int(size - pos)
		}
		n, err := idx.file.ReadAt(buf[:readSize], pos)
		if err != nil {
			return err
		}

		chunk := buf[:n]
		offset := 0
		for {
			i := bytes.IndexByte(chunk[offset:], '\n')
			if i == -1 {
				break
			}
			lineEnd := pos + int64(offset) + int64(i)
			idx.addLine(lineStart, lineEnd)
			lineStart = lineEnd + 1
			offset += i + 1
		}
		pos += int64(n)
	}

	idx.scanned = lineStart
	return nil
}

func (idx *RowIndex) addLine(start, end int64) {
	// tolerate CRLF
	if end > start {
		if b, err := idx.file.ReadRange(end-1, end); err == nil && len(b) == 1 && b[0] == '\r' {
			end--
		}
	}
	if end <= start {
		return
	}
	if b, err := idx.file.ReadRange(start, end); err != nil || len(bytes.TrimSpace(b)) == 0 {
		return
	}
	if !idx.hasHead {
		idx.headStart, idx.headEnd = start, end
		idx.hasHead = true
		return
	}
	idx.offsets = append(idx.offsets, start)
	idx.ends = append(idx.ends, end)
}

// Header returns the header line, or nil if the file has none yet
func (idx *RowIndex) Header() ([]byte, error) {
	if !idx.hasHead {
		return nil, nil
	}
	return idx.file.ReadRange(idx.headStart, idx.headEnd)
}

// RowCount returns the number of indexed data rows
func (idx *RowIndex) RowCount() int {
	return len(idx.offsets)
}

// Row returns data row n (0-based), or nil when out of range
func (idx *RowIndex) Row(n int) ([]byte, error) {
	if n < 0 || n >= len(idx.offsets) {
		return nil, nil
	}
	return idx.file.ReadRange(idx.offsets[n], idx.ends[n])
}

// Rows returns up to count rows starting at start
func (idx *RowIndex) Rows(start, count int) ([][]byte, error) {
	if start < 0 {
		start = 0
	}
	if start >= len(idx.offsets) || count <= 0 {
		return nil, nil
	}
	if start+count > len(idx.offsets) {
		count = len(idx.offsets) - start
	}

	rows := make([][]byte, count)
	for i := 0; i < count; i++ {
		row, err := idx.Row(start + i)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}
