package handy

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dashkit/internal/errors"
)

// Rls lists every file below path, lowercased. A file path lists itself.
func Rls(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{strings.ToLower(path)}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, strings.ToLower(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Mkdir creates folder (and parents) unless it already exists
func Mkdir(folder string) error {
	return os.MkdirAll(folder, 0o755)
}

// SafeRead returns the content of file, or fail when it is not a readable regular file
func SafeRead(file, fail string) string {
	info, err := os.Stat(file)
	if err != nil || !info.Mode().IsRegular() {
		return fail
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fail
	}
	return string(data)
}

// readTailBytes returns the last nchars bytes of file. When the file is longer than
// nchars the first, probably partial, line is dropped unless it is the only one.
func readTailBytes(file string, nchars int64) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}

	n := min(size, nchars)
	if _, err := f.Seek(-n, io.SeekEnd); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	if size > nchars {
		// only drop it when something else follows
		if i := bytes.IndexByte(data, '\n'); i >= 0 && i < len(data)-1 {
			data = data[i+1:]
		}
	}
	return data, nil
}

// ReadTail parses the last nchars bytes of a headerless delimited file. Columns are
// named "0", "1", ...; cells become numbers where they parse as such.
func ReadTail(file string, nchars int64, comma rune) (*Frame, error) {
	if nchars <= 0 {
		return nil, errors.InvalidInput("nchars must be positive")
	}
	data, err := readTailBytes(file, nchars)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tail of %s", file)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse tail of %s", file)
	}

	width := 0
	for _, rec := range records {
		width = max(width, len(rec))
	}
	columns := make([]string, width)
	for i := range columns {
		columns[i] = strconv.Itoa(i)
	}

	f := NewFrame(columns...)
	for _, rec := range records {
		row := make([]any, width)
		for i, cell := range rec {
			row[i] = parseCell(cell)
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

// ReadLog returns the last nchars bytes of file as text, dropping the first partial line
func ReadLog(file string, nchars int64) (string, error) {
	info, err := os.Stat(file)
	if err != nil || !info.Mode().IsRegular() {
		log.Printf("[ReadLog] Warning: file %s doesn't exist", file)
		return "", errors.NotFound(fmt.Sprintf("log file %s", file))
	}
	if nchars <= 0 {
		return "", errors.InvalidInput("nchars must be positive")
	}
	data, err := readTailBytes(file, nchars)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read log %s", file)
	}
	return string(data), nil
}
