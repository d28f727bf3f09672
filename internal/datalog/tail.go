package datalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"sensorlog/internal/fileutil"
)

// DefaultChunkSize is the number of bytes read per backward step.
const DefaultChunkSize = 8192

// TailOptions tunes the backward reader.
type TailOptions struct {
	// ChunkSize is the read size per step. Values <= 0 select DefaultChunkSize.
	ChunkSize int
}

func (o TailOptions) chunkSize() int64 {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return int64(o.ChunkSize)
}

// LastLines returns the last n lines of the size bytes held by r, oldest
// first. A final line without a terminating newline still counts. Reading
// stops as soon as n complete lines are known, so the cost tracks n and the
// chunk size rather than size.
func LastLines(ctx context.Context, r io.ReaderAt, size int64, n int, opts TailOptions) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("tail: line count must not be negative, got %d", n)
	}
	if n == 0 || size <= 0 {
		return nil, nil
	}

	chunkSize := opts.chunkSize()

	var (
		// complete lines, newest first
		collected [][]byte
		// leading fragment of the last chunk read; completed by the chunk before it
		carry []byte
		end   = size
		atEOF = true
	)

	for end > 0 && len(collected) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := max(end-chunkSize, 0)
		chunk := make([]byte, end-start)
		read, err := r.ReadAt(chunk, start)
		if read < len(chunk) {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("read log at offset %d: %w", start, err)
		}

		if atEOF {
			atEOF = false
			// The terminator of the final line does not open another line.
			if chunk[len(chunk)-1] == '\n' {
				chunk = chunk[:len(chunk)-1]
			}
		}

		pieces := bytes.Split(chunk, []byte{'\n'})
		last := len(pieces) - 1
		if len(carry) > 0 {
			joined := make([]byte, 0, len(pieces[last])+len(carry))
			joined = append(joined, pieces[last]...)
			pieces[last] = append(joined, carry...)
		}

		if start > 0 {
			carry = pieces[0]
			pieces = pieces[1:]
		} else {
			carry = nil
		}

		for i := len(pieces) - 1; i >= 0; i-- {
			collected = append(collected, pieces[i])
		}
		end = start
	}

	if len(collected) > n {
		collected = collected[:n]
	}

	lines := make([]string, len(collected))
	for i, raw := range collected {
		lines[len(collected)-1-i] = decodeLine(raw)
	}
	return lines, nil
}

// ReadLastLines opens path and returns its last n lines.
func ReadLastLines(ctx context.Context, path string, n int, opts TailOptions) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("log path %q is a directory", path)
	}

	return LastLines(ctx, file, info.Size(), n, opts)
}

// CopyLastLines overwrites dst with the last n lines of src and reports how
// many lines were written. An empty result leaves dst empty.
func CopyLastLines(ctx context.Context, src, dst string, n int, opts TailOptions) (int, error) {
	lines, err := ReadLastLines(ctx, src, n, opts)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := fileutil.WriteLines(dst, lines, fileutil.DefaultMode); err != nil {
		return 0, fmt.Errorf("write snapshot %s: %w", dst, err)
	}
	return len(lines), nil
}

// decodeLine converts raw line bytes to text. CRLF endings read the same as LF
// and ill-formed UTF-8 becomes U+FFFD instead of failing the read.
func decodeLine(raw []byte) string {
	raw = bytes.TrimSuffix(raw, []byte{'\r'})
	if utf8.Valid(raw) {
		return string(raw)
	}
	out, _, err := transform.Bytes(runes.ReplaceIllFormed(), raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte(string(utf8.RuneError))))
	}
	return string(out)
}
