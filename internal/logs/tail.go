package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const defaultPollInterval = 250 * time.Millisecond

// TailOptions controls Tail.
type TailOptions struct {
	// Lines is how many trailing lines to emit first. Zero emits none.
	Lines int
	// Follow keeps reading appended lines until the context ends.
	Follow bool
	// PollInterval is the wait between reads while following.
	PollInterval time.Duration
}

// cursor is the read position in one specific file.
type cursor struct {
	offset int64
	file   os.FileInfo
}

// Tail emits the last opts.Lines lines of path and, when following, each line
// appended later. A missing file is treated as empty. Following returns nil
// once ctx is done.
func Tail(ctx context.Context, path string, opts TailOptions, emit func(string)) error {
	lines, cur, err := readLastLines(path, opts.Lines)
	if err != nil {
		return err
	}
	for _, line := range lines {
		emit(line)
	}
	if !opts.Follow {
		return nil
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		lines, cur, err = readFrom(path, cur)
		if err != nil {
			return err
		}
		for _, line := range lines {
			emit(line)
		}
	}
}

func readLastLines(path string, limit int) ([]string, cursor, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cursor{}, nil
		}
		return nil, cursor{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, cursor{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, cursor{}, fmt.Errorf("log path %q is a directory", path)
	}

	if limit <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, cursor{}, fmt.Errorf("seek log file: %w", err)
		}
		return nil, cursor{offset: offset, file: info}, nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := scanLines(file, func(line string) {
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, cursor{}, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range lines {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, cursor{offset: offset, file: info}, nil
}

// readFrom returns complete lines after cur. When path now names a different
// file, such as a re-pointed run log, or the file shrank, it is read from the
// start.
func readFrom(path string, cur cursor) ([]string, cursor, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cursor{}, nil
		}
		return nil, cur, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, cur, fmt.Errorf("stat log file: %w", err)
	}
	offset := cur.offset
	if cur.file == nil || !os.SameFile(cur.file, info) || info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, cur, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	read, err := scanLines(file, func(line string) { lines = append(lines, line) })
	if err != nil {
		return nil, cur, err
	}
	return lines, cursor{offset: offset + read, file: info}, nil
}

// scanLines feeds complete lines from r to fn and returns the number of bytes
// consumed. A trailing partial line is left for the next read.
func scanLines(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			consumed += int64(len(line))
			fn(line[:len(line)-1])
			continue
		}
		if errors.Is(err, io.EOF) {
			return consumed, nil
		}
		return consumed, fmt.Errorf("read log file: %w", err)
	}
}
