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

const (
	pollInterval = 250 * time.Millisecond
	maxLineBytes = 1024 * 1024
)

// Request selects what Read returns. A negative Offset asks for the last
// Lines lines; otherwise reading starts at Offset. With Wait > 0 an empty
// read polls until lines appear or Wait elapses.
type Request struct {
	Offset int64
	Lines  int
	Wait   time.Duration
}

// Batch is one read. Offset is where the next Read should start.
type Batch struct {
	Lines   []string
	Offset  int64
	Rotated bool
}

// Read returns lines from path according to req. A missing file yields an
// empty batch at offset 0.
func Read(ctx context.Context, path string, req Request) (Batch, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Batch{}, nil
	}
	if err != nil {
		return Batch{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Batch{}, fmt.Errorf("log path %q is a directory", path)
	}

	var batch Batch
	switch {
	case req.Offset < 0:
		batch, err = lastLines(path, req.Lines)
	case req.Offset > info.Size():
		batch, err = readFrom(path, 0)
		batch.Rotated = true
	default:
		batch, err = readFrom(path, req.Offset)
	}
	if err != nil || len(batch.Lines) > 0 || req.Wait <= 0 {
		return batch, err
	}
	return poll(ctx, path, batch, req.Wait)
}

func poll(ctx context.Context, path string, last Batch, wait time.Duration) (Batch, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-timer.C:
			return last, nil
		case <-ticker.C:
		}
		next, err := Read(ctx, path, Request{Offset: last.Offset})
		if err != nil {
			return last, err
		}
		if len(next.Lines) > 0 || next.Rotated {
			return next, nil
		}
		last = next
	}
}

func lastLines(path string, limit int) (Batch, error) {
	file, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Batch{}, fmt.Errorf("seek log file: %w", err)
		}
		return Batch{Offset: end}, nil
	}

	ring := make([]string, 0, limit)
	start := 0
	offset, err := scan(file, func(line string) {
		if len(ring) < limit {
			ring = append(ring, line)
			return
		}
		ring[start] = line
		start = (start + 1) % limit
	})
	if err != nil {
		return Batch{}, err
	}
	lines := append(append([]string(nil), ring[start:]...), ring[:start]...)
	return Batch{Lines: lines, Offset: offset}, nil
}

func readFrom(path string, offset int64) (Batch, error) {
	file, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Batch{}, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	consumed, err := scan(file, func(line string) { lines = append(lines, line) })
	if err != nil {
		return Batch{}, err
	}
	return Batch{Lines: lines, Offset: offset + consumed}, nil
}

// scan feeds complete lines to fn and returns the bytes consumed. A trailing
// partial line is left for the next read.
func scan(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			return consumed, nil
		}
		if err != nil {
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		text := line[:len(line)-1]
		if n := len(text); n > 0 && text[n-1] == '\r' {
			text = text[:n-1]
		}
		if len(text) > maxLineBytes {
			text = text[:maxLineBytes]
		}
		fn(text)
	}
}
