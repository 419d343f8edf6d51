// Package media connects the timeline core to the filesystem: probing and
// importing source files, running background enrichment jobs, watching
// sources for offline/online flips and streaming bytes to the preview player.
package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive byte interval of a source file requested by the
// preview player.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) ContentLength() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange parses an HTTP Range header against a file of the given size.
// A nil range with nil error means the whole file was requested. Only the
// first range of a multi-range header is honoured.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	if !strings.HasPrefix(header, "bytes=") {
		return nil, ErrInvalidRange
	}

	spec := strings.TrimPrefix(header, "bytes=")
	if idx := strings.Index(spec, ","); idx != -1 {
		spec = strings.TrimSpace(spec[:idx])
	}

	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return nil, ErrInvalidRange
	}

	var start, end int64
	var err error

	if parts[0] == "" {
		suffixLen, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || suffixLen <= 0 {
			return nil, ErrInvalidRange
		}
		start = size - suffixLen
		if start < 0 {
			start = 0
		}
		end = size - 1
	} else {
		start, err = strconv.ParseInt(parts[0], 10, 64)
		if err != nil || start < 0 {
			return nil, ErrInvalidRange
		}

		if parts[1] == "" {
			end = size - 1
		} else {
			end, err = strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return nil, ErrInvalidRange
			}
		}
	}

	if start > end || start >= size {
		return nil, ErrUnsatisfiable
	}

	if end >= size {
		end = size - 1
	}

	return &ByteRange{Start: start, End: end}, nil
}

// Streamer serves clip source files over HTTP with byte-range support so the
// preview player can seek.
type Streamer struct {
	logger *slog.Logger
}

func NewStreamer(logger *slog.Logger) *Streamer {
	return &Streamer{logger: logger}
}

// ServeSource writes the requested byte range of a source file. A malformed
// Range header degrades to serving the whole file; an unsatisfiable one
// yields 416.
func (s *Streamer) ServeSource(w http.ResponseWriter, r *http.Request, sourcePath string) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "source not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(sourcePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	parsed, err := ParseRange(r.Header.Get("Range"), size)

	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	if err != nil && err != ErrInvalidRange {
		return err
	}

	if parsed == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", strconv.FormatInt(parsed.ContentLength(), 10))
	w.Header().Set("Content-Range", parsed.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(parsed.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	io.CopyN(w, file, parsed.ContentLength())
	return nil
}
