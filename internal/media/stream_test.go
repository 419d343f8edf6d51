package media

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRange(t *testing.T) {
	const size = 1000

	tests := []struct {
		name      string
		header    string
		wantStart int64
		wantEnd   int64
		wantErr   error
		wantNil   bool
	}{
		{"no header", "", 0, 0, nil, true},
		{"full range", "bytes=0-499", 0, 499, nil, false},
		{"open ended", "bytes=500-", 500, 999, nil, false},
		{"suffix", "bytes=-200", 800, 999, nil, false},
		{"suffix larger than file", "bytes=-5000", 0, 999, nil, false},
		{"end clamped", "bytes=0-99999", 0, 999, nil, false},
		{"multi range takes first", "bytes=0-99,500-599", 0, 99, nil, false},
		{"missing prefix", "0-499", 0, 0, ErrInvalidRange, false},
		{"garbage start", "bytes=abc-499", 0, 0, ErrInvalidRange, false},
		{"negative suffix", "bytes=--5", 0, 0, ErrInvalidRange, false},
		{"start past size", "bytes=1000-1100", 0, 0, ErrUnsatisfiable, false},
		{"inverted", "bytes=500-100", 0, 0, ErrUnsatisfiable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, size)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("ParseRange(%q) error = %v, want %v", tt.header, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange(%q) unexpected error: %v", tt.header, err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("ParseRange(%q) = %+v, want nil", tt.header, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseRange(%q) = nil, want range", tt.header)
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("ParseRange(%q) = [%d,%d], want [%d,%d]",
					tt.header, got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestByteRange_Headers(t *testing.T) {
	r := ByteRange{Start: 100, End: 199}
	if got := r.ContentLength(); got != 100 {
		t.Errorf("ContentLength() = %d, want 100", got)
	}
	if got := r.ContentRange(1000); got != "bytes 100-199/1000" {
		t.Errorf("ContentRange() = %q", got)
	}
}

func writeStreamFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestServeSource_FullFile(t *testing.T) {
	path := writeStreamFixture(t)
	s := NewStreamer(nil)

	req := httptest.NewRequest("GET", "/stream", nil)
	rec := httptest.NewRecorder()
	if err := s.ServeSource(rec, req, path); err != nil {
		t.Fatalf("ServeSource error: %v", err)
	}

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Error("missing Accept-Ranges header")
	}
	body, _ := io.ReadAll(rec.Body)
	if len(body) != 1000 {
		t.Errorf("body length = %d, want 1000", len(body))
	}
}

func TestServeSource_PartialContent(t *testing.T) {
	path := writeStreamFixture(t)
	s := NewStreamer(nil)

	req := httptest.NewRequest("GET", "/stream", nil)
	req.Header.Set("Range", "bytes=100-199")
	rec := httptest.NewRecorder()
	if err := s.ServeSource(rec, req, path); err != nil {
		t.Fatalf("ServeSource error: %v", err)
	}

	if rec.Code != 206 {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 100-199/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	body, _ := io.ReadAll(rec.Body)
	if len(body) != 100 {
		t.Fatalf("body length = %d, want 100", len(body))
	}
	if body[0] != byte(100%251) {
		t.Errorf("body starts at wrong offset")
	}
}

func TestServeSource_UnsatisfiableRange(t *testing.T) {
	path := writeStreamFixture(t)
	s := NewStreamer(nil)

	req := httptest.NewRequest("GET", "/stream", nil)
	req.Header.Set("Range", "bytes=5000-6000")
	rec := httptest.NewRecorder()
	if err := s.ServeSource(rec, req, path); err != nil {
		t.Fatalf("ServeSource error: %v", err)
	}

	if rec.Code != 416 {
		t.Fatalf("status = %d, want 416", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */1000" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestServeSource_InvalidRangeServesFullFile(t *testing.T) {
	path := writeStreamFixture(t)
	s := NewStreamer(nil)

	req := httptest.NewRequest("GET", "/stream", nil)
	req.Header.Set("Range", "frames=0-10")
	rec := httptest.NewRecorder()
	if err := s.ServeSource(rec, req, path); err != nil {
		t.Fatalf("ServeSource error: %v", err)
	}

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestServeSource_MissingFile(t *testing.T) {
	s := NewStreamer(nil)

	req := httptest.NewRequest("GET", "/stream", nil)
	rec := httptest.NewRecorder()
	if err := s.ServeSource(rec, req, filepath.Join(t.TempDir(), "gone.mp4")); err != nil {
		t.Fatalf("ServeSource error: %v", err)
	}

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
