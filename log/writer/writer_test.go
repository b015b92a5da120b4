package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		options *Options
		wantErr bool
		check   func(t *testing.T, w Writer)
	}{
		{
			name:    "nil options",
			options: nil,
			check: func(t *testing.T, w Writer) {
				if cw, ok := w.(*ConsoleWriter); !ok || cw.target != "stderr" {
					t.Errorf("expected stderr console writer, got %#v", w)
				}
			},
		},
		{
			name:    "console stdout",
			options: &Options{Type: "console", Console: ConsoleWriterOptions{Target: "stdout"}},
			check: func(t *testing.T, w Writer) {
				if cw, ok := w.(*ConsoleWriter); !ok || cw.target != "stdout" {
					t.Errorf("expected stdout console writer, got %#v", w)
				}
			},
		},
		{
			name:    "unknown console target defaults to stderr",
			options: &Options{Console: ConsoleWriterOptions{Target: "printer"}},
			check: func(t *testing.T, w Writer) {
				if cw, ok := w.(*ConsoleWriter); !ok || cw.target != "stderr" {
					t.Errorf("expected stderr console writer, got %#v", w)
				}
			},
		},
		{
			name:    "file without path",
			options: &Options{Type: "file"},
			wantErr: true,
		},
		{
			name:    "unsupported type",
			options: &Options{Type: "syslog"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.options)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ticdb.log")

	w, err := New(&Options{Type: "file", File: FileWriterOptions{Path: path}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, line := range []string{"first\n", "second\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := w.Write([]byte("late")); err == nil {
		t.Error("expected error writing to closed file")
	}

	// 追加模式
	w, err = NewFileWriterWithOptions(&FileWriterOptions{Path: path})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	_, _ = w.Write([]byte("third\n"))
	_ = w.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got := strings.Count(string(content), "\n"); got != 3 {
		t.Errorf("expected 3 lines, got %d: %q", got, content)
	}
}
