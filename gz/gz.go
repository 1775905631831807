/*
Package gz reads and writes gzipped files, eg. NDJSON fix backups.
Writers hold an exclusive flock on their file until closed.
*/
package gz

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/klauspost/compress/gzip"
)

type FileWriter struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool
	closed bool
}

type FileWriterConfig struct {
	CompressionLevel int
	Flag             int
	FilePerm         os.FileMode
	DirPerm          os.FileMode
}

func DefaultFileWriterConfig() *FileWriterConfig {
	return &FileWriterConfig{
		CompressionLevel: gzip.DefaultCompression,
		Flag:             os.O_WRONLY | os.O_APPEND | os.O_CREATE,
		FilePerm:         0660,
		DirPerm:          0770,
	}
}

func NewFileWriter(path string, config *FileWriterConfig) (*FileWriter, error) {
	if config == nil {
		config = DefaultFileWriterConfig()
	}
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	gzw, err := gzip.NewWriterLevel(fi, config.CompressionLevel)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return &FileWriter{f: fi, gzw: gzw}, nil
}

func (g *FileWriter) Write(p []byte) (int, error) {
	g.lock()
	return g.gzw.Write(p)
}

// lock locks the file for exclusive access.
// The lock is released when the file is closed.
func (g *FileWriter) lock() {
	if g.locked || g.closed || g.f == nil {
		return
	}
	_ = syscall.Flock(int(g.f.Fd()), syscall.LOCK_EX)
	g.locked = true
}

func (g *FileWriter) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if err := g.gzw.Close(); err != nil {
		g.f.Close()
		return err
	}
	if err := g.f.Sync(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

func (g *FileWriter) Path() string {
	return g.f.Name()
}

type FileReader struct {
	f      *os.File
	gzr    *gzip.Reader
	closed bool
}

func NewFileReader(path string) (*FileReader, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	gzr, err := gzip.NewReader(fi)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return &FileReader{f: fi, gzr: gzr}, nil
}

// Read satisfies the io.Reader interface.
func (g *FileReader) Read(p []byte) (int, error) {
	return g.gzr.Read(p)
}

// Close closes the gzip reader and the file.
func (g *FileReader) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if err := g.gzr.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

// IsGZ reports whether the path names a gzipped file, by extension.
func IsGZ(path string) bool {
	return strings.HasSuffix(path, ".gz")
}
