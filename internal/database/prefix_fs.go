package database

import (
	"bytes"
	"embed"
	"io"
	"io/fs"
	"strings"
	"time"
)

// prefixFS serves the embedded migration files with every {{prefix}}
// placeholder replaced by the configured table prefix. Directories and
// non-SQL files pass through untouched.
type prefixFS struct {
	base   embed.FS
	prefix string
}

func (p *prefixFS) Open(name string) (fs.File, error) {
	f, err := p.base.Open(name)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, ".sql") {
		return f, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	data = bytes.ReplaceAll(data, []byte("{{prefix}}"), []byte(p.prefix))
	return &memFile{
		Reader:  bytes.NewReader(data),
		name:    info.Name(),
		size:    int64(len(data)),
		modTime: info.ModTime(),
	}, nil
}

type memFile struct {
	*bytes.Reader
	name    string
	size    int64
	modTime time.Time
}

func (f *memFile) Stat() (fs.FileInfo, error) { return (*memFileInfo)(f), nil }
func (f *memFile) Close() error               { return nil }

type memFileInfo memFile

func (i *memFileInfo) Name() string       { return i.name }
func (i *memFileInfo) Size() int64        { return i.size }
func (i *memFileInfo) Mode() fs.FileMode  { return 0o444 }
func (i *memFileInfo) ModTime() time.Time { return i.modTime }
func (i *memFileInfo) IsDir() bool        { return false }
func (i *memFileInfo) Sys() interface{}   { return nil }
