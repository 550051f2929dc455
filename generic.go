package ioc2rules

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// const
const (
	_app         = "[ioc2rules] "
	_wrn         = _app + "[warn] "
	_inf         = _app + "[info] "
	_empty       = ""
	_linefeed    = "\n"
	_lineSize    = 256
	_readSize    = 64 * 1024
	_maxLineSize = 1024 * 1024 // longer feed lines are junk
)

// out ...
func out(msg string) { os.Stdout.Write([]byte(msg + _linefeed)) }

// info ...
func info(msg string) { out(_inf + msg) }

// warn ...
func warn(msg string) { out(_wrn + msg) }

// pad ...
func pad(in string, l int) string {
	for len(in) < l {
		in = in + " "
	}
	return in
}

// isFile ...
func isFile(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && fi.Mode().IsRegular()
}

// isDir ...
func isDir(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && fi.IsDir()
}

// findFeed returns the first readable variant of name: plain, .zst, .gz
func findFeed(name string) (string, bool) {
	for _, f := range []string{name, name + ".zst", name + ".gz"} {
		if isFile(f) {
			return f, true
		}
	}
	return _empty, false
}

// getReader opens name, transparently decompressing .zst and .gz files
func getReader(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.New("[compress] [reader] unable to read file [" + name + "] [" + err.Error() + "]")
	}
	switch {
	case strings.HasSuffix(name, ".zst"):
		d, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.New("[compress] [reader] unable to read file [" + name + "] [" + err.Error() + "]")
		}
		return &readCloser{Reader: d, close: func() error { d.Close(); return f.Close() }}, nil
	case strings.HasSuffix(name, ".gz"):
		g, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.New("[compress] [reader] unable to read file [" + name + "] [" + err.Error() + "]")
		}
		return &readCloser{Reader: g, close: func() error { g.Close(); return f.Close() }}, nil
	}
	return f, nil
}

// readCloser closes the decoder and the underlying file
type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }
