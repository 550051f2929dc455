// package feedfetch ...
package feedfetch

import (
	"errors"
	"os"

	"github.com/klauspost/compress/zstd"
)

// const
const (
	_app      = "[feedfetch] "
	_err      = _app + "[error] "
	_inf      = _app + "[info] "
	_empty    = ""
	_linefeed = "\n"
)

// out ...
func out(msg string) { os.Stdout.Write([]byte(msg + _linefeed)) }

// info ...
func info(msg string) { out(_inf + msg) }

// errOut ...
func errOut(msg string) { out(_err + msg) }

// isFile reports a regular file
func isFile(filename string) bool {
	fi, err := os.Stat(filename)
	return err == nil && fi.Mode().IsRegular()
}

// compress encodes data as a single zstd frame
func compress(data []byte) ([]byte, error) {
	w, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderCRC(true),
		zstd.WithZeroFrames(false),
		zstd.WithSingleSegment(true))
	if err != nil {
		errOut("unable to create new zstd writer [" + err.Error() + "]")
		return nil, errors.New("[feedfetch] [compress] [" + err.Error() + "]")
	}
	out := w.EncodeAll(data, nil)
	w.Close()
	return out, nil
}
