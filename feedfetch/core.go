// package feedfetch ...
package feedfetch

// import
import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// const
const (
	_DEFAULT_USERAGENT = "ioc2rules"      // user agent used for fetch
	_DEFAULT_TIMEOUT   = 30 * time.Second // per request timeout
	_DEFAULT_MAXSIZE   = 64 * 1024 * 1024 // feed size limit
	_zst               = ".zst"
)

// fetchFeed downloads feed.URL and writes it to feed.File or feed.File + .zst
func fetchFeed(ctx context.Context, feed Feed, opt Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opt.Timeout)
	defer cancel()

	// setup request
	request, err := getRequest(ctx, feed.URL, opt.UserAgent)
	if err != nil {
		return _empty, err
	}

	// setup transport layer
	client := getClient(getTransport(getTlsConf()))

	// fetch
	resp, err := client.Do(request)
	if err != nil {
		return _empty, errors.New("[feedfetch] [" + feed.URL + "] [FETCH FAIL] [" + err.Error() + "]")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return _empty, errors.New("[feedfetch] [" + feed.URL + "] [FETCH FAIL] [status " + strconv.Itoa(resp.StatusCode) + "]")
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, opt.MaxSize+1))
	if err != nil {
		return _empty, errors.New("[feedfetch] [" + feed.URL + "] [FETCH BODY FAIL] [" + err.Error() + "]")
	}
	if int64(len(data)) > opt.MaxSize {
		return _empty, errors.New("[feedfetch] [" + feed.URL + "] [BODY EXCEEDS SIZE LIMIT]")
	}

	// write
	file := feed.File
	if opt.Compress {
		file += _zst
		if data, err = compress(data); err != nil {
			return _empty, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return _empty, errors.New("[feedfetch] unable to create dir [" + err.Error() + "]")
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return _empty, errors.New("[feedfetch] unable to write file [" + err.Error() + "]")
	}
	info("[" + feed.Name + "] stored [" + file + "] [" + strconv.Itoa(len(data)) + " bytes]")
	return file, nil
}
