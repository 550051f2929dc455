// package feedfetch fetches missing ioc feed files
package feedfetch

// import
import (
	"context"
	"errors"
	"time"
)

// ErrNoURL is returned for a missing feed without download location
var ErrNoURL = errors.New("[feedfetch] feed missing and no url defined")

// Feed ...
type Feed struct {
	Name string // feed name, for reporting
	URL  string // feed download location
	File string // local feed file location, without compression suffix
}

// Options ...
type Options struct {
	UserAgent string        // http user agent, defaults to _DEFAULT_USERAGENT
	Timeout   time.Duration // per request timeout, defaults to _DEFAULT_TIMEOUT
	MaxSize   int64         // max accepted body size, defaults to _DEFAULT_MAXSIZE
	Compress  bool          // store the feed as zstd compressed File + ".zst"
}

// Ensure returns the path of a local copy of feed, fetching it if no variant
// (plain, .zst, .gz) exists yet
func Ensure(ctx context.Context, feed Feed, opt Options) (string, error) {
	for _, f := range []string{feed.File, feed.File + _zst, feed.File + ".gz"} {
		if isFile(f) {
			return f, nil
		}
	}
	if feed.URL == _empty {
		return _empty, ErrNoURL
	}
	if opt.UserAgent == _empty {
		opt.UserAgent = _DEFAULT_USERAGENT
	}
	if opt.Timeout <= 0 {
		opt.Timeout = _DEFAULT_TIMEOUT
	}
	if opt.MaxSize <= 0 {
		opt.MaxSize = _DEFAULT_MAXSIZE
	}
	info("[" + feed.Name + "] local feed [" + feed.File + "] missing, fetch [" + feed.URL + "]")
	return fetchFeed(ctx, feed, opt)
}
