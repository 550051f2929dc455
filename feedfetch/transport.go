// package feedfetch ...
package feedfetch

// import
import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/url"
)

// getTlsConf ...
func getTlsConf() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify:     false,
		SessionTicketsDisabled: true,
		Renegotiation:          tls.RenegotiateNever,
		MinVersion:             tls.VersionTLS12,
	}
}

// getTransport ...
func getTransport(tlsconf *tls.Config) *http.Transport {
	return &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		TLSClientConfig:   tlsconf,
		ForceAttemptHTTP2: true,
	}
}

// getClient ...
func getClient(transport *http.Transport) *http.Client {
	return &http.Client{
		CheckRedirect: nil,
		Jar:           nil,
		Transport:     transport,
	}
}

// getRequest ...
func getRequest(ctx context.Context, targetURL, userAgent string) (*http.Request, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, errors.New("[feedfetch] [" + targetURL + "] -> invalid src url syntax [" + err.Error() + "]")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, errors.New("[feedfetch] [" + targetURL + "] -> unsupported url scheme [" + u.Scheme + "]")
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.New("[feedfetch] [" + targetURL + "] -> unable to create request [" + err.Error() + "]")
	}
	request.Header.Set("User-Agent", userAgent)
	return request, nil
}
