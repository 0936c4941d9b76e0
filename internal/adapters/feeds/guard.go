package feeds

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// ErrBlockedURL is returned for feed URLs that point at internal addresses
// or use a scheme other than http(s).
var ErrBlockedURL = errors.New("feed url denied")

var blockedHosts = []string{
	"localhost",
	"metadata.google.internal",
	"metadata.google",
}

// checkURL rejects non-HTTP schemes and hosts that are internal by name or
// literal address. Names that resolve to internal addresses are caught at
// dial time.
func checkURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrBlockedURL, parsed.Scheme)
	}

	host := parsed.Hostname()
	for _, b := range blockedHosts {
		if strings.EqualFold(host, b) {
			return fmt.Errorf("%w: host %s", ErrBlockedURL, host)
		}
	}
	if ip := net.ParseIP(host); ip != nil && internalIP(ip) {
		return fmt.Errorf("%w: address %s", ErrBlockedURL, ip)
	}
	return nil
}

func internalIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// newHTTPClient returns the client used for feed downloads. Unless
// allowPrivate reports true, connections to internal addresses are refused,
// which also covers redirects and DNS names pointing inward.
func newHTTPClient(timeout time.Duration, allowPrivate func() bool) *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			if allowPrivate() {
				return nil
			}
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip != nil && internalIP(ip) {
				return fmt.Errorf("%w: address %s", ErrBlockedURL, ip)
			}
			return nil
		},
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			if allowPrivate() {
				return nil
			}
			return checkURL(req.URL.String())
		},
	}
}
