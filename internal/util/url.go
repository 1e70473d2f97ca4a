package util

import "net/url"

// AppendQueryParam adds key=value to rawURL's query string. Idempotent: if the
// key is already present the URL is returned unchanged. Unparseable URLs are
// returned as-is.
func AppendQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has(key) {
		return rawURL
	}
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
