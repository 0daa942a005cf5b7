package exchange

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/nojima/httpie-upload/encoder"
	"github.com/nojima/httpie-upload/input"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// BuildHTTPRequest builds the request that carries plan. body must yield
// exactly plan.Length bytes.
func BuildHTTPRequest(
	ctx context.Context,
	fsys afero.Fs,
	in *input.Input,
	plan *encoder.Plan,
	body io.Reader,
	options *Options,
) (*http.Request, error) {
	u, err := buildURL(in)
	if err != nil {
		return nil, err
	}

	header, err := buildHTTPHeader(fsys, in)
	if err != nil {
		return nil, err
	}

	// The boundary is ours, so the multipart type always wins.
	if contentType := plan.ContentType(); contentType != "" {
		header.Set("Content-Type", contentType)
	} else if header.Get("Content-Type") == "" && plan.Length > 0 {
		header.Set("Content-Type", "application/octet-stream")
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", options.userAgent())
	}
	// Declared through ContentLength below.
	header.Del("Content-Length")

	if body == nil || plan.Length == 0 {
		body = http.NoBody
	}
	method := string(in.Method)
	if method == "" {
		method = http.MethodPost
	}

	r, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "building HTTP request")
	}
	r.Header = header
	r.Host = header.Get("Host")
	if body != http.NoBody {
		r.ContentLength = plan.Length
		// The body streams from open files and cannot be replayed.
		r.GetBody = nil
	}
	if options.Auth.Enabled {
		r.SetBasicAuth(options.Auth.UserName, options.Auth.Password)
	}
	return r, nil
}

func buildURL(in *input.Input) (*url.URL, error) {
	if in.URL == nil {
		return nil, errors.New("destination URL is missing")
	}
	q, err := url.ParseQuery(in.URL.RawQuery)
	if err != nil {
		return nil, errors.Wrap(err, "parsing query string")
	}
	for _, field := range in.Parameters {
		q.Add(field.Name, field.Value)
	}

	u := *in.URL
	u.RawQuery = q.Encode()
	return &u, nil
}

func buildHTTPHeader(fsys afero.Fs, in *input.Input) (http.Header, error) {
	header := make(http.Header)
	for _, field := range in.Header.Fields {
		value, err := field.Resolve(fsys)
		if err != nil {
			return nil, err
		}
		header.Add(field.Name, value)
	}
	return header, nil
}
