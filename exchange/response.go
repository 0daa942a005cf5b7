package exchange

import (
	"bufio"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"
)

// Response is the outcome of a completed exchange.
type Response struct {
	Proto      string
	StatusCode int
	Status     string

	// Header holds the first value of every response header.
	Header map[string]string

	// Body is the response body decoded as text, one line at a time. Every
	// line, including the last, ends with "\n".
	Body string
}

func readResponse(resp *http.Response) (*Response, error) {
	header := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		if len(values) > 0 {
			header[name] = values[0]
		}
	}

	body, err := readBody(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	return &Response{
		Proto:      resp.Proto,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     header,
		Body:       body,
	}, nil
}

func readBody(r io.Reader, contentType string) (string, error) {
	r, err := decodeCharset(r, contentType)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			b.WriteString(line)
			b.WriteByte('\n')
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "reading response body")
		}
	}
	return b.String(), nil
}

func decodeCharset(r io.Reader, contentType string) (io.Reader, error) {
	if contentType == "" {
		return r, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r, nil
	}
	charset := strings.ToLower(params["charset"])
	switch charset {
	case "", "utf-8", "utf8", "us-ascii":
		return r, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, errors.Wrapf(err, "unsupported response charset '%s'", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}
