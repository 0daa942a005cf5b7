package exchange

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/nojima/httpie-upload/encoder"
	"github.com/nojima/httpie-upload/input"
	"github.com/nojima/httpie-upload/internal/testutil"
	"github.com/nojima/httpie-upload/version"
)

func parseURL(t *testing.T, rawurl string) *url.URL {
	u, err := url.Parse(rawurl)
	if err != nil {
		t.Fatalf("failed to parse URL: %s", err)
	}
	return u
}

func TestBuildHTTPRequest(t *testing.T) {
	// Setup
	fs := testutil.NewMemFs(map[string]string{"/hello.txt": "hello"})
	in := &input.Input{
		Method: input.Method("POST"),
		URL:    parseURL(t, "https://localhost:4000/foo"),
		Parameters: []input.Field{
			{Name: "q", Value: "hello world"},
		},
		Header: input.Header{
			Fields: []input.Field{
				{Name: "X-Foo", Value: "fizz buzz"},
				{Name: "x-foo", Value: "again"},
				{Name: "Host", Value: "example.com:8080"},
				{Name: "Content-Type", Value: "text/plain"},
			},
		},
		Body: input.Body{
			BodyType: input.MultipartBody,
			Fields:   []input.Field{{Name: "hoge", Value: "fuga"}},
			Files:    []input.File{{Name: "file", Path: "/hello.txt"}},
		},
	}
	plan, err := encoder.Encode(fs, in, encoder.Options{})
	if err != nil {
		t.Fatalf("Encode: %+v", err)
	}
	defer plan.Close()
	options := Options{
		Auth: AuthOptions{
			Enabled:  true,
			UserName: "alice",
			Password: "open sesame",
		},
	}

	// Exercise
	actual, err := BuildHTTPRequest(context.Background(), fs, in, plan, strings.NewReader("body"), &options)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if actual.Method != "POST" {
		t.Errorf("unexpected method: expected=%v, actual=%v", "POST", actual.Method)
	}
	expectedURL := parseURL(t, "https://localhost:4000/foo?q=hello+world")
	if !reflect.DeepEqual(actual.URL, expectedURL) {
		t.Errorf("unexpected URL: expected=%v, actual=%v", expectedURL, actual.URL)
	}
	expectedHeader := http.Header{
		"X-Foo":         []string{"fizz buzz", "again"},
		"Host":          []string{"example.com:8080"},
		"Content-Type":  []string{"multipart/form-data; boundary=" + encoder.DefaultBoundary},
		"Authorization": []string{"Basic YWxpY2U6b3BlbiBzZXNhbWU="},
		"User-Agent":    []string{"upie/" + version.Current().String()},
	}
	if !reflect.DeepEqual(expectedHeader, actual.Header) {
		t.Errorf("unexpected header: expected=%v, actual=%v", expectedHeader, actual.Header)
	}
	if actual.Host != "example.com:8080" {
		t.Errorf("unexpected host: expected=%v, actual=%v", "example.com:8080", actual.Host)
	}
	if actual.ContentLength != plan.Length {
		t.Errorf("unexpected content length: expected=%v, actual=%v", plan.Length, actual.ContentLength)
	}
	if actual.GetBody != nil {
		t.Errorf("streamed body must not be replayable")
	}
}

func TestBuildHTTPRequest_Binary(t *testing.T) {
	testCases := []struct {
		title       string
		header      []input.Field
		contentType string
	}{
		{title: "Default content type", contentType: "application/octet-stream"},
		{
			title:       "Caller content type",
			header:      []input.Field{{Name: "Content-Type", Value: "image/png"}},
			contentType: "image/png",
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			fs := testutil.NewMemFs(map[string]string{"/a.bin": "0123456789"})
			in := &input.Input{
				Method: input.Method("PUT"),
				URL:    parseURL(t, "http://localhost/upload"),
				Header: input.Header{Fields: tt.header},
				Body: input.Body{
					BodyType: input.BinaryBody,
					Files:    []input.File{{Name: "a", Path: "/a.bin"}},
				},
			}
			plan, err := encoder.Encode(fs, in, encoder.Options{})
			if err != nil {
				t.Fatalf("Encode: %+v", err)
			}
			defer plan.Close()

			r, err := BuildHTTPRequest(context.Background(), fs, in, plan, strings.NewReader("0123456789"), &Options{})
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			if r.Method != "PUT" {
				t.Errorf("unexpected method: %v", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != tt.contentType {
				t.Errorf("unexpected content type: expected=%v, actual=%v", tt.contentType, ct)
			}
			if r.ContentLength != 10 {
				t.Errorf("unexpected content length: %v", r.ContentLength)
			}
		})
	}
}

func TestBuildHTTPRequest_EmptyBody(t *testing.T) {
	in := &input.Input{
		URL:  parseURL(t, "http://localhost/upload"),
		Body: input.Body{BodyType: input.BinaryBody},
	}
	plan, err := encoder.Encode(testutil.NewMemFs(nil), in, encoder.Options{})
	if err != nil {
		t.Fatalf("Encode: %+v", err)
	}

	r, err := BuildHTTPRequest(context.Background(), testutil.NewMemFs(nil), in, plan, nil, &Options{UserAgent: "custom/1.0"})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if r.Method != http.MethodPost {
		t.Errorf("method should default to POST: actual=%v", r.Method)
	}
	if r.Body != http.NoBody || r.ContentLength != 0 {
		t.Errorf("expected empty body, got length %v", r.ContentLength)
	}
	if r.Header.Get("Content-Type") != "" {
		t.Errorf("empty binary body must not declare a content type")
	}
	if ua := r.Header.Get("User-Agent"); ua != "custom/1.0" {
		t.Errorf("unexpected user agent: %v", ua)
	}
}

func TestBuildURL(t *testing.T) {
	testCases := []struct {
		title    string
		url      string
		params   []input.Field
		expected string
	}{
		{title: "No parameters", url: "http://localhost/a", expected: "http://localhost/a"},
		{
			title:    "Appended to existing query",
			url:      "http://localhost/a?x=1",
			params:   []input.Field{{Name: "y", Value: "2 3"}},
			expected: "http://localhost/a?x=1&y=2+3",
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			u, err := buildURL(&input.Input{URL: parseURL(t, tt.url), Parameters: tt.params})
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			if u.String() != tt.expected {
				t.Errorf("unexpected URL: expected=%v, actual=%v", tt.expected, u)
			}
		})
	}

	if _, err := buildURL(&input.Input{}); err == nil {
		t.Errorf("missing URL must be an error")
	}
}

func TestBuildHTTPHeader_ValueFromFile(t *testing.T) {
	fs := testutil.NewMemFs(map[string]string{"/token": "secret"})
	in := &input.Input{
		Header: input.Header{Fields: []input.Field{{Name: "X-Token", Value: "/token", IsFile: true}}},
	}

	header, err := buildHTTPHeader(fs, in)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if header.Get("X-Token") != "secret" {
		t.Errorf("unexpected header value: %v", header.Get("X-Token"))
	}

	in.Header.Fields[0].Value = "/missing"
	if _, err := buildHTTPHeader(fs, in); err == nil {
		t.Errorf("missing file must be an error")
	}
}

func TestReadBody(t *testing.T) {
	testCases := []struct {
		title       string
		body        string
		contentType string
		expected    string
	}{
		{title: "Empty", body: "", expected: ""},
		{title: "Unterminated last line", body: "a\nb", expected: "a\nb\n"},
		{title: "CRLF lines", body: "a\r\nb\r\n", expected: "a\nb\n"},
		{title: "Latin-1", body: "caf\xe9", contentType: "text/plain; charset=ISO-8859-1", expected: "café\n"},
		{title: "UTF-8", body: "café", contentType: "text/plain; charset=utf-8", expected: "café\n"},
		{title: "Unparsable content type", body: "x", contentType: ";;", expected: "x\n"},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			actual, err := readBody(strings.NewReader(tt.body), tt.contentType)
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			if actual != tt.expected {
				t.Errorf("unexpected body: expected=%q, actual=%q", tt.expected, actual)
			}
		})
	}

	if _, err := readBody(io.MultiReader(), "text/plain; charset=x-no-such-charset"); err == nil {
		t.Errorf("unknown charset must be an error")
	}
}
