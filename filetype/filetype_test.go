package filetype

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		title    string
		explicit string
		path     string
		expected string
	}{
		{title: "Explicit type wins", explicit: "application/x-custom", path: "photo.png", expected: "application/x-custom"},
		{title: "Known extension", path: "/tmp/photo.png", expected: "image/png"},
		{title: "Upper-case extension", path: "/tmp/PHOTO.PNG", expected: "image/png"},
		{title: "No extension", path: "/tmp/README", expected: Wildcard},
		{title: "Trailing dot", path: "/tmp/archive.", expected: Wildcard},
		{title: "Unknown extension", path: "/tmp/data.zzqqxx", expected: Wildcard},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.explicit, tt.path))
		})
	}
}

func TestFromExtension_Text(t *testing.T) {
	// The builtin table may attach a charset parameter.
	assert.True(t, strings.HasPrefix(FromExtension("notes.txt"), "text/plain"))
}

func TestSniff(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	mt, err := Sniff(bytes.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)

	mt, err = Sniff(strings.NewReader("just some words\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mt, "text/plain"), "got %s", mt)
}
