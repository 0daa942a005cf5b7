package output

import (
	"io"
)

type Printer interface {
	PrintStatusLine(proto string, status string, statusCode int) error
	PrintHeader(header map[string]string) error
	PrintBody(body io.Reader, contentType string) error
}
