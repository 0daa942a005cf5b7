package output

type Options struct {
	PrintResponseHeader bool
	PrintResponseBody   bool

	EnableFormat bool
	EnableColor  bool
	ShowProgress bool

	OutputFile string
	Overwrite  bool
}
