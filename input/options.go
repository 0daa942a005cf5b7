package input

type Options struct {
	// Binary sends the files as a raw body without multipart framing.
	Binary bool
}
