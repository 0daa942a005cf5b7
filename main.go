package upload

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/nojima/httpie-upload/config"
	"github.com/nojima/httpie-upload/flags"
	"github.com/nojima/httpie-upload/input"
	"github.com/nojima/httpie-upload/output"
	"github.com/nojima/httpie-upload/task"
	"github.com/nojima/httpie-upload/version"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Options replace process-wide resources. Zero values mean the real ones.
type Options struct {
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Fs        afero.Fs
	Config    *config.Config
	Transport http.RoundTripper
}

func (o *Options) withDefaults() *Options {
	opts := *o
	if opts.Args == nil {
		opts.Args = os.Args
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	return &opts
}

func Main(options *Options) error {
	options = options.withDefaults()

	cfg := options.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
	}

	// Parse flags
	flagSet, optionSet, err := flags.Parse(options.Args, cfg)
	if err != nil {
		return err
	}
	if optionSet.PrintVersion {
		fmt.Fprintf(options.Stdout, "upie %s\n", version.Current())
		return nil
	}
	if optionSet.PrintLicenses {
		version.PrintLicenses(options.Stdout)
		return nil
	}

	logger, err := newLogger(options.Stderr, optionSet.LogLevel)
	if err != nil {
		return err
	}
	if cfg.File != "" {
		logger.Debug("loaded config", "file", cfg.File)
	}

	// Parse positional arguments
	in, err := input.ParseArgs(flagSet.Args(), options.Stdin, &optionSet.InputOptions)
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		flagSet.PrintUsage(options.Stderr)
		return err
	}
	if err != nil {
		return err
	}
	applyDefaultHeaders(in, optionSet.DefaultHeaders)

	exchangeOptions := optionSet.ExchangeOptions
	exchangeOptions.Logger = logger
	exchangeOptions.Transport = options.Transport
	uploader, err := task.New(options.Fs, exchangeOptions, optionSet.EncoderOptions)
	if err != nil {
		return err
	}

	// Ctrl-C aborts the upload.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := task.Params{Input: in}
	var bar *output.ProgressBar
	if optionSet.OutputOptions.ShowProgress {
		bar = output.NewProgressBar(options.Stderr, "upload")
		params.OnUploadProgress = bar.Update
	}

	result := uploader.Start(ctx, params).Wait()
	if bar != nil {
		bar.Finish()
	}
	if result.Err != nil {
		return result.Err
	}

	return printResult(result, options, &optionSet.OutputOptions, logger)
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level '%s'", level)
	}
	return log.NewWithOptions(w, log.Options{
		Level:  lvl,
		Prefix: "upie",
	}), nil
}

// applyDefaultHeaders appends configured headers that the command line did
// not set.
func applyDefaultHeaders(in *input.Input, defaults map[string]string) {
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		given := false
		for _, field := range in.Header.Fields {
			if strings.EqualFold(field.Name, name) {
				given = true
				break
			}
		}
		if !given {
			in.Header.Fields = append(in.Header.Fields, input.Field{Name: name, Value: defaults[name]})
		}
	}
}

func printResult(result *task.Result, options *Options, outputOptions *output.Options, logger *log.Logger) error {
	writer := bufio.NewWriter(options.Stdout)
	defer writer.Flush()

	var printer output.Printer
	if outputOptions.EnableFormat {
		printer = output.NewPrettyPrinter(output.PrettyPrinterConfig{
			Writer:      writer,
			EnableColor: outputOptions.EnableColor,
		})
	} else {
		printer = output.NewPlainPrinter(writer)
	}

	if outputOptions.PrintResponseHeader {
		if err := printer.PrintStatusLine(result.Proto, result.Status, result.StatusCode); err != nil {
			return err
		}
		if err := printer.PrintHeader(result.Header); err != nil {
			return err
		}
	}

	if outputOptions.OutputFile != "" {
		fileWriter, err := output.NewFileWriter(options.Fs, outputOptions)
		if err != nil {
			return err
		}
		if err := fileWriter.Write(result.Body); err != nil {
			return err
		}
		logger.Info("saved response body", "path", fileWriter.Path())
		return nil
	}

	if outputOptions.PrintResponseBody {
		return printer.PrintBody(strings.NewReader(result.Body), result.Header["Content-Type"])
	}
	return nil
}
