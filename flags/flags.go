package flags

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/nojima/httpie-upload/config"
	"github.com/nojima/httpie-upload/encoder"
	"github.com/nojima/httpie-upload/exchange"
	"github.com/nojima/httpie-upload/input"
	"github.com/nojima/httpie-upload/output"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

type FlagSet interface {
	Args() []string
	PrintUsage(w io.Writer)
}

type OptionSet struct {
	InputOptions    input.Options
	EncoderOptions  encoder.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options

	// DefaultHeaders come from the config file and apply unless the same
	// header is given on the command line.
	DefaultHeaders map[string]string
	LogLevel       string

	PrintVersion  bool
	PrintLicenses bool
}

type terminalInfo struct {
	stdoutIsTerminal bool
	stderrIsTerminal bool
}

// askPasswordFunc is swapped out by tests.
var askPasswordFunc = askPassword

// Parse parses command line flags. args[0] is the program name. Values in
// cfg are used for flags that are not given.
func Parse(args []string, cfg *config.Config) (FlagSet, *OptionSet, error) {
	_, flagSet, optionSet, err := parse(args, cfg, terminalInfo{
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
		stderrIsTerminal: isatty.IsTerminal(os.Stderr.Fd()),
	})
	return flagSet, optionSet, err
}

func parse(args []string, cfg *config.Config, terminalInfo terminalInfo) ([]string, FlagSet, *OptionSet, error) {
	if cfg == nil {
		cfg = &config.Config{Chunks: exchange.DefaultChunkCount, LogLevel: "warn"}
	}

	inputOptions := input.Options{}
	encoderOptions := encoder.Options{
		Boundary:   cfg.Boundary,
		SniffTypes: cfg.Sniff,
	}
	exchangeOptions := exchange.Options{
		FollowRedirects: cfg.Follow,
		ChunkCount:      cfg.Chunks,
		UserAgent:       cfg.UserAgent,
	}
	outputOptions := output.Options{}
	var (
		printVersion  bool
		printLicenses bool
		quiet         bool
		verbose       bool
	)
	printFlag := "\000" // "\000" is a special value that indicates user did not specified --print
	timeout := cfg.Timeout.String()
	authFlag := ""
	logLevel := cfg.LogLevel

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&inputOptions.Binary, "binary", 'b', "send the files as the raw request body instead of multipart/form-data")
	flagSet.BoolVarLong(&encoderOptions.SniffTypes, "sniff", 0, "detect the content type of files without a known extension")
	flagSet.StringVarLong(&encoderOptions.Boundary, "boundary", 0, "multipart boundary to use", "BOUNDARY")
	flagSet.IntVarLong(&exchangeOptions.ChunkCount, "chunks", 0, "number of chunks each file is sent in (progress granularity)", "N")
	flagSet.StringVarLong(&timeout, "timeout", 0, "seconds the whole upload may take, including the transfer (0 means no limit)")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow 30x Location redirects")
	flagSet.StringVarLong(&authFlag, "auth", 'a', "colon-separated username and password for authentication", "USER[:PASS]")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (hb)")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "save the response body to FILE", "FILE")
	flagSet.BoolVarLong(&outputOptions.Overwrite, "overwrite", 0, "overwrite the --output file if it exists")
	flagSet.BoolVarLong(&quiet, "quiet", 'q', "do not show upload progress")
	flagSet.BoolVarLong(&verbose, "verbose", 'v', "log what is being sent")
	flagSet.StringVarLong(&logLevel, "log-level", 0, "log level (debug, info, warn, error)", "LEVEL")
	flagSet.BoolVarLong(&printVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&printLicenses, "licenses", 0, "print license information and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, nil, nil, errors.Wrap(err, "parsing flags")
	}

	// Parse --print
	if err := parsePrintFlag(printFlag, terminalInfo.stdoutIsTerminal, &outputOptions); err != nil {
		return nil, nil, nil, err
	}

	// Parse --timeout
	d, err := config.ParseDuration(timeout)
	if err != nil {
		return nil, nil, nil, err
	}
	exchangeOptions.Timeout = d

	if exchangeOptions.ChunkCount <= 0 {
		return nil, nil, nil, errors.Errorf("--chunks must be positive: %d", exchangeOptions.ChunkCount)
	}

	// Parse --auth
	if authFlag != "" {
		exchangeOptions.Auth, err = parseAuth(authFlag)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	if verbose {
		logLevel = "debug"
	}

	// Color
	outputOptions.EnableColor = terminalInfo.stdoutIsTerminal
	outputOptions.EnableFormat = terminalInfo.stdoutIsTerminal
	outputOptions.ShowProgress = !quiet && terminalInfo.stderrIsTerminal

	optionSet := &OptionSet{
		InputOptions:    inputOptions,
		EncoderOptions:  encoderOptions,
		ExchangeOptions: exchangeOptions,
		OutputOptions:   outputOptions,
		DefaultHeaders:  cfg.Headers,
		LogLevel:        logLevel,
		PrintVersion:    printVersion,
		PrintLicenses:   printLicenses,
	}
	return flagSet.Args(), flagSet, optionSet, nil
}

func parsePrintFlag(printFlag string, stdoutIsTerminal bool, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		if stdoutIsTerminal {
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		} else {
			outputOptions.PrintResponseBody = true
		}
	} else {
		for _, c := range printFlag {
			switch c {
			case 'h':
				outputOptions.PrintResponseHeader = true
			case 'b':
				outputOptions.PrintResponseBody = true
			default:
				return errors.Errorf("Invalid char in --print value (must be consist of hb): %c", c)
			}
		}
	}
	return nil
}

func parseAuth(authFlag string) (exchange.AuthOptions, error) {
	colonIndex := strings.Index(authFlag, ":")
	if colonIndex == -1 {
		password, err := askPasswordFunc(authFlag)
		if err != nil {
			return exchange.AuthOptions{}, err
		}
		return exchange.AuthOptions{
			Enabled:  true,
			UserName: authFlag,
			Password: password,
		}, nil
	}

	return exchange.AuthOptions{
		Enabled:  true,
		UserName: authFlag[:colonIndex],
		Password: authFlag[colonIndex+1:],
	}, nil
}
