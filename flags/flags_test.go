package flags

import (
	"reflect"
	"testing"
	"time"

	"github.com/nojima/httpie-upload/config"
	"github.com/nojima/httpie-upload/encoder"
	"github.com/nojima/httpie-upload/exchange"
	"github.com/nojima/httpie-upload/input"
	"github.com/nojima/httpie-upload/output"
)

func TestParse(t *testing.T) {
	args, _, optionSet, err := parse([]string{"upie"}, nil, terminalInfo{
		stdoutIsTerminal: true,
		stderrIsTerminal: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	if len(args) != 0 {
		t.Errorf("unexpected returned args: expected none, actual=%v", args)
	}
	expectedOptionSet := &OptionSet{
		ExchangeOptions: exchange.Options{
			ChunkCount: exchange.DefaultChunkCount,
		},
		OutputOptions: output.Options{
			PrintResponseHeader: true,
			PrintResponseBody:   true,
			EnableColor:         true,
			EnableFormat:        true,
			ShowProgress:        true,
		},
		LogLevel: "warn",
	}
	if !reflect.DeepEqual(expectedOptionSet, optionSet) {
		t.Errorf("unexpected option set: expected=\n%+v\nactual=\n%+v", expectedOptionSet, optionSet)
	}
}

func TestParse_NotATerminal(t *testing.T) {
	_, _, optionSet, err := parse([]string{"upie"}, nil, terminalInfo{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	expected := output.Options{PrintResponseBody: true}
	if !reflect.DeepEqual(expected, optionSet.OutputOptions) {
		t.Errorf("unexpected output options: expected=%+v, actual=%+v", expected, optionSet.OutputOptions)
	}
}

func TestParse_AllFlags(t *testing.T) {
	args, _, optionSet, err := parse([]string{
		"upie",
		"-b", "--sniff", "--boundary", "xyz",
		"--chunks", "7", "--timeout", "2.5", "-F",
		"-a", "alice:open:sesame",
		"-p", "h", "-o", "out.txt", "--overwrite",
		"-q", "-v",
		"PUT", "example.com/upload", "file@/tmp/a.bin",
	}, nil, terminalInfo{stdoutIsTerminal: true, stderrIsTerminal: true})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	expectedArgs := []string{"PUT", "example.com/upload", "file@/tmp/a.bin"}
	if !reflect.DeepEqual(expectedArgs, args) {
		t.Errorf("unexpected returned args: expected=%v, actual=%v", expectedArgs, args)
	}
	expectedOptionSet := &OptionSet{
		InputOptions:   input.Options{Binary: true},
		EncoderOptions: encoder.Options{Boundary: "xyz", SniffTypes: true},
		ExchangeOptions: exchange.Options{
			Timeout:         2500 * time.Millisecond,
			FollowRedirects: true,
			ChunkCount:      7,
			Auth: exchange.AuthOptions{
				Enabled:  true,
				UserName: "alice",
				Password: "open:sesame",
			},
		},
		OutputOptions: output.Options{
			PrintResponseHeader: true,
			EnableColor:         true,
			EnableFormat:        true,
			OutputFile:          "out.txt",
			Overwrite:           true,
		},
		LogLevel: "debug",
	}
	if !reflect.DeepEqual(expectedOptionSet, optionSet) {
		t.Errorf("unexpected option set: expected=\n%+v\nactual=\n%+v", expectedOptionSet, optionSet)
	}
}

func TestParse_ConfigDefaults(t *testing.T) {
	cfg := &config.Config{
		Timeout:   10 * time.Second,
		Chunks:    5,
		Boundary:  "from-config",
		Follow:    true,
		Sniff:     true,
		LogLevel:  "info",
		UserAgent: "uploader/2",
		Headers:   map[string]string{"x-team": "core"},
	}

	_, _, optionSet, err := parse([]string{"upie", "--chunks", "9"}, cfg, terminalInfo{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	if optionSet.ExchangeOptions.Timeout != 10*time.Second {
		t.Errorf("unexpected timeout: %v", optionSet.ExchangeOptions.Timeout)
	}
	if optionSet.ExchangeOptions.ChunkCount != 9 {
		t.Errorf("flag must win over config: chunks=%v", optionSet.ExchangeOptions.ChunkCount)
	}
	if !optionSet.ExchangeOptions.FollowRedirects || !optionSet.EncoderOptions.SniffTypes {
		t.Errorf("config booleans not applied: %+v", optionSet)
	}
	if optionSet.EncoderOptions.Boundary != "from-config" {
		t.Errorf("unexpected boundary: %v", optionSet.EncoderOptions.Boundary)
	}
	if optionSet.ExchangeOptions.UserAgent != "uploader/2" {
		t.Errorf("unexpected user agent: %v", optionSet.ExchangeOptions.UserAgent)
	}
	if optionSet.LogLevel != "info" {
		t.Errorf("unexpected log level: %v", optionSet.LogLevel)
	}
	if !reflect.DeepEqual(cfg.Headers, optionSet.DefaultHeaders) {
		t.Errorf("unexpected default headers: %v", optionSet.DefaultHeaders)
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		title string
		args  []string
	}{
		{title: "Unknown flag", args: []string{"upie", "--no-such-flag"}},
		{title: "Invalid print", args: []string{"upie", "--print", "hx"}},
		{title: "Invalid timeout", args: []string{"upie", "--timeout", "later"}},
		{title: "Zero chunks", args: []string{"upie", "--chunks", "0"}},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			_, _, _, err := parse(tt.args, nil, terminalInfo{})
			if err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestParseAuth_AsksForPassword(t *testing.T) {
	original := askPasswordFunc
	defer func() { askPasswordFunc = original }()
	var askedFor string
	askPasswordFunc = func(userName string) (string, error) {
		askedFor = userName
		return "typed", nil
	}

	auth, err := parseAuth("bob")
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	expected := exchange.AuthOptions{Enabled: true, UserName: "bob", Password: "typed"}
	if !reflect.DeepEqual(expected, auth) {
		t.Errorf("unexpected auth: expected=%+v, actual=%+v", expected, auth)
	}
	if askedFor != "bob" {
		t.Errorf("prompted for the wrong user: %v", askedFor)
	}
}
