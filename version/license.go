package version

import (
	"fmt"
	"io"
)

type License struct {
	ModuleName  string
	LicenseName string
	Link        string
}

var Licenses = []License{
	{
		ModuleName:  "upie",
		LicenseName: "MIT License",
		Link:        "https://github.com/nojima/httpie-upload/blob/master/LICENSE",
	},
	{
		ModuleName:  "httpie-go",
		LicenseName: "MIT License",
		Link:        "https://github.com/nojima/httpie-go/blob/master/LICENSE",
	},
	{
		ModuleName:  "Go",
		LicenseName: "BSD License",
		Link:        "https://golang.org/LICENSE",
	},
	{
		ModuleName:  "aurora",
		LicenseName: "WTFPL",
		Link:        "https://github.com/logrusorgru/aurora/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-isatty",
		LicenseName: "MIT License",
		Link:        "https://github.com/mattn/go-isatty/blob/master/LICENSE",
	},
	{
		ModuleName:  "getopt",
		LicenseName: "BSD License",
		Link:        "https://github.com/pborman/getopt/blob/master/LICENSE",
	},
	{
		ModuleName:  "errors",
		LicenseName: "BSD License",
		Link:        "https://github.com/pkg/errors/blob/master/LICENSE",
	},
	{
		ModuleName:  "bytefmt",
		LicenseName: "Apache License",
		Link:        "https://github.com/cloudfoundry/bytefmt/blob/master/LICENSE",
	},
	{
		ModuleName:  "log",
		LicenseName: "MIT License",
		Link:        "https://github.com/charmbracelet/log/blob/main/LICENSE",
	},
	{
		ModuleName:  "mimetype",
		LicenseName: "MIT License",
		Link:        "https://github.com/gabriel-vasile/mimetype/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-homedir",
		LicenseName: "MIT License",
		Link:        "https://github.com/mitchellh/go-homedir/blob/master/LICENSE",
	},
	{
		ModuleName:  "androiddnsfix",
		LicenseName: "MIT License",
		Link:        "https://github.com/mtibben/androiddnsfix/blob/master/LICENSE",
	},
	{
		ModuleName:  "afero",
		LicenseName: "Apache License",
		Link:        "https://github.com/spf13/afero/blob/master/LICENSE.txt",
	},
	{
		ModuleName:  "viper",
		LicenseName: "MIT License",
		Link:        "https://github.com/spf13/viper/blob/master/LICENSE",
	},
	{
		ModuleName:  "x/crypto, x/sync, x/text, x/time",
		LicenseName: "BSD License",
		Link:        "https://go.googlesource.com/crypto/+/master/LICENSE",
	},
}

func PrintLicenses(w io.Writer) {
	for _, license := range Licenses {
		fmt.Fprintf(w, "%s:\n  %s\n  %s\n\n",
			license.ModuleName,
			license.LicenseName,
			license.Link,
		)
	}
}
