package exchange

import (
	"net/http"
)

func BuildHTTPClient(options *Options) (*http.Client, error) {
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		// Do not follow redirects
		return http.ErrUseLastResponse
	}
	if options.FollowRedirects {
		checkRedirect = nil
	}

	client := http.Client{
		CheckRedirect: checkRedirect,
		Timeout:       options.Timeout,
	}

	if options.Transport == nil {
		// One connection per upload, torn down when the exchange ends.
		transp := http.DefaultTransport.(*http.Transport).Clone()
		transp.DisableKeepAlives = true
		client.Transport = transp
	} else {
		client.Transport = options.Transport
	}

	return &client, nil
}
