package cmd

import (
	"fmt"
	"maps"
	"time"

	"github.com/tanq16/accel/internal/utils"
)

// downloadOptions mirrors the root command flags.
type downloadOptions struct {
	outfile    string
	threads    int
	size       int64
	headers    []string
	parseURL   bool
	insecure   bool
	auth       string
	debug      bool
	configPath string
	retries    int
	retryWait  time.Duration
	timeout    time.Duration
	userAgent  string
	proxy      string
	proxyUser  string
	proxyPass  string
}

// buildSpec merges flags over the optional config file. changed reports
// whether a flag was given explicitly on the command line.
func (o *downloadOptions) buildSpec(rawURL string, changed func(name string) bool) (utils.DownloadSpec, error) {
	cfg := &utils.FileConfig{}
	if o.configPath != "" {
		loaded, err := utils.LoadConfig(o.configPath)
		if err != nil {
			return utils.DownloadSpec{}, err
		}
		cfg = loaded
	}

	headers, err := canonicalHeaders(cfg.Headers)
	if err != nil {
		return utils.DownloadSpec{}, err
	}
	flagHeaders, err := utils.ParseHeaderArgs(o.headers)
	if err != nil {
		return utils.DownloadSpec{}, err
	}
	maps.Copy(headers, flagHeaders)

	spec := utils.DownloadSpec{
		URL:        rawURL,
		OutputPath: o.outfile,
		Threads:    o.threads,
		KnownSize:  o.size,
		Retries:    o.retries,
		RetryWait:  o.retryWait,
		HTTPClientConfig: utils.HTTPClientConfig{
			Timeout:   o.timeout,
			UserAgent: o.userAgent,
			Headers:   headers,
			Insecure:  o.insecure || cfg.Insecure,
		},
	}
	if o.parseURL {
		spec.SizeMode = utils.SizeFromURL
	}
	if !changed("threads") && cfg.Threads > 0 {
		spec.Threads = cfg.Threads
	}
	if !changed("retries") && cfg.Retries != nil {
		spec.Retries = *cfg.Retries
	}
	if !changed("retry-wait") && cfg.RetryWait > 0 {
		spec.RetryWait = cfg.RetryWait
	}
	if !changed("timeout") && cfg.Timeout > 0 {
		spec.HTTPClientConfig.Timeout = cfg.Timeout
	}
	if !changed("user-agent") && cfg.UserAgent != "" {
		spec.HTTPClientConfig.UserAgent = cfg.UserAgent
	}
	proxy := o.proxy
	if !changed("proxy") && cfg.Proxy != "" {
		proxy = cfg.Proxy
	}
	if proxy != "" {
		proxyURL, user, pass, err := utils.ParseProxyURL(proxy)
		if err != nil {
			return utils.DownloadSpec{}, err
		}
		// explicit proxy credential flags win over ones embedded in the URL
		if o.proxyUser != "" {
			user, pass = o.proxyUser, o.proxyPass
		}
		spec.HTTPClientConfig.ProxyURL = proxyURL
		spec.HTTPClientConfig.ProxyUsername = user
		spec.HTTPClientConfig.ProxyPassword = pass
	}
	if spec.OutputPath == "" {
		spec.OutputPath = utils.DeriveOutputPath(rawURL)
	}
	if spec.Threads < 1 {
		return utils.DownloadSpec{}, fmt.Errorf("%w: --threads must be at least 1", utils.ErrParse)
	}
	if spec.KnownSize < 0 {
		return utils.DownloadSpec{}, fmt.Errorf("%w: --size must not be negative", utils.ErrParse)
	}
	if o.auth != "" {
		cred, err := utils.ParseCredential(o.auth)
		if err != nil {
			return utils.DownloadSpec{}, err
		}
		spec.HTTPClientConfig.Credential = cred
	}
	return spec, nil
}

func canonicalHeaders(headers map[string]string) (map[string]string, error) {
	args := make([]string, 0, len(headers))
	for k, v := range headers {
		args = append(args, k+":"+v)
	}
	return utils.ParseHeaderArgs(args)
}
