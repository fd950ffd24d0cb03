package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ParseHeaderArgs accepts "Key,Value" and "Key: Value" forms. The header is
// split on whichever separator appears first. Range is rejected since the size
// probe and every worker set their own.
func ParseHeaderArgs(headers []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, header := range headers {
		idx := strings.IndexAny(header, ",:")
		if idx <= 0 {
			return nil, fmt.Errorf("%w: header %q is not of the form key,value", ErrParse, header)
		}
		key := strings.TrimSpace(header[:idx])
		value := strings.TrimSpace(header[idx+1:])
		if key == "" {
			return nil, fmt.Errorf("%w: header %q has an empty name", ErrParse, header)
		}
		key = http.CanonicalHeaderKey(key)
		if key == "Range" {
			return nil, fmt.Errorf("%w: the Range header is set per request and cannot be configured", ErrParse)
		}
		result[key] = value
	}
	return result, nil
}

func ParseCredential(auth string) (*Credential, error) {
	parts := strings.SplitN(auth, ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: credential must be username,password", ErrParse)
	}
	user := strings.TrimSpace(parts[0])
	pass := strings.TrimSpace(parts[1])
	if user == "" {
		return nil, fmt.Errorf("%w: credential has an empty username", ErrParse)
	}
	return &Credential{Username: user, Password: pass}, nil
}

// ParseProxyURL accepts "host:port" or a full URL. Credentials embedded in the
// URL are returned separately and stripped from it.
func ParseProxyURL(raw string) (proxyURL, username, password string, err error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", "", "", fmt.Errorf("%w: invalid proxy URL %q", ErrParse, raw)
	}
	switch parsed.Scheme {
	case "http", "https", "socks5":
	default:
		return "", "", "", fmt.Errorf("%w: unsupported proxy scheme %q", ErrParse, parsed.Scheme)
	}
	if parsed.User != nil {
		username = parsed.User.Username()
		password, _ = parsed.User.Password()
		parsed.User = nil
	}
	return parsed.String(), username, password, nil
}

// DeriveOutputPath picks a file name from the filename/file query parameters,
// then the last path segment, then DefaultOutputName.
func DeriveOutputPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return DefaultOutputName
	}
	query := parsed.Query()
	for _, key := range []string{"filename", "file"} {
		if name := safeName(query.Get(key)); name != "" {
			return name
		}
	}
	if name := safeName(path.Base(parsed.Path)); name != "" {
		return name
	}
	return DefaultOutputName
}

func safeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == "/" || name == string(filepath.Separator) {
		return ""
	}
	return name
}

func PartPath(outputPath string, index int) string {
	return fmt.Sprintf("%s_part_%d", outputPath, index)
}

// CleanParts removes leftover part stores of outputPath and reports how many
// were deleted.
func CleanParts(outputPath string) (int, error) {
	dir := filepath.Dir(outputPath)
	prefix := filepath.Base(outputPath) + "_part_"
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !PartIDRegex.MatchString(name) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("%w: %w", ErrIO, err)
		}
		removed++
	}
	return removed, nil
}

// Timer measures a scoped interval. Stop is idempotent so it can sit in a
// defer and still be called early on the success path.
type Timer struct {
	start   time.Time
	elapsed time.Duration
	stopped bool
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.elapsed = time.Since(t.start)
		t.stopped = true
	}
	return t.elapsed
}

func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	return time.Since(t.start)
}
