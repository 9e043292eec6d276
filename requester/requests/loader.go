package requests

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PeladoCollado/requester/types"
)

// ParseError reports a malformed request definition file.
type ParseError struct {
	Path   string
	Line   int
	Reason string
}

func (p *ParseError) Error() string {
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", p.Path, p.Line, p.Reason)
	}
	return fmt.Sprintf("%s: %s", p.Path, p.Reason)
}

// LoadFile reads a request definition. Files ending in .json are decoded as a
// single JSON object, anything else uses the text grammar of Parse.
func LoadFile(path string) (types.RequestSpec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.RequestSpec{}, fmt.Errorf("read request file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(path, content)
	}
	return Parse(path, content)
}

// Parse reads the text form:
//
//	# comment
//	METHOD [URL [HTTP/x.y]]
//	Name: value
//
//	body
//
// Everything after the blank line that ends the headers is the body, kept
// byte for byte.
func Parse(path string, content []byte) (types.RequestSpec, error) {
	spec := types.RequestSpec{}
	lineNum := 0
	sawRequestLine := false
	offset := 0

	for offset < len(content) {
		end := bytes.IndexByte(content[offset:], '\n')
		next := len(content)
		if end >= 0 {
			next = offset + end + 1
		}
		line := strings.TrimRight(string(content[offset:next]), "\r\n")
		offset = next
		lineNum++

		if !sawRequestLine {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if err := parseRequestLine(trimmed, &spec); err != nil {
				return types.RequestSpec{}, &ParseError{Path: path, Line: lineNum, Reason: err.Error()}
			}
			sawRequestLine = true
			continue
		}

		if line == "" {
			if offset < len(content) {
				spec.Body = append([]byte(nil), content[offset:]...)
			}
			return spec, nil
		}

		header, err := parseHeaderLine(line)
		if err != nil {
			return types.RequestSpec{}, &ParseError{Path: path, Line: lineNum, Reason: err.Error()}
		}
		spec.Headers = append(spec.Headers, header)
	}

	if !sawRequestLine {
		return types.RequestSpec{}, &ParseError{Path: path, Reason: "missing request line"}
	}
	return spec, nil
}

func parseRequestLine(line string, spec *types.RequestSpec) error {
	parts := strings.Fields(line)
	if len(parts) > 3 {
		return fmt.Errorf("request line has %d fields, expected METHOD [URL [VERSION]]", len(parts))
	}
	method, ok := types.NormalizeMethod(parts[0])
	if !ok {
		return fmt.Errorf("unsupported method %q", parts[0])
	}
	spec.Method = method
	if len(parts) >= 2 {
		spec.URL = parts[1]
	}
	if len(parts) == 3 && !strings.HasPrefix(strings.ToUpper(parts[2]), "HTTP/") {
		return fmt.Errorf("invalid protocol version %q", parts[2])
	}
	return nil
}

var errMissingColon = errors.New("header line must be Name: value")

func parseHeaderLine(line string) (types.Header, error) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return types.Header{}, errMissingColon
	}
	if !validHeaderName(name) {
		return types.Header{}, fmt.Errorf("invalid header name %q", name)
	}
	return types.Header{Name: name, Value: strings.TrimSpace(value)}, nil
}

// validHeaderName reports whether name is an RFC 7230 token.
func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}
