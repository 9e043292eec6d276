package requests

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/PeladoCollado/requester/types"
)

type jsonRequest struct {
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
}

// ParseJSON decodes the JSON form of a request definition. Header names are
// applied in sorted order since JSON objects carry none.
func ParseJSON(path string, content []byte) (types.RequestSpec, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()
	next := jsonRequest{}
	if err := decoder.Decode(&next); err != nil {
		return types.RequestSpec{}, &ParseError{Path: path, Reason: "invalid JSON request: " + err.Error()}
	}
	if decoder.More() {
		return types.RequestSpec{}, &ParseError{Path: path, Reason: "expected a single JSON request object"}
	}

	method := next.Method
	if method == "" {
		method = "GET"
	}
	normalized, ok := types.NormalizeMethod(method)
	if !ok {
		return types.RequestSpec{}, &ParseError{Path: path, Reason: "unsupported method " + method}
	}

	spec := types.RequestSpec{Method: normalized, URL: next.URL}
	names := make([]string, 0, len(next.Headers))
	for name := range next.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !validHeaderName(name) {
			return types.RequestSpec{}, &ParseError{Path: path, Reason: "invalid header name " + name}
		}
		for _, value := range next.Headers[name] {
			spec.Headers = append(spec.Headers, types.Header{Name: name, Value: value})
		}
	}
	if next.Body != "" {
		spec.Body = []byte(next.Body)
	}
	return spec, nil
}
