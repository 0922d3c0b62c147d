// Package routes describes the views of the client UI and maps paths to them.
package routes

import (
	"net/url"
	"strings"
)

// Route names.
const (
	Upload  = "upload"
	Results = "results"
)

// Route maps a path pattern to a view. Segments starting with ':' bind a
// parameter.
type Route struct {
	Name    string
	Pattern string
}

// Table is the fixed route table of the client.
var Table = []Route{
	{Name: Upload, Pattern: "/"},
	{Name: Results, Pattern: "/results/:filename"},
}

// Match returns the route matching path and its bound parameters.
func Match(path string) (Route, map[string]string, bool) {
	segments := split(path)
	for _, route := range Table {
		if params, ok := matchPattern(split(route.Pattern), segments); ok {
			return route, params, true
		}
	}
	return Route{}, nil, false
}

// ResultsPath returns the results view path for filename.
func ResultsPath(filename string) string {
	return "/results/" + url.PathEscape(filename)
}

func matchPattern(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, p := range pattern {
		if name, ok := strings.CutPrefix(p, ":"); ok {
			value, err := url.PathUnescape(segments[i])
			if err != nil || value == "" {
				return nil, false
			}
			params[name] = value
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
