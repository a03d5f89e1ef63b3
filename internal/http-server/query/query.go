package query

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

func Str(r *http.Request, key string) (val string, present bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	return raw, raw != ""
}

func Int(r *http.Request, key string) (val int, present bool, err error) {
	raw, ok := Str(r, key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be integer", key)
	}
	return n, true, nil
}

func Float(r *http.Request, key string) (val float64, present bool, err error) {
	raw, ok := Str(r, key)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be a number", key)
	}
	return f, true, nil
}

func Bool(r *http.Request, key string) (val bool, present bool, err error) {
	raw, ok := Str(r, key)
	if !ok {
		return false, false, nil
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, true, nil
	case "0", "false", "no", "off":
		return false, true, nil
	}
	return false, true, fmt.Errorf("%s must be boolean", key)
}

// CSV splits a comma-separated parameter into trimmed, non-empty parts.
func CSV(r *http.Request, key string) []string {
	raw, ok := Str(r, key)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
