package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/busopt/internal/models"
)

// ErrInvalidParams is returned when a request parameter is not a number.
var ErrInvalidParams = errors.New("invalid input parameters")

// parseParams reads optional numeric fields from a JSON object. Absent fields
// keep their defaults. Values may be JSON numbers or numeric strings; integer
// fields truncate fractional numbers toward zero.
func parseParams(body []byte) (models.OptimizeParams, error) {
	params := models.DefaultParams()

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return params, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return params, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	var err error
	if raw, ok := fields["target_stations"]; ok {
		if params.TargetStations, err = parseInt(raw); err != nil {
			return params, fmt.Errorf("%w: target_stations: %w", ErrInvalidParams, err)
		}
	}
	if raw, ok := fields["eps"]; ok {
		if params.Eps, err = parseFloat(raw); err != nil {
			return params, fmt.Errorf("%w: eps: %w", ErrInvalidParams, err)
		}
	}
	if raw, ok := fields["min_samples"]; ok {
		if params.MinSamples, err = parseInt(raw); err != nil {
			return params, fmt.Errorf("%w: min_samples: %w", ErrInvalidParams, err)
		}
	}

	return params, nil
}

// scalar returns the text of a JSON number or string and whether it was quoted.
func scalar(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false, errors.New("empty value")
	}

	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return strings.TrimSpace(s), true, nil
	case c == '-' || (c >= '0' && c <= '9'):
		return string(raw), false, nil
	default:
		return "", false, fmt.Errorf("unexpected value %s", raw)
	}
}

func parseFloat(raw json.RawMessage) (float64, error) {
	text, _, err := scalar(raw)
	if err != nil {
		return 0, err
	}

	return strconv.ParseFloat(text, 64)
}

func parseInt(raw json.RawMessage) (int, error) {
	text, quoted, err := scalar(raw)
	if err != nil {
		return 0, err
	}
	if quoted {
		return strconv.Atoi(text)
	}

	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	f = math.Trunc(f)
	if f < math.MinInt || f >= math.MaxInt {
		return 0, fmt.Errorf("value %s out of range", text)
	}
	return int(f), nil
}
