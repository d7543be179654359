package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// dataParam is the single query parameter carrying the serialized result.
const dataParam = "data"

var ErrMissingPayload = errors.New("missing result payload")

// Navigator receives the composed results address once hand-off fires.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// EncodeResultURL composes the results-view address, embedding the canonical
// result as a single percent-encoded JSON query parameter.
func EncodeResultURL(path string, result Result) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse results path: %w", err)
	}
	q := u.Query()
	q.Set(dataParam, string(payload))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DecodeResultURL recovers the canonical result from a hand-off address.
// It is the receiving view's half of the round trip.
func DecodeResultURL(target string) (Result, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Result{}, fmt.Errorf("parse hand-off address: %w", err)
	}
	return DecodeResultPayload(u.Query().Get(dataParam))
}

// DecodeResultPayload deserializes the data query parameter back into the
// canonical shape.
func DecodeResultPayload(payload string) (Result, error) {
	if payload == "" {
		return Result{}, ErrMissingPayload
	}
	var out Result
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return Result{}, fmt.Errorf("decode result payload: %w", err)
	}
	return out, nil
}
