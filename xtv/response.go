package xtv

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/xtvctl/xtv/fault"
)

// kind is the `_type` discriminator of a listing response.
type kind string

const (
	kindChannelMap   kind = "Enumeration/ChannelMap"
	kindDevice       kind = "Enumeration/Device"
	kindRecording    kind = "Enumeration/Recording"
	kindSearchResult kind = "Enumeration/SearchResult"
)

// payloadPath is where each kind keeps its records.
var payloadPath = map[kind]string{
	kindChannelMap:   "_embedded.channels",
	kindDevice:       "_embedded.devices",
	kindRecording:    "_embedded.recordings",
	kindSearchResult: "_embedded.results",
}

// decodeEnvelope reads the discriminator before anything else and returns
// the raw payload of the matching variant.
func decodeEnvelope(op string, data []byte) (kind, gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return "", gjson.Result{}, fault.New(fault.Protocol, op, "response is not valid JSON")
	}
	t := gjson.GetBytes(data, "_type")
	if t.Type != gjson.String {
		return "", gjson.Result{}, fault.New(fault.Protocol, op, "response has no _type")
	}
	k := kind(t.Str)
	path, ok := payloadPath[k]
	if !ok {
		return "", gjson.Result{}, fault.New(fault.Protocol, op, "unknown response type %q", t.Str)
	}
	return k, gjson.GetBytes(data, path), nil
}

// expect decodes a response that must be of kind want into records of T.
// A missing payload is an empty listing.
func expect[T any](op string, data []byte, want kind) ([]T, error) {
	got, payload, err := decodeEnvelope(op, data)
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, fault.New(fault.Protocol, op, "got %s response, want %s", got, want)
	}
	if !payload.Exists() {
		return []T{}, nil
	}
	if !payload.IsArray() {
		return nil, fault.New(fault.Protocol, op, "%s payload is not a list", got)
	}

	var out []T
	if err := json.Unmarshal([]byte(payload.Raw), &out); err != nil {
		return nil, fault.Wrap(fault.Protocol, op, fmt.Errorf("decode %s: %w", got, err))
	}
	return out, nil
}
