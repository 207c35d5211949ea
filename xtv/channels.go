package xtv

import (
	"context"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Channel is one broadcast channel. The JSON names are the API's; the YAML
// names are the snapshot file's.
type Channel struct {
	Name     string `json:"callSignVoiceOverHint" yaml:"name"`
	Number   uint16 `json:"number" yaml:"number"`
	CallSign string `json:"callSign" yaml:"call_sign"`
	HD       bool   `json:"isHD" yaml:"hd"`
}

// ChannelMap groups channels by upper-cased call sign. Each list keeps the
// order the API returned them in.
type ChannelMap map[string][]Channel

func newChannelMap(channels []Channel) ChannelMap {
	m := make(ChannelMap)
	for _, ch := range channels {
		ch.CallSign = normalizeCallSign(ch.CallSign)
		m[ch.CallSign] = append(m[ch.CallSign], ch)
	}
	return m
}

func normalizeCallSign(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Lookup finds the channels for a call sign in any case.
func (m ChannelMap) Lookup(callSign string) ([]Channel, bool) {
	chs, ok := m[normalizeCallSign(callSign)]
	return chs, ok && len(chs) > 0
}

// CallSigns returns the keys in sorted order.
func (m ChannelMap) CallSigns() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Client) fetchChannels(ctx context.Context) (ChannelMap, error) {
	const endpoint = "/channelmap/"
	data, err := c.fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	channels, err := expect[Channel]("GET "+endpoint, data, kindChannelMap)
	if err != nil {
		return nil, err
	}
	return newChannelMap(channels), nil
}
