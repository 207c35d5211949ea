package xtv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtvctl/xtv/fault"
)

func TestExpect(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr error
	}{
		{"devices", devicesBody, 2, nil},
		{"empty listing", `{"_type":"Enumeration/Device"}`, 0, nil},
		{"wrong variant", channelMapBody, 0, fault.ErrProtocol},
		{"unknown type", `{"_type":"Enumeration/Weather","_embedded":{}}`, 0, fault.ErrProtocol},
		{"missing type", `{"_embedded":{"devices":[]}}`, 0, fault.ErrProtocol},
		{"non-string type", `{"_type":7}`, 0, fault.ErrProtocol},
		{"invalid json", `{"_type":"Enumeration/Device",`, 0, fault.ErrProtocol},
		{"payload not a list", `{"_type":"Enumeration/Device","_embedded":{"devices":{}}}`, 0, fault.ErrProtocol},
		{"bad record", `{"_type":"Enumeration/Device","_embedded":{"devices":[{"deviceId":5}]}}`, 0, fault.ErrProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expect[Device]("GET /devices/", []byte(tt.body), kindDevice)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestExpect_ChannelNumberOutOfRange(t *testing.T) {
	body := `{"_type":"Enumeration/ChannelMap","_embedded":{"channels":[{"callSign":"X","number":70000}]}}`
	_, err := expect[Channel]("GET /channelmap/", []byte(body), kindChannelMap)
	assert.ErrorIs(t, err, fault.ErrProtocol)
}

func TestExpect_BadRecordingDate(t *testing.T) {
	body := `{"_type":"Enumeration/Recording","_embedded":{"recordings":[{"title":"T","dateRecorded":"yesterday","mediaId":"m"}]}}`
	_, err := expect[Recording]("GET /recordings/", []byte(body), kindRecording)
	assert.ErrorIs(t, err, fault.ErrProtocol)
}

func TestChannelMap_Lookup(t *testing.T) {
	m := newChannelMap([]Channel{
		{Name: "abc", Number: 2, CallSign: "abc"},
		{Name: "abc hd", Number: 502, CallSign: "Abc", HD: true},
	})

	chs, ok := m.Lookup("aBc")
	require.True(t, ok)
	require.Len(t, chs, 2)
	assert.Equal(t, uint16(2), chs[0].Number)
	assert.Equal(t, uint16(502), chs[1].Number)

	_, ok = m.Lookup("nbc")
	assert.False(t, ok)
}
