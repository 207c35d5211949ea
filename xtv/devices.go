package xtv

import (
	"context"
	"sort"
)

// Device is a set-top box that can be remote controlled.
type Device struct {
	ID   string `json:"deviceId" yaml:"id"`
	Name string `json:"deviceName" yaml:"name"`
}

// DeviceMap keys devices by display name exactly as the API returns it.
type DeviceMap map[string]Device

func newDeviceMap(devices []Device) DeviceMap {
	m := make(DeviceMap, len(devices))
	for _, d := range devices {
		m[d.Name] = d
	}
	return m
}

// Sorted returns the devices ordered by name.
func (m DeviceMap) Sorted() []Device {
	out := make([]Device, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Client) fetchDevices(ctx context.Context) (DeviceMap, error) {
	const endpoint = "/devices/"
	data, err := c.fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	devices, err := expect[Device]("GET "+endpoint, data, kindDevice)
	if err != nil {
		return nil, err
	}
	return newDeviceMap(devices), nil
}
