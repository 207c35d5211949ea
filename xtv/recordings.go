package xtv

import (
	"context"
	"strings"
	"time"
)

// recordedLayout is the API's recording timestamp, always in UTC.
const recordedLayout = "Mon, _2 Jan 2006 15:04:05 UTC"

// RecordedAt is a recording timestamp in the API's text form.
type RecordedAt struct {
	time.Time
}

func (r *RecordedAt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	t, err := time.Parse(recordedLayout, s)
	if err != nil {
		return err
	}
	r.Time = t
	return nil
}

func (r RecordedAt) MarshalYAML() (any, error) {
	return r.Time, nil
}

// Recording is a completed DVR recording.
type Recording struct {
	Title        string     `json:"title" yaml:"title"`
	DateRecorded RecordedAt `json:"dateRecorded" yaml:"date_recorded"`
	MediaID      string     `json:"mediaId" yaml:"media_id"`
}

// Recordings lists the completed recordings on device.
func (c *Client) Recordings(ctx context.Context, device Device) ([]Recording, error) {
	endpoint := "/devices/" + device.ID + "/recordings/completed/"
	data, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return expect[Recording]("GET "+endpoint, data, kindRecording)
}
