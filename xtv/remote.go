package xtv

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// KeyCode is a remote-control key.
type KeyCode string

const (
	KeyPlay        KeyCode = "PLAY"
	KeyPause       KeyCode = "PAUSE"
	KeyStop        KeyCode = "STOP"
	KeyFastForward KeyCode = "FAST_FORWARD"
	KeyRewind      KeyCode = "REWIND"
	KeyExit        KeyCode = "EXIT"
)

// TuningTarget is what a tune request switches to.
type TuningTarget string

const (
	TuneChannel   TuningTarget = "channel"
	TuneRecording TuningTarget = "recording"
	TuneVOD       TuningTarget = "vod"
)

// ParseTuningTarget accepts a target in any case.
func ParseTuningTarget(s string) (TuningTarget, error) {
	switch t := TuningTarget(strings.ToLower(s)); t {
	case TuneChannel, TuneRecording, TuneVOD:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tuning target %q (want channel, recording or vod)", s)
	}
}

// Tune switches device to id. For channels, id is either a channel number
// or a call sign resolved through the channel directory to the number of
// its first entry.
func (c *Client) Tune(ctx context.Context, target TuningTarget, id string, device Device) error {
	form := url.Values{}
	switch target {
	case TuneChannel:
		number, err := c.channelNumber(ctx, id)
		if err != nil {
			return err
		}
		form.Set("channelNumber", number)
	case TuneRecording, TuneVOD:
		form.Set("mediaId", id)
	default:
		return fmt.Errorf("unknown tuning target %q", target)
	}

	_, err := c.post(ctx, "/devices/"+device.ID+"/remote/tune/"+string(target)+"/", form)
	return err
}

func (c *Client) channelNumber(ctx context.Context, id string) (string, error) {
	if n, err := strconv.ParseUint(id, 10, 16); err == nil {
		return strconv.FormatUint(n, 10), nil
	}
	ch, err := c.LookupChannel(ctx, id)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(ch.Number), 10), nil
}

// PressKey sends one remote-control key press to device.
func (c *Client) PressKey(ctx context.Context, key KeyCode, device Device) error {
	_, err := c.post(ctx, "/devices/"+device.ID+"/remote/processKey/", url.Values{"keyCode": {string(key)}})
	return err
}
