package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/xtvctl/xtv/xtv"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
}

// WriteChannelTable lists one row per call sign with all its numbers.
func WriteChannelTable(w io.Writer, channels xtv.ChannelMap) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "CALL_SIGN\tNAME\tNUMBERS\tHD")
	for _, callSign := range channels.CallSigns() {
		chs := channels[callSign]
		if len(chs) == 0 {
			continue
		}
		numbers := make([]string, 0, len(chs))
		hd := "-"
		for _, ch := range chs {
			numbers = append(numbers, strconv.Itoa(int(ch.Number)))
			if ch.HD {
				hd = "yes"
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", callSign, chs[0].Name, strings.Join(numbers, ","), hd)
	}
	_ = tw.Flush()
}

func WriteDeviceTable(w io.Writer, devices xtv.DeviceMap) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "NAME\tID")
	for _, d := range devices.Sorted() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.ID)
	}
	_ = tw.Flush()
}

func WriteRecordingTable(w io.Writer, recordings []xtv.Recording) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "TITLE\tRECORDED\tMEDIA_ID")
	for _, r := range recordings {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Title, formatTime(r.DateRecorded.Time), r.MediaID)
	}
	_ = tw.Flush()
}

func WriteSearchTable(w io.Writer, results []xtv.SearchResult) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "NAME\tSUBTITLE\tMERLIN_ID")
	for _, r := range results {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Name, r.Subtitle, r.Entity().MerlinID)
	}
	_ = tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
