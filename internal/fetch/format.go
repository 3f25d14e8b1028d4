package fetch

import (
	"errors"
	"math"
	"sort"
)

// ErrNoFormat is returned when no encoding satisfies the selection rules.
var ErrNoFormat = errors.New("no matching format")

// Format is one encoding offered by the extractor.
type Format struct {
	FormatID string   `json:"format_id"`
	Ext      string   `json:"ext"`
	Height   *int     `json:"height"`
	TBR      *float64 `json:"tbr"`
	VCodec   string   `json:"vcodec"`
	Note     string   `json:"format_note"`
}

// SelectFormat picks the lowest-bitrate format with the wanted extension
// that is at least minHeight tall. Formats without a bitrate sort last.
func SelectFormat(formats []Format, minHeight int, ext string) (Format, error) {
	candidates := make([]Format, 0, len(formats))
	for _, f := range formats {
		if f.Ext != ext || f.VCodec == "none" {
			continue
		}
		if f.Height == nil || *f.Height < minHeight {
			continue
		}
		candidates = append(candidates, f)
	}

	if len(candidates) == 0 {
		return Format{}, ErrNoFormat
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return bitrate(candidates[i]) < bitrate(candidates[j])
	})
	return candidates[0], nil
}

func bitrate(f Format) float64 {
	if f.TBR == nil {
		return math.Inf(1)
	}
	return *f.TBR
}
