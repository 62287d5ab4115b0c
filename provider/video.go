package provider

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// QualityBest picks the highest numeric quality.
const QualityBest = "best"

// Video is one candidate stream returned by a provider.
type Video struct {
	URL     string
	Quality string
}

var qualityDigits = regexp.MustCompile(`\d+`)

func qualityRank(quality string) int {
	match := qualityDigits.FindString(quality)
	if match == "" {
		return -1
	}
	rank, err := strconv.Atoi(match)
	if err != nil {
		return -1
	}
	return rank
}

// PickQuality chooses the video matching quality. "best" selects the highest
// numeric quality; any other value must match exactly, ignoring case. When
// nothing matches the first video is returned. ok is false only for an empty list.
func PickQuality(videos []Video, quality string) (video Video, ok bool) {
	if len(videos) == 0 {
		return Video{}, false
	}

	if strings.EqualFold(quality, QualityBest) {
		return lo.MaxBy(videos, func(a, b Video) bool {
			return qualityRank(a.Quality) > qualityRank(b.Quality)
		}), true
	}

	if match, found := lo.Find(videos, func(v Video) bool {
		return strings.EqualFold(v.Quality, quality)
	}); found {
		return match, true
	}

	return videos[0], true
}
