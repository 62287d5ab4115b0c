package watch

import (
	"context"

	"github.com/yato-cli/yato/log"
)

// SkipFillers returns the first episode from episode on that is not a filler.
// A classification error ends the scan as if the episode were canon.
func SkipFillers(ctx context.Context, classifier FillerClassifier, malID, episode int) int {
	for ctx.Err() == nil {
		filler, err := classifier.IsFiller(ctx, malID, episode)
		if err != nil {
			log.Warnf("filler check for episode %d failed, assuming canon: %v", episode, err)
			return episode
		}
		if !filler {
			return episode
		}

		log.Infof("skipping episode %d because it is a filler", episode)
		episode++
	}
	return episode
}
