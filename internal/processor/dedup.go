package processor

import (
	"context"
	"log/slog"

	"github.com/kiasilver/rozegar-sub005/internal/feed"
	"github.com/kiasilver/rozegar-sub005/internal/util"
)

// ShouldProcess decides whether a feed item is new. An item is a duplicate
// when its canonical URL appears anywhere in the run-log history, or when
// its normalized title matches a past title from the same source, including
// truncated-title prefix matches.
//
// On a storage error the gate fails closed: the item is reported as not
// processable together with the error. A missed article costs one cycle; a
// double post to the channel cannot be taken back.
func (p *Processor) ShouldProcess(ctx context.Context, item feed.Item, sourceName string) (bool, error) {
	canonical := item.Link
	if normalized, err := util.NormalizeURL(item.Link); err == nil {
		canonical = normalized
	}

	seen, err := p.store.HasRunLogURL(ctx, canonical)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	titles, err := p.store.RunLogTitlesBySource(ctx, sourceName)
	if err != nil {
		return false, err
	}

	candidate := util.NormalizeTitle(item.Title)
	for _, past := range titles {
		if util.TitlesMatch(candidate, util.NormalizeTitle(past)) {
			slog.Debug("Duplicate by title", "title", item.Title, "source", sourceName)
			return false, nil
		}
	}
	return true, nil
}
