package news

import (
	"context"
	"strings"
)

// NoNewsSentinel replaces an empty digest so prompts always carry context.
const NoNewsSentinel = "no recent news found"

// NewsAPI keeps deleted articles in results with this placeholder title.
const removedPlaceholder = "[Removed]"

type Fetcher struct {
	client             NewsClient
	pageSize           int
	maxItems           int
	includeDescription bool
}

func NewFetcher(client NewsClient, pageSize, maxItems int, includeDescription bool) *Fetcher {
	return &Fetcher{
		client:             client,
		pageSize:           pageSize,
		maxItems:           maxItems,
		includeDescription: includeDescription,
	}
}

func (f *Fetcher) Source() string {
	return f.client.Name()
}

// Fetch performs exactly one search and condenses the results into a digest.
func (f *Fetcher) Fetch(ctx context.Context, topic string) (string, error) {
	articles, err := f.client.Search(ctx, topic, f.pageSize)
	if err != nil {
		return "", err
	}
	return Digest(articles, f.maxItems, f.includeDescription), nil
}

func Digest(articles []Article, maxItems int, includeDescription bool) string {
	if maxItems < 0 {
		maxItems = 0
	}
	lines := make([]string, 0, maxItems)
	for _, a := range articles {
		if len(lines) == maxItems {
			break
		}
		title := strings.TrimSpace(a.Headline)
		if title == "" || title == removedPlaceholder {
			continue
		}
		detail := strings.TrimSpace(a.Detail)
		if includeDescription && detail != "" && detail != removedPlaceholder {
			title = title + ": " + detail
		}
		lines = append(lines, title)
	}

	if len(lines) == 0 {
		return NoNewsSentinel
	}
	return strings.Join(lines, "\n")
}
