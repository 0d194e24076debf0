package news

import (
	"context"
	"time"
)

type Article struct {
	Headline    string
	Detail      string
	URL         string
	Publisher   string
	PublishedAt time.Time
}

type NewsClient interface {
	Search(ctx context.Context, query string, limit int) ([]Article, error)
	Name() string
}
