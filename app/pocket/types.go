package pocket

import (
	"strconv"
	"time"
)

// itemData is one saved article as Pocket reports it. Numeric fields arrive
// as strings.
type itemData struct {
	ItemID        string                `json:"item_id"`
	ResolvedID    string                `json:"resolved_id"`
	GivenURL      string                `json:"given_url"`
	ResolvedURL   string                `json:"resolved_url"`
	GivenTitle    string                `json:"given_title"`
	ResolvedTitle string                `json:"resolved_title"`
	Excerpt       string                `json:"excerpt"`
	WordCount     string                `json:"word_count"`
	TimeAdded     string                `json:"time_added"`
	Status        string                `json:"status"`
	Tags          map[string]tagData    `json:"tags"`
	Authors       map[string]authorData `json:"authors"`
}

type tagData struct {
	Tag string `json:"tag"`
}

type authorData struct {
	Name string `json:"name"`
}

// Item is a cleaned-up article record handed to the ingestion stage.
// Upstream tags are deliberately absent: the pipeline only reads them back
// through GetItemTags when verifying its own tag writes, and storing them at
// ingest would make every pre-tagged article publication-eligible before it
// has a summary.
type Item struct {
	ItemID    string
	Title     string
	URL       string
	Excerpt   string
	Author    string
	WordCount int
	DateAdded *time.Time
}

func (d itemData) toItem() Item {
	item := Item{
		ItemID:  d.ItemID,
		Title:   d.ResolvedTitle,
		URL:     d.ResolvedURL,
		Excerpt: d.Excerpt,
	}

	if item.Title == "" {
		item.Title = d.GivenTitle
	}
	if item.URL == "" {
		item.URL = d.GivenURL
	}

	if n, err := strconv.Atoi(d.WordCount); err == nil {
		item.WordCount = n
	}

	if unix, err := strconv.ParseInt(d.TimeAdded, 10, 64); err == nil && unix > 0 {
		added := time.Unix(unix, 0).UTC()
		item.DateAdded = &added
	}

	for _, author := range d.Authors {
		if author.Name != "" {
			item.Author = author.Name
			break
		}
	}

	return item
}
