// Package opml reads and writes subscription lists in OPML.
package opml

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jdholdren/newsroom/internal/news"
)

type (
	document struct {
		XMLName xml.Name `xml:"opml"`
		Version string   `xml:"version,attr"`
		Head    head     `xml:"head"`
		Body    body     `xml:"body"`
	}

	head struct {
		Title       string `xml:"title,omitempty"`
		DateCreated string `xml:"dateCreated,omitempty"`
	}

	body struct {
		Outlines []outline `xml:"outline"`
	}

	outline struct {
		Text     string    `xml:"text,attr"`
		Title    string    `xml:"title,attr,omitempty"`
		Type     string    `xml:"type,attr,omitempty"`
		XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
		HTMLURL  string    `xml:"htmlUrl,attr,omitempty"`
		Outlines []outline `xml:"outline,omitempty"`
	}

	// Entry is one subscription from an OPML file.
	Entry struct {
		Folder string // Empty for an unfiled feed
		Title  string
		URL    string
		Link   string
	}
)

// Parse reads an OPML document into a flat list of subscriptions.
//
// Folders only go one level deep, so a feed nested further down is filed under its
// top-level folder.
func Parse(r io.Reader) ([]Entry, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("error decoding opml: %w", err)
	}

	var (
		entries []Entry
		walk    func(outlines []outline, folder string)
	)
	walk = func(outlines []outline, folder string) {
		for _, o := range outlines {
			if o.XMLURL != "" {
				entries = append(entries, Entry{
					Folder: folder,
					Title:  firstNonEmpty(o.Title, o.Text),
					URL:    strings.TrimSpace(o.XMLURL),
					Link:   o.HTMLURL,
				})
				continue
			}

			name := folder
			if name == "" {
				name = strings.TrimSpace(firstNonEmpty(o.Text, o.Title))
			}
			walk(o.Outlines, name)
		}
	}
	walk(doc.Body.Outlines, "")

	return entries, nil
}

// Export renders a user's folders and feeds as OPML 2.0. Unfiled feeds sit at the top level.
func Export(folders []news.Folder, feeds []news.Feed) ([]byte, error) {
	doc := document{
		Version: "2.0",
		Head: head{
			Title:       "newsroom subscriptions",
			DateCreated: time.Now().UTC().Format(time.RFC1123Z),
		},
	}

	byFolder := make(map[int64][]outline)
	for _, feed := range feeds {
		o := outline{
			Text:    firstNonEmpty(feed.Title, feed.URL),
			Title:   feed.Title,
			Type:    "rss",
			XMLURL:  feed.URL,
			HTMLURL: feed.Link,
		}
		if feed.FolderID == nil {
			doc.Body.Outlines = append(doc.Body.Outlines, o)
			continue
		}
		byFolder[*feed.FolderID] = append(byFolder[*feed.FolderID], o)
	}

	sorted := append([]news.Folder(nil), folders...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, folder := range sorted {
		doc.Body.Outlines = append(doc.Body.Outlines, outline{
			Text:     folder.Name,
			Title:    folder.Name,
			Outlines: byFolder[folder.ID],
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding opml: %w", err)
	}

	return append([]byte(xml.Header), out...), nil
}

// Store is the slice of the repository an import writes to.
type Store interface {
	FolderByName(ctx context.Context, userID, name string) (news.Folder, error)
	InsertFolder(ctx context.Context, folder news.Folder) (news.Folder, error)
	InsertFeed(ctx context.Context, feed news.Feed) (news.Feed, error)
}

type ImportResult struct {
	Folders int // Folders created
	Feeds   int // Feeds created
	Skipped int // Feeds the user already had
}

// Import files the entries under userID, creating folders as needed. Feeds are not synced;
// they get their items on the next refresh.
func Import(ctx context.Context, store Store, userID string, entries []Entry) (ImportResult, error) {
	var (
		res     ImportResult
		folders = make(map[string]int64)
	)

	for _, entry := range entries {
		var folderID *int64
		if entry.Folder != "" {
			id, ok := folders[entry.Folder]
			if !ok {
				folder, created, err := folderNamed(ctx, store, userID, entry.Folder)
				if err != nil {
					return res, err
				}
				if created {
					res.Folders++
				}
				id = folder.ID
				folders[entry.Folder] = id
			}
			folderID = &id
		}

		_, err := store.InsertFeed(ctx, news.Feed{
			UserID:   userID,
			URL:      entry.URL,
			Title:    entry.Title,
			Link:     entry.Link,
			FolderID: folderID,
		})
		if errors.Is(err, news.ErrConflict) {
			slog.DebugContext(ctx, "feed already subscribed", "url", entry.URL)
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("error importing feed %s: %w", entry.URL, err)
		}
		res.Feeds++
	}

	return res, nil
}

func folderNamed(ctx context.Context, store Store, userID, name string) (news.Folder, bool, error) {
	folder, err := store.FolderByName(ctx, userID, name)
	if err == nil {
		return folder, false, nil
	}
	if !errors.Is(err, news.ErrNotFound) {
		return news.Folder{}, false, err
	}

	folder, err = store.InsertFolder(ctx, news.Folder{UserID: userID, Name: name})
	if err != nil {
		return news.Folder{}, false, fmt.Errorf("error creating folder %q: %w", name, err)
	}

	return folder, true, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
