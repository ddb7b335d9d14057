package api

import (
	"fmt"
	"net/http"
	"net/url"

	readability "github.com/go-shiori/go-readability"
	"github.com/gorilla/mux"
	"github.com/sym01/htmlsanitizer"

	v1 "github.com/jdholdren/newsroom/api/news/v1"
	newserrs "github.com/jdholdren/newsroom/internal/errors"
	"github.com/jdholdren/newsroom/internal/news"
	"github.com/jdholdren/newsroom/internal/serverutil"
)

func (s *Server) getItems(w http.ResponseWriter, r *http.Request) error {
	q, err := parseItemQuery(r)
	if err != nil {
		return err
	}

	items, err := s.repo.Items(r.Context(), q)
	if err != nil {
		return err
	}

	resp := v1.ItemsResponse{Items: make([]v1.Item, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, apiItem(item))
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

// The flags each item action sets and clears.
var itemActions = map[string]struct{ set, clear news.StatusFlag }{
	"read":   {clear: news.StatusUnread},
	"unread": {set: news.StatusUnread},
	"star":   {set: news.StatusStarred},
	"unstar": {clear: news.StatusStarred},
}

func (s *Server) putItemAction(w http.ResponseWriter, r *http.Request) error {
	itemID, err := pathID(r, "itemID")
	if err != nil {
		return err
	}
	action, ok := itemActions[mux.Vars(r)["action"]]
	if !ok {
		return newserrs.E(http.StatusNotFound, fmt.Sprintf("unknown item action %q", mux.Vars(r)["action"]))
	}

	if err := s.repo.SetItemStatus(r.Context(), userID(r), itemID, action.set, action.clear); err != nil {
		return err
	}
	s.readerCache.Remove(itemID)

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) putItemsRead(w http.ResponseWriter, r *http.Request) error {
	user := userID(r)
	body, err := serverutil.DecodeValid[v1.MarkReadRequest](r.Body)
	if err != nil {
		return err
	}

	q := news.ItemQuery{UserID: user, Type: news.ItemTypeAll}
	if err := s.repo.MarkRead(r.Context(), user, q, body.NewestItemID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

type readerResp struct {
	Item          v1.Item `json:"item"`
	ReaderContent string  `json:"readerContent"`
}

// Fetches the item's page and strips it down to the article.
func (s *Server) getItemReader(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	itemID, err := pathID(r, "itemID")
	if err != nil {
		return err
	}

	// Ownership is checked every time, the cache only saves the fetch
	item, err := s.repo.Item(ctx, userID(r), itemID)
	if err != nil {
		return err
	}
	if resp, ok := s.readerCache.Get(item.ID); ok {
		resp.Item = apiItem(item)
		return serverutil.WriteJSON(w, http.StatusOK, resp)
	}

	u, err := url.Parse(item.URL)
	if err != nil || u.Host == "" {
		return newserrs.E(http.StatusUnprocessableEntity, "item has no page to read")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	resp, err := s.fetchClient.Do(req)
	if err != nil {
		return newserrs.E(http.StatusBadGateway, fmt.Errorf("error fetching item page: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return newserrs.E(http.StatusBadGateway, fmt.Sprintf("item page returned status %d", resp.StatusCode))
	}

	// Strip it for readability and sanitize
	parser := readability.NewParser()
	article, err := parser.Parse(resp.Body, u)
	if err != nil {
		return newserrs.E(http.StatusUnprocessableEntity, fmt.Errorf("error extracting article: %w", err))
	}
	contents, err := htmlsanitizer.NewHTMLSanitizer().SanitizeString(article.Content)
	if err != nil {
		return fmt.Errorf("error sanitizing article: %w", err)
	}

	ret := readerResp{
		Item:          apiItem(item),
		ReaderContent: contents,
	}
	s.readerCache.Add(item.ID, ret)

	return serverutil.WriteJSON(w, http.StatusOK, ret)
}
