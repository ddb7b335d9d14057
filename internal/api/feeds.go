package api

import (
	"net/http"

	v1 "github.com/jdholdren/newsroom/api/news/v1"
	"github.com/jdholdren/newsroom/internal/news"
	"github.com/jdholdren/newsroom/internal/serverutil"
)

func (s *Server) getFeeds(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		user = userID(r)
	)

	feeds, err := s.repo.Feeds(ctx, user)
	if err != nil {
		return err
	}
	unread, err := s.repo.UnreadCounts(ctx, user)
	if err != nil {
		return err
	}
	starred, err := s.repo.StarredCount(ctx, user)
	if err != nil {
		return err
	}

	resp := v1.FeedsResponse{
		Feeds:        make([]v1.Feed, 0, len(feeds)),
		StarredCount: starred,
	}
	for _, f := range feeds {
		resp.Feeds = append(resp.Feeds, apiFeed(f, unread[f.ID]))
	}
	if resp.NewestItemID, err = s.newestItemID(r); err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

// Creates the feed and pulls its first items before answering.
func (s *Server) postFeed(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		user = userID(r)
	)
	body, err := serverutil.DecodeValid[v1.CreateFeedRequest](r.Body)
	if err != nil {
		return err
	}

	feed, err := s.syncer.CreateFeed(ctx, user, body.URL, folderRef(body.FolderID))
	if err != nil {
		return err
	}
	unread, err := s.repo.UnreadCounts(ctx, user)
	if err != nil {
		return err
	}

	resp := v1.FeedsResponse{
		Feeds: []v1.Feed{apiFeed(feed, unread[feed.ID])},
	}
	if resp.NewestItemID, err = s.newestItemID(r); err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteFeed(w http.ResponseWriter, r *http.Request) error {
	feedID, err := pathID(r, "feedID")
	if err != nil {
		return err
	}

	if err := s.repo.DeleteFeed(r.Context(), userID(r), feedID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) putFeedMove(w http.ResponseWriter, r *http.Request) error {
	feedID, err := pathID(r, "feedID")
	if err != nil {
		return err
	}
	body, err := serverutil.DecodeValid[v1.MoveFeedRequest](r.Body)
	if err != nil {
		return err
	}

	if err := s.repo.MoveFeed(r.Context(), userID(r), feedID, folderRef(body.FolderID)); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) putFeedRename(w http.ResponseWriter, r *http.Request) error {
	feedID, err := pathID(r, "feedID")
	if err != nil {
		return err
	}
	body, err := serverutil.DecodeValid[v1.RenameFeedRequest](r.Body)
	if err != nil {
		return err
	}

	if err := s.repo.RenameFeed(r.Context(), userID(r), feedID, body.FeedTitle); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) putFeedRead(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		user = userID(r)
	)
	feedID, err := pathID(r, "feedID")
	if err != nil {
		return err
	}
	body, err := serverutil.DecodeValid[v1.MarkReadRequest](r.Body)
	if err != nil {
		return err
	}

	if _, err := s.repo.Feed(ctx, user, feedID); err != nil {
		return err
	}

	q := news.ItemQuery{UserID: user, Type: news.ItemTypeFeed, ID: feedID}
	if err := s.repo.MarkRead(ctx, user, q, body.NewestItemID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// newestItemID is nil until the user has any items at all.
func (s *Server) newestItemID(r *http.Request) (*int64, error) {
	id, err := s.repo.NewestItemID(r.Context(), userID(r))
	if err != nil || id == 0 {
		return nil, err
	}

	return &id, nil
}
