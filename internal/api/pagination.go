package api

import (
	"net/http"
	"strconv"

	newserrs "github.com/jdholdren/newsroom/internal/errors"
	"github.com/jdholdren/newsroom/internal/news"
)

const (
	defaultBatchSize = 20
	maxBatchSize     = 1000
)

// parseItemQuery reads an item page from the query string:
// ?batchSize=20&offset=<last id>&type=0&id=<feed or folder>&getRead=true&oldestFirst=false
//
// A batchSize of -1 asks for everything.
func parseItemQuery(r *http.Request) (news.ItemQuery, error) {
	var (
		query   = r.URL.Query()
		details []newserrs.Detail
	)

	intParam := func(name string, def int64) int64 {
		raw := query.Get(name)
		if raw == "" {
			return def
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			details = append(details, newserrs.Detail{Field: name, Error: "must be an integer"})
		}
		return v
	}
	boolParam := func(name string, def bool) bool {
		raw := query.Get(name)
		if raw == "" {
			return def
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			details = append(details, newserrs.Detail{Field: name, Error: "must be a boolean"})
		}
		return v
	}

	q := news.ItemQuery{
		UserID:      userID(r),
		Limit:       int(intParam("batchSize", defaultBatchSize)),
		Offset:      intParam("offset", 0),
		Type:        news.ItemType(intParam("type", int64(news.ItemTypeAll))),
		ID:          intParam("id", 0),
		GetRead:     boolParam("getRead", true),
		OldestFirst: boolParam("oldestFirst", false),
	}

	switch {
	case q.Limit == -1:
		q.Limit = 0 // No limit
	case q.Limit <= 0 || q.Limit > maxBatchSize:
		details = append(details, newserrs.Detail{Field: "batchSize", Error: "must be -1 or between 1 and 1000"})
	}
	if q.Offset < 0 {
		details = append(details, newserrs.Detail{Field: "offset", Error: "must not be negative"})
	}
	if q.Type < news.ItemTypeFeed || q.Type > news.ItemTypeAll {
		details = append(details, newserrs.Detail{Field: "type", Error: "must be 0 (feed), 1 (folder), 2 (starred) or 3 (all)"})
	}
	if (q.Type == news.ItemTypeFeed || q.Type == news.ItemTypeFolder) && q.ID <= 0 {
		details = append(details, newserrs.Detail{Field: "id", Error: "is required for feed and folder pages"})
	}

	if len(details) > 0 {
		return news.ItemQuery{}, newserrs.E(http.StatusBadRequest, "invalid item query", details)
	}

	return q, nil
}
