package api

import (
	"fmt"
	"io"
	"net/http"

	newserrs "github.com/jdholdren/newsroom/internal/errors"
	"github.com/jdholdren/newsroom/internal/opml"
	"github.com/jdholdren/newsroom/internal/serverutil"
)

const maxOPMLSize = 5 << 20

func (s *Server) getOPML(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		user = userID(r)
	)

	folders, err := s.repo.Folders(ctx, user)
	if err != nil {
		return err
	}
	feeds, err := s.repo.Feeds(ctx, user)
	if err != nil {
		return err
	}

	out, err := opml.Export(folders, feeds)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/x-opml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="subscriptions.opml"`)
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("error writing opml: %w", err)
	}

	return nil
}

type opmlImportResp struct {
	Folders int `json:"folders"`
	Feeds   int `json:"feeds"`
	Skipped int `json:"skipped"`
}

// Imports an OPML body. The feeds get their items on the next refresh.
func (s *Server) postOPML(w http.ResponseWriter, r *http.Request) error {
	entries, err := opml.Parse(io.LimitReader(r.Body, maxOPMLSize))
	if err != nil {
		return newserrs.E(http.StatusBadRequest, err)
	}

	res, err := opml.Import(r.Context(), s.repo, userID(r), entries)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, opmlImportResp{
		Folders: res.Folders,
		Feeds:   res.Feeds,
		Skipped: res.Skipped,
	})
}
