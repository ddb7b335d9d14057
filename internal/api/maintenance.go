package api

import (
	"context"
	"errors"
	"net/http"

	v1 "github.com/jdholdren/newsroom/api/news/v1"
	"github.com/jdholdren/newsroom/internal/serverutil"
)

// Runs a retention sweep over every feed. A sweep already underway is a 409.
//
// The sweep is cut off before the server's write timeout, in which case the report is
// marked partial.
func (s *Server) postRetention(w http.ResponseWriter, r *http.Request) error {
	body, err := serverutil.DecodeValid[v1.RetentionRequest](r.Body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.sweepTimeout)
	defer cancel()

	report, err := s.retention.Sweep(ctx, body.Threshold)
	stopped := errors.Is(err, context.DeadlineExceeded) && r.Context().Err() == nil
	if err != nil && !stopped {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, v1.RetentionResponse{
		RunID:   report.RunID,
		Deleted: report.Deleted,
		Feeds:   report.Feeds,
		Partial: stopped,
	})
}
