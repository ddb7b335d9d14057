package api

import (
	"net/http"

	v1 "github.com/jdholdren/newsroom/api/news/v1"
	"github.com/jdholdren/newsroom/internal/news"
	"github.com/jdholdren/newsroom/internal/serverutil"
)

func (s *Server) getFolders(w http.ResponseWriter, r *http.Request) error {
	folders, err := s.repo.Folders(r.Context(), userID(r))
	if err != nil {
		return err
	}

	resp := v1.FoldersResponse{Folders: make([]v1.Folder, 0, len(folders))}
	for _, f := range folders {
		resp.Folders = append(resp.Folders, apiFolder(f))
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) postFolder(w http.ResponseWriter, r *http.Request) error {
	body, err := serverutil.DecodeValid[v1.FolderRequest](r.Body)
	if err != nil {
		return err
	}

	folder, err := s.repo.InsertFolder(r.Context(), news.Folder{
		UserID: userID(r),
		Name:   body.Name,
	})
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, v1.FoldersResponse{
		Folders: []v1.Folder{apiFolder(folder)},
	})
}

func (s *Server) putFolder(w http.ResponseWriter, r *http.Request) error {
	folderID, err := pathID(r, "folderID")
	if err != nil {
		return err
	}
	body, err := serverutil.DecodeValid[v1.FolderRequest](r.Body)
	if err != nil {
		return err
	}

	if err := s.repo.RenameFolder(r.Context(), userID(r), folderID, body.Name); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request) error {
	folderID, err := pathID(r, "folderID")
	if err != nil {
		return err
	}

	if err := s.repo.DeleteFolder(r.Context(), userID(r), folderID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) putFolderRead(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		user = userID(r)
	)
	folderID, err := pathID(r, "folderID")
	if err != nil {
		return err
	}
	body, err := serverutil.DecodeValid[v1.MarkReadRequest](r.Body)
	if err != nil {
		return err
	}

	// Marking a folder the user can't see would silently do nothing, so say so
	if _, err := s.repo.Folder(ctx, user, folderID); err != nil {
		return err
	}

	q := news.ItemQuery{UserID: user, Type: news.ItemTypeFolder, ID: folderID}
	if err := s.repo.MarkRead(ctx, user, q, body.NewestItemID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
