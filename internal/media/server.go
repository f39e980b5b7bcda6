// Package media serves the attachment pipeline: authenticated uploads into
// GridFS and public-URI downloads referenced from message attachments.
package media

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"doubtdesk/internal/common"
	"doubtdesk/internal/config"
	"doubtdesk/internal/dbmongo"
)

const maxUploadSize = 25 << 20 // 25MB

type HTTPServer struct {
	storage *dbmongo.AttachmentStorage
	baseURL string
}

func NewHTTPServer(mongoClient *dbmongo.MongoClient, cfg *config.Config) *HTTPServer {
	return &HTTPServer{
		storage: dbmongo.NewAttachmentStorage(mongoClient),
		baseURL: cfg.Server.MediaBaseURL,
	}
}

func (s *HTTPServer) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(common.LoggingMiddleware)

	router.HandleFunc("/health", s.health).Methods("GET")
	router.HandleFunc("/media/{fileId}", s.serveFile).Methods("GET")

	authed := router.NewRoute().Subrouter()
	authed.Use(common.AuthMiddleware)
	authed.HandleFunc("/media", s.uploadFile).Methods("POST")
	authed.HandleFunc("/media/{fileId}", s.deleteFile).Methods("DELETE")

	return router
}

func (s *HTTPServer) uploadFile(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		common.WriteError(w, http.StatusBadRequest, "file too large or malformed form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = contentTypeFor(header.Filename)
	}

	attachment, err := s.storage.Upload(r.Context(), header.Filename, mimeType, identity.UserID, file)
	if err != nil {
		log.Printf("✗ upload of %q failed: %v", header.Filename, err)
		common.WriteError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	common.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":  attachment.ID,
		"uri": fmt.Sprintf("%s/%s", strings.TrimRight(s.baseURL, "/"), attachment.ID),
	})
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileId := vars["fileId"]

	fileReader, attachment, err := s.storage.Download(r.Context(), fileId)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	contentType := attachment.MimeType
	if contentType == "" {
		contentType = contentTypeFor(attachment.Filename)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", attachment.Size))

	if _, err := io.Copy(w, fileReader); err != nil {
		log.Printf("Error streaming file: %v", err)
	}
}

func (s *HTTPServer) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.Delete(r.Context(), mux.Vars(r)["fileId"]); err != nil {
		common.WriteError(w, http.StatusNotFound, "file not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("✅ Media server is healthy"))
}
