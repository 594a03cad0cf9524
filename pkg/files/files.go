// Package files implements the gated blob upload and download routes.
package files

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rhuss/blobgate/pkg/api"
	"github.com/rhuss/blobgate/pkg/auth"
	"github.com/rhuss/blobgate/pkg/gate"
	"github.com/rhuss/blobgate/pkg/schema"
	"github.com/rhuss/blobgate/pkg/storage"
)

// Path is the route both handlers are registered under.
const Path = "/api/files"

// UploadSchema is the body schema of POST /api/files.
var UploadSchema = schema.MustParse(`{
	"type": "object",
	"required": ["bucketName", "directory", "name", "contentType", "content"],
	"properties": {
		"bucketName":  {"type": "string", "minLength": 1},
		"directory":   {"type": "string", "minLength": 1},
		"name":        {"type": "string", "minLength": 1},
		"contentType": {"type": "string", "minLength": 1},
		"content":     {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`)

// Config holds the access policy of the file routes.
type Config struct {
	ReadScopes  []string
	WriteScopes []string

	// AllowAPIKey permits api-key credentials on both routes.
	AllowAPIKey bool
}

// Handler serves file uploads and downloads from a FileStore.
type Handler struct {
	store  storage.FileStore
	logger *slog.Logger
}

// New creates a Handler. A nil logger uses slog.Default().
func New(store storage.FileStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Register wraps the handlers with the pipeline and mounts them on mux.
func Register(mux *http.ServeMux, p *gate.Pipeline, h *Handler, cfg Config) error {
	post, err := p.Wrap(h.Post, gate.Policy{
		Auth:   auth.Policy{RequiredScopes: cfg.WriteScopes, AllowAPIKeyAccess: cfg.AllowAPIKey},
		Schema: UploadSchema,
	})
	if err != nil {
		return fmt.Errorf("registering POST %s: %w", Path, err)
	}

	get, err := p.Wrap(h.Get, gate.Policy{
		Auth: auth.Policy{RequiredScopes: cfg.ReadScopes, AllowAPIKeyAccess: cfg.AllowAPIKey},
	})
	if err != nil {
		return fmt.Errorf("registering GET %s: %w", Path, err)
	}

	mux.Handle("POST "+Path, post)
	mux.Handle("GET "+Path, get)
	return nil
}

// Post stores the uploaded file and echoes it back with status 201.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) error {
	var f api.File
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		return api.NewInvalidRequestError("request body is not valid JSON")
	}

	data, err := base64.StdEncoding.DecodeString(f.Content)
	if err != nil {
		return api.NewInvalidRequestError("content is not valid base64")
	}

	obj := storage.Object{
		Bucket:      f.BucketName,
		Key:         f.Key(),
		ContentType: f.ContentType,
		Data:        data,
	}
	if err := h.store.PutObject(r.Context(), obj); err != nil {
		if errors.Is(err, storage.ErrInvalidObject) {
			return api.NewInvalidRequestError(err.Error())
		}
		return api.NewServerError("Unable to store file", err)
	}

	h.logger.LogAttrs(r.Context(), slog.LevelDebug, "file stored",
		slog.String("bucket", obj.Bucket),
		slog.String("key", obj.Key),
		slog.Int("size", len(data)),
	)

	return writeJSON(w, http.StatusCreated, api.DataResponse[api.File]{Data: f})
}

// Get returns a stored file with base64 content. The contentType query
// parameter may use '|' in place of '/' and defaults to the stored type.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()

	f := api.File{
		BucketName: q.Get("bucketName"),
		Directory:  q.Get("directory"),
		Name:       q.Get("name"),
	}
	for _, p := range []struct{ name, value string }{
		{"bucketName", f.BucketName},
		{"directory", f.Directory},
		{"name", f.Name},
	} {
		if p.value == "" {
			return api.NewInvalidRequestError(fmt.Sprintf("%s query parameter is required", p.name))
		}
	}

	obj, err := h.store.GetObject(r.Context(), f.BucketName, f.Key())
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError("file not found")
	}
	if err != nil {
		return api.NewServerError("Unable to read file", err)
	}

	f.ContentType = strings.Replace(q.Get("contentType"), "|", "/", 1)
	if f.ContentType == "" {
		f.ContentType = obj.ContentType
	}
	f.Content = base64.StdEncoding.EncodeToString(obj.Data)

	if obj.ETag != "" {
		w.Header().Set("ETag", `"`+obj.ETag+`"`)
	}
	return writeJSON(w, http.StatusOK, api.DataResponse[api.File]{Data: f})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return api.NewServerError("Unable to encode response", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}
