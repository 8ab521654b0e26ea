package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/recipeboxapp/recipebox-server/internal/http/response"
	"github.com/recipeboxapp/recipebox-server/internal/media"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

// multipartOverhead is slack on top of the image limit for form boundaries
// and other fields.
const multipartOverhead = 1 << 20

// registerUploadRoutes mounts the raw chi handlers that huma does not model:
// the multipart image upload.
func (s *Server) registerUploadRoutes() {
	s.router.Post(recipePrefix+"/recipes/{id}/upload-image", s.handleUploadRecipeImage)
}

// handleUploadRecipeImage stores the multipart "image" field as the recipe's
// image and returns the updated recipe summary.
func (s *Server) handleUploadRecipeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := requirePrincipal(ctx)
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	recipeID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeAPIError(w, err)
		return
	}

	upload, err := readImageUpload(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large.", s.logger)
			return
		}
		s.logger.Warn("Failed to read upload", "error", err, "recipe_id", recipeID)
		response.Error(w, http.StatusBadRequest, "Multipart form parse error.", s.logger)
		return
	}

	recipe, err := s.services.Recipes.UploadImage(ctx, p, recipeID, upload)
	if err != nil {
		s.writeAPIError(w, s.fail(ctx, err))
		return
	}

	response.Success(w, s.recipeResponse(recipe), s.logger)
}

// readImageUpload extracts the "image" field. A request that is not a
// multipart form, or has no such field, yields an upload with nil Data. A
// plain text value for the field is passed on as data so it fails image
// validation.
func readImageUpload(w http.ResponseWriter, r *http.Request) (service.ImageUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageBytes+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return service.ImageUpload{}, nil
		}
		return service.ImageUpload{}, err
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		if v := r.MultipartForm.Value["image"]; len(v) > 0 {
			return service.ImageUpload{Data: []byte(v[0])}, nil
		}
		return service.ImageUpload{}, nil
	}
	if err != nil {
		return service.ImageUpload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxImageBytes+1))
	if err != nil {
		return service.ImageUpload{}, err
	}
	if data == nil {
		data = []byte{}
	}
	return service.ImageUpload{Filename: header.Filename, Data: data}, nil
}

// handleServeMedia streams a stored blob. Only used when media is served by
// this process rather than an external URL.
func (s *Server) handleServeMedia(w http.ResponseWriter, r *http.Request) {
	name, err := media.CleanName(chi.URLParam(r, "*"))
	if err != nil {
		response.NotFound(w, msgNotFound, s.logger)
		return
	}

	rc, err := s.media.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			response.NotFound(w, msgNotFound, s.logger)
			return
		}
		s.logger.Error("Failed to open media", "error", err, "name", name)
		response.InternalError(w, s.logger)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("Failed to stream media", "error", err, "name", name)
	}
}

// writeAPIError writes an error produced for huma from a raw handler.
func (s *Server) writeAPIError(w http.ResponseWriter, err error) {
	apiErr := toAPIError(err)
	response.JSON(w, apiErr.status, apiErr, s.logger)
}
