package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/civicworks/civicconnect/internal/service"
	"github.com/civicworks/civicconnect/internal/storage"
	"github.com/civicworks/civicconnect/internal/transport/http/middleware"
	"github.com/civicworks/civicconnect/pkg/validator"
)

const maxCreateFormSize = 64 << 20

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(maxCreateFormSize); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Expected multipart form data")
		return
	}

	input := service.CreatePostInput{
		Title:          r.FormValue("title"),
		Description:    r.FormValue("description"),
		Category:       r.FormValue("category"),
		Location:       r.FormValue("location"),
		Tags:           r.FormValue("tags"),
		LocalAuthority: r.FormValue("localAuthority"),
		Priority:       r.FormValue("priority"),
		IsPublic:       r.FormValue("isPublic"),
	}

	if errs := validator.ValidatePost(input.Title, input.Description, input.Category, input.Location, input.Priority); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	images, ok := h.readImages(w, r)
	if !ok {
		return
	}
	input.Images = images

	post, err := h.postService.Create(r.Context(), user, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooManyImages):
			writeError(w, http.StatusBadRequest, "TOO_MANY_IMAGES", "A post may carry at most 5 images")
		case errors.Is(err, storage.ErrNotImage):
			writeError(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only image files are allowed")
		case errors.Is(err, storage.ErrTooLarge):
			writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Each image must be 10MB or smaller")
		default:
			log.Printf("ERROR create post: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) readImages(w http.ResponseWriter, r *http.Request) ([]service.ImageUpload, bool) {
	if r.MultipartForm == nil {
		return nil, true
	}
	files := r.MultipartForm.File["images"]
	if len(files) > service.MaxImagesPerPost {
		writeError(w, http.StatusBadRequest, "TOO_MANY_IMAGES", "A post may carry at most 5 images")
		return nil, false
	}

	var images []service.ImageUpload
	for _, fh := range files {
		if fh.Size > storage.MaxBlobSize {
			writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Each image must be 10MB or smaller")
			return nil, false
		}
		f, err := fh.Open()
		if err != nil {
			log.Printf("ERROR opening uploaded file: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
			return nil, false
		}
		data, err := io.ReadAll(io.LimitReader(f, storage.MaxBlobSize+1))
		f.Close()
		if err != nil {
			log.Printf("ERROR reading uploaded file: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
			return nil, false
		}
		if len(data) > storage.MaxBlobSize {
			writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Each image must be 10MB or smaller")
			return nil, false
		}
		images = append(images, service.ImageUpload{
			Data:        data,
			ContentType: http.DetectContentType(data),
		})
	}
	return images, true
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetUser(r.Context())

	input := service.ListPostsInput{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 10),
	}

	if author := r.URL.Query().Get("author"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid author ID")
			return
		}
		input.Author = &authorID
	}

	page, err := h.postService.List(r.Context(), requester, input)
	if err != nil {
		log.Printf("ERROR list posts: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetUser(r.Context())
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), requester, postID)
	if err != nil {
		h.writePostError(w, "get post", err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateComment(input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	comment, err := h.postService.AddComment(r.Context(), postID, user, input.Content)
	if err != nil {
		h.writePostError(w, "add comment", err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	liked, err := h.postService.ToggleLike(r.Context(), postID, user.ID)
	if err != nil {
		h.writePostError(w, "toggle like", err)
		return
	}

	message := "Post unliked"
	if liked {
		message = "Post liked"
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "message": message})
}

func (h *PostHandler) ToggleUpvote(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	upvoted, err := h.postService.ToggleUpvote(r.Context(), postID, user.ID)
	if err != nil {
		h.writePostError(w, "toggle upvote", err)
		return
	}

	message := "Upvote removed"
	if upvoted {
		message = "Post upvoted"
	}
	writeJSON(w, http.StatusOK, map[string]any{"upvoted": upvoted, "message": message})
}

func (h *PostHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateStatus(input.Status); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	post, err := h.postService.UpdateStatus(r.Context(), user, postID, input.Status)
	if err != nil {
		h.writePostError(w, "update status", err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), user, postID); err != nil {
		h.writePostError(w, "delete post", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

func (h *PostHandler) writePostError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Post not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Invalid status value")
	case errors.Is(err, service.ErrEmptyComment):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Comment content is required")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid post ID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
