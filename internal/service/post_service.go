package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/civicconnect/internal/domain"
	"github.com/civicworks/civicconnect/internal/repository"
	"github.com/civicworks/civicconnect/internal/storage"
)

const MaxImagesPerPost = 5

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrForbidden     = errors.New("access denied")
	ErrInvalidStatus = errors.New("invalid status value")
	ErrTooManyImages = errors.New("a post may carry at most 5 images")
	ErrEmptyComment  = errors.New("comment content is required")
)

type PostService struct {
	postRepo repository.PostRepository
	blobs    storage.BlobStore
}

func NewPostService(postRepo repository.PostRepository, blobs storage.BlobStore) *PostService {
	return &PostService{
		postRepo: postRepo,
		blobs:    blobs,
	}
}

// ImageUpload is a decoded multipart file ready for the blob store.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

type CreatePostInput struct {
	Title          string
	Description    string
	Category       string
	Location       string
	Tags           string
	LocalAuthority string
	Priority       string
	IsPublic       string
	Images         []ImageUpload
}

type ListPostsInput struct {
	Status   string
	Category string
	Author   *uuid.UUID
	Page     int
	Limit    int
}

type PostPage struct {
	Posts       []domain.Post `json:"posts"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalPosts  int           `json:"totalPosts"`
}

func (s *PostService) Create(ctx context.Context, author *domain.User, input CreatePostInput) (*domain.Post, error) {
	if len(input.Images) > MaxImagesPerPost {
		return nil, ErrTooManyImages
	}

	priority := strings.TrimSpace(input.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}

	var uploaded []domain.ImageRef
	for _, img := range input.Images {
		url, id, err := s.blobs.Upload(ctx, img.Data, img.ContentType)
		if err != nil {
			// No rollback of earlier uploads; log the ids for reconciliation.
			for _, ref := range uploaded {
				log.Printf("WARN orphaned blob after failed upload: %s", ref.BlobID)
			}
			return nil, fmt.Errorf("uploading image: %w", err)
		}
		uploaded = append(uploaded, domain.ImageRef{URL: url, BlobID: id})
	}
	if uploaded == nil {
		uploaded = []domain.ImageRef{}
	}

	now := time.Now()
	post := &domain.Post{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Category:        strings.TrimSpace(input.Category),
		Location:        strings.TrimSpace(input.Location),
		AuthorID:        author.ID,
		Images:          uploaded,
		Status:          domain.StatusPending,
		Priority:        priority,
		Tags:            parseTags(input.Tags),
		LocalAuthority:  strings.TrimSpace(input.LocalAuthority),
		IsPublic:        input.IsPublic != "false",
		Likes:           []uuid.UUID{},
		Upvotes:         []uuid.UUID{},
		Comments:        []domain.Comment{},
		CreatedAt:       now,
		UpdatedAt:       now,
		AuthorFirstName: author.FirstName,
		AuthorLastName:  author.LastName,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	return post, nil
}

// List applies the caller's filter, hiding private posts unless the requester
// filters by their own author id.
func (s *PostService) List(ctx context.Context, requester *domain.User, input ListPostsInput) (*PostPage, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = 10
	}

	filter := repository.PostFilter{Author: input.Author}
	if input.Status != "" {
		filter.Status = &input.Status
	}
	if input.Category != "" {
		filter.Category = &input.Category
	}
	filter.PublicOnly = requester == nil || input.Author == nil || *input.Author != requester.ID

	posts, total, err := s.postRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	if posts == nil {
		posts = []domain.Post{}
	}

	return &PostPage{
		Posts:       posts,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalPosts:  total,
	}, nil
}

func (s *PostService) Get(ctx context.Context, requester *domain.User, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if !post.IsPublic && (requester == nil || requester.ID != post.AuthorID) {
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, requester *domain.User, id uuid.UUID) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if post.AuthorID != requester.ID && !requester.IsAdmin() {
		return ErrForbidden
	}

	for _, img := range post.Images {
		if err := s.blobs.Delete(ctx, img.BlobID); err != nil {
			log.Printf("WARN orphaned blob on post delete: %s: %v", img.BlobID, err)
		}
	}

	return s.postRepo.Delete(ctx, id)
}

func (s *PostService) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	if err := s.ensureExists(ctx, postID); err != nil {
		return false, err
	}
	return s.postRepo.ToggleLike(ctx, postID, userID)
}

func (s *PostService) ToggleUpvote(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	if err := s.ensureExists(ctx, postID); err != nil {
		return false, err
	}
	return s.postRepo.ToggleUpvote(ctx, postID, userID)
}

func (s *PostService) AddComment(ctx context.Context, postID uuid.UUID, author *domain.User, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	if err := s.ensureExists(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:              uuid.New(),
		PostID:          postID,
		UserID:          author.ID,
		Content:         content,
		Likes:           []uuid.UUID{},
		CreatedAt:       time.Now(),
		AuthorFirstName: author.FirstName,
		AuthorLastName:  author.LastName,
	}
	if err := s.postRepo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}
	return comment, nil
}

// UpdateStatus sets any of the four enumerated values; no transition ordering
// is enforced.
func (s *PostService) UpdateStatus(ctx context.Context, requester *domain.User, postID uuid.UUID, status string) (*domain.Post, error) {
	if !domain.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.AuthorID != requester.ID && !requester.IsAdmin() {
		return nil, ErrForbidden
	}

	if err := s.postRepo.UpdateStatus(ctx, postID, status); err != nil {
		return nil, fmt.Errorf("updating status: %w", err)
	}

	updated, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPostNotFound
	}
	return updated, nil
}

func (s *PostService) ensureExists(ctx context.Context, postID uuid.UUID) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	return nil
}

func parseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
