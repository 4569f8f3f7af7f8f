package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/civicconnect/internal/domain"
	"github.com/civicworks/civicconnect/internal/repository"
)

type PostRepo struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]domain.Post
}

func NewPostRepo() *PostRepo {
	return &PostRepo{posts: make(map[uuid.UUID]domain.Post)}
}

func (r *PostRepo) Create(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = clonePost(*post)
	return nil
}

func (r *PostRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	p = clonePost(p)
	return &p, nil
}

func (r *PostRepo) List(_ context.Context, filter repository.PostFilter, page, limit int) ([]domain.Post, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Post
	for _, p := range r.posts {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.Author != nil && p.AuthorID != *filter.Author {
			continue
		}
		if filter.PublicOnly && !p.IsPublic {
			continue
		}
		matched = append(matched, clonePost(p))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *PostRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	r.posts[id] = p
	return nil
}

func (r *PostRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *PostRepo) ToggleLike(_ context.Context, postID, userID uuid.UUID) (bool, error) {
	return r.toggle(postID, userID, func(p *domain.Post) *[]uuid.UUID { return &p.Likes })
}

func (r *PostRepo) ToggleUpvote(_ context.Context, postID, userID uuid.UUID) (bool, error) {
	return r.toggle(postID, userID, func(p *domain.Post) *[]uuid.UUID { return &p.Upvotes })
}

func (r *PostRepo) toggle(postID, userID uuid.UUID, set func(*domain.Post) *[]uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return false, nil
	}
	members := set(&p)
	for i, id := range *members {
		if id == userID {
			*members = append((*members)[:i], (*members)[i+1:]...)
			r.posts[postID] = p
			return false, nil
		}
	}
	*members = append(*members, userID)
	r.posts[postID] = p
	return true, nil
}

func (r *PostRepo) AddComment(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[comment.PostID]
	if !ok {
		return nil
	}
	c := *comment
	c.Likes = append([]uuid.UUID{}, comment.Likes...)
	p.Comments = append(p.Comments, c)
	r.posts[comment.PostID] = p
	return nil
}

func clonePost(p domain.Post) domain.Post {
	p.Images = append([]domain.ImageRef{}, p.Images...)
	p.Tags = append([]string{}, p.Tags...)
	p.Likes = append([]uuid.UUID{}, p.Likes...)
	p.Upvotes = append([]uuid.UUID{}, p.Upvotes...)
	comments := make([]domain.Comment, len(p.Comments))
	for i, c := range p.Comments {
		c.Likes = append([]uuid.UUID{}, c.Likes...)
		comments[i] = c
	}
	p.Comments = comments
	return p
}
