package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicworks/civicconnect/internal/domain"
	"github.com/civicworks/civicconnect/internal/repository"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

const postColumns = `p.id, p.title, p.description, p.category, p.location, p.author_id,
	p.status, p.priority, p.tags, p.local_authority, p.is_public, p.created_at, p.updated_at,
	u.first_name, u.last_name`

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, title, description, category, location, author_id, status, priority, tags, local_authority, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		post.ID, post.Title, post.Description, post.Category, post.Location,
		post.AuthorID, post.Status, post.Priority, post.Tags, post.LocalAuthority,
		post.IsPublic, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for i, img := range post.Images {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO post_images (post_id, position, url, blob_id) VALUES ($1, $2, $3, $4)`,
			post.ID, i, img.URL, img.BlobID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.id = $1`

	var p domain.Post
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Description, &p.Category, &p.Location, &p.AuthorID,
		&p.Status, &p.Priority, &p.Tags, &p.LocalAuthority, &p.IsPublic,
		&p.CreatedAt, &p.UpdatedAt, &p.AuthorFirstName, &p.AuthorLastName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	posts := []domain.Post{p}
	if err := r.attachEngagement(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *PostRepo) List(ctx context.Context, filter repository.PostFilter, page, limit int) ([]domain.Post, int, error) {
	var clauses []string
	var args []any

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != nil {
		add("p.status = $%d", *filter.Status)
	}
	if filter.Category != nil {
		add("p.category = $%d", *filter.Category)
	}
	if filter.Author != nil {
		add("p.author_id = $%d", *filter.Author)
	}
	if filter.PublicOnly {
		clauses = append(clauses, "p.is_public = TRUE")
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM posts p " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON p.author_id = u.id
		%s
		ORDER BY p.created_at DESC
		LIMIT %d OFFSET %d`, where, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Category, &p.Location, &p.AuthorID,
			&p.Status, &p.Priority, &p.Tags, &p.LocalAuthority, &p.IsPublic,
			&p.CreatedAt, &p.UpdatedAt, &p.AuthorFirstName, &p.AuthorLastName,
		); err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachEngagement(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	return err
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Images, likes, upvotes and comments cascade.
	_, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return err
}

func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return r.toggle(ctx, "post_likes", postID, userID)
}

func (r *PostRepo) ToggleUpvote(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return r.toggle(ctx, "post_upvotes", postID, userID)
}

// toggle flips (postID, userID) membership in a set table. Each branch is a
// single statement, so concurrent toggles cannot lose updates.
func (r *PostRepo) toggle(ctx context.Context, table string, postID, userID uuid.UUID) (bool, error) {
	insert := fmt.Sprintf(`INSERT INTO %s (post_id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, table)
	tag, err := r.pool.Exec(ctx, insert, postID, userID, time.Now())
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	remove := fmt.Sprintf(`DELETE FROM %s WHERE post_id = $1 AND user_id = $2`, table)
	_, err = r.pool.Exec(ctx, remove, postID, userID)
	return false, err
}

func (r *PostRepo) AddComment(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		comment.ID, comment.PostID, comment.UserID, comment.Content, comment.CreatedAt,
	)
	return err
}

// attachEngagement loads images, like/upvote sets and comments for a batch of
// posts with one query per collection.
func (r *PostRepo) attachEngagement(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(posts))
	index := make(map[uuid.UUID]*domain.Post, len(posts))
	for i := range posts {
		posts[i].Images = []domain.ImageRef{}
		posts[i].Likes = []uuid.UUID{}
		posts[i].Upvotes = []uuid.UUID{}
		posts[i].Comments = []domain.Comment{}
		if posts[i].Tags == nil {
			posts[i].Tags = []string{}
		}
		ids[i] = posts[i].ID
		index[posts[i].ID] = &posts[i]
	}

	rows, err := r.pool.Query(ctx,
		`SELECT post_id, url, blob_id FROM post_images WHERE post_id = ANY($1) ORDER BY post_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postID uuid.UUID
		var img domain.ImageRef
		if err := rows.Scan(&postID, &img.URL, &img.BlobID); err != nil {
			return err
		}
		p := index[postID]
		p.Images = append(p.Images, img)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if err := r.loadSet(ctx, "post_likes", ids, index, func(p *domain.Post, userID uuid.UUID) {
		p.Likes = append(p.Likes, userID)
	}); err != nil {
		return err
	}
	if err := r.loadSet(ctx, "post_upvotes", ids, index, func(p *domain.Post, userID uuid.UUID) {
		p.Upvotes = append(p.Upvotes, userID)
	}); err != nil {
		return err
	}

	return r.loadComments(ctx, ids, index)
}

func (r *PostRepo) loadSet(ctx context.Context, table string, ids []uuid.UUID, index map[uuid.UUID]*domain.Post, apply func(*domain.Post, uuid.UUID)) error {
	query := fmt.Sprintf(`SELECT post_id, user_id FROM %s WHERE post_id = ANY($1) ORDER BY created_at`, table)
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postID, userID uuid.UUID
		if err := rows.Scan(&postID, &userID); err != nil {
			return err
		}
		apply(index[postID], userID)
	}
	return rows.Err()
}

func (r *PostRepo) loadComments(ctx context.Context, ids []uuid.UUID, index map[uuid.UUID]*domain.Post) error {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at, u.first_name, u.last_name
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.post_id = ANY($1)
		ORDER BY c.created_at`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	var comments []domain.Comment
	commentIndex := make(map[uuid.UUID]int)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt,
			&c.AuthorFirstName, &c.AuthorLastName); err != nil {
			return err
		}
		c.Likes = []uuid.UUID{}
		commentIndex[c.ID] = len(comments)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(comments) == 0 {
		return nil
	}

	likeRows, err := r.pool.Query(ctx, `
		SELECT comment_id, user_id FROM comment_likes
		WHERE comment_id IN (SELECT id FROM comments WHERE post_id = ANY($1))
		ORDER BY created_at`, ids)
	if err != nil {
		return err
	}
	defer likeRows.Close()
	for likeRows.Next() {
		var commentID, userID uuid.UUID
		if err := likeRows.Scan(&commentID, &userID); err != nil {
			return err
		}
		if i, ok := commentIndex[commentID]; ok {
			comments[i].Likes = append(comments[i].Likes, userID)
		}
	}
	if err := likeRows.Err(); err != nil {
		return err
	}

	for _, c := range comments {
		p := index[c.PostID]
		p.Comments = append(p.Comments, c)
	}
	return nil
}
