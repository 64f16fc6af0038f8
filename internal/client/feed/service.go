// Package feed reads and creates posts.
package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/framezapp/framez/internal/client/backend"
	"github.com/framezapp/framez/internal/client/models"
	"github.com/framezapp/framez/internal/client/upload"
	"github.com/framezapp/framez/internal/logging"
)

const postsTable = "posts"

// postColumns embeds the author profile into each row.
const postColumns = "*,profiles:user_id(username,full_name,avatar_url)"

// Service lists the feed and creates posts, uploading images through the
// strategy chain first.
type Service struct {
	client   backend.Client
	uploader *upload.Uploader
	bucket   string
	log      logging.Logger
}

func NewService(client backend.Client, uploader *upload.Uploader, bucket string, log logging.Logger) *Service {
	return &Service{client: client, uploader: uploader, bucket: bucket, log: log}
}

// List returns all posts, newest first, with the author profile embedded.
func (s *Service) List(ctx context.Context) ([]models.Post, error) {
	q := backend.NewQuery(postsTable).
		Select(postColumns).
		Order("created_at", true)

	var posts []models.Post
	if err := s.client.Select(ctx, q, &posts); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Create inserts a post for userID. When imagePath is non-empty the image is
// uploaded first and its public URL stored on the post; a post needs content
// or an image, or both.
func (s *Service) Create(ctx context.Context, userID, content, imagePath string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && imagePath == "" {
		return nil, fmt.Errorf("a post needs content or an image")
	}

	imageURL := ""
	if imagePath != "" {
		url, err := s.uploadImage(ctx, imagePath)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	row := models.Post{UserID: userID, Content: content, ImageURL: imageURL}

	var created models.Post
	if err := s.client.Insert(ctx, postsTable, row, &created); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	s.log.Info(ctx, "post created", "post", created.ID, "has_image", imageURL != "")
	return &created, nil
}

func (s *Service) uploadImage(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	ext := strings.TrimPrefix(filepath.Ext(imagePath), ".")
	if ext == "" {
		ext = "jpg"
	}

	url, err := s.uploader.Upload(ctx, upload.Request{
		Bucket:      s.bucket,
		Path:        objectKey(ext),
		Data:        data,
		ContentType: "image/" + ext,
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

// objectKey builds a unique storage key under the posts prefix.
func objectKey(ext string) string {
	return fmt.Sprintf("posts/%d-%s.%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}
