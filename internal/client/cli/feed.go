package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/framezapp/framez/internal/client/models"
)

// Feed prints all posts, newest first.
func (a *App) Feed(ctx context.Context) error {
	posts, err := a.feed.List(ctx)
	if err != nil {
		fmt.Println("Could not load the feed:", err.Error())
		return err
	}
	if len(posts) == 0 {
		fmt.Println("No posts yet. Be the first to share a moment!")
		return nil
	}

	for _, p := range posts {
		fmt.Println(formatPost(p))
	}
	return nil
}

// Post prompts for content and an optional image path and creates a post.
func (a *App) Post(ctx context.Context) error {
	snap := a.session.Snapshot()
	if snap.Identity == nil {
		fmt.Println("Log in before posting.")
		return nil
	}

	content, err := GetMultiline(a.reader, "What's on your mind?", os.Stdout)
	if err != nil {
		return err
	}
	imagePath, err := getSimpleText(a.reader, "Image file path (optional)", os.Stdout)
	if err != nil {
		return err
	}

	created, err := a.feed.Create(ctx, snap.Identity.ID, content, imagePath)
	if err != nil {
		fmt.Println("Failed to create post:", err.Error())
		if imagePath != "" {
			fmt.Println("Try posting without an image first.")
		}
		return err
	}

	fmt.Println("Your post has been shared!", created.ID)
	return nil
}

func formatPost(p models.Post) string {
	author := p.UserID
	if p.Author != nil {
		author = p.Author.Username
	}
	s := fmt.Sprintf("--- %s at %s ---", author, p.CreatedAt.Local().Format("2006-01-02 15:04"))
	if p.Content != "" {
		s += "\n" + p.Content
	}
	if p.ImageURL != "" {
		s += "\n[image] " + p.ImageURL
	}
	return s
}
