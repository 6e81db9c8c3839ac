package posts

import "github.com/njoerd114/feedrelay/internal/model"

// Remote feed API paths.
const (
	pathPosts    = "v1/sample-data/photos"
	pathPostByID = "photos"
)

// postDTO is the JSON structure for a single post. The API transmits the
// media reference as "url" and the author id as "user".
type postDTO struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"url"`
	UserID      int    `json:"user"`
}

// postsResponse wraps the post array inside the paginated response.
type postsResponse struct {
	Photos []postDTO `json:"photos"`
}

// commentDTO is the JSON structure for a single comment.
type commentDTO struct {
	ID     int    `json:"id"`
	PostID int    `json:"postId"`
	UserID int    `json:"userId"`
	Text   string `json:"text"`
}

func toRawPost(d postDTO) model.RawPost {
	return model.RawPost{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		UserID:      d.UserID,
	}
}

func toRawPosts(dtos []postDTO) []model.RawPost {
	out := make([]model.RawPost, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, toRawPost(d))
	}
	return out
}

func toComments(dtos []commentDTO) []model.Comment {
	out := make([]model.Comment, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, model.Comment{
			ID:     d.ID,
			PostID: d.PostID,
			UserID: d.UserID,
			Text:   d.Text,
		})
	}
	return out
}
