package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/prepxl/prepxl/sdk/go/routes"
)

// Question is one entry in the interview question bank.
type Question struct {
	ID         uuid.UUID `json:"id"`
	Role       string    `json:"role"`
	Experience string    `json:"experience"`
	Type       string    `json:"type"`
	Question   string    `json:"question"`
	Keywords   []string  `json:"keywords,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionListResponse is a paginated list of questions.
type QuestionListResponse struct {
	Questions  []Question `json:"questions"`
	Total      int        `json:"total"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// QuestionListOptions contains options for listing questions.
type QuestionListOptions struct {
	// Limit is the maximum number of questions to return (default: 50, max: 100).
	Limit int
	// Cursor is the pagination cursor from a previous response's NextCursor field.
	Cursor string
	// Role filters by target job role (e.g. "backend-engineer").
	Role string
	// Experience filters by experience band (e.g. "junior", "senior").
	Experience string
	// Search matches against question text.
	Search string
}

// QuestionsClient provides read access to the interview question bank.
//
// Example:
//
//	resp, err := client.Questions.List(ctx, sdk.QuestionListOptions{Role: "backend-engineer", Limit: 10})
//	for _, q := range resp.Questions {
//	    fmt.Println(q.Question)
//	}
//
//	// Fetch next page using cursor
//	if resp.NextCursor != nil {
//	    nextPage, err := client.Questions.List(ctx, sdk.QuestionListOptions{Cursor: *resp.NextCursor})
//	}
type QuestionsClient struct {
	client *Client
}

// ensureInitialized returns an error if the client is not properly initialized.
func (c *QuestionsClient) ensureInitialized() error {
	if c == nil || c.client == nil {
		return fmt.Errorf("sdk: questions client not initialized")
	}
	return nil
}

// List returns a paginated, filtered slice of the question bank.
func (c *QuestionsClient) List(ctx context.Context, opts QuestionListOptions) (QuestionListResponse, error) {
	if err := c.ensureInitialized(); err != nil {
		return QuestionListResponse{}, err
	}

	path := routes.Questions
	params := url.Values{}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		params.Set("cursor", opts.Cursor)
	}
	if opts.Role != "" {
		params.Set("role", opts.Role)
	}
	if opts.Experience != "" {
		params.Set("experience", opts.Experience)
	}
	if opts.Search != "" {
		params.Set("search", opts.Search)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp QuestionListResponse
	if err := c.client.sendAndDecode(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return QuestionListResponse{}, err
	}
	return resp, nil
}

// Get retrieves a question by ID.
func (c *QuestionsClient) Get(ctx context.Context, questionID uuid.UUID) (Question, error) {
	if err := c.ensureInitialized(); err != nil {
		return Question{}, err
	}
	if questionID == uuid.Nil {
		return Question{}, fmt.Errorf("sdk: question_id is required")
	}

	path := fmt.Sprintf("%s/%s", routes.Questions, questionID.String())
	var resp Question
	if err := c.client.sendAndDecode(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Question{}, err
	}
	return resp, nil
}
