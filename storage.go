package sdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/prepxl/prepxl/sdk/go/routes"
)

// File describes a stored resume file.
type File struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// FileListResponse is the current account's stored files.
type FileListResponse struct {
	Files []File `json:"files"`
	Total int    `json:"total"`
}

// StorageClient provides methods for managing resume files.
//
// Example:
//
//	f, _ := os.Open("resume.pdf")
//	defer f.Close()
//	file, err := client.Storage.Upload(ctx, "resume.pdf", "application/pdf", f)
type StorageClient struct {
	client *Client
}

// ensureInitialized returns an error if the client is not properly initialized.
func (c *StorageClient) ensureInitialized() error {
	if c == nil || c.client == nil {
		return fmt.Errorf("sdk: storage client not initialized")
	}
	return nil
}

// Upload stores content under name as a multipart upload and returns the
// file's metadata.
func (c *StorageClient) Upload(ctx context.Context, name, mimeType string, content io.Reader) (File, error) {
	if err := c.ensureInitialized(); err != nil {
		return File{}, err
	}
	if name == "" {
		return File{}, fmt.Errorf("sdk: file name is required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return File{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return File{}, err
	}
	if mimeType != "" {
		if err := writer.WriteField("mime_type", mimeType); err != nil {
			return File{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return File{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.client.buildURL(routes.StorageFiles), &buf)
	if err != nil {
		return File{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	injectTraceparent(ctx, req)

	resp, err := c.client.send(req)
	if err != nil {
		return File{}, err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()

	var file File
	if err := decodeJSON(resp.Body, &file); err != nil {
		return File{}, err
	}
	return file, nil
}

// Get retrieves a file's metadata by ID.
func (c *StorageClient) Get(ctx context.Context, fileID uuid.UUID) (File, error) {
	if err := c.ensureInitialized(); err != nil {
		return File{}, err
	}
	if fileID == uuid.Nil {
		return File{}, fmt.Errorf("sdk: file_id is required")
	}

	path := fmt.Sprintf("%s/%s", routes.StorageFiles, fileID.String())
	var resp File
	if err := c.client.sendAndDecode(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return File{}, err
	}
	return resp, nil
}

// Download streams a file's content. The caller must close the reader.
func (c *StorageClient) Download(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, error) {
	if err := c.ensureInitialized(); err != nil {
		return nil, err
	}
	if fileID == uuid.Nil {
		return nil, fmt.Errorf("sdk: file_id is required")
	}

	path := fmt.Sprintf("%s/%s/content", routes.StorageFiles, fileID.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.client.buildURL(path), nil)
	if err != nil {
		return nil, err
	}
	injectTraceparent(ctx, req)
	resp, err := c.client.send(req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// List returns all files belonging to the current account.
func (c *StorageClient) List(ctx context.Context) (FileListResponse, error) {
	if err := c.ensureInitialized(); err != nil {
		return FileListResponse{}, err
	}

	var resp FileListResponse
	if err := c.client.sendAndDecode(ctx, http.MethodGet, routes.StorageFiles, nil, &resp); err != nil {
		return FileListResponse{}, err
	}
	return resp, nil
}

// Delete removes a file by ID.
func (c *StorageClient) Delete(ctx context.Context, fileID uuid.UUID) error {
	if err := c.ensureInitialized(); err != nil {
		return err
	}
	if fileID == uuid.Nil {
		return fmt.Errorf("sdk: file_id is required")
	}

	path := fmt.Sprintf("%s/%s", routes.StorageFiles, fileID.String())
	return c.client.sendAndDecode(ctx, http.MethodDelete, path, nil, nil)
}
