package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultPath = "/upload"

// Client calls the remote image-inference service. The response is an
// opaque JSON document; callers normalize it at the data-model boundary.
type Client interface {
	Analyze(ctx context.Context, input Input) (json.RawMessage, error)
}

// Input is one image submission forwarded to the inference service.
type Input struct {
	FileName string
	Image    []byte
	ImageURL string
	Age      string
	Gender   string
}

// ServiceError is a non-success response from the inference service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("inference service status %d: %s", e.Status, e.Message)
}

// HTTPClient implements Client against the inference service's HTTP API.
type HTTPClient struct {
	baseURL    string
	path       string
	httpClient *http.Client
}

// NewHTTPClient constructs an HTTPClient for the given base address.
func NewHTTPClient(baseURL, path string) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("INFERENCE_URL is required")
	}
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("INFERENCE_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Analyze posts the image as a multipart form and returns the raw JSON body.
func (c *HTTPClient) Analyze(ctx context.Context, input Input) (json.RawMessage, error) {
	if len(input.Image) == 0 && strings.TrimSpace(input.ImageURL) == "" {
		return nil, fmt.Errorf("no image provided")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if len(input.Image) > 0 {
		name := input.FileName
		if strings.TrimSpace(name) == "" {
			name = "upload.jpg"
		}
		part, err := writer.CreateFormFile("image", name)
		if err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
		if _, err := part.Write(input.Image); err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
	} else {
		if err := writer.WriteField("imageURL", input.ImageURL); err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
	}
	if input.Age != "" {
		if err := writer.WriteField("age", input.Age); err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
	}
	if input.Gender != "" {
		if err := writer.WriteField("gender", input.Gender); err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call inference service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{
			Status:  resp.StatusCode,
			Message: serviceMessage(raw, resp.StatusCode),
		}
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON from inference service")
	}
	return raw, nil
}

// serviceMessage pulls the error field from a failure body when present.
func serviceMessage(raw []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(status)
}

var _ Client = (*HTTPClient)(nil)
