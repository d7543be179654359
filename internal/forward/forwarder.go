// Package forward relays credential requests to the backend service and
// translates its failures into client-facing payloads. Validation and
// transport errors are resolved here; callers never see a raw fault.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"skincare-gateway/internal/shared/telemetry"
)

const (
	LoginPath  = "/api/login"
	SignupPath = "/api/signup"

	// MinPasswordLength is enforced locally on the signup path.
	MinPasswordLength = 6

	genericFailureMessage = "Something went wrong. Please try again."
	// ConnectFailureMessage replaces any transport fault.
	ConnectFailureMessage = "Unable to connect to the server"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Credentials is the shape accepted by the forwarding endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response mirrors the backend: the status to report and the decoded body.
// The Data map always carries a message on failure.
type Response struct {
	Status int
	Data   map[string]any
}

// OK reports whether the response carries a success status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status <= 299
}

// Message returns the response's message field, if any.
func (r Response) Message() string {
	if msg, ok := r.Data["message"].(string); ok {
		return msg
	}
	return ""
}

// Forwarder relays requests to the configured backend base address.
type Forwarder struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Login validates credential presence and forwards to the login path.
func (f *Forwarder) Login(ctx context.Context, creds Credentials) Response {
	if resp, ok := validatePresence(creds); !ok {
		return resp
	}
	return f.Forward(ctx, LoginPath, creds)
}

// Signup validates presence, password length, and email shape locally, then
// forwards to the signup path. Rejections never reach the network.
func (f *Forwarder) Signup(ctx context.Context, creds Credentials) Response {
	if resp, ok := validatePresence(creds); !ok {
		return resp
	}
	if len(creds.Password) < MinPasswordLength {
		return reject("Password must be at least 6 characters")
	}
	if !emailPattern.MatchString(creds.Email) {
		return reject("Invalid email address")
	}
	return f.Forward(ctx, SignupPath, creds)
}

// Forward posts the body as JSON to the backend and mirrors its response.
// A non-success backend status is passed through with its message when
// present; transport failures become a 500 with a fixed message.
func (f *Forwarder) Forward(ctx context.Context, path string, body any) Response {
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{Status: http.StatusInternalServerError, Data: map[string]any{"message": genericFailureMessage}}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(f.BaseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return Response{Status: http.StatusInternalServerError, Data: map[string]any{"message": genericFailureMessage}}
	}
	req.Header.Set("Content-Type", "application/json")

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		telemetry.Error("forward.transport", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return Response{Status: http.StatusInternalServerError, Data: map[string]any{"message": ConnectFailureMessage}}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Status: http.StatusInternalServerError, Data: map[string]any{"message": ConnectFailureMessage}}
	}

	data := map[string]any{}
	_ = json.Unmarshal(raw, &data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if _, ok := data["message"].(string); !ok {
			data["message"] = genericFailureMessage
		}
		return Response{Status: resp.StatusCode, Data: data}
	}
	return Response{Status: resp.StatusCode, Data: data}
}

func validatePresence(creds Credentials) (Response, bool) {
	if strings.TrimSpace(creds.Email) == "" {
		return reject("Email is required"), false
	}
	if creds.Password == "" {
		return reject("Password is required"), false
	}
	return Response{}, true
}

func reject(message string) Response {
	return Response{Status: http.StatusBadRequest, Data: map[string]any{"message": message}}
}
