package models

import "time"

// User is a registered account. Records are never updated after creation.
type User struct {
	Username     string    `bson:"username" json:"username"`
	PasswordHash []byte    `bson:"password" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// HistoryRecord is one successful image generation, persisted per user.
type HistoryRecord struct {
	Username  string    `bson:"username" json:"-"`
	Prompt    string    `bson:"prompt" json:"prompt"`
	Model     string    `bson:"model" json:"model"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ImageSize int       `bson:"image_size" json:"image_size"`
	ImageData string    `bson:"image_data" json:"image_data"`
}

// TextRecord is one text or chat generation against a deployed model.
type TextRecord struct {
	Type          string         `bson:"type" json:"type"` // "text" or "chat"
	Username      string         `bson:"username" json:"-"`
	Prompt        string         `bson:"prompt,omitempty" json:"prompt,omitempty"`
	Messages      []ChatMessage  `bson:"messages,omitempty" json:"messages,omitempty"`
	GeneratedText string         `bson:"generated_text,omitempty" json:"generated_text,omitempty"`
	Reply         string         `bson:"reply,omitempty" json:"reply,omitempty"`
	Model         string         `bson:"model" json:"model"`
	Timestamp     time.Time      `bson:"timestamp" json:"timestamp"`
	Usage         map[string]int `bson:"usage,omitempty" json:"usage,omitempty"`
}

// ChatMessage mirrors the OpenAI-compatible message shape.
type ChatMessage struct {
	Role    string `bson:"role" json:"role"`
	Content string `bson:"content" json:"content"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	InvitationCode string `json:"invitation_code"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token for subsequent calls.
type LoginResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

// ImageRequest is the body of POST /images/generate and /images/edit-image.
// Image is only consulted by the edit endpoint.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Image  string `json:"image,omitempty"`
}

// HistoryResponse is the body of GET /images/history.
type HistoryResponse struct {
	History []HistoryRecord `json:"history"`
}

// DeployRequest is the body of POST /text/deploy.
type DeployRequest struct {
	ModelPath      string `json:"model_path"`
	DeploymentName string `json:"deployment_name,omitempty"`
}

// ConnectRequest is the body of POST /text/connect.
type ConnectRequest struct {
	DeploymentName string `json:"deployment_name"`
	ModelPath      string `json:"model_path"`
}

// DeploymentStatus describes the active text-model deployment.
type DeploymentStatus struct {
	Name    string `json:"name,omitempty"`
	Status  string `json:"status"`
	Model   string `json:"model,omitempty"`
	Healthy bool   `json:"healthy,omitempty"`
	Message string `json:"message,omitempty"`
}

// DeploymentSummary is one entry of GET /text/deployments.
type DeploymentSummary struct {
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	EndpointURL string    `json:"endpoint_url"`
}

// TextGenerateRequest is the body of POST /text/generate.
type TextGenerateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	TopP        float32 `json:"top_p,omitempty"`
}

// TextGenerateResponse is the reply of POST /text/generate.
type TextGenerateResponse struct {
	GeneratedText string         `json:"generated_text"`
	Model         string         `json:"model"`
	Prompt        string         `json:"prompt"`
	Usage         map[string]int `json:"usage"`
}

// ChatRequest is the body of POST /text/chat.
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	TopP        float32       `json:"top_p,omitempty"`
}

// ChatResponse is the reply of POST /text/chat.
type ChatResponse struct {
	Reply string         `json:"reply"`
	Model string         `json:"model"`
	Usage map[string]int `json:"usage"`
}
