package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/genai-playground/gateway/internal/shared/database"
	"github.com/genai-playground/gateway/internal/shared/models"
)

const (
	// DefaultModel is deployed when the caller does not name one.
	DefaultModel = "deepseek-ai/deepseek-llm-7b-chat"

	sglangImage = "docker.io/lmsysorg/sglang:v0.4.1.post6-cu124"
	appPort     = 30000
	// L40S: 48GB VRAM, enough for 7B models.
	defaultCompute = "L40S"

	statusHealthy = "healthy"
)

var (
	// ErrNoCredentials means the container API credentials are not configured.
	ErrNoCredentials = errors.New("container API credentials not configured")
	// ErrNoDeployment means no deployment is active.
	ErrNoDeployment = errors.New("no active deployment")
)

// NotHealthyError is returned when inference is requested against a
// deployment that is not yet (or no longer) healthy.
type NotHealthyError struct {
	Status string
}

func (e *NotHealthyError) Error() string {
	return fmt.Sprintf("deployment is not healthy (status: %s)", e.Status)
}

// Service manages the single active text-model deployment and runs
// inference against its OpenAI-compatible endpoint. It is constructed once
// at process start and injected; the current deployment handle sits behind
// a mutex so concurrent calls cannot race on it.
type Service struct {
	client       *Client
	enabled      bool
	inferenceKey string
	texts        database.TextStore
	logger       *zap.Logger

	mu             sync.Mutex
	deploymentName string
	modelPath      string
}

// NewService creates the deployment service. With empty credentials every
// operation fails with ErrNoCredentials.
func NewService(apiURL, clientID, clientSecret, inferenceKey string, texts database.TextStore, logger *zap.Logger) *Service {
	return &Service{
		client:       NewClient(apiURL, clientID, clientSecret),
		enabled:      clientID != "" && clientSecret != "",
		inferenceKey: inferenceKey,
		texts:        texts,
		logger:       logger,
	}
}

// Deploy creates a new SGLang container deployment serving modelPath. The
// deployment takes minutes to become healthy; callers poll Status.
func (s *Service) Deploy(ctx context.Context, modelPath, deploymentName string) (*models.DeploymentStatus, error) {
	if !s.enabled {
		return nil, ErrNoCredentials
	}
	if modelPath == "" {
		modelPath = DefaultModel
	}
	if deploymentName == "" {
		deploymentName = "genai-playground-" + uuid.NewString()[:8]
	}

	spec := DeploymentSpec{
		Name: deploymentName,
		Containers: []ContainerSpec{{
			Image:       sglangImage,
			ExposedPort: appPort,
			Healthcheck: Healthcheck{Enabled: true, Port: appPort, Path: "/health"},
			Entrypoint: &Entrypoint{
				Enabled: true,
				Cmd: []string{
					"python3", "-m", "sglang.launch_server",
					"--model-path", modelPath,
					"--host", "0.0.0.0",
					"--port", fmt.Sprintf("%d", appPort),
				},
			},
		}},
		Scaling: ScalingSpec{
			MinReplicaCount:              1,
			MaxReplicaCount:              3,
			ConcurrentRequestsPerReplica: 32,
			QueueMessageTTLSeconds:       500,
		},
	}
	spec.Compute.Name = defaultCompute
	spec.Compute.Size = 1

	created, err := s.client.CreateDeployment(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create deployment: %w", err)
	}

	s.mu.Lock()
	s.deploymentName = created.Name
	s.modelPath = modelPath
	s.mu.Unlock()

	s.logger.Info("created deployment",
		zap.String("name", created.Name),
		zap.String("model", modelPath))

	return &models.DeploymentStatus{
		Name:    created.Name,
		Status:  "deploying",
		Model:   modelPath,
		Message: "Deployment created. Model download and server startup may take several minutes.",
	}, nil
}

// Connect attaches the service to an already-running deployment.
func (s *Service) Connect(ctx context.Context, deploymentName, modelPath string) (*models.DeploymentStatus, error) {
	if !s.enabled {
		return nil, ErrNoCredentials
	}
	if modelPath == "" {
		modelPath = DefaultModel
	}

	if _, err := s.client.GetDeployment(ctx, deploymentName); err != nil {
		return nil, fmt.Errorf("deployment not found: %w", err)
	}
	status, err := s.client.GetStatus(ctx, deploymentName)
	if err != nil {
		return nil, fmt.Errorf("failed to check deployment status: %w", err)
	}

	s.mu.Lock()
	s.deploymentName = deploymentName
	s.modelPath = modelPath
	s.mu.Unlock()

	return &models.DeploymentStatus{
		Name:    deploymentName,
		Status:  status,
		Model:   modelPath,
		Healthy: status == statusHealthy,
		Message: "Connected to existing deployment",
	}, nil
}

// Status reports the state of the active deployment.
func (s *Service) Status(ctx context.Context) *models.DeploymentStatus {
	name, model := s.current()
	if name == "" {
		return &models.DeploymentStatus{Status: "no_deployment", Message: "No active deployment"}
	}

	status, err := s.client.GetStatus(ctx, name)
	if err != nil {
		s.logger.Warn("failed to check deployment status",
			zap.String("name", name), zap.Error(err))
		return &models.DeploymentStatus{Name: name, Status: "error", Model: model, Message: err.Error()}
	}
	return &models.DeploymentStatus{
		Name:    name,
		Status:  status,
		Model:   model,
		Healthy: status == statusHealthy,
	}
}

// List returns all deployments on the provider account.
func (s *Service) List(ctx context.Context) ([]models.DeploymentSummary, error) {
	if !s.enabled {
		return nil, ErrNoCredentials
	}
	deployments, err := s.client.ListDeployments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	out := make([]models.DeploymentSummary, 0, len(deployments))
	for _, d := range deployments {
		out = append(out, models.DeploymentSummary{
			Name:        d.Name,
			CreatedAt:   d.CreatedAt,
			EndpointURL: d.EndpointBaseURL,
		})
	}
	return out, nil
}

// Delete tears down the active deployment.
func (s *Service) Delete(ctx context.Context) (*models.DeploymentStatus, error) {
	name, _ := s.current()
	if name == "" {
		return &models.DeploymentStatus{Status: "no_deployment", Message: "No active deployment to delete"}, nil
	}

	if err := s.client.DeleteDeployment(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to delete deployment %s: %w", name, err)
	}

	s.mu.Lock()
	s.deploymentName = ""
	s.modelPath = ""
	s.mu.Unlock()

	s.logger.Info("deleted deployment", zap.String("name", name))
	return &models.DeploymentStatus{Status: "deleted", Name: name}, nil
}

// GenerateText runs a completion against the deployed model.
func (s *Service) GenerateText(ctx context.Context, username string, req models.TextGenerateRequest) (*models.TextGenerateResponse, error) {
	client, model, err := s.inferenceClient(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       model,
		Prompt:      req.Prompt,
		MaxTokens:   maxTokensOrDefault(req.MaxTokens),
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("text generation failed: %w", err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Text
	}
	usage := usageMap(resp.Usage)

	s.persist(ctx, &models.TextRecord{
		Type:          "text",
		Username:      username,
		Prompt:        req.Prompt,
		GeneratedText: text,
		Model:         model,
		Timestamp:     time.Now().UTC(),
		Usage:         usage,
	})

	return &models.TextGenerateResponse{
		GeneratedText: text,
		Model:         model,
		Prompt:        req.Prompt,
		Usage:         usage,
	}, nil
}

// Chat runs a chat completion against the deployed model.
func (s *Service) Chat(ctx context.Context, username string, req models.ChatRequest) (*models.ChatResponse, error) {
	client, model, err := s.inferenceClient(ctx)
	if err != nil {
		return nil, err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokensOrDefault(req.MaxTokens),
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("chat failed: %w", err)
	}

	var reply string
	if len(resp.Choices) > 0 {
		reply = resp.Choices[0].Message.Content
	}
	usage := usageMap(resp.Usage)

	s.persist(ctx, &models.TextRecord{
		Type:      "chat",
		Username:  username,
		Messages:  req.Messages,
		Reply:     reply,
		Model:     model,
		Timestamp: time.Now().UTC(),
		Usage:     usage,
	})

	return &models.ChatResponse{Reply: reply, Model: model, Usage: usage}, nil
}

// inferenceClient resolves the active deployment, requires it healthy, and
// returns an OpenAI-compatible client bound to its endpoint.
func (s *Service) inferenceClient(ctx context.Context) (*openai.Client, string, error) {
	if !s.enabled {
		return nil, "", ErrNoCredentials
	}
	name, model := s.current()
	if name == "" {
		return nil, "", ErrNoDeployment
	}

	status, err := s.client.GetStatus(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check deployment status: %w", err)
	}
	if status != statusHealthy {
		return nil, "", &NotHealthyError{Status: status}
	}

	deployment, err := s.client.GetDeployment(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve deployment endpoint: %w", err)
	}

	cfg := openai.DefaultConfig(s.inferenceKey)
	cfg.BaseURL = strings.TrimSuffix(deployment.EndpointBaseURL, "/") + "/v1"
	return openai.NewClientWithConfig(cfg), model, nil
}

func (s *Service) current() (name, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deploymentName, s.modelPath
}

// persist writes the text record best-effort; failures never surface.
func (s *Service) persist(ctx context.Context, rec *models.TextRecord) {
	if err := s.texts.AppendText(ctx, rec); err != nil {
		s.logger.Warn("failed to save text record",
			zap.String("username", rec.Username),
			zap.String("type", rec.Type),
			zap.Error(err))
	}
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 256
	}
	return n
}

func usageMap(u openai.Usage) map[string]int {
	return map[string]int{
		"prompt_tokens":     u.PromptTokens,
		"completion_tokens": u.CompletionTokens,
		"total_tokens":      u.TotalTokens,
	}
}
