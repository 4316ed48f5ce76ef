package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Deployment is a container deployment as reported by the provider.
type Deployment struct {
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"created_at"`
	EndpointBaseURL string    `json:"endpoint_base_url"`
}

// ContainerSpec describes one container in a deployment.
type ContainerSpec struct {
	Image       string      `json:"image"`
	ExposedPort int         `json:"exposed_port"`
	Healthcheck Healthcheck `json:"healthcheck"`
	Entrypoint  *Entrypoint `json:"entrypoint_overrides,omitempty"`
	Env         []EnvVar    `json:"env,omitempty"`
}

type Healthcheck struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

type Entrypoint struct {
	Enabled bool     `json:"enabled"`
	Cmd     []string `json:"cmd"`
}

type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value_or_reference_to_secret"`
	Type  string `json:"type"` // "plain" or "secret"
}

// ScalingSpec keeps a single replica range suitable for playground use.
type ScalingSpec struct {
	MinReplicaCount              int `json:"min_replica_count"`
	MaxReplicaCount              int `json:"max_replica_count"`
	ConcurrentRequestsPerReplica int `json:"concurrent_requests_per_replica"`
	QueueMessageTTLSeconds       int `json:"queue_message_ttl_seconds"`
}

// DeploymentSpec is the create-deployment request body.
type DeploymentSpec struct {
	Name       string          `json:"name"`
	Containers []ContainerSpec `json:"containers"`
	Compute    struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	} `json:"compute"`
	Scaling ScalingSpec `json:"scaling"`
	IsSpot  bool        `json:"is_spot"`
}

// Client talks to the provider's container deployment API. Authentication
// is OAuth2 client credentials; the access token is cached until shortly
// before expiry.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient creates a deployment API client.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > 30*time.Second {
		return c.token, nil
	}

	body, _ := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request returned status %d: %s", resp.StatusCode, respBody)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.token = tokenResp.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("container API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("container API returned status %d: %s", resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode container API response: %w", err)
		}
	}
	return nil
}

// CreateDeployment creates a new container deployment.
func (c *Client) CreateDeployment(ctx context.Context, spec DeploymentSpec) (*Deployment, error) {
	var d Deployment
	if err := c.do(ctx, http.MethodPost, "/container-deployments", spec, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDeployment fetches a deployment by name.
func (c *Client) GetDeployment(ctx context.Context, name string) (*Deployment, error) {
	var d Deployment
	if err := c.do(ctx, http.MethodGet, "/container-deployments/"+name, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetStatus fetches the deployment status string ("healthy", "deploying", ...).
func (c *Client) GetStatus(ctx context.Context, name string) (string, error) {
	var status struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/container-deployments/"+name+"/status", nil, &status); err != nil {
		return "", err
	}
	return status.Status, nil
}

// ListDeployments lists all deployments.
func (c *Client) ListDeployments(ctx context.Context) ([]Deployment, error) {
	var ds []Deployment
	if err := c.do(ctx, http.MethodGet, "/container-deployments", nil, &ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// DeleteDeployment deletes a deployment by name.
func (c *Client) DeleteDeployment(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/container-deployments/"+name, nil, nil)
}
