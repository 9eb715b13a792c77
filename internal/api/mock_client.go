package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bizcopilot/copilot/internal/models"
)

// MockClient is a mock implementation of ClientInterface for testing.
// Replies are served from the per-path queues first, then from the Val/Err fields.
type MockClient struct {
	mu sync.Mutex

	// Mock return values
	BaseURLVal  string
	ChatVal     *models.ChatResponse
	ChatErr     error
	HealthVal   *models.HealthResponse
	HealthErr   error
	PostJSONErr error
	// PostJSONVal maps a path to the JSON body decoded into the response.
	PostJSONVal map[string]string

	// ChatFunc, when set, overrides ChatVal/ChatErr.
	ChatFunc func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)

	// Call recorders
	ChatRequests []models.ChatRequest
	// PostedPaths and PostedBodies record every PostJSON call in order.
	PostedPaths  []string
	PostedBodies []json.RawMessage
	HealthCalls  int
}

// Ensure MockClient implements ClientInterface
var _ ClientInterface = (*MockClient)(nil)

func (m *MockClient) BaseURL() string {
	if m.BaseURLVal == "" {
		return models.DefaultBaseURL
	}
	return m.BaseURLVal
}

func (m *MockClient) PostJSON(ctx context.Context, path string, request, response any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.PostedPaths = append(m.PostedPaths, path)
	m.PostedBodies = append(m.PostedBodies, body)
	reply, ok := m.PostJSONVal[path]
	postErr := m.PostJSONErr
	m.mu.Unlock()

	if postErr != nil {
		return postErr
	}
	if !ok {
		return fmt.Errorf("mock: no reply configured for %s", path)
	}
	if response == nil {
		return nil
	}
	return json.Unmarshal([]byte(reply), response)
}

func (m *MockClient) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	m.mu.Lock()
	m.ChatRequests = append(m.ChatRequests, req)
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if m.ChatErr != nil {
		return nil, m.ChatErr
	}
	return m.ChatVal, nil
}

func (m *MockClient) Health(ctx context.Context) (*models.HealthResponse, error) {
	m.mu.Lock()
	m.HealthCalls++
	m.mu.Unlock()
	if m.HealthErr != nil {
		return nil, m.HealthErr
	}
	if m.HealthVal == nil {
		return &models.HealthResponse{Status: "ok", LLMStatus: "ok"}, nil
	}
	return m.HealthVal, nil
}

// Requests returns a copy of the recorded chat requests
func (m *MockClient) Requests() []models.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ChatRequest, len(m.ChatRequests))
	copy(out, m.ChatRequests)
	return out
}

// LastBody returns the last PostJSON body, or nil
func (m *MockClient) LastBody() json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.PostedBodies) == 0 {
		return nil
	}
	return m.PostedBodies[len(m.PostedBodies)-1]
}
