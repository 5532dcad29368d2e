package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/calibrate-api/internal/constants"
	"github.com/yukikurage/calibrate-api/internal/models"
)

// EstimateAssistant suggests a task type, three-point estimates and a
// subtask breakdown using an OpenAI chat model.
type EstimateAssistant struct {
	client *openai.Client
	model  string
}

// SuggestedSubtask is one step proposed by the assistant
type SuggestedSubtask struct {
	Description   string `json:"description"`
	EstimatedTime int    `json:"estimated_time"`
}

// TaskAnalysis is the assistant's suggestion for a task. It is never stored.
type TaskAnalysis struct {
	TaskType        models.TaskType    `json:"task_type"`
	EstimatedTime   int                `json:"estimated_time"`
	OptimisticTime  int                `json:"optimistic_time"`
	RealisticTime   int                `json:"realistic_time"`
	PessimisticTime int                `json:"pessimistic_time"`
	Subtasks        []SuggestedSubtask `json:"subtasks"`
}

// rawAnalysis mirrors the JSON the model is asked for. Numbers arrive as floats.
type rawAnalysis struct {
	TaskType        string  `json:"task_type"`
	EstimatedTime   float64 `json:"estimated_time"`
	OptimisticTime  float64 `json:"optimistic_time"`
	RealisticTime   float64 `json:"realistic_time"`
	PessimisticTime float64 `json:"pessimistic_time"`
	Subtasks        []struct {
		Description   string  `json:"description"`
		EstimatedTime float64 `json:"estimated_time"`
	} `json:"subtasks"`
}

// NewEstimateAssistant creates an assistant. baseURL may be empty to use the
// public OpenAI endpoint.
func NewEstimateAssistant(apiKey, model, baseURL string) *EstimateAssistant {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewEstimateAssistantWithClient(openai.NewClientWithConfig(cfg), model)
}

// NewEstimateAssistantWithClient wraps an existing client
func NewEstimateAssistantWithClient(client *openai.Client, model string) *EstimateAssistant {
	if model == "" {
		model = openai.GPT4o
	}
	return &EstimateAssistant{client: client, model: model}
}

const analyzePrompt = `You help a person plan their work. Analyze the task below and reply with JSON only, no prose, in exactly this shape:
{
  "task_type": "creative | analytical | administrative | collaborative | unknown",
  "estimated_time": <minutes>,
  "optimistic_time": <minutes>,
  "realistic_time": <minutes>,
  "pessimistic_time": <minutes>,
  "subtasks": [{"description": "<concrete step>", "estimated_time": <minutes>}]
}
Rules:
- All times are whole minutes.
- Propose between 2 and %d subtasks.
- optimistic_time <= realistic_time <= pessimistic_time.

Title: %s
Description: %s`

// Analyze asks the model about one task and normalises its answer
func (s *EstimateAssistant) Analyze(ctx context.Context, title, description string) (*TaskAnalysis, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	if len(description) > constants.MaxAnalyzeInputChars {
		description = description[:constants.MaxAnalyzeInputChars]
	}
	if description == "" {
		description = "(none)"
	}

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: fmt.Sprintf(analyzePrompt, constants.MaxAnalyzedSubtasks, title, description),
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return normalizeAnalysis(raw), nil
}

func normalizeAnalysis(raw rawAnalysis) *TaskAnalysis {
	analysis := &TaskAnalysis{
		TaskType: models.TaskType(strings.ToLower(strings.TrimSpace(raw.TaskType))),
		Subtasks: make([]SuggestedSubtask, 0, len(raw.Subtasks)),
	}
	if !analysis.TaskType.Valid() {
		analysis.TaskType = models.TaskTypeUnknown
	}

	subtaskTotal := 0
	for _, st := range raw.Subtasks {
		if len(analysis.Subtasks) == constants.MaxAnalyzedSubtasks {
			break
		}
		desc := strings.TrimSpace(st.Description)
		if desc == "" {
			continue
		}
		minutes := wholeMinutes(st.EstimatedTime)
		subtaskTotal += minutes
		analysis.Subtasks = append(analysis.Subtasks, SuggestedSubtask{Description: desc, EstimatedTime: minutes})
	}

	points := []int{
		wholeMinutes(raw.OptimisticTime),
		wholeMinutes(raw.RealisticTime),
		wholeMinutes(raw.PessimisticTime),
	}
	sort.Ints(points)
	analysis.OptimisticTime, analysis.RealisticTime, analysis.PessimisticTime = points[0], points[1], points[2]

	analysis.EstimatedTime = wholeMinutes(raw.EstimatedTime)
	if analysis.EstimatedTime == 0 {
		if analysis.RealisticTime > 0 {
			analysis.EstimatedTime = analysis.RealisticTime
		} else {
			analysis.EstimatedTime = subtaskTotal
		}
	}

	return analysis
}

func wholeMinutes(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return int(math.Round(v))
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
