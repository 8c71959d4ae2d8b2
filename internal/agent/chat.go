package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// maxTurns bounds the tool loop so a confused model cannot spin forever.
const maxTurns = 8

// Client drives an OpenAI-compatible chat completion endpoint with the
// layout tools attached.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  *log.Logger
}

func NewClient(baseURL, apiKey, model string, logger *log.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}
}

// RunResult is the model's final answer after the tool loop settles.
type RunResult struct {
	Answer    string
	Reasoning string
}

// RunOptions carries a single run's inputs. Model overrides the client
// default when set; Snapshot is an optional PNG preview of the page that
// is attached to the user message for vision-capable models.
type RunOptions struct {
	Prompt       string
	SystemPrompt string
	Model        string
	Snapshot     []byte
}

const defaultSystemPrompt = `You are a layout assistant for a visual page editor.
The page holds blocks (text or image) positioned in page pixels.
Use the tools to make the changes the user asks for, then reply with a short summary of what you did.`

// Run sends the prompt plus the session layout to the model and executes
// tool calls against the session until the model stops asking for them.
// A cancelled context aborts the run; whatever the model sends after that
// is never read.
func (c *Client) Run(ctx context.Context, session *LayoutSession, opts RunOptions) (*RunResult, error) {
	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	model := opts.Model
	if model == "" {
		model = c.model
	}

	layoutJSON, err := json.Marshal(session.Layout())
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}

	userText := fmt.Sprintf("Current layout:\n%s\n\nRequest: %s", layoutJSON, opts.Prompt)
	var userContent any = userText
	if len(opts.Snapshot) > 0 {
		userContent = []map[string]any{
			{"type": "text", "text": userText},
			{"type": "image_url", "image_url": map[string]string{
				"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(opts.Snapshot),
			}},
		}
	}

	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userContent},
	}

	for turn := 0; turn < maxTurns; turn++ {
		reply, err := c.complete(ctx, model, messages)
		if err != nil {
			return nil, err
		}

		if len(reply.ToolCalls) == 0 {
			answer, _ := reply.Content.(string)
			return &RunResult{Answer: answer, Reasoning: reply.Reasoning}, nil
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			result, err := session.ExecuteTool(call.Function.Name, []byte(call.Function.Arguments))
			if err != nil {
				c.logger.Warn("tool call failed", "tool", call.Function.Name, "err", err)
				result = "error: " + err.Error()
			}
			messages = append(messages, chatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	return nil, fmt.Errorf("agent did not settle within %d turns", maxTurns)
}

// ── OpenAI-compatible wire types ─────────────────────────────

type chatMessage struct {
	Role       string     `json:"role"`
	Content    any        `json:"content"`
	Reasoning  string     `json:"reasoning,omitempty"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []toolSpec    `json:"tools"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func (c *Client) complete(ctx context.Context, model string, messages []chatMessage) (*chatMessage, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: messages,
		Tools:    toolSpecs(),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("chat api: %s", parsed.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("chat api: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat api: empty response")
	}
	return &parsed.Choices[0].Message, nil
}

func toolSpecs() []toolSpec {
	intProp := func(desc string) map[string]any {
		return map[string]any{"type": "integer", "description": desc}
	}
	strProp := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}

	blockProps := map[string]any{
		"content":         strProp("text body or image caption"),
		"imageUrl":        strProp("asset url for image blocks"),
		"left":            intProp("x position in page pixels"),
		"top":             intProp("y position in page pixels"),
		"width":           intProp("width in page pixels, minimum 40"),
		"height":          intProp("height in page pixels, minimum 40"),
		"backgroundColor": strProp("hex fill color"),
		"textColor":       strProp("hex text color"),
		"borderRadius":    intProp("corner radius, 0 to 120"),
	}

	createProps := map[string]any{
		"type": map[string]any{"type": "string", "enum": []string{"text", "image"}},
	}
	for k, v := range blockProps {
		createProps[k] = v
	}

	updateProps := map[string]any{
		"block_id": strProp("id of the block to change"),
	}
	for k, v := range blockProps {
		updateProps[k] = v
	}

	return []toolSpec{
		{Type: "function", Function: toolFunction{
			Name:        ToolCreateBlock,
			Description: "Add a new block to the page.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": createProps,
			},
		}},
		{Type: "function", Function: toolFunction{
			Name:        ToolUpdateBlock,
			Description: "Change fields of an existing block.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": updateProps,
				"required":   []string{"block_id"},
			},
		}},
		{Type: "function", Function: toolFunction{
			Name:        ToolDeleteBlock,
			Description: "Remove a block from the page.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"block_id": strProp("id of the block to remove"),
				},
				"required": []string{"block_id"},
			},
		}},
		{Type: "function", Function: toolFunction{
			Name:        ToolUpdateLayout,
			Description: "Change page format, orientation, or grid settings.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"format":      map[string]any{"type": "string", "enum": []string{"A4", "A5", "Letter", "Legal", "Tabloid"}},
					"orientation": map[string]any{"type": "string", "enum": []string{"portrait", "landscape"}},
					"columns":     intProp("column count, 1 to 12"),
					"baseline":    intProp("baseline grid in pixels, 4 to 64"),
					"gutter":      intProp("gutter in pixels, 0 to 256"),
					"snap":        map[string]any{"type": "boolean"},
				},
			},
		}},
	}
}
