package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/medportal/medportal/server/logger"
	"github.com/medportal/medportal/shared"
	openai "github.com/sashabaranov/go-openai"
)

const DEFAULT_MODEL = openai.GPT4o

// systemInstruction frames every conversation before the user's history
const systemInstruction = `You are an advanced medical AI assistant specializing in general healthcare and diagnostics.

Your capabilities include:
- Providing preventative health advice tailored to the user's profile
- Generating structured medical reports based on conversations

When generating diagnosis reports:
- Structure them with clear sections (Summary, Observations, Recommendations)
- Include a disclaimer about seeking professional medical advice
- Base insights on the information provided in the conversation

Important notes:
- Always emphasize the importance of consulting healthcare professionals
- Maintain patient privacy and confidentiality
- Use clear, accessible language while maintaining medical accuracy
- Never claim to provide definitive diagnoses`

var logg = logger.NewLogger()

// Message is one entry of a chat history. Image, when set, is a base64
// encoded jpeg attached to the message.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
	Image   string `json:"image,omitempty"`
}

type Client struct {
	client   *openai.Client
	model    string
	testMode bool
}

func NewClient(config shared.OpenAIConfig, testMode bool) *Client {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = DEFAULT_MODEL
	}

	return &Client{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		testMode: testMode,
	}
}

// SendMessage forwards the history, prefixed with the system instruction, and
// returns the assistant's reply. A single attempt, no retries.
func (c *Client) SendMessage(ctx context.Context, history []Message) (string, error) {
	if c.testMode {
		return "This is a canned assistant reply.", nil
	}

	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemInstruction,
	}}

	for _, msg := range history {
		messages = append(messages, toChatCompletionMessage(msg))
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   4096,
		TopP:        1,
	})
	if err != nil {
		logg.Errorf("assistant: %v", err)
		return "", fmt.Errorf("failed to communicate with the AI service")
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("failed to communicate with the AI service")
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateReport asks for a one-paragraph health summary based on the
// profile fields and the names of the user's medical files
func (c *Client) GenerateReport(ctx context.Context, name, dob, bloodGroup, allergies, vaccinations string, fileNames []string) (string, error) {
	prompt := fmt.Sprintf(
		"Based on my medical details (Name: %v, DOB: %v, Blood Type: %v, Allergies: %v, Vaccinations: %v, Medical files: %v), "+
			"please generate a brief medical summary in a single paragraph highlighting key health aspects, "+
			"potential concerns based on available information, and general health recommendations.",
		name, dob, orNone(bloodGroup), orNone(allergies), orNone(vaccinations), orNone(strings.Join(fileNames, ", ")))

	return c.SendMessage(ctx, []Message{{Role: openai.ChatMessageRoleUser, Content: prompt}})
}

func toChatCompletionMessage(msg Message) openai.ChatCompletionMessage {
	if msg.Image == "" {
		return openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	return openai.ChatCompletionMessage{
		Role: msg.Role,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: msg.Content},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:image/jpeg;base64,%v", msg.Image),
				},
			},
		},
	}
}

func orNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "None"
	}
	return value
}
