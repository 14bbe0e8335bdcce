package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kissthedata/floweat/models"
)

// FoodCandidate is a detected or user-added food before persistence.
type FoodCandidate struct {
	Name     string              `json:"name"`
	Category models.FoodCategory `json:"category"`
}

// Nutrition carries macro grams for one food or a whole meal.
type Nutrition struct {
	Carbs   float64 `json:"carbs"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
}

// AnalyzedFood is one food after the second analysis pass.
type AnalyzedFood struct {
	Name              string               `json:"name"`
	Category          models.FoodCategory  `json:"category"`
	NutritionBenefits string               `json:"nutritionBenefits,omitempty"`
	Nutrition         Nutrition            `json:"nutrition"`
	Warnings          *models.FoodWarnings `json:"warnings,omitempty"`
}

// OrderStep is one step of the recommended serving sequence as returned by
// the gateway. Order is taken verbatim, never re-sorted or renumbered here.
type OrderStep struct {
	Order       int    `json:"order"`
	FoodName    string `json:"foodName"`
	Description string `json:"description"`
}

type EatingOrder struct {
	Steps       []OrderStep `json:"steps"`
	Reason      string      `json:"reason"`
	EatingGuide string      `json:"eatingGuide,omitempty"`
}

// AnalysisResponse is the validated pass-2 payload.
type AnalysisResponse struct {
	Foods             []AnalyzedFood `json:"foods"`
	EatingOrder       EatingOrder    `json:"eatingOrder"`
	NutritionAnalysis string         `json:"nutritionAnalysis,omitempty"`
}

// FoodDetector is the pass-1 contract; satisfied by the LLM gateway and by
// the Rekognition fallback.
type FoodDetector interface {
	DetectFoods(imageDataURL string) ([]FoodCandidate, error)
}

// MealAnalyzer is the pass-2 contract.
type MealAnalyzer interface {
	AnalyzeFoods(foods []FoodCandidate, goal models.EatingGoal) (*AnalysisResponse, error)
}

// InferenceService talks to an OpenAI-compatible chat-completions endpoint.
// Responses are treated as untrusted: empty bodies, non-JSON bodies and
// shape mismatches are all hard failures, never partially accepted.
type InferenceService struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

func NewInferenceService() *InferenceService {
	base := os.Getenv("INFERENCE_BASE_URL")
	if base == "" {
		base = "https://api.openai.com"
	}
	model := os.Getenv("INFERENCE_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &InferenceService{
		BaseURL: base,
		APIKey:  os.Getenv("INFERENCE_API_KEY"),
		Model:   model,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

const detectPrompt = `You are a nutrition expert. List every distinct food visible in this meal photo.
Respond with JSON only, in the form:
{"foods":[{"name":"...","category":"vegetable|protein|fat|carbohydrate|sugar"}]}`

const analyzePromptFmt = `You are a nutrition expert. For the foods %s and the eating goal %q (%s),
respond with JSON only, in the form:
{"foods":[{"name":"...","category":"vegetable|protein|fat|carbohydrate|sugar","nutritionBenefits":"...","nutrition":{"carbs":0,"protein":0,"fat":0},"warnings":{"timing":"...","overconsumption":"...","general":"..."}}],
"eatingOrder":{"steps":[{"order":1,"foodName":"...","description":"..."}],"reason":"...","eatingGuide":"..."},
"nutritionAnalysis":"..."}
Steps must cover the best order to eat the foods for that goal, order starting at 1 with no gaps.`

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// DetectFoods runs the first pass: image in, raw food candidates out.
func (s *InferenceService) DetectFoods(imageDataURL string) ([]FoodCandidate, error) {
	if imageDataURL == "" {
		return nil, fmt.Errorf("empty image")
	}
	if !strings.HasPrefix(imageDataURL, "data:") {
		imageDataURL = "data:image/jpeg;base64," + imageDataURL
	}

	content := []map[string]any{
		{"type": "text", "text": detectPrompt},
		{"type": "image_url", "image_url": map[string]string{"url": imageDataURL}},
	}
	raw, err := s.complete(chatRequest{
		Model:     s.Model,
		Messages:  []chatMessage{{Role: "user", Content: content}},
		MaxTokens: 500,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Foods []FoodCandidate `json:"foods"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("malformed detection payload: %w", err)
	}
	if len(out.Foods) == 0 {
		return nil, fmt.Errorf("detection payload missing foods")
	}
	for i := range out.Foods {
		out.Foods[i].Category = models.NormalizeCategory(out.Foods[i].Category)
	}
	return out.Foods, nil
}

// AnalyzeFoods runs the second pass over the (possibly user-edited) list.
func (s *InferenceService) AnalyzeFoods(foods []FoodCandidate, goal models.EatingGoal) (*AnalysisResponse, error) {
	if len(foods) == 0 {
		return nil, fmt.Errorf("no foods to analyze")
	}
	names, _ := json.Marshal(foods)
	prompt := fmt.Sprintf(analyzePromptFmt, string(names), string(goal), goal.Label())

	raw, err := s.complete(chatRequest{
		Model:     s.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: 1500,
	})
	if err != nil {
		return nil, err
	}

	var out AnalysisResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("malformed analysis payload: %w", err)
	}
	if len(out.Foods) == 0 {
		return nil, fmt.Errorf("analysis payload missing foods")
	}
	if len(out.EatingOrder.Steps) == 0 {
		return nil, fmt.Errorf("analysis payload missing eatingOrder.steps")
	}
	for i := range out.Foods {
		out.Foods[i].Category = models.NormalizeCategory(out.Foods[i].Category)
	}
	return &out, nil
}

// complete posts one chat request and returns the model's JSON content.
func (s *InferenceService) complete(reqBody chatRequest) ([]byte, error) {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inference payload: %w", err)
	}

	req, err := http.NewRequest("POST", s.BaseURL+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to create inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call inference API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read inference response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference API error %d: %s", resp.StatusCode, string(body))
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("failed to parse inference JSON: %w", err)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("empty inference response")
	}
	return []byte(stripCodeFence(cr.Choices[0].Message.Content)), nil
}

// stripCodeFence unwraps ```json fenced blocks some models insist on.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
