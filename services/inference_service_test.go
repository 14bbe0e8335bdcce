package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kissthedata/floweat/models"
)

func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newGatewayClient(ts *httptest.Server) *InferenceService {
	return &InferenceService{
		BaseURL: ts.URL,
		APIKey:  "test",
		Model:   "test-model",
		Client:  ts.Client(),
	}
}

func TestDetectFoodsParsesResponse(t *testing.T) {
	ts := newChatServer(t, `{"foods":[{"name":"rice","category":"carbohydrate"},{"name":"kimchi","category":"vegetable"}]}`)
	defer ts.Close()

	foods, err := newGatewayClient(ts).DetectFoods("data:image/jpeg;base64,Zm9v")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(foods) != 2 {
		t.Fatalf("expected 2 foods, got %d", len(foods))
	}
	if foods[0].Name != "rice" || foods[0].Category != models.CategoryCarbohydrate {
		t.Fatalf("unexpected first food: %+v", foods[0])
	}
}

func TestDetectFoodsCoercesUnknownCategory(t *testing.T) {
	ts := newChatServer(t, `{"foods":[{"name":"mystery stew","category":"umami"}]}`)
	defer ts.Close()

	foods, err := newGatewayClient(ts).DetectFoods("data:image/jpeg;base64,Zm9v")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if foods[0].Category != models.CategoryCarbohydrate {
		t.Fatalf("expected default category, got %v", foods[0].Category)
	}
}

func TestDetectFoodsRejectsMissingFoods(t *testing.T) {
	ts := newChatServer(t, `{"somethingElse": true}`)
	defer ts.Close()

	if _, err := newGatewayClient(ts).DetectFoods("data:image/jpeg;base64,Zm9v"); err == nil {
		t.Fatal("expected missing foods array to be a hard failure")
	}
}

func TestDetectFoodsRejectsNonJSONContent(t *testing.T) {
	ts := newChatServer(t, `I could not find any food in this image.`)
	defer ts.Close()

	if _, err := newGatewayClient(ts).DetectFoods("data:image/jpeg;base64,Zm9v"); err == nil {
		t.Fatal("expected non-JSON payload to be rejected")
	}
}

func TestDetectFoodsRejectsEmptyImage(t *testing.T) {
	ts := newChatServer(t, `{"foods":[{"name":"rice","category":"carbohydrate"}]}`)
	defer ts.Close()

	if _, err := newGatewayClient(ts).DetectFoods(""); err == nil {
		t.Fatal("expected empty image to be rejected")
	}
}

func TestCompleteSurfacesServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	if _, err := newGatewayClient(ts).DetectFoods("data:image/jpeg;base64,Zm9v"); err == nil {
		t.Fatal("expected non-2xx to fail")
	}
}

func TestCompleteRejectsEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if _, err := newGatewayClient(ts).DetectFoods("data:image/jpeg;base64,Zm9v"); err == nil {
		t.Fatal("expected empty body to fail")
	}
}

const analysisContent = `{
  "foods": [
	{"name":"rice","category":"carbohydrate","nutritionBenefits":"quick energy","nutrition":{"carbs":68,"protein":6,"fat":1}},
	{"name":"kimchi","category":"vegetable","nutrition":{"carbs":8,"protein":2,"fat":0},
	 "warnings":{"overconsumption":"high in sodium"}}
  ],
  "eatingOrder": {
	"steps": [
	  {"order":1,"foodName":"kimchi","description":"fiber first"},
	  {"order":2,"foodName":"rice","description":"carbs last"}
	],
	"reason": "fiber before carbs slows glucose absorption"
  },
  "nutritionAnalysis": "a balanced, sodium-heavy meal"
}`

func TestAnalyzeFoodsParsesResponse(t *testing.T) {
	ts := newChatServer(t, analysisContent)
	defer ts.Close()

	foods := []FoodCandidate{
		{Name: "rice", Category: models.CategoryCarbohydrate},
		{Name: "kimchi", Category: models.CategoryVegetable},
	}
	resp, err := newGatewayClient(ts).AnalyzeFoods(foods, models.GoalSatiety)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(resp.Foods) != 2 {
		t.Fatalf("expected 2 foods, got %d", len(resp.Foods))
	}
	if resp.Foods[1].Warnings == nil || resp.Foods[1].Warnings.Overconsumption == "" {
		t.Fatal("expected kimchi overconsumption warning")
	}
	if len(resp.EatingOrder.Steps) != 2 || resp.EatingOrder.Steps[0].Order != 1 {
		t.Fatalf("unexpected steps: %+v", resp.EatingOrder.Steps)
	}
	if resp.EatingOrder.Reason == "" || resp.NutritionAnalysis == "" {
		t.Fatal("expected reason and analysis text")
	}
}

func TestAnalyzeFoodsStripsCodeFence(t *testing.T) {
	ts := newChatServer(t, "```json\n"+analysisContent+"\n```")
	defer ts.Close()

	resp, err := newGatewayClient(ts).AnalyzeFoods(
		[]FoodCandidate{{Name: "rice", Category: models.CategoryCarbohydrate}},
		models.GoalEnergy,
	)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(resp.Foods) != 2 {
		t.Fatalf("expected fenced payload to parse, got %d foods", len(resp.Foods))
	}
}

func TestAnalyzeFoodsRejectsMissingSteps(t *testing.T) {
	ts := newChatServer(t, `{"foods":[{"name":"rice","category":"carbohydrate","nutrition":{"carbs":68,"protein":6,"fat":1}}],"eatingOrder":{"steps":[],"reason":"x"}}`)
	defer ts.Close()

	_, err := newGatewayClient(ts).AnalyzeFoods(
		[]FoodCandidate{{Name: "rice", Category: models.CategoryCarbohydrate}},
		models.GoalSatiety,
	)
	if err == nil {
		t.Fatal("expected missing eatingOrder.steps to be rejected")
	}
}

func TestAnalyzeFoodsRejectsEmptyList(t *testing.T) {
	ts := newChatServer(t, analysisContent)
	defer ts.Close()

	if _, err := newGatewayClient(ts).AnalyzeFoods(nil, models.GoalSatiety); err == nil {
		t.Fatal("expected empty food list to be rejected")
	}
}
