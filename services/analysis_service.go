package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kissthedata/floweat/models"

	"github.com/google/uuid"
)

// Phase is the orchestrator state. Transitions only happen on the resolution
// of the single outstanding gateway call or on a local user edit.
type Phase string

const (
	PhaseDetecting  Phase = "detecting"
	PhaseConfirming Phase = "confirming"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseDone       Phase = "done"
	PhaseError      Phase = "error"
)

var (
	ErrSessionNotFound = errors.New("analysis session not found")
	ErrWrongPhase      = errors.New("action not allowed in current phase")
	ErrBusy            = errors.New("another request is in flight for this session")
	ErrLastFood        = errors.New("at least one food must remain")
	ErrEmptyName       = errors.New("food name must not be empty")
	ErrInvalidIndex    = errors.New("food index out of range")
	ErrAlreadySaved    = errors.New("result already saved")
)

// MealAnalysis is the full pass-2 result combined with the image ref and a
// creation timestamp. Totals are summed here once and stored verbatim.
type MealAnalysis struct {
	ImageURL          string         `json:"image_url"`
	Foods             []AnalyzedFood `json:"foods"`
	TotalNutrition    Nutrition      `json:"total_nutrition"`
	Goal              models.EatingGoal `json:"goal"`
	GoalLabel         string         `json:"goal_label"`
	EatingOrder       EatingOrder    `json:"eating_order"`
	NutritionAnalysis string         `json:"nutrition_analysis,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
}

// AnalysisSession is the in-memory working state of one user interaction.
// It is never persisted; it ends when the result is saved or abandoned.
type AnalysisSession struct {
	ID       string
	UserID   uint
	Goal     models.EatingGoal
	ImageURL string

	mu       sync.Mutex
	phase    Phase
	inFlight bool
	foods    []FoodCandidate
	result   *MealAnalysis
	saved    bool
	errMsg   string
}

// SessionView is the session snapshot handed to controllers.
type SessionView struct {
	ID       string            `json:"id"`
	Phase    Phase             `json:"phase"`
	Goal     models.EatingGoal `json:"goal"`
	ImageURL string            `json:"image_url"`
	Foods    []FoodCandidate   `json:"foods"`
	Result   *MealAnalysis     `json:"result,omitempty"`
	Saved    bool              `json:"saved"`
	Error    string            `json:"error,omitempty"`
}

func (sess *AnalysisSession) view() *SessionView {
	foods := make([]FoodCandidate, len(sess.foods))
	copy(foods, sess.foods)
	return &SessionView{
		ID:       sess.ID,
		Phase:    sess.phase,
		Goal:     sess.Goal,
		ImageURL: sess.ImageURL,
		Foods:    foods,
		Result:   sess.result,
		Saved:    sess.saved,
		Error:    sess.errMsg,
	}
}

// AnalysisService drives the two-phase pipeline: detect foods, let the user
// correct them, analyze nutrition and order, persist once.
type AnalysisService struct {
	detector FoodDetector
	analyzer MealAnalyzer
	diary    *DiaryService
	cache    *CalendarCacheService
	hub      *RealtimeHub

	mu       sync.RWMutex
	sessions map[string]*AnalysisSession
	now      func() time.Time
}

func NewAnalysisService(detector FoodDetector, analyzer MealAnalyzer, diary *DiaryService, cache *CalendarCacheService, hub *RealtimeHub) *AnalysisService {
	return &AnalysisService{
		detector: detector,
		analyzer: analyzer,
		diary:    diary,
		cache:    cache,
		hub:      hub,
		sessions: make(map[string]*AnalysisSession),
		now:      time.Now,
	}
}

// StartSession runs the detection pass. Success seeds the editable candidate
// list and lands in confirming; failure lands in the terminal error phase
// with no automatic retry. imageURL is the ref stored on the saved record;
// imagePayload is what the detector sees (a data URI when the client
// uploaded raw bytes) and falls back to imageURL.
func (s *AnalysisService) StartSession(userID uint, goal models.EatingGoal, imageURL, imagePayload string) (*SessionView, error) {
	if !goal.Valid() {
		return nil, fmt.Errorf("invalid eating goal %q", goal)
	}
	if imageURL == "" {
		return nil, fmt.Errorf("image is required")
	}
	if imagePayload == "" {
		imagePayload = imageURL
	}

	sess := &AnalysisSession{
		ID:       uuid.NewString(),
		UserID:   userID,
		Goal:     goal,
		ImageURL: imageURL,
		phase:    PhaseDetecting,
		inFlight: true,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	foods, err := s.detector.DetectFoods(imagePayload)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.inFlight = false
	if err != nil {
		sess.phase = PhaseError
		sess.errMsg = "food detection failed"
		return sess.view(), nil
	}
	sess.foods = foods
	sess.phase = PhaseConfirming
	return sess.view(), nil
}

func (s *AnalysisService) session(userID uint, id string) (*AnalysisSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *AnalysisService) Session(userID uint, id string) (*SessionView, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// AddFood appends a candidate with the default category. Local edit, no
// network.
func (s *AnalysisService) AddFood(userID uint, id, name string, category models.FoodCategory) (*SessionView, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.phase != PhaseConfirming {
		return nil, ErrWrongPhase
	}
	sess.foods = append(sess.foods, FoodCandidate{
		Name:     name,
		Category: models.NormalizeCategory(category),
	})
	return sess.view(), nil
}

func (s *AnalysisService) RenameFood(userID uint, id string, index int, name string) (*SessionView, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.phase != PhaseConfirming {
		return nil, ErrWrongPhase
	}
	if index < 0 || index >= len(sess.foods) {
		return nil, ErrInvalidIndex
	}
	sess.foods[index].Name = name
	return sess.view(), nil
}

// DeleteFood refuses to empty the list: at least one food must remain.
func (s *AnalysisService) DeleteFood(userID uint, id string, index int) (*SessionView, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.phase != PhaseConfirming {
		return nil, ErrWrongPhase
	}
	if index < 0 || index >= len(sess.foods) {
		return nil, ErrInvalidIndex
	}
	if len(sess.foods) <= 1 {
		return nil, ErrLastFood
	}
	sess.foods = append(sess.foods[:index], sess.foods[index+1:]...)
	return sess.view(), nil
}

// Confirm runs the analysis pass over the edited list. Failure drops back to
// confirming so the user can retry without re-detecting.
func (s *AnalysisService) Confirm(userID uint, id string) (*SessionView, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.phase != PhaseConfirming {
		sess.mu.Unlock()
		return nil, ErrWrongPhase
	}
	if sess.inFlight {
		sess.mu.Unlock()
		return nil, ErrBusy
	}
	sess.inFlight = true
	sess.phase = PhaseAnalyzing
	foods := make([]FoodCandidate, len(sess.foods))
	copy(foods, sess.foods)
	sess.mu.Unlock()

	resp, err := s.analyzer.AnalyzeFoods(foods, sess.Goal)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.inFlight = false
	if err != nil {
		sess.phase = PhaseConfirming
		return nil, fmt.Errorf("nutrition analysis failed: %w", err)
	}

	var total Nutrition
	for _, f := range resp.Foods {
		total.Carbs += f.Nutrition.Carbs
		total.Protein += f.Nutrition.Protein
		total.Fat += f.Nutrition.Fat
	}
	sess.result = &MealAnalysis{
		ImageURL:          sess.ImageURL,
		Foods:             resp.Foods,
		TotalNutrition:    total,
		Goal:              sess.Goal,
		GoalLabel:         sess.Goal.Label(),
		EatingOrder:       resp.EatingOrder,
		NutritionAnalysis: resp.NutritionAnalysis,
		Timestamp:         s.now(),
	}
	sess.phase = PhaseDone
	return sess.view(), nil
}

// Save persists the result exactly once. A second save while one is in
// flight is rejected, not queued; a save after success is rejected too.
// On failure the result stays intact so the save can be retried.
func (s *AnalysisService) Save(userID uint, id string, slot models.MealSlot, loc *time.Location) (*models.MealRecord, error) {
	sess, err := s.session(userID, id)
	if err != nil {
		return nil, err
	}
	if !slot.Valid() {
		return nil, fmt.Errorf("invalid meal slot %q", slot)
	}

	sess.mu.Lock()
	if sess.phase != PhaseDone {
		sess.mu.Unlock()
		return nil, ErrWrongPhase
	}
	if sess.saved {
		sess.mu.Unlock()
		return nil, ErrAlreadySaved
	}
	if sess.inFlight {
		sess.mu.Unlock()
		return nil, ErrBusy
	}
	sess.inFlight = true
	result := sess.result
	sess.mu.Unlock()

	record, foods, steps := buildDiaryRows(userID, slot, result)
	saved, err := s.diary.Save(record, foods, steps)

	sess.mu.Lock()
	sess.inFlight = false
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	sess.saved = true
	sess.mu.Unlock()

	// Invalidate the owning month in the user's local calendar, then tell
	// other tabs to refetch.
	lt := result.Timestamp.In(loc)
	_ = s.cache.Invalidate(userID, lt.Year(), lt.Month())
	if s.hub != nil {
		s.hub.Broadcast(userID, map[string]any{
			"kind":  "diary.saved",
			"id":    saved.ID,
			"year":  lt.Year(),
			"month": int(lt.Month()),
		})
	}
	return saved, nil
}

// Abandon discards the session.
func (s *AnalysisService) Abandon(userID uint, id string) error {
	if _, err := s.session(userID, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// buildDiaryRows maps an analysis result to store rows. Step order values
// come from the gateway verbatim, totals were already summed at analysis
// time.
func buildDiaryRows(userID uint, slot models.MealSlot, result *MealAnalysis) (*models.MealRecord, []models.FoodEntry, []models.EatingStep) {
	record := &models.MealRecord{
		UserID:            userID,
		Slot:              slot,
		ImageURL:          result.ImageURL,
		TotalCarbs:        result.TotalNutrition.Carbs,
		TotalProtein:      result.TotalNutrition.Protein,
		TotalFat:          result.TotalNutrition.Fat,
		Goal:              result.Goal,
		GoalLabel:         result.GoalLabel,
		Reason:            result.EatingOrder.Reason,
		NutritionAnalysis: result.NutritionAnalysis,
	}
	record.CreatedAt = result.Timestamp

	foods := make([]models.FoodEntry, 0, len(result.Foods))
	for _, f := range result.Foods {
		entry := models.FoodEntry{
			Name:     f.Name,
			Category: f.Category,
			Benefits: f.NutritionBenefits,
			Carbs:    f.Nutrition.Carbs,
			Protein:  f.Nutrition.Protein,
			Fat:      f.Nutrition.Fat,
		}
		if f.Warnings != nil {
			if b, err := json.Marshal(f.Warnings); err == nil {
				entry.Warnings = b
			}
		}
		foods = append(foods, entry)
	}

	steps := make([]models.EatingStep, 0, len(result.EatingOrder.Steps))
	for _, st := range result.EatingOrder.Steps {
		steps = append(steps, models.EatingStep{
			OrderNum:    st.Order,
			FoodName:    st.FoodName,
			Description: st.Description,
		})
	}
	return record, foods, steps
}
