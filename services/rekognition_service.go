package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kissthedata/floweat/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionService is the alternate pass-1 detector, selected with
// DETECTION_PROVIDER=rekognition. Label detection only; pass 2 always goes
// through the LLM gateway.
type RekognitionService struct {
	client *rekognition.Client
}

func NewRekognitionService() (*RekognitionService, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, err
	}
	return &RekognitionService{client: rekognition.NewFromConfig(cfg)}, nil
}

var foodLabelCategories = map[string]models.FoodCategory{
	"rice": models.CategoryCarbohydrate, "bread": models.CategoryCarbohydrate,
	"noodle": models.CategoryCarbohydrate, "pasta": models.CategoryCarbohydrate,
	"vegetable": models.CategoryVegetable, "salad": models.CategoryVegetable,
	"broccoli": models.CategoryVegetable, "kimchi": models.CategoryVegetable,
	"meat": models.CategoryProtein, "chicken": models.CategoryProtein,
	"fish": models.CategoryProtein, "egg": models.CategoryProtein,
	"beef": models.CategoryProtein, "pork": models.CategoryProtein,
	"tofu": models.CategoryProtein,
	"cheese": models.CategoryFat, "butter": models.CategoryFat,
	"dessert": models.CategorySugar, "cake": models.CategorySugar,
	"candy": models.CategorySugar, "chocolate": models.CategorySugar,
}

// DetectFoods returns food candidates from Rekognition labels.
func (r *RekognitionService) DetectFoods(imageDataURL string) ([]FoodCandidate, error) {
	payload := imageDataURL
	if idx := strings.Index(payload, "base64,"); idx >= 0 {
		payload = payload[idx+len("base64,"):]
	} else if strings.HasPrefix(payload, "data:") {
		return nil, errors.New("invalid data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}

	out, err := r.client.DetectLabels(context.TODO(), &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: data},
		MaxLabels:     aws.Int32(10),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, err
	}

	var foods []FoodCandidate
	seen := map[string]bool{}
	for _, l := range out.Labels {
		if l.Name == nil {
			continue
		}
		name := strings.ToLower(*l.Name)
		cat, ok := foodLabelCategories[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		foods = append(foods, FoodCandidate{Name: name, Category: cat})
	}
	if len(foods) == 0 {
		return nil, fmt.Errorf("no foods detected")
	}
	return foods, nil
}
