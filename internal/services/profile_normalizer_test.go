package services

import (
	"math"
	"testing"
	"time"

	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/datatypes"
)

func floatPtr(value float64) *float64 {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func TestNormalizeRelationalValuesWin(t *testing.T) {
	normalizer := NewProfileNormalizer(nil)
	row := models.Profile{
		UserID:           7,
		FullName:         "Carla Dias",
		HeightCm:         floatPtr(170),
		WeightKg:         floatPtr(65),
		HealthConditions: "asthma",
		OnboardingData:   datatypes.JSON(`{"nome":"Outro Nome","peso":90,"condicoesSaude":"diabetes","telefone":"+55 11 99999-0000"}`),
	}

	profile := normalizer.Normalize(row, models.User{ID: 7, Email: "carla@example.com", OnboardingCompleted: true})

	if profile.FullName != "Carla Dias" {
		t.Fatalf("expected relational full name, got %q", profile.FullName)
	}
	if profile.WeightKg == nil || *profile.WeightKg != 65 {
		t.Fatalf("expected relational weight 65, got %v", profile.WeightKg)
	}
	if profile.HealthConditionsText != "asthma" {
		t.Fatalf("expected relational conditions, got %q", profile.HealthConditionsText)
	}
	if profile.Phone != "+55 11 99999-0000" {
		t.Fatalf("expected onboarding phone fallback, got %q", profile.Phone)
	}
	if !profile.OnboardingCompleted || profile.Email != "carla@example.com" {
		t.Fatalf("expected user fields copied, got %#v", profile)
	}
}

func TestNormalizeOnboardingFallbackKeepsArrayAndText(t *testing.T) {
	normalizer := NewProfileNormalizer(nil)
	row := models.Profile{
		OnboardingData: datatypes.JSON(`{"supplementsText":"creatina, ômega 3","allergies":["glúten","Glúten"]}`),
	}

	profile := normalizer.Normalize(row, models.User{ID: 1})

	assertTags(t, "supplements", profile.Supplements, []string{"creatina", "ômega 3"})
	if profile.SupplementsText != "creatina, ômega 3" {
		t.Fatalf("expected joined supplements text, got %q", profile.SupplementsText)
	}
	assertTags(t, "allergies", profile.Allergies, []string{"glúten"})
	if profile.AllergiesText != "glúten" {
		t.Fatalf("expected allergies text glúten, got %q", profile.AllergiesText)
	}
	if profile.Medications == nil || len(profile.Medications) != 0 || profile.MedicationsText != "" {
		t.Fatalf("expected empty medications, got %#v %q", profile.Medications, profile.MedicationsText)
	}
}

func TestNormalizeDerivesBMI(t *testing.T) {
	normalizer := NewProfileNormalizer(nil)
	row := models.Profile{
		OnboardingData: datatypes.JSON(`{"altura":"1,80","peso":"81"}`),
	}

	profile := normalizer.Normalize(row, models.User{ID: 1})
	if profile.HeightCm == nil || *profile.HeightCm != 180 {
		t.Fatalf("expected height 180, got %v", profile.HeightCm)
	}
	if profile.BMI == nil || *profile.BMI != 25 {
		t.Fatalf("expected bmi 25, got %v", profile.BMI)
	}
	if profile.BMICategory != "overweight" {
		t.Fatalf("expected overweight category, got %q", profile.BMICategory)
	}
}

func TestNormalizeBMIProperty(t *testing.T) {
	normalizer := NewProfileNormalizer(nil)
	for height := 140.0; height <= 210; height += 7 {
		for weight := 40.0; weight <= 160; weight += 9.5 {
			profile := normalizer.Normalize(models.Profile{HeightCm: floatPtr(height), WeightKg: floatPtr(weight)}, models.User{})
			if profile.BMI == nil {
				t.Fatalf("expected bmi for h=%v w=%v", height, weight)
			}
			meters := height / 100
			want := math.Round(weight/(meters*meters)*10) / 10
			if math.Abs(*profile.BMI-want) > 1e-9 {
				t.Fatalf("bmi(h=%v, w=%v) = %v, want %v", height, weight, *profile.BMI, want)
			}
		}
	}
}

func TestNormalizeKeepsStoredBMIWithoutMeasures(t *testing.T) {
	normalizer := NewProfileNormalizer(nil)
	profile := normalizer.Normalize(models.Profile{BMI: floatPtr(31.2), HeightCm: floatPtr(0)}, models.User{})
	if profile.BMI == nil || *profile.BMI != 31.2 {
		t.Fatalf("expected stored bmi 31.2, got %v", profile.BMI)
	}
	if profile.HeightCm != nil {
		t.Fatalf("expected zero height treated as absent, got %v", *profile.HeightCm)
	}
}

func TestNormalizeSurvivesMalformedOnboardingData(t *testing.T) {
	normalizer := NewProfileNormalizer(nil)
	row := models.Profile{
		FullName:       "Rui",
		Age:            intPtr(40),
		OnboardingData: datatypes.JSON(`{not json`),
	}

	profile := normalizer.Normalize(row, models.User{ID: 3})
	if profile.FullName != "Rui" || profile.Age == nil || *profile.Age != 40 {
		t.Fatalf("expected relational fields despite malformed onboarding, got %#v", profile)
	}
}

func TestAvatarURLForRender(t *testing.T) {
	now := time.UnixMilli(1767225600123)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "  ", want: ""},
		{name: "plain", raw: "https://cdn.example.com/avatars/1.jpg", want: "https://cdn.example.com/avatars/1.jpg?v=1767225600123"},
		{name: "existing query", raw: "https://cdn.example.com/a.png?size=256", want: "https://cdn.example.com/a.png?size=256&v=1767225600123"},
		{name: "replaces stale stamp", raw: "/uploads/a.png?v=1", want: "/uploads/a.png?v=1767225600123"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			if got := AvatarURLForRender(testCase.raw, now); got != testCase.want {
				t.Fatalf("AvatarURLForRender(%q) = %q, want %q", testCase.raw, got, testCase.want)
			}
		})
	}
}
