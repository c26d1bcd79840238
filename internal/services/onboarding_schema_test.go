package services

import (
	"errors"
	"reflect"
	"testing"
)

func TestMigrateOnboardingEmptyInputs(t *testing.T) {
	for _, raw := range []string{"", "   ", "null", `"null"`, `{}`} {
		migrated, errs := MigrateOnboarding([]byte(raw))
		if len(errs) != 0 {
			t.Fatalf("MigrateOnboarding(%q) errors = %v, want none", raw, errs)
		}
		if migrated.SchemaVersion != OnboardingSchemaVersion {
			t.Fatalf("expected schema version %d, got %d", OnboardingSchemaVersion, migrated.SchemaVersion)
		}
		if migrated.FullName != "" || migrated.HeightCm != nil || migrated.Allergies != nil {
			t.Fatalf("expected empty document for %q, got %#v", raw, migrated)
		}
	}
}

func TestMigrateOnboardingRejectsNonObject(t *testing.T) {
	_, errs := MigrateOnboarding([]byte(`[1,2,3]`))
	if len(errs) != 1 || !errors.Is(errs[0], ErrOnboardingNotObject) {
		t.Fatalf("expected ErrOnboardingNotObject, got %v", errs)
	}
}

func TestMigrateOnboardingUnwrapsDoubleEncodedDocument(t *testing.T) {
	raw := `"{\"nome\":\"Ana Souza\",\"peso\":\"72,5\"}"`

	migrated, errs := MigrateOnboarding([]byte(raw))
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if migrated.FullName != "Ana Souza" {
		t.Fatalf("expected full name Ana Souza, got %q", migrated.FullName)
	}
	if migrated.WeightKg == nil || *migrated.WeightKg != 72.5 {
		t.Fatalf("expected weight 72.5, got %v", migrated.WeightKg)
	}
}

func TestMigrateOnboardingLegacyKeyVariants(t *testing.T) {
	raw := `{
		"full_name": "  Maria  ",
		"objetivo": "perder peso",
		"idade": "34",
		"altura": 1.65,
		"weight": "80 kg",
		"cintura": 88,
		"healthConditions_text": "diabetes, hipertensão, Diabetes",
		"alergias": ["amendoim", " lactose ", ""],
		"dietaryRestrictions": {"vegetarian": true, "gluten": false, "lactose": true},
		"sintomas": "cansaço",
		"endereco": {"rua": "Rua das Flores", "cidade": "Campinas"},
		"cep": "13000-000"
	}`

	migrated, errs := MigrateOnboarding([]byte(raw))
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if migrated.FullName != "Maria" || migrated.PrimaryGoal != "perder peso" {
		t.Fatalf("unexpected text fields: %q %q", migrated.FullName, migrated.PrimaryGoal)
	}
	if migrated.Age == nil || *migrated.Age != 34 {
		t.Fatalf("expected age 34, got %v", migrated.Age)
	}
	if migrated.HeightCm == nil || *migrated.HeightCm != 165 {
		t.Fatalf("expected height converted to 165 cm, got %v", migrated.HeightCm)
	}
	if migrated.WeightKg == nil || *migrated.WeightKg != 80 {
		t.Fatalf("expected weight 80, got %v", migrated.WeightKg)
	}
	if migrated.WaistCm == nil || *migrated.WaistCm != 88 {
		t.Fatalf("expected waist 88, got %v", migrated.WaistCm)
	}

	assertTags(t, "healthConditions", migrated.HealthConditions, []string{"diabetes", "hipertensão"})
	assertTags(t, "allergies", migrated.Allergies, []string{"amendoim", "lactose"})
	assertTags(t, "dietaryRestrictions", migrated.DietaryRestrictions, []string{"lactose", "vegetarian"})
	assertTags(t, "frequentSymptoms", migrated.FrequentSymptoms, []string{"cansaço"})

	if migrated.Address.Street != "Rua das Flores" || migrated.Address.City != "Campinas" {
		t.Fatalf("unexpected address: %#v", migrated.Address)
	}
	if migrated.Address.PostalCode != "13000-000" {
		t.Fatalf("expected postal code 13000-000, got %q", migrated.Address.PostalCode)
	}
}

func TestMigrateOnboardingCurrentKeyWinsOverLegacy(t *testing.T) {
	raw := `{"healthConditions": ["asthma"], "healthConditionsText": "diabetes", "weightKg": 70, "peso": 90}`

	migrated, _ := MigrateOnboarding([]byte(raw))
	assertTags(t, "healthConditions", migrated.HealthConditions, []string{"asthma"})
	if migrated.WeightKg == nil || *migrated.WeightKg != 70 {
		t.Fatalf("expected weight 70 from weightKg, got %v", migrated.WeightKg)
	}
}

func TestMigrateOnboardingSkipsMalformedFields(t *testing.T) {
	raw := `{"weight": "heavy", "peso": 68, "height": {"value": 170}, "name": "Lia"}`

	migrated, errs := MigrateOnboarding([]byte(raw))
	if len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(errs), errs)
	}
	var fieldErr *OnboardingFieldError
	if !errors.As(errs[0], &fieldErr) || fieldErr.Field != "heightCm" && fieldErr.Field != "weightKg" {
		t.Fatalf("expected OnboardingFieldError for a measure, got %v", errs[0])
	}
	if migrated.WeightKg == nil || *migrated.WeightKg != 68 {
		t.Fatalf("expected fallback weight 68, got %v", migrated.WeightKg)
	}
	if migrated.HeightCm != nil {
		t.Fatalf("expected height to stay unset, got %v", *migrated.HeightCm)
	}
	if migrated.FullName != "Lia" {
		t.Fatalf("expected remaining fields to decode, got %q", migrated.FullName)
	}
}

func TestValidateOnboardingDocument(t *testing.T) {
	if err := ValidateOnboardingDocument([]byte(`{"goal":"x"}`)); err != nil {
		t.Fatalf("expected object to validate, got %v", err)
	}
	if err := ValidateOnboardingDocument([]byte(`"{\"goal\":\"x\"}"`)); err != nil {
		t.Fatalf("expected double-encoded object to validate, got %v", err)
	}
	if err := ValidateOnboardingDocument([]byte(`42`)); !errors.Is(err, ErrOnboardingNotObject) {
		t.Fatalf("expected ErrOnboardingNotObject, got %v", err)
	}
	if err := ValidateOnboardingDocument([]byte(`{broken`)); !errors.Is(err, ErrOnboardingNotObject) {
		t.Fatalf("expected ErrOnboardingNotObject for broken JSON, got %v", err)
	}
}

func assertTags(t *testing.T, field string, got []string, want []string) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s = %#v, want %#v", field, got, want)
	}
}
