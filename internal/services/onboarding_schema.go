package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// OnboardingSchemaVersion is the shape MigrateOnboarding upgrades to.
const OnboardingSchemaVersion = 2

var ErrOnboardingNotObject = errors.New("onboarding data is not a JSON object")

type OnboardingAddress struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// OnboardingV2 is the current questionnaire document.
type OnboardingV2 struct {
	SchemaVersion int `json:"schemaVersion"`

	FullName    string            `json:"fullName,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	PrimaryGoal string            `json:"primaryGoal,omitempty"`
	Address     OnboardingAddress `json:"address"`

	Age           *int     `json:"age,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	HeightCm      *float64 `json:"heightCm,omitempty"`
	WeightKg      *float64 `json:"weightKg,omitempty"`
	WaistCm       *float64 `json:"waistCm,omitempty"`
	BodyFatPct    *float64 `json:"bodyFatPct,omitempty"`
	MuscleMassPct *float64 `json:"muscleMassPct,omitempty"`
	BMI           *float64 `json:"bmi,omitempty"`

	HealthConditions     []string `json:"healthConditions,omitempty"`
	HealthConcerns       []string `json:"healthConcerns,omitempty"`
	DietaryRestrictions  []string `json:"dietaryRestrictions,omitempty"`
	Supplements          []string `json:"supplements,omitempty"`
	SupplementsFrequency string   `json:"supplementsFrequency,omitempty"`
	SecondaryGoals       []string `json:"secondaryGoals,omitempty"`
	Allergies            []string `json:"allergies,omitempty"`
	Medications          []string `json:"medications,omitempty"`
	FrequentSymptoms     []string `json:"frequentSymptoms,omitempty"`
}

// OnboardingFieldError describes one value that could not be decoded. The
// field is left unset and migration continues.
type OnboardingFieldError struct {
	Field string
	Key   string
	Err   error
}

func (err *OnboardingFieldError) Error() string {
	return fmt.Sprintf("onboarding field %s (key %q): %v", err.Field, err.Key, err.Err)
}

func (err *OnboardingFieldError) Unwrap() error {
	return err.Err
}

// Key variants per field, current name first. Older app versions wrote
// text fields with a Text or _text suffix and the first release used
// Portuguese keys.
var (
	fullNameKeys    = []string{"fullName", "full_name", "name", "nomeCompleto", "nome"}
	phoneKeys       = []string{"phone", "telefone", "celular", "whatsapp"}
	primaryGoalKeys = []string{"primaryGoal", "primary_goal", "goal", "objetivoPrincipal", "objetivo"}
	ageKeys         = []string{"age", "idade"}
	genderKeys      = []string{"gender", "sex", "sexo", "genero"}
	heightKeys      = []string{"heightCm", "height_cm", "height", "altura"}
	weightKeys      = []string{"weightKg", "weight_kg", "weight", "pesoAtual", "peso"}
	waistKeys       = []string{"waistCm", "waist_cm", "waist", "circunferenciaCintura", "cintura"}
	bodyFatKeys     = []string{"bodyFatPct", "bodyFat", "body_fat", "percentualGordura", "gorduraCorporal"}
	muscleMassKeys  = []string{"muscleMassPct", "muscleMass", "muscle_mass", "massaMuscular"}
	bmiKeys         = []string{"bmi", "imc"}

	healthConditionsKeys    = []string{"healthConditions", "healthConditionsText", "healthConditions_text", "health_conditions", "condicoesSaude", "condicoes_saude"}
	healthConcernsKeys      = []string{"healthConcerns", "healthConcernsText", "healthConcerns_text", "health_concerns", "preocupacoesSaude"}
	dietaryRestrictionsKeys = []string{"dietaryRestrictions", "dietaryRestrictionsText", "dietaryRestrictions_text", "dietary_restrictions", "restricoesAlimentares"}
	supplementsKeys         = []string{"supplements", "supplementsText", "supplements_text", "suplementos"}
	supplementsFreqKeys     = []string{"supplementsFrequency", "supplementsFrequencyText", "supplementFrequency", "frequenciaSuplementos"}
	secondaryGoalsKeys      = []string{"secondaryGoals", "secondaryGoalsText", "secondaryGoals_text", "secondary_goals", "objetivosSecundarios"}
	allergiesKeys           = []string{"allergies", "allergiesText", "allergies_text", "alergias"}
	medicationsKeys         = []string{"medications", "medicationsText", "medications_text", "medicamentos"}
	frequentSymptomsKeys    = []string{"frequentSymptoms", "frequentSymptomsText", "frequentSymptoms_text", "symptoms", "sintomasFrequentes", "sintomas"}

	streetKeys     = []string{"address.street", "street", "addressStreet", "endereco.rua", "rua", "logradouro"}
	numberKeys     = []string{"address.number", "addressNumber", "endereco.numero", "numero"}
	complementKeys = []string{"address.complement", "addressComplement", "endereco.complemento", "complemento"}
	districtKeys   = []string{"address.district", "district", "addressDistrict", "endereco.bairro", "bairro"}
	cityKeys       = []string{"address.city", "city", "addressCity", "endereco.cidade", "cidade"}
	stateKeys      = []string{"address.state", "state", "addressState", "endereco.estado", "estado", "uf"}
	postalCodeKeys = []string{"address.postalCode", "postalCode", "zipCode", "zip", "endereco.cep", "cep"}
)

// MigrateOnboarding upgrades any stored questionnaire shape to OnboardingV2.
// Absent, null, or empty input yields an empty document. A JSON string that
// itself holds a JSON object is unwrapped first. Values that cannot be
// decoded are reported and skipped.
func MigrateOnboarding(raw []byte) (OnboardingV2, []error) {
	migrated := OnboardingV2{SchemaVersion: OnboardingSchemaVersion}

	document, err := decodeOnboardingDocument(raw)
	if err != nil {
		return migrated, []error{err}
	}
	if len(document) == 0 {
		return migrated, nil
	}

	reader := onboardingReader{document: document}

	migrated.FullName = reader.text("fullName", fullNameKeys)
	migrated.Phone = reader.text("phone", phoneKeys)
	migrated.PrimaryGoal = reader.text("primaryGoal", primaryGoalKeys)
	migrated.Gender = reader.text("gender", genderKeys)
	migrated.SupplementsFrequency = reader.text("supplementsFrequency", supplementsFreqKeys)

	migrated.Address = OnboardingAddress{
		Street:     reader.text("address.street", streetKeys),
		Number:     reader.text("address.number", numberKeys),
		Complement: reader.text("address.complement", complementKeys),
		District:   reader.text("address.district", districtKeys),
		City:       reader.text("address.city", cityKeys),
		State:      reader.text("address.state", stateKeys),
		PostalCode: reader.text("address.postalCode", postalCodeKeys),
	}

	if age := reader.number("age", ageKeys); age != nil {
		rounded := int(math.Round(*age))
		migrated.Age = &rounded
	}
	migrated.HeightCm = normalizeHeightCm(reader.number("heightCm", heightKeys))
	migrated.WeightKg = reader.number("weightKg", weightKeys)
	migrated.WaistCm = reader.number("waistCm", waistKeys)
	migrated.BodyFatPct = reader.number("bodyFatPct", bodyFatKeys)
	migrated.MuscleMassPct = reader.number("muscleMassPct", muscleMassKeys)
	migrated.BMI = reader.number("bmi", bmiKeys)

	migrated.HealthConditions = reader.tags("healthConditions", healthConditionsKeys)
	migrated.HealthConcerns = reader.tags("healthConcerns", healthConcernsKeys)
	migrated.DietaryRestrictions = reader.tags("dietaryRestrictions", dietaryRestrictionsKeys)
	migrated.Supplements = reader.tags("supplements", supplementsKeys)
	migrated.SecondaryGoals = reader.tags("secondaryGoals", secondaryGoalsKeys)
	migrated.Allergies = reader.tags("allergies", allergiesKeys)
	migrated.Medications = reader.tags("medications", medicationsKeys)
	migrated.FrequentSymptoms = reader.tags("frequentSymptoms", frequentSymptomsKeys)

	return migrated, reader.errs
}

// ValidateOnboardingDocument reports whether raw can be stored as an
// onboarding document.
func ValidateOnboardingDocument(raw []byte) error {
	document, err := decodeOnboardingDocument(raw)
	if err != nil {
		return err
	}
	if document == nil {
		return ErrOnboardingNotObject
	}
	return nil
}

func decodeOnboardingDocument(raw []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]json.RawMessage{}, nil
	}

	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return nil, fmt.Errorf("decode onboarding string: %w", err)
		}
		return decodeOnboardingDocument([]byte(encoded))
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOnboardingNotObject, err)
	}
	if document == nil {
		return map[string]json.RawMessage{}, nil
	}
	return document, nil
}

type onboardingReader struct {
	document map[string]json.RawMessage
	errs     []error
}

func (reader *onboardingReader) fail(field string, key string, err error) {
	reader.errs = append(reader.errs, &OnboardingFieldError{Field: field, Key: key, Err: err})
}

// lookup resolves a key, following dotted paths into nested objects.
func (reader *onboardingReader) lookup(key string) (json.RawMessage, bool) {
	parts := strings.Split(key, ".")
	current := reader.document
	for index, part := range parts {
		value, ok := current[part]
		if !ok || isJSONNull(value) {
			return nil, false
		}
		if index == len(parts)-1 {
			return value, true
		}
		nested := map[string]json.RawMessage{}
		if err := json.Unmarshal(value, &nested); err != nil {
			return nil, false
		}
		current = nested
	}
	return nil, false
}

func (reader *onboardingReader) text(field string, keys []string) string {
	for _, key := range keys {
		value, ok := reader.lookup(key)
		if !ok {
			continue
		}
		decoded, err := decodeText(value)
		if err != nil {
			reader.fail(field, key, err)
			continue
		}
		if decoded != "" {
			return decoded
		}
	}
	return ""
}

func (reader *onboardingReader) number(field string, keys []string) *float64 {
	for _, key := range keys {
		value, ok := reader.lookup(key)
		if !ok {
			continue
		}
		decoded, present, err := decodeNumber(value)
		if err != nil {
			reader.fail(field, key, err)
			continue
		}
		if present {
			return &decoded
		}
	}
	return nil
}

func (reader *onboardingReader) tags(field string, keys []string) []string {
	for _, key := range keys {
		value, ok := reader.lookup(key)
		if !ok {
			continue
		}
		decoded, err := decodeTags(value)
		if err != nil {
			reader.fail(field, key, err)
			continue
		}
		if len(decoded) > 0 {
			return decoded
		}
	}
	return nil
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func decodeText(value json.RawMessage) (string, error) {
	var decoded any
	if err := json.Unmarshal(value, &decoded); err != nil {
		return "", err
	}
	switch typed := decoded.(type) {
	case string:
		return strings.TrimSpace(typed), nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(typed), nil
	case []any:
		return JoinTags(canonicalTags(scalarStrings(typed))), nil
	default:
		return "", fmt.Errorf("unsupported text value %s", string(value))
	}
}

// decodeNumber accepts JSON numbers and numeric strings such as "72,5" or
// "172 cm". Zero and negative values count as absent.
func decodeNumber(value json.RawMessage) (float64, bool, error) {
	var decoded any
	if err := json.Unmarshal(value, &decoded); err != nil {
		return 0, false, err
	}

	var number float64
	switch typed := decoded.(type) {
	case float64:
		number = typed
	case string:
		cleaned := strings.TrimSpace(typed)
		if cleaned == "" {
			return 0, false, nil
		}
		cleaned = strings.TrimRightFunc(cleaned, func(r rune) bool {
			return !unicode.IsDigit(r)
		})
		cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), ",", ".")
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", typed)
		}
		number = parsed
	default:
		return 0, false, fmt.Errorf("unsupported number value %s", string(value))
	}

	if !isPositiveFinite(number) {
		return 0, false, nil
	}
	return number, true, nil
}

// decodeTags accepts a string array, a comma-joined string, or a checkbox
// object whose true-valued keys are the selected tags.
func decodeTags(value json.RawMessage) ([]string, error) {
	var decoded any
	if err := json.Unmarshal(value, &decoded); err != nil {
		return nil, err
	}
	switch typed := decoded.(type) {
	case string:
		return SplitTags(typed), nil
	case []any:
		return canonicalTags(scalarStrings(typed)), nil
	case map[string]any:
		selected := make([]string, 0, len(typed))
		for key, flag := range typed {
			if enabled, ok := flag.(bool); ok && enabled {
				selected = append(selected, key)
			}
		}
		sort.Strings(selected)
		return canonicalTags(selected), nil
	default:
		return nil, fmt.Errorf("unsupported tag value %s", string(value))
	}
}

func scalarStrings(values []any) []string {
	items := make([]string, 0, len(values))
	for _, value := range values {
		switch typed := value.(type) {
		case string:
			items = append(items, typed)
		case float64:
			items = append(items, strconv.FormatFloat(typed, 'f', -1, 64))
		}
	}
	return items
}

// normalizeHeightCm converts heights typed in meters (e.g. 1.72).
func normalizeHeightCm(height *float64) *float64 {
	if height == nil {
		return nil
	}
	if *height < 3 {
		converted := roundTo(*height*100, 1)
		return &converted
	}
	return height
}
