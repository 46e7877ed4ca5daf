package healthguard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FeatureKind tells the encoder how to turn a raw value into a number.
type FeatureKind int

const (
	// KindNumber passes a floating point value through unchanged.
	KindNumber FeatureKind = iota
	// KindInteger passes an integral value through unchanged.
	KindInteger
	// KindCategory looks the label up in the feature's CategoryTable.
	KindCategory
)

// FeatureSpec describes one position of a feature vector.
type FeatureSpec struct {
	Name    string
	Label   string
	Kind    FeatureKind
	Table   *CategoryTable
	Unit    string
	Default string
}

// Form holds raw user input keyed by FeatureSpec.Name.
type Form map[string]string

// FeatureVector is the fixed-order numeric representation a classifier expects.
type FeatureVector []float64

// Schema is the training-time feature order of one disease model.
type Schema struct {
	Disease  Disease
	Title    string
	Features []FeatureSpec
}

var (
	genderTable  = NewCategoryTable("gender", "Female", "Male").WithAliases(map[string]int{"F": 0, "M": 1})
	yesNoAliases = map[string]int{"N": 0, "Y": 1, "False": 0, "True": 1}

	smokingTable = NewCategoryTable("smoking_history",
		"Never", "Former", "Current", "Not Current", "Ever", "Unknown",
	).WithAliases(map[string]int{"No Info": 5, "not_current": 3})

	chestPainTable = NewCategoryTable("cp",
		"Typical Angina", "Atypical Angina", "Non-anginal Pain", "Asymptomatic",
	).WithCodes()
	restECGTable = NewCategoryTable("restecg",
		"Normal", "ST Abnormality", "LV Hypertrophy",
	).WithCodes()
	slopeTable = NewCategoryTable("slope",
		"Upsloping", "Flat", "Downsloping",
	).WithCodes()
	thalTable = NewCategoryTable("thal",
		"Normal", "Fixed Defect", "Reversible Defect",
	).WithCodes()
)

func yesNoTable(feature string) *CategoryTable {
	return NewCategoryTable(feature, "No", "Yes").WithAliases(yesNoAliases).WithCodes()
}

// DiabetesSchema lists the diabetes model features in training order.
var DiabetesSchema = &Schema{
	Disease: DiseaseDiabetes,
	Title:   "Diabetes Risk Report",
	Features: []FeatureSpec{
		{Name: "gender", Label: "Gender", Kind: KindCategory, Table: genderTable, Default: "Female"},
		{Name: "age", Label: "Age", Kind: KindNumber, Default: "25"},
		{Name: "hypertension", Label: "Hypertension", Kind: KindCategory, Table: yesNoTable("hypertension"), Default: "No"},
		{Name: "heart_disease", Label: "Heart Disease", Kind: KindCategory, Table: yesNoTable("heart_disease"), Default: "No"},
		{Name: "smoking_history", Label: "Smoking Status", Kind: KindCategory, Table: smokingTable, Default: "Never"},
		{Name: "bmi", Label: "BMI", Kind: KindNumber, Default: "25.0"},
		{Name: "HbA1c_level", Label: "HbA1c Level", Kind: KindNumber, Default: "5.7"},
		{Name: "blood_glucose_level", Label: "Blood Glucose", Kind: KindInteger, Unit: "mg/dL", Default: "100"},
	},
}

// CardioSchema lists the cardiovascular model features in training order.
var CardioSchema = &Schema{
	Disease: DiseaseCardio,
	Title:   "Cardiac Health Report",
	Features: []FeatureSpec{
		{Name: "age", Label: "Age", Kind: KindInteger, Default: "45"},
		{Name: "sex", Label: "Gender", Kind: KindCategory, Table: NewCategoryTable("sex", "Female", "Male").WithAliases(map[string]int{"F": 0, "M": 1}).WithCodes(), Default: "Female"},
		{Name: "cp", Label: "Chest Pain Type", Kind: KindCategory, Table: chestPainTable, Default: "Typical Angina"},
		{Name: "trestbps", Label: "Blood Pressure", Kind: KindInteger, Unit: "mmHg", Default: "120"},
		{Name: "chol", Label: "Cholesterol", Kind: KindInteger, Unit: "mg/dL", Default: "200"},
		{Name: "fbs", Label: "Fasting Sugar", Kind: KindCategory, Table: yesNoTable("fbs"), Default: "No"},
		{Name: "restecg", Label: "ECG Findings", Kind: KindCategory, Table: restECGTable, Default: "Normal"},
		{Name: "thalach", Label: "Max Heart Rate", Kind: KindInteger, Unit: "bpm", Default: "150"},
		{Name: "exang", Label: "Exercise Angina", Kind: KindCategory, Table: yesNoTable("exang"), Default: "No"},
		{Name: "oldpeak", Label: "ST Depression", Kind: KindNumber, Default: "1.0"},
		{Name: "slope", Label: "ST Slope", Kind: KindCategory, Table: slopeTable, Default: "Upsloping"},
		{Name: "ca", Label: "Fluoroscopy Vessels", Kind: KindInteger, Default: "0"},
		{Name: "thal", Label: "Thalassemia", Kind: KindCategory, Table: thalTable, Default: "Normal"},
	},
}

// SchemaFor returns the schema registered for disease.
func SchemaFor(d Disease) (*Schema, error) {
	switch d {
	case DiseaseDiabetes:
		return DiabetesSchema, nil
	case DiseaseCardio:
		return CardioSchema, nil
	default:
		return nil, invalidInput("unknown disease %q", d)
	}
}

// Len returns the number of features.
func (s *Schema) Len() int {
	return len(s.Features)
}

// Names returns the feature names in training order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Features))
	for i, f := range s.Features {
		out[i] = f.Name
	}
	return out
}

// Feature looks a feature up by name.
func (s *Schema) Feature(name string) (FeatureSpec, bool) {
	for _, f := range s.Features {
		if f.Name == name {
			return f, true
		}
	}
	return FeatureSpec{}, false
}

// Defaults returns a form filled with each feature's default value.
func (s *Schema) Defaults() Form {
	form := make(Form, len(s.Features))
	for _, f := range s.Features {
		form[f.Name] = f.Default
	}
	return form
}

// Encode turns raw form values into the feature vector in training order.
func (s *Schema) Encode(form Form) (FeatureVector, error) {
	vec := make(FeatureVector, len(s.Features))
	for i, f := range s.Features {
		raw, ok := form[f.Name]
		if !ok || strings.TrimSpace(raw) == "" {
			return nil, invalidInput("%s: missing value for %q", s.Disease, f.Name)
		}
		v, err := f.encode(raw)
		if err != nil {
			return nil, err
		}
		vec[i] = v
	}
	return vec, nil
}

// Decode turns a feature vector back into canonical form values.
func (s *Schema) Decode(vec FeatureVector) (Form, error) {
	if len(vec) != len(s.Features) {
		return nil, &ShapeError{Want: len(s.Features), Got: len(vec)}
	}
	form := make(Form, len(s.Features))
	for i, f := range s.Features {
		v := vec[i]
		if f.Kind != KindCategory {
			form[f.Name] = strconv.FormatFloat(v, 'f', -1, 64)
			continue
		}
		label, ok := f.Table.Label(int(v))
		if !ok || v != math.Trunc(v) {
			return nil, &CategoryError{Feature: f.Name, Value: strconv.FormatFloat(v, 'f', -1, 64)}
		}
		form[f.Name] = label
	}
	return form, nil
}

func (f FeatureSpec) encode(raw string) (float64, error) {
	if f.Kind == KindCategory {
		code, err := f.Table.Encode(raw)
		if err != nil {
			return 0, err
		}
		return float64(code), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, invalidInput("%s: %q is not a number", f.Name, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidInput("%s: %q is not a finite number", f.Name, raw)
	}
	if f.Kind == KindInteger && v != math.Trunc(v) {
		return 0, invalidInput("%s: %q must be a whole number", f.Name, raw)
	}
	return v, nil
}

// String renders the schema as "disease(name, name, ...)".
func (s *Schema) String() string {
	return fmt.Sprintf("%s(%s)", s.Disease, strings.Join(s.Names(), ", "))
}
