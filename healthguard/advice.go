package healthguard

// AboutText is shown on the desktop About tab and by the CLI.
const AboutText = `# About HealthGuard

HealthGuard combines pre-trained machine learning models with a curated medical
knowledge base to provide:

- Early disease risk detection
- Diabetes and cardiovascular risk assessment
- Health recommendations for high-risk results
- Exportable medical reports
- A medical chatbot backed by a local knowledge document

Results are decision support only and do not replace a consultation with a physician.
`

var recommendations = map[Disease][]string{
	DiseaseDiabetes: {
		"Consult an endocrinologist immediately",
		"Monitor blood sugar levels regularly",
		"Adopt low-glycemic diet",
	},
	DiseaseCardio: {
		"Consult a cardiologist immediately",
		"Start heart-healthy diet",
		"Regular cardiac monitoring",
	},
}

// Recommendations returns the advice shown with a high-risk verdict.
func Recommendations(d Disease) []string {
	src := recommendations[d]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// ResultMessage returns the headline for a prediction.
func ResultMessage(d Disease, highRisk bool) string {
	switch {
	case d == DiseaseCardio && highRisk:
		return "High Cardiovascular Risk Detected"
	case d == DiseaseCardio:
		return "Healthy Cardiovascular Profile"
	case highRisk:
		return "High Diabetes Risk Detected"
	default:
		return "No Diabetes Risk Detected"
	}
}
