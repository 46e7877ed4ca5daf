package healthguard

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
)

// Parameter is one labelled line of a report.
type Parameter struct {
	Name  string
	Value string
}

// Report is the exportable summary of one assessment.
type Report struct {
	ID          uuid.UUID
	Disease     Disease
	Title       string
	PatientName string
	Parameters  []Parameter
	Verdict     string
	CreatedAt   time.Time
}

// BuildReport summarises a prediction using the schema's labels and units.
func BuildReport(schema *Schema, patientName string, pred Prediction) (*Report, error) {
	if len(pred.Vector) != schema.Len() {
		return nil, &ShapeError{Want: schema.Len(), Got: len(pred.Vector)}
	}
	params := make([]Parameter, 0, schema.Len())
	for i, f := range schema.Features {
		value, err := formatFeature(f, pred.Vector[i])
		if err != nil {
			return nil, err
		}
		params = append(params, Parameter{Name: f.Label, Value: value})
	}
	return newReport(schema, patientName, params, pred.Verdict()), nil
}

// ErrorReport records a failed assessment with the error text as its only parameter.
func ErrorReport(schema *Schema, patientName string, cause error) *Report {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return newReport(schema, patientName, []Parameter{{Name: "Error", Value: msg}}, VerdictError)
}

func newReport(schema *Schema, patientName string, params []Parameter, verdict string) *Report {
	return &Report{
		ID:          uuid.New(),
		Disease:     schema.Disease,
		Title:       schema.Title,
		PatientName: strings.TrimSpace(patientName),
		Parameters:  params,
		Verdict:     verdict,
		CreatedAt:   time.Now().UTC(),
	}
}

func formatFeature(f FeatureSpec, v float64) (string, error) {
	var s string
	switch f.Kind {
	case KindCategory:
		label, ok := f.Table.Label(int(v))
		if !ok || float64(int(v)) != v {
			return "", &CategoryError{Feature: f.Name, Value: decimal.NewFromFloat(v).String()}
		}
		s = label
	case KindInteger:
		s = decimal.NewFromFloat(v).StringFixed(0)
	default:
		d := decimal.NewFromFloat(v)
		if d.IsInteger() {
			s = d.StringFixed(1)
		} else {
			s = d.String()
		}
	}
	if f.Unit != "" {
		s += " " + f.Unit
	}
	return s, nil
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", EscapeMarkdown(r.Title))
	name := r.PatientName
	if name == "" {
		name = "-"
	}
	fmt.Fprintf(&b, "**Patient Name:** %s\n\n", EscapeMarkdown(name))
	b.WriteString("### Health Parameters\n\n")
	for _, p := range r.Parameters {
		fmt.Fprintf(&b, "- %s: %s\n", EscapeMarkdown(p.Name), EscapeMarkdown(p.Value))
	}
	b.WriteString("\n### Diagnostic Prediction\n\n")
	fmt.Fprintf(&b, "%s\n\n", EscapeMarkdown(r.Verdict))
	fmt.Fprintf(&b, "_Report %s, generated %s_\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}

// WriteMarkdown writes the Markdown rendering to w.
func (r *Report) WriteMarkdown(w io.Writer) error {
	_, err := io.WriteString(w, r.Markdown())
	return err
}

// WriteHTML writes a standalone HTML page converted from the Markdown rendering.
func (r *Report) WriteHTML(w io.Writer) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(r.Markdown()), &body); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(r.Title), body.String())
	return err
}

// Save writes the report to path, as HTML for .html/.htm and Markdown otherwise.
func (r *Report) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		err = r.WriteHTML(&buf)
	default:
		err = r.WriteMarkdown(&buf)
	}
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

// ReportFileName returns the default file name of a disease's report, e.g. "cardiac_report.md".
func ReportFileName(d Disease, ext string) string {
	base := string(d) + "_report"
	if d == DiseaseCardio {
		base = "cardiac_report"
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return base + ext
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "\n", " ",
)

// EscapeMarkdown makes s safe to splice into Markdown as inline text.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
