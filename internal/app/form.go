package app

import (
	"context"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/healthguard/healthguard"
)

// fieldInput reads the raw value of one feature widget.
type fieldInput interface {
	value() string
}

type selectInput struct{ s *widget.Select }

func (i selectInput) value() string { return i.s.Selected }

type entryInput struct{ e *widget.Entry }

func (i entryInput) value() string { return i.e.Text }

type diseaseForm struct {
	ui     *uiState
	schema *healthguard.Schema

	name       *widget.Entry
	inputs     map[string]fieldInput
	form       *widget.Form
	result     *widget.RichText
	predictBtn *widget.Button
	saveBtn    *widget.Button

	last *healthguard.Report
}

func newDiseaseForm(u *uiState, d healthguard.Disease) *diseaseForm {
	schema, _ := healthguard.SchemaFor(d)
	f := &diseaseForm{ui: u, schema: schema, inputs: make(map[string]fieldInput, schema.Len())}

	f.name = widget.NewEntry()
	f.name.SetPlaceHolder("Patient name")
	items := []*widget.FormItem{widget.NewFormItem("Patient Name", f.name)}
	for _, spec := range schema.Features {
		obj, input := newFieldWidget(spec)
		f.inputs[spec.Name] = input
		label := spec.Label
		if spec.Unit != "" {
			label += " (" + spec.Unit + ")"
		}
		items = append(items, widget.NewFormItem(label, obj))
	}
	f.form = widget.NewForm(items...)

	f.result = widget.NewRichText()
	f.result.Wrapping = fyne.TextWrapWord
	f.predictBtn = widget.NewButtonWithIcon("Predict", theme.ConfirmIcon(), func() { f.onPredict() })
	f.saveBtn = widget.NewButtonWithIcon("Save Report", theme.DocumentSaveIcon(), func() { u.saveReport(f.last) })
	f.saveBtn.Disable()
	return f
}

func newFieldWidget(spec healthguard.FeatureSpec) (fyne.CanvasObject, fieldInput) {
	if spec.Kind == healthguard.KindCategory {
		sel := widget.NewSelect(spec.Table.Options(), nil)
		sel.SetSelected(spec.Default)
		return sel, selectInput{s: sel}
	}
	e := widget.NewEntry()
	e.SetText(spec.Default)
	return e, entryInput{e: e}
}

func (f *diseaseForm) content() fyne.CanvasObject {
	header := widget.NewLabelWithStyle(f.schema.Title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	buttons := container.NewGridWithColumns(2, f.predictBtn, f.saveBtn)
	left := container.NewVBox(header, f.form, buttons)
	split := container.NewHSplit(container.NewVScroll(left), container.NewVScroll(f.result))
	split.Offset = 0.55
	return split
}

func (f *diseaseForm) values() healthguard.Form {
	form := make(healthguard.Form, len(f.inputs))
	for name, in := range f.inputs {
		form[name] = strings.TrimSpace(in.value())
	}
	return form
}

func (f *diseaseForm) onPredict() {
	form := f.values()
	name := strings.TrimSpace(f.name.Text)
	d := f.schema.Disease
	f.predictBtn.Disable()
	f.ui.setStatus("Analyzing " + string(d) + " risk...")

	go func() {
		a := f.ui.service.Assess(context.Background(), d, name, form)
		md := assessmentMarkdown(a)
		fyne.Do(func() {
			f.last = a.Report
			f.result.ParseMarkdown(md)
			f.predictBtn.Enable()
			if a.Report != nil {
				f.saveBtn.Enable()
			}
		})
		if a.Failed() {
			f.ui.setStatus("Prediction failed")
			return
		}
		f.ui.setStatus(fmt.Sprintf("%s: %s", f.schema.Title, a.Prediction.Verdict()))
	}()
}

func assessmentMarkdown(a healthguard.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", a.Message)
	if len(a.Recommendations) > 0 {
		b.WriteString("**Recommendations:**\n\n")
		for _, r := range a.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}
	if a.Report != nil {
		b.WriteString("---\n\n")
		b.WriteString(a.Report.Markdown())
	}
	return b.String()
}
