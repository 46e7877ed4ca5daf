package app

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/healthguard/healthguard"
)

type uiState struct {
	service *healthguard.Service
	cfg     healthguard.Config

	w          fyne.Window
	status     *widget.Label
	statusBind binding.String
	log        *widget.Entry
	sink       *logSink

	forms map[healthguard.Disease]*diseaseForm
	chat  *chatPanel
}

func buildUI(a fyne.App, svc *healthguard.Service, sink *logSink) *uiState {
	u := &uiState{service: svc, cfg: svc.Config(), sink: sink, forms: make(map[healthguard.Disease]*diseaseForm)}
	u.w = a.NewWindow("HealthGuard - Disease Risk Prediction")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Ready")
	u.status = widget.NewLabelWithData(u.statusBind)

	u.log = widget.NewEntryWithData(sink.bind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("Log")
	u.log.Disable()

	tabs := container.NewAppTabs()
	for _, d := range healthguard.Diseases() {
		f := newDiseaseForm(u, d)
		u.forms[d] = f
		tabs.Append(container.NewTabItem(tabTitle(d), f.content()))
	}
	u.chat = newChatPanel(u)
	tabs.Append(container.NewTabItem("Medical Chatbot", u.chat.content()))
	about := widget.NewRichTextFromMarkdown(healthguard.AboutText)
	about.Wrapping = fyne.TextWrapWord
	tabs.Append(container.NewTabItem("About", container.NewVScroll(about)))
	tabs.SetTabLocation(container.TabLocationLeading)

	logBox := container.NewVScroll(u.log)
	logBox.SetMinSize(fyne.NewSize(200, 120))
	bottom := container.NewVBox(
		widget.NewSeparator(),
		u.status,
		widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		logBox,
	)
	u.w.SetContent(container.NewBorder(nil, bottom, nil, nil, tabs))
	u.w.Resize(fyne.NewSize(1024, 760))
	return u
}

func tabTitle(d healthguard.Disease) string {
	if d == healthguard.DiseaseCardio {
		return "Heart Health"
	}
	return "Diabetes Risk"
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) showError(err error) {
	if err == nil {
		return
	}
	fyne.Do(func() {
		dialog.ShowError(err, u.w)
	})
}

// saveReport asks for a destination and writes r as HTML or Markdown by extension.
func (u *uiState) saveReport(r *healthguard.Report) {
	if r == nil {
		dialog.ShowInformation("Report", "Run a prediction first", u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			u.showError(err)
			return
		}
		if uc == nil {
			return
		}
		defer uc.Close()
		switch uc.URI().Extension() {
		case ".html", ".htm":
			err = r.WriteHTML(uc)
		default:
			err = r.WriteMarkdown(uc)
		}
		if err != nil {
			u.showError(fmt.Errorf("save report: %w", err))
			return
		}
		u.setStatus("Report saved to " + uc.URI().Path())
	}, u.w)
	fd.SetFileName(healthguard.ReportFileName(r.Disease, ".md"))
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".md", ".html"}))
	fd.Show()
}
