package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/format"
	"financas/internal/log"
	"financas/internal/services"
)

const swatchCount = 8

// pageData is the model shared by the page and every partial.
type pageData struct {
	Revision        uint64
	View            core.View
	Categories      core.CategorySet
	ActiveTab       services.Tab
	Modal           services.Modal
	ModalError      string
	PendingID       int64
	HasPending      bool
	Pending         *core.Transaction
	CategoryDraft   string
	ShowAddCategory bool
	Years           []string
	Months          []format.MonthOption
}

func (s *Server) pageData() pageData {
	d := pageData{
		Revision:   s.ledger.Revision(),
		View:       s.view(),
		Categories: s.ledger.Categories(),
		ActiveTab:  s.ledger.ActiveTab(),
		Modal:      s.ledger.Modal(),
		Years:      format.YearOptions(s.now()),
		Months:     format.MonthOptions(),
	}
	d.CategoryDraft, d.ShowAddCategory = s.ledger.CategoryForm()
	if id, ok := s.ledger.PendingDelete(); ok {
		d.PendingID, d.HasPending = id, true
		for _, t := range s.ledger.Transactions() {
			if t.ID == id {
				d.Pending = &t
				break
			}
		}
	}
	return d
}

func (s *Server) funcMap() template.FuncMap {
	funcs := s.formatter.FuncMap()
	funcs["typeLabel"] = typeLabel
	funcs["amountClass"] = amountClass
	funcs["share"] = share
	funcs["swatch"] = func(i int) string { return fmt.Sprintf("swatch-%d", i%swatchCount) }
	funcs["monthLabel"] = monthLabel
	return funcs
}

func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Receita"
	}
	return "Despesa"
}

func amountClass(d decimal.Decimal) string {
	if d.IsNegative() {
		return "negative"
	}
	return "positive"
}

// share returns part/total as a percentage for <progress>, "0" for no total.
func share(part, total decimal.Decimal) string {
	if total.IsZero() {
		return "0"
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(1).String()
}

func monthLabel(month string) string {
	for _, m := range format.MonthOptions() {
		if m.Value == month {
			return m.Label
		}
	}
	return month
}

// render executes a template into a buffer so a failure can still answer 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err.Error())
		InternalServerError("Falha ao renderizar a página").Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(buf.Bytes()).Write(w)
}

// validationMessage maps draft and category errors to user-facing text.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrMissingDueDate):
		return "Informe a data de vencimento."
	case errors.Is(err, core.ErrInvalidDate):
		return "Data inválida. Use o formato AAAA-MM-DD."
	case errors.Is(err, core.ErrMissingValue):
		return "Informe o valor."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Valor inválido. Informe um número positivo, por exemplo 150,50."
	case errors.Is(err, core.ErrEmptyDescription):
		return "Informe a descrição."
	case errors.Is(err, core.ErrInvalidType):
		return "Escolha receita ou despesa."
	case errors.Is(err, core.ErrEmptyCategory):
		return "Informe o nome da categoria."
	case errors.Is(err, core.ErrDuplicateCategory):
		return "Essa categoria já existe."
	}
	return "Dados inválidos."
}
