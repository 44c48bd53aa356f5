package http

// Parsing helpers for htmx form posts and JSON bodies.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"financas/internal/core"
)

const maxBodyBytes = 64 << 10

var ErrInvalidID = errors.New("invalid transaction id")

// RequestBodyParser reads a request body once and serves fields from it,
// whether it was posted as JSON or as a urlencoded form.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object, as a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Has reports whether key was posted at all, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// Get returns a sanitized, trimmed value for key.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseID reads a positive transaction id from field "id".
func (p *RequestBodyParser) ParseID() (int64, error) {
	raw := p.Get("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

// Draft builds a full draft from the posted edit form.
func (p *RequestBodyParser) Draft() core.Draft {
	return core.Draft{
		DueDate:     p.Get(core.FieldDueDate),
		Value:       p.Get(core.FieldValue),
		Description: p.Get(core.FieldDescription),
		Responsible: p.Get(core.FieldResponsible),
		Category:    p.Get(core.FieldCategory),
		Type:        core.TransactionType(p.Get(core.FieldType)),
	}
}

// DraftFields returns only the draft fields that were posted, in a fixed order.
func (p *RequestBodyParser) DraftFields() [][2]string {
	names := []string{
		core.FieldDueDate, core.FieldValue, core.FieldDescription,
		core.FieldResponsible, core.FieldCategory, core.FieldType,
	}
	out := make([][2]string, 0, len(names))
	for _, n := range names {
		if p.Has(n) {
			out = append(out, [2]string{n, p.Get(n)})
		}
	}
	return out
}

// Filter overlays the posted selectors on current. Selectors that were not
// posted keep their current value.
func (p *RequestBodyParser) Filter(current core.Filter) core.Filter {
	f := current
	if p.Has("period") {
		f.Period = core.Period(p.Get("period"))
	}
	if p.Has("year") {
		f.Year = p.Get("year")
	}
	if p.Has("month") {
		f.Month = p.Get("month")
	}
	if p.Has("fortnight") {
		f.Fortnight = p.Get("fortnight")
	}
	return f
}

// sanitizeInput drops control characters other than tab and newlines, then trims.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// RequireMethod returns an error response when the method is not allowed.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}
