package http

import (
	"net/http"
	"strconv"
)

// handleAddCategory adds the posted name, or the pending category draft when
// no name is posted. Rejected names answer 422 and keep the input open.
func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if p.Has("name") {
		s.ledger.SetCategoryDraft(p.Get("name"))
	}
	name, err := s.ledger.AddCategory(r.Context())
	if err != nil {
		ErrorResponse(http.StatusUnprocessableEntity, validationMessage(err)).Write(w)
		return
	}
	s.changed().TriggerSuccessNotification("Categoria " + name + " adicionada").Write(w)
}

// handleCategoryForm shows or hides the add-category input and keeps its text.
func (s *Server) handleCategoryForm(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if p.Has("show") {
		show, err := strconv.ParseBool(p.Get("show"))
		if err != nil {
			BadRequestError("Formulário inválido").Write(w)
			return
		}
		s.ledger.ShowAddCategory(show)
	}
	if p.Has("name") {
		s.ledger.SetCategoryDraft(p.Get("name"))
	}
	s.changed().Write(w)
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	name := p.Get("name")
	if name == "" {
		BadRequestError("Informe a categoria").Write(w)
		return
	}
	s.ledger.RemoveCategory(r.Context(), name)
	s.changed().Write(w)
}
