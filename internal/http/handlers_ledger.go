package http

import (
	"errors"
	"net/http"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
)

// EventModalChanged refreshes the edit surface. It is kept apart from
// EventLedgerChanged so typing into the draft does not re-render the form.
const EventModalChanged = "modal:changed"

// parseBody enforces POST and parses the body, answering the error itself.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return nil, false
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Malformed request body",
			log.FieldOperation, log.OpParse, log.FieldError, err.Error())
		BadRequestError("Formulário inválido").Write(w)
		return nil, false
	}
	return p, true
}

func (s *Server) changed() *HTMXResponseBuilder {
	return Changed(s.ledger.Revision())
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if err := s.ledger.SetActiveTab(services.Tab(p.Get("tab"))); err != nil {
		BadRequestError("Aba desconhecida").Write(w)
		return
	}
	s.changed().Write(w)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	f := p.Filter(s.ledger.Filter())
	if err := s.ledger.SetFilter(r.Context(), f); err != nil {
		if errors.Is(err, core.ErrInvalidFilter) {
			BadRequestError("Filtro inválido").Write(w)
			return
		}
		InternalServerError("Falha ao aplicar o filtro").Write(w)
		return
	}
	s.changed().Write(w)
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	if _, ok := parseBody(w, r); !ok {
		return
	}
	s.ledger.OpenNew()
	s.changed().Trigger(EventModalChanged, nil).Write(w)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	id, err := p.ParseID()
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}
	if err := s.ledger.OpenEdit(id); err != nil {
		NotFoundError("Transação não encontrada").Write(w)
		return
	}
	s.changed().Trigger(EventModalChanged, nil).Write(w)
}

// handleDraft applies the posted fields to the open draft.
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	for _, kv := range p.DraftFields() {
		if err := s.ledger.SetDraftField(kv[0], kv[1]); err != nil {
			if errors.Is(err, services.ErrModalClosed) {
				ConflictError("Nenhuma transação em edição").Write(w)
				return
			}
			BadRequestError("Campo desconhecido").Write(w)
			return
		}
	}
	s.changed().Write(w)
}

// handleSubmit replaces the draft with the posted form, when there is one,
// and submits it. A rejected draft answers 422 with the surface re-rendered.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if len(p.DraftFields()) > 0 {
		if err := s.ledger.ReplaceDraft(p.Draft()); err != nil {
			ConflictError("Nenhuma transação em edição").Write(w)
			return
		}
	}

	saved, err := s.ledger.Submit(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, services.ErrValidation):
		data := s.pageData()
		data.ModalError = validationMessage(err)
		s.render(w, r, http.StatusUnprocessableEntity, "modal", data)
		return
	case errors.Is(err, services.ErrTransactionNotFound):
		NotFoundError("A transação em edição não existe mais").Write(w)
		return
	case errors.Is(err, services.ErrModalClosed):
		ConflictError("Nenhuma transação em edição").Write(w)
		return
	default:
		InternalServerError("Falha ao salvar").Write(w)
		return
	}

	msg := "Transação atualizada"
	if saved.Created {
		msg = "Transação adicionada"
	}
	s.changed().
		Trigger(EventModalChanged, nil).
		TriggerSuccessNotification(msg).
		Write(w)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if _, ok := parseBody(w, r); !ok {
		return
	}
	s.ledger.Close()
	s.changed().Trigger(EventModalChanged, nil).Write(w)
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	id, err := p.ParseID()
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}
	s.ledger.RequestDelete(id)
	s.changed().Write(w)
}

// handleDeleteConfirm is idempotent: with nothing pending it changes nothing.
func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if _, ok := parseBody(w, r); !ok {
		return
	}
	removed := s.ledger.ConfirmDelete(r.Context())
	resp := s.changed()
	if removed {
		resp.TriggerSuccessNotification("Transação excluída")
	}
	resp.Write(w)
}

func (s *Server) handleDeleteCancel(w http.ResponseWriter, r *http.Request) {
	if _, ok := parseBody(w, r); !ok {
		return
	}
	s.ledger.CancelDelete()
	s.changed().Write(w)
}
