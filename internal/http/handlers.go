package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"oba/internal/export"
	"oba/internal/services"
)

// resource is the CRUD surface a route group needs. services.Resource and
// the scoped services embedding it satisfy it.
type resource[E services.Entity, F services.Form] interface {
	Entity() string
	List(ctx context.Context) ([]E, error)
	Read(ctx context.Context, id int64) (E, error)
	Create(ctx context.Context, form F) (E, error)
	Update(ctx context.Context, id int64, form F) (E, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

// registerResource mounts list, read, create, update, delete and deleteAll
// for one entity under base, e.g. "/account".
func registerResource[E services.Entity, F services.Form](mux *http.ServeMux, base string, res resource[E, F]) {
	entity := res.Entity()
	item := base + "/{id}"

	mux.HandleFunc("GET "+base, func(w http.ResponseWriter, r *http.Request) {
		items, err := res.List(r.Context())
		if err != nil {
			writeError(w, r, entity, err)
			return
		}
		NewResponse().JSON(items).Write(w)
	})

	mux.HandleFunc("GET "+item, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, entity, err)
			return
		}
		e, err := res.Read(r.Context(), id)
		if err != nil {
			writeError(w, r, entity, err)
			return
		}
		NewResponse().JSON(e).Write(w)
	})

	mux.HandleFunc("POST "+base, func(w http.ResponseWriter, r *http.Request) {
		form, err := decodeJSON[F](w, r)
		if err != nil {
			writeError(w, r, entity, err)
			return
		}
		e, err := res.Create(r.Context(), form)
		if err != nil {
			writeError(w, r, entity, err)
			return
		}
		NewResponse().
			Status(http.StatusCreated).
			Location(fmt.Sprintf("%s/%d", base, e.Key())).
			JSON(e).
			Write(w)
	})

	mux.HandleFunc("PUT "+item, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, entity, err)
			return
		}
		form, err := decodeJSON[F](w, r)
		if err != nil {
			writeError(w, r, entity, err)
			return
		}
		e, err := res.Update(r.Context(), id, form)
		if err != nil {
			writeError(w, r, entity, err)
			return
		}
		NewResponse().JSON(e).Write(w)
	})

	mux.HandleFunc("DELETE "+item, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, entity, err)
			return
		}
		if err := res.Delete(r.Context(), id); err != nil {
			writeError(w, r, entity, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("DELETE "+base, func(w http.ResponseWriter, r *http.Request) {
		if err := res.DeleteAll(r.Context()); err != nil {
			writeError(w, r, entity, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

const readyTimeout = 2 * time.Second

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.ledger.Ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
		ServiceUnavailableError(map[string]string{"status": "unavailable", "error": "database unreachable"}).Write(w)
		return
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

// handleExport streams the ledger as an .xlsx workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteWorkbook(r.Context(), s.ledger, &buf); err != nil {
		writeError(w, r, "", err)
		return
	}

	name := fmt.Sprintf("oba_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
