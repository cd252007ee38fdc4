package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/gradecalc/internal/engine"
)

// WhatIfManager holds per-session engine clones for hypothetical score
// projections. Edits to a session never touch the live class engine, and
// nothing a session computes is persisted.
type WhatIfManager struct {
	mu       sync.Mutex
	reg      *EngineRegistry
	sessions map[string]*engine.Engine
}

func NewWhatIfManager(reg *EngineRegistry) *WhatIfManager {
	return &WhatIfManager{reg: reg, sessions: map[string]*engine.Engine{}}
}

func (m *WhatIfManager) session(id string) (*engine.Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	return e, ok
}

// POST /classes/{classID}/whatif
func CreateWhatIfHandler(m *WhatIfManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID := strings.TrimSpace(chi.URLParam(r, "classID"))
		e, err := m.reg.Engine(r.Context(), classID)
		if err != nil {
			http.Error(w, "class data: "+err.Error(), http.StatusInternalServerError)
			return
		}
		id := uuid.NewString()
		m.mu.Lock()
		m.sessions[id] = e.Clone()
		m.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"session_id": id})
	}
}

// POST /whatif/{sessionID}/scores
func WhatIfScoreHandler(m *WhatIfManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		e, ok := m.session(sessionID)
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		var req setScoreReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		vr, err := e.SetScore(req.StudentID, req.GradeBookID, req.Input)
		if err != nil {
			http.Error(w, "set score: "+err.Error(), http.StatusInternalServerError)
			return
		}
		resp := setScoreResp{Validation: vr}
		if vr.Valid {
			if cg, ok := e.ClassGrade(req.StudentID, e.CurrentPeriodID()); ok {
				v, err := newClassGradeView(cg, e.Catalog(), e.Options())
				if err != nil {
					http.Error(w, "grade view: "+err.Error(), http.StatusInternalServerError)
					return
				}
				resp.ClassGrade = &v
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// GET /whatif/{sessionID}/students/{studentID}/grades
func WhatIfGradeHandler(m *WhatIfManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		studentID := strings.TrimSpace(chi.URLParam(r, "studentID"))
		e, ok := m.session(sessionID)
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		writeGradeCard(w, e, studentID, e.CurrentPeriodID())
	}
}

// DELETE /whatif/{sessionID}
func DeleteWhatIfHandler(m *WhatIfManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		m.mu.Lock()
		delete(m.sessions, sessionID)
		m.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}
