package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/records"
)

const msgRecordNotFound = "记录不存在"

func (a *API) listRecords(w http.ResponseWriter, r *http.Request) {
	coll := mux.Vars(r)["collection"]
	recs, err := a.records.List(r.Context(), coll)
	if err != nil {
		storeError(w, r, err, msgRecordNotFound)
		return
	}
	out := make([]records.Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, present(coll, rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createRecord(w http.ResponseWriter, r *http.Request) {
	coll := mux.Vars(r)["collection"]
	rec, ok := a.readRecord(w, r, coll)
	if !ok {
		return
	}
	created, err := a.records.Create(r.Context(), coll, rec)
	if err != nil {
		storeError(w, r, err, msgRecordNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, present(coll, created))
}

func (a *API) getRecord(w http.ResponseWriter, r *http.Request) {
	coll := mux.Vars(r)["collection"]
	id, _ := pathID(r)
	rec, err := a.records.Get(r.Context(), coll, id)
	if err != nil {
		storeError(w, r, err, msgRecordNotFound)
		return
	}
	writeJSON(w, http.StatusOK, present(coll, rec))
}

func (a *API) replaceRecord(w http.ResponseWriter, r *http.Request) {
	a.updateRecord(w, r, a.records.Replace)
}

func (a *API) patchRecord(w http.ResponseWriter, r *http.Request) {
	a.updateRecord(w, r, a.records.Patch)
}

type updateFunc func(ctx context.Context, collection string, id int64, rec records.Record) (records.Record, error)

func (a *API) updateRecord(w http.ResponseWriter, r *http.Request, update updateFunc) {
	coll := mux.Vars(r)["collection"]
	id, _ := pathID(r)
	rec, ok := a.readRecord(w, r, coll)
	if !ok {
		return
	}
	out, err := update(r.Context(), coll, id, rec)
	if err != nil {
		storeError(w, r, err, msgRecordNotFound)
		return
	}
	writeJSON(w, http.StatusOK, present(coll, out))
}

func (a *API) deleteRecord(w http.ResponseWriter, r *http.Request) {
	coll := mux.Vars(r)["collection"]
	id, _ := pathID(r)
	if err := a.records.Delete(r.Context(), coll, id); err != nil {
		storeError(w, r, err, msgRecordNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readRecord decodes a JSON object body. Plain passwords sent to the users
// collection are replaced by their bcrypt hash.
func (a *API) readRecord(w http.ResponseWriter, r *http.Request, coll string) (records.Record, bool) {
	if !records.ValidCollection(coll) {
		writeError(w, r, http.StatusNotFound, msgRecordNotFound)
		return nil, false
	}
	var rec records.Record
	if err := decodeJSON(r, &rec); err != nil || rec == nil {
		writeError(w, r, http.StatusBadRequest, "body must be a JSON object")
		return nil, false
	}
	if coll != collUsers {
		return rec, true
	}
	delete(rec, "passwordHash")
	if pw, ok := rec["password"].(string); ok {
		delete(rec, "password")
		hash, err := auth.HashPassword(pw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return nil, false
		}
		rec["passwordHash"] = hash
	}
	return rec, true
}

// present hides credential fields of user records.
func present(coll string, rec records.Record) records.Record {
	if coll != collUsers {
		return rec
	}
	out := rec.Clone()
	delete(out, "passwordHash")
	delete(out, "password")
	return out
}
