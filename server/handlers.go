package server

import (
	"fmt"
	"net/http"

	"keyledger/keys"
	"keyledger/ops"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": s.engine.ServiceID()})
}

func (s *Server) requestCreate(w http.ResponseWriter, r *http.Request) {
	var req requestCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	candidate, err := keys.DecodeVerifyingKey(req.VerifyingKey, keys.CosmosAdr36)
	if err != nil {
		writeError(w, r, fmt.Errorf("verifying_key: %w", err))
		return
	}
	payload, err := s.engine.RequestCreateAccount(r.Context(), req.ID, candidate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestCreateResponse{ID: req.ID, Payload: b64.EncodeToString(payload)})
}

func (s *Server) sendCreate(w http.ResponseWriter, r *http.Request) {
	var req sendCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	bundle, err := keys.DecodeSignatureBundle(req.VerifyingKey, req.Signature)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.engine.SendCreateAccount(r.Context(), req.ID, bundle)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountJSON(account))
}

func (s *Server) addKey(w http.ResponseWriter, r *http.Request) {
	var req addKeyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	newKey, err := keys.DecodeVerifyingKey(req.PubKey, keys.CosmosAdr36)
	if err != nil {
		writeError(w, r, fmt.Errorf("pub_key: %w", err))
		return
	}
	authorizing, err := req.Signature.decode()
	if err != nil {
		writeError(w, r, fmt.Errorf("signature.%w", err))
		return
	}
	account, err := s.engine.AddKey(r.Context(), req.ID, newKey, authorizing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountJSON(account))
}

func (s *Server) addData(w http.ResponseWriter, r *http.Request) {
	var req addDataRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	data, err := decodeData(req.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dataSignature, err := req.DataSignature.decode()
	if err != nil {
		writeError(w, r, fmt.Errorf("data_signature.%w", err))
		return
	}
	authorizing, err := req.Signature.decode()
	if err != nil {
		writeError(w, r, fmt.Errorf("signature.%w", err))
		return
	}
	account, err := s.engine.AddData(r.Context(), req.ID, data, dataSignature, authorizing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountJSON(account))
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	account, err := s.engine.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountJSON(account))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, idsResponse{Accounts: s.query.ListAccounts()})
}

func (s *Server) listAccountsDetail(w http.ResponseWriter, r *http.Request) {
	found := s.query.ListAccountsWithDetail(r.Context())
	out := accountsResponse{Accounts: make([]accountJSON, 0, len(found))}
	for _, a := range found {
		out.Accounts = append(out.Accounts, toAccountJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listKeys(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, keysResponse{ID: id, Keys: toKeysJSON(s.query.ListKeys(id))})
}

func (s *Server) byKey(w http.ResponseWriter, r *http.Request) {
	var req byKeyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key, err := keys.DecodeVerifyingKey(req.VerifyingKey, keys.CosmosAdr36)
	if err != nil {
		writeError(w, r, fmt.Errorf("verifying_key: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, idsResponse{Accounts: s.query.AccountsForKey(key)})
}

func queryID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, r, fmt.Errorf("%w: id query parameter is required", ops.ErrInvalidID))
		return "", false
	}
	return id, true
}
