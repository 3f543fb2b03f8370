// Package integration exercises the cache against a real HTTP issuer
// speaking the batch reissue wire protocol, with real timers.
package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

type slotKey struct {
	ResourceID string `json:"resourceId"`
	Index      int    `json:"index"`
}

type reissueRequest struct {
	Requests []slotKey `json:"requests"`
}

type reissueItem struct {
	ResourceID string `json:"resourceId"`
	Index      int    `json:"index"`
	Success    bool   `json:"success"`
	URL        string `json:"url,omitempty"`
	Error      string `json:"error,omitempty"`
}

type reissueEnvelope struct {
	Success       bool          `json:"success"`
	ExpirySeconds int           `json:"expirySeconds,omitempty"`
	Data          []reissueItem `json:"data"`
}

// issuerServer is a scriptable stand-in for the URL issuing service.
type issuerServer struct {
	mu            sync.Mutex
	batches       [][]slotKey
	expirySeconds int
	failBatches   int
	failKeys      map[slotKey]int
	serial        int

	srv *httptest.Server
}

func newIssuerServer() *issuerServer {
	s := &issuerServer{
		expirySeconds: 180,
		failKeys:      make(map[slotKey]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /cases/refresh-urls", s.handleReissue)
	s.srv = httptest.NewServer(mux)
	return s
}

func (s *issuerServer) handleReissue(w http.ResponseWriter, r *http.Request) {
	var req reissueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, req.Requests)

	if s.failBatches > 0 {
		s.failBatches--
		http.Error(w, "issuer overloaded", http.StatusServiceUnavailable)
		return
	}

	env := reissueEnvelope{Success: true, ExpirySeconds: s.expirySeconds}
	for _, k := range req.Requests {
		if n := s.failKeys[k]; n > 0 {
			s.failKeys[k] = n - 1
			env.Data = append(env.Data, reissueItem{
				ResourceID: k.ResourceID,
				Index:      k.Index,
				Error:      "slot revoked",
			})
			continue
		}
		s.serial++
		env.Data = append(env.Data, reissueItem{
			ResourceID: k.ResourceID,
			Index:      k.Index,
			Success:    true,
			URL:        fmt.Sprintf("https://signed.example/%s/%d?sig=%06d", k.ResourceID, k.Index, s.serial),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

func (s *issuerServer) URL() string {
	return s.srv.URL
}

func (s *issuerServer) Close() {
	s.srv.Close()
}

func (s *issuerServer) setExpirySeconds(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expirySeconds = n
}

func (s *issuerServer) setFailBatches(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBatches = n
}

func (s *issuerServer) setFailKey(resourceID string, index, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failKeys[slotKey{ResourceID: resourceID, Index: index}] = n
}

func (s *issuerServer) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *issuerServer) batch(i int) []slotKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[i]
}
