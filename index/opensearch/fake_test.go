/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package opensearch_test

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"bennypowers.dev/tokenrag/index/opensearch"
)

type fakeDoc struct {
	Name      string    `json:"name"`
	Theme     string    `json:"theme"`
	Value     string    `json:"value"`
	Embedding []float32 `json:"embedding"`
}

type fakeCollection struct {
	dim  int
	docs map[string]fakeDoc
	ids  []string
}

// fakeEngine is an in-memory stand-in for the subset of the OpenSearch REST
// API used by the store.
type fakeEngine struct {
	mu          sync.Mutex
	collections map[string]*fakeCollection
	requests    []string
	// bodies holds the last JSON body per operation; "" is the collection itself.
	bodies map[string][]byte

	// unavailable answers the next N requests with 503.
	unavailable int
	// token, when set, is required as a bearer token.
	token string
	// hideCollections makes HEAD report 404 even for existing collections.
	hideCollections bool
	// reject fails document writes whose name contains this substring.
	reject string
}

func newFakeEngine(t *testing.T) (*fakeEngine, *httptest.Server) {
	t.Helper()
	f := &fakeEngine{collections: map[string]*fakeCollection{}, bodies: map[string][]byte{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func clientFor(t *testing.T, srv *httptest.Server, opts opensearch.ClientOptions) *opensearch.Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	opts.Scheme = u.Scheme
	opts.Host = u.Hostname()
	opts.Port = port
	client, err := opensearch.NewClient(opts)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func (f *fakeEngine) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// countOp counts requests for op regardless of method.
func (f *fakeEngine) countOp(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if _, got, _ := strings.Cut(r, " "); got == op {
			n++
		}
	}
	return n
}

func writeError(w http.ResponseWriter, status int, typ, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":  map[string]any{"type": typ, "reason": reason},
		"status": status,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	op := ""
	if len(parts) > 1 {
		op = parts[1]
	}
	key := r.Method + " " + op
	f.requests = append(f.requests, key)

	if f.unavailable > 0 {
		f.unavailable--
		writeError(w, http.StatusServiceUnavailable, "unavailable", "try later")
		return
	}
	if f.token != "" && r.Header.Get("Authorization") != "Bearer "+f.token {
		writeError(w, http.StatusUnauthorized, "security_exception", "missing credentials")
		return
	}

	name := parts[0]
	coll, exists := f.collections[name]

	var body map[string]any
	if r.Body != nil {
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
			f.bodies[op] = raw
			_ = json.Unmarshal(raw, &body)
		}
	}

	switch {
	case r.Method == http.MethodHead && op == "":
		if !exists || f.hideCollections {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && op == "":
		if exists {
			writeError(w, http.StatusBadRequest, "resource_already_exists_exception", "index ["+name+"] already exists")
			return
		}
		mappings, _ := body["mappings"].(map[string]any)
		props, _ := mappings["properties"].(map[string]any)
		emb, _ := props["embedding"].(map[string]any)
		dim, _ := emb["dimension"].(float64)
		f.collections[name] = &fakeCollection{dim: int(dim), docs: map[string]fakeDoc{}}
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})

	case !exists:
		writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+name+"]")

	case r.Method == http.MethodDelete && op == "":
		delete(f.collections, name)
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})

	case r.Method == http.MethodGet && op == "_mapping":
		writeJSON(w, http.StatusOK, map[string]any{
			name: map[string]any{"mappings": map[string]any{"properties": map[string]any{
				"embedding": map[string]any{"type": "knn_vector", "dimension": coll.dim},
			}}},
		})

	case isMethod(r, http.MethodPut, http.MethodPost) && op == "_doc" && len(parts) == 3:
		var doc fakeDoc
		raw, _ := json.Marshal(body)
		_ = json.Unmarshal(raw, &doc)
		if len(doc.Embedding) != coll.dim {
			writeError(w, http.StatusBadRequest, "mapper_parsing_exception", "wrong dimension")
			return
		}
		if f.reject != "" && strings.Contains(doc.Name, f.reject) {
			writeError(w, http.StatusBadRequest, "mapper_parsing_exception", "rejected")
			return
		}
		coll.docs[parts[2]] = doc
		coll.ids = append(coll.ids, parts[2])
		writeJSON(w, http.StatusCreated, map[string]any{"_id": parts[2], "result": "created"})

	case isMethod(r, http.MethodPost, http.MethodGet) && op == "_refresh":
		writeJSON(w, http.StatusOK, map[string]any{})

	case isMethod(r, http.MethodPost, http.MethodGet) && op == "_search":
		f.search(w, coll, body)

	default:
		writeError(w, http.StatusBadRequest, "illegal_argument_exception", "unsupported "+key)
	}
}

func isMethod(r *http.Request, methods ...string) bool {
	return slices.Contains(methods, r.Method)
}

// search answers a k-NN query scored as (1 + cosine) / 2, like the
// cosinesimil space, or a match_all query scored 1 in insertion order.
func (f *fakeEngine) search(w http.ResponseWriter, coll *fakeCollection, body map[string]any) {
	size := int(body["size"].(float64))
	query := body["query"].(map[string]any)

	type scored struct {
		id    string
		score float64
	}
	var all []scored
	if knn, ok := query["knn"].(map[string]any); ok {
		var q []float64
		for _, x := range knn["embedding"].(map[string]any)["vector"].([]any) {
			q = append(q, x.(float64))
		}
		for _, id := range coll.ids {
			all = append(all, scored{id: id, score: (1 + cosine(q, coll.docs[id].Embedding)) / 2})
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	} else {
		for _, id := range coll.ids {
			all = append(all, scored{id: id, score: 1})
		}
	}
	if len(all) > size {
		all = all[:size]
	}

	hits := make([]map[string]any, 0, len(all))
	for _, s := range all {
		doc := coll.docs[s.id]
		hits = append(hits, map[string]any{
			"_id":    s.id,
			"_score": s.score,
			"_source": map[string]any{
				"name":  doc.Name,
				"theme": doc.Theme,
				"value": doc.Value,
			},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": map[string]any{
		"total": map[string]any{"value": len(coll.ids), "relation": "eq"},
		"hits":  hits,
	}})
}

func cosine(a []float64, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * float64(b[i])
		na += a[i] * a[i]
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
