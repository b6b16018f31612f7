package storage

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
)

// fakeStorageAPI implements the slice of the Supabase Storage REST API the
// backend uses.
type fakeStorageAPI struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	upserts int
}

func newFakeStorageAPI() (*fakeStorageAPI, *httptest.Server) {
	f := &fakeStorageAPI{objects: map[string][]byte{}, types: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /storage/v1/object/list/{bucket}", f.list)
	mux.HandleFunc("POST /storage/v1/object/{bucket}/{key...}", f.upload)
	mux.HandleFunc("GET /storage/v1/object/{bucket}/{key...}", f.download)
	mux.HandleFunc("DELETE /storage/v1/object/{bucket}", f.remove)
	return f, httptest.NewServer(mux)
}

func (f *fakeStorageAPI) upload(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Header.Get("apikey") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Header.Get("x-upsert") == "true" {
		f.upserts++
	}
	k := r.PathValue("bucket") + "/" + r.PathValue("key")
	b, _ := io.ReadAll(r.Body)
	f.objects[k] = b
	f.types[k] = r.Header.Get("Content-Type")
	_, _ = io.WriteString(w, `{"Key":"`+k+`"}`)
}

func (f *fakeStorageAPI) download(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[r.PathValue("bucket")+"/"+r.PathValue("key")]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"statusCode":"404","error":"not_found","message":"Object not found"}`)
		return
	}
	_, _ = w.Write(b)
}

func (f *fakeStorageAPI) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var body struct {
		Prefix string `json:"prefix"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	base := r.PathValue("bucket") + "/"
	if body.Prefix != "" {
		base += body.Prefix + "/"
	}
	var out []map[string]any
	for k, v := range f.objects {
		rest, ok := strings.CutPrefix(k, base)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, map[string]any{
			"name":       rest,
			"id":         "id-" + rest,
			"updated_at": "2025-01-02T03:04:05Z",
			"metadata":   map[string]any{"size": len(v)},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i]["name"].(string) < out[j]["name"].(string) })
	if out == nil {
		out = []map[string]any{}
	}
	_ = json.NewEncoder(w).Encode(out)
}

func (f *fakeStorageAPI) remove(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var body struct {
		Prefixes []string `json:"prefixes"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	out := []map[string]any{}
	for _, p := range body.Prefixes {
		k := r.PathValue("bucket") + "/" + p
		if _, ok := f.objects[k]; ok {
			delete(f.objects, k)
			out = append(out, map[string]any{"name": p})
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}
