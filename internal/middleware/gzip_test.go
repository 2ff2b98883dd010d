package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func echoHandler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	defer r.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received":` + string(body) + `}`))
}

func gzipBody(t *testing.T, s string) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(s)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return &buf
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()

	var r io.Reader = res.Body
	if res.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(res.Body)
		if err != nil {
			t.Fatalf("new gzip reader: %v", err)
		}
		defer gr.Close()
		r = gr
	}

	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestGzipMiddleware(t *testing.T) {
	type want struct {
		statusCode      int
		contentEncoding string
		body            string
	}

	tests := []struct {
		name       string
		body       string
		compressed bool
		accept     string
		want       want
	}{
		{
			name:   "client accepts gzip",
			body:   `{"id":17933}`,
			accept: "gzip, deflate, br",
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				body:            `{"received":{"id":17933}}`,
			},
		},
		{
			name:   "client does not accept gzip",
			body:   `{"id":17933}`,
			accept: "",
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "",
				body:            `{"received":{"id":17933}}`,
			},
		},
		{
			name:       "compressed request body",
			body:       `{"id":17934}`,
			compressed: true,
			accept:     "gzip",
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				body:            `{"received":{"id":17934}}`,
			},
		},
		{
			name:       "compressed request, plain response",
			body:       `{"id":17935}`,
			compressed: true,
			accept:     "identity",
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "",
				body:            `{"received":{"id":17935}}`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = strings.NewReader(tt.body)
			if tt.compressed {
				body = gzipBody(t, tt.body)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/selection", body)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept-Encoding", tt.accept)
			if tt.compressed {
				req.Header.Set("Content-Encoding", "gzip")
			}

			rec := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(echoHandler)).ServeHTTP(rec, req)

			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.want.statusCode {
				t.Fatalf("status: got %d want %d", res.StatusCode, tt.want.statusCode)
			}
			if ct := res.Header.Get("Content-Type"); ct != "application/json" {
				t.Fatalf("content-type: got %q want application/json", ct)
			}
			if ce := res.Header.Get("Content-Encoding"); ce != tt.want.contentEncoding {
				t.Fatalf("content-encoding: got %q want %q", ce, tt.want.contentEncoding)
			}
			if got := readBody(t, res); got != tt.want.body {
				t.Fatalf("body: got %q want %q", got, tt.want.body)
			}
		})
	}
}

func TestGzipMiddleware_NoContent(t *testing.T) {
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/selection", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusNoContent)
	}
	if ce := rec.Header().Get("Content-Encoding"); ce != "" {
		t.Fatalf("content-encoding: got %q want empty", ce)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("body must be empty, got %d bytes", rec.Body.Len())
	}
}

func TestGzipMiddleware_InvalidRequestBody(t *testing.T) {
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/selection", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
}
