// Command testapp serves pages with known-bad behaviour so a local
// console-sentinel run has something to catch: console errors, an
// uncaught exception, failing fetches, and a slow endpoint.
package main

import (
	"log"
	"net/http"
	"time"
)

const cleanPage = `<!doctype html>
<html>
<head><title>clean</title></head>
<body>
<h1>All good here</h1>
<script>console.log("page loaded");</script>
</body>
</html>`

const brokenPage = `<!doctype html>
<html>
<head><title>broken</title></head>
<body>
<h1>Broken on purpose</h1>
<script>
console.warn("deprecated API in use");
fetch("/api/flaky").catch(function (err) {
  console.error("Failed to fetch /api/flaky: " + err);
});
setTimeout(function () {
  undefinedFunction();
}, 100);
</script>
</body>
</html>`

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		serveHTML(w, cleanPage)
	})

	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		serveHTML(w, brokenPage)
	})

	mux.HandleFunc("/api/flaky", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	})

	mux.HandleFunc("/api/slow", func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(3 * time.Second)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("finally"))
	})

	mux.HandleFunc("/api/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	logger := log.New(log.Writer(), "testapp ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":3000",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :3000")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func serveHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
