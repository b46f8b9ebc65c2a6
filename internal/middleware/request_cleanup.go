package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// LimitAndDrainRequest caps request bodies at maxBodyBytes (an import document is the largest
// legitimate one). Declared oversize bodies are rejected with 413 before reaching the handler.
// Whatever the handler left unread is drained and the body closed, so the connection can be reused.
func LimitAndDrainRequest(maxBodyBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBodyBytes > 0 {
				if r.ContentLength > maxBodyBytes {
					log.Warnf("request body of %d bytes to %s rejected", r.ContentLength, r.URL.Path)
					http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				if r.Body != nil {
					r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
				}
			}

			next.ServeHTTP(w, r)

			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
