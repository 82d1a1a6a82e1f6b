package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// maxImageSize bounds an uploaded module image: an SFP dump is 512 bytes and
// a QSFP dump with upper pages 640.
const maxImageSize = 4096

// reloadHandler asks the reload loop for a config reload and reports its
// result. Requests arriving after shutdown began are refused.
func reloadHandler(ctx context.Context, requests chan<- chan error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := make(chan error, 1)
		select {
		case requests <- result:
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		select {
		case err := <-result:
			if err != nil {
				http.Error(w, fmt.Sprintf("failed to reload config: %s", err), http.StatusInternalServerError)
			}
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		}
	}
}

// simHandler inserts a module image into, or removes the module from, a
// simulated port:
//
//	POST /-/sim?port=1&action=insert   (body: EEPROM image)
//	POST /-/sim?port=1&action=remove
func simHandler(b *builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("port")
		f, ok := b.fixture(name)
		if !ok {
			http.Error(w, fmt.Sprintf("port %q is not simulated", name), http.StatusNotFound)
			return
		}

		switch action := r.URL.Query().Get("action"); action {
		case "insert":
			image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageSize))
			if err != nil {
				http.Error(w, fmt.Sprintf("failed to read module image: %s", err), http.StatusBadRequest)
				return
			}
			if len(image) == 0 {
				http.Error(w, "empty module image", http.StatusBadRequest)
				return
			}
			f.InsertImage(image)
			b.log.Info("simulated module inserted", zap.String("port", name), zap.Int("bytes", len(image)))
		case "remove":
			f.Remove()
			b.log.Info("simulated module removed", zap.String("port", name))
		default:
			http.Error(w, fmt.Sprintf("unknown action %q, want insert or remove", action), http.StatusBadRequest)
		}
	}
}
