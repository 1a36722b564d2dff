// Package server exposes script execution over HTTP.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/dotsian/dexscript/internal/engine"
	"github.com/dotsian/dexscript/internal/model"
	"github.com/dotsian/dexscript/internal/runner"
	"github.com/dotsian/dexscript/internal/yield"
)

// MaxUploadSize bounds multipart request bodies and files returned inline.
const MaxUploadSize = 32 << 20

var errUnsupportedMediaType = errors.New("content type must be application/json or multipart/form-data")

// Options configure the API.
type Options struct {
	// Token must be presented as "Authorization: Bearer <token>" on every
	// route that reads or changes state. An empty token rejects them all.
	Token string
	// Origins lists the browser origins allowed to call the API. CORS is
	// off when empty.
	Origins []string
}

// New returns a router serving the script API.
func New(run *runner.Runner, log *slog.Logger, opts Options) *chi.Mux {
	r := chi.NewRouter()

	if len(opts.Origins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   opts.Origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
			Debug:            false,
		}).Handler)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	RegisterHandlers(r, run, opts.Token)

	return r
}

// RegisterHandlers mounts the API routes on r. Everything but /models
// requires the bearer token.
func RegisterHandlers(r chi.Router, run *runner.Runner, token string) {
	r.Get("/models", NewModelsHandler(run.Engine().Registry()))

	r.Group(func(r chi.Router) {
		r.Use(RequireToken(token))
		r.Post("/run", NewRunHandler(run))
		r.Get("/yields", NewYieldsHandler(run.Engine().Yields()))
	})
}

// RequireToken rejects requests without the bearer token with 401.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logging.GetFromContext(r.Context()).Warn("unauthorized request", "method", r.Method)
				w.Header().Set("WWW-Authenticate", `Bearer realm="dexscript"`)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.NewContextWithLogger(r.Context(), log,
				"request_id", uuid.NewString(),
				"path", r.URL.Path,
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type runRequest struct {
	Code string `json:"code"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// fileInfo is a replied file with its content inlined (base64 in JSON).
type fileInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Content []byte `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

type replyInfo struct {
	Text  string     `json:"text,omitempty"`
	Files []fileInfo `json:"files,omitempty"`
}

type runResponse struct {
	Status   string      `json:"status"`
	Replies  []replyInfo `json:"replies"`
	Reaction string      `json:"reaction,omitempty"`
	Error    string      `json:"error,omitempty"`
	Kind     string      `json:"kind,omitempty"`
}

// NewRunHandler executes the posted script. It accepts either a JSON body
// {"code": "..."} or a multipart form with a code field and files.
func NewRunHandler(run *runner.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logging.GetFromContext(ctx)

		code, attachments, err := readRunRequest(w, r)
		if err != nil {
			log.Warn("bad run request", "err", err.Error())
			status := http.StatusBadRequest
			if errors.Is(err, errUnsupportedMediaType) {
				status = http.StatusUnsupportedMediaType
			}
			writeJSON(w, status, errorResponse{Error: err.Error()})
			return
		}

		out := run.Run(ctx, code, attachments)
		if out.Status != engine.StatusSuccess.String() {
			log.Info("script failed", "kind", out.Kind)
		}

		writeJSON(w, http.StatusOK, newRunResponse(out))
	}
}

func newRunResponse(out runner.Output) runResponse {
	resp := runResponse{
		Status:   out.Status,
		Replies:  make([]replyInfo, 0, len(out.Replies)),
		Reaction: out.Reaction,
		Error:    out.Error,
		Kind:     out.Kind,
	}
	for _, reply := range out.Replies {
		info := replyInfo{Text: reply.Text}
		for _, path := range reply.Files {
			info.Files = append(info.Files, readReplyFile(path))
		}
		resp.Replies = append(resp.Replies, info)
	}
	return resp
}

func readReplyFile(path string) fileInfo {
	info := fileInfo{Name: filepath.Base(path), Path: filepath.ToSlash(path)}

	f, err := os.Open(path)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	switch {
	case err != nil:
		info.Error = err.Error()
	case len(content) > MaxUploadSize:
		info.Error = fmt.Sprintf("file larger than %d bytes", MaxUploadSize)
	default:
		info.Content = content
	}
	return info
}

func readRunRequest(w http.ResponseWriter, r *http.Request) (string, []engine.Attachment, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			return "", nil, err
		}

		code := r.FormValue("code")
		if strings.TrimSpace(code) == "" {
			return "", nil, errors.New("code is required")
		}

		var attachments []engine.Attachment
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				return "", nil, err
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return "", nil, err
			}
			attachments = append(attachments, engine.Attachment{Filename: fh.Filename, Content: content})
		}
		return code, attachments, nil

	case "application/json":
		var req runRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, MaxUploadSize)).Decode(&req); err != nil {
			return "", nil, errors.New("body must be JSON with a code field")
		}
		if strings.TrimSpace(req.Code) == "" {
			return "", nil, errors.New("code is required")
		}
		return req.Code, nil, nil
	}

	return "", nil, errUnsupportedMediaType
}

type modelInfo struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Identifier string   `json:"identifier"`
	Fields     []string `json:"fields"`
}

// NewModelsHandler lists the registered models.
func NewModelsHandler(registry *model.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var models []modelInfo
		for _, name := range registry.Names() {
			entry, _ := registry.Lookup(name)
			models = append(models, modelInfo{
				Name:       entry.Name,
				Kind:       entry.Kind(),
				Identifier: entry.IdentifierField,
				Fields:     entry.Schema.FieldNames(),
			})
		}
		writeJSON(w, http.StatusOK, models)
	}
}

type yieldInfo struct {
	Position   int            `json:"position"`
	Model      string         `json:"model"`
	Identifier string         `json:"identifier"`
	Op         string         `json:"op"`
	Fields     map[string]any `json:"fields"`
}

// NewYieldsHandler lists the staged yields in commit order.
func NewYieldsHandler(cache *yield.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		yields := []yieldInfo{}
		for i, y := range cache.Items() {
			yields = append(yields, yieldInfo{
				Position:   i + 1,
				Model:      y.Entry.Kind(),
				Identifier: y.Identifier,
				Op:         y.Op.String(),
				Fields:     y.Fields,
			})
		}
		writeJSON(w, http.StatusOK, yields)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
