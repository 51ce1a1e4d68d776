package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/nao1215/analystdb"
	"github.com/nao1215/analystdb/domain/model"
	"github.com/nao1215/analystdb/internal/bridge"
	"github.com/nao1215/analystdb/internal/script"
)

type connectRequest struct {
	Path string `json:"path"`
}

type queryRequest struct {
	SQL string `json:"sql"`
}

type registerRequest struct {
	Name string     `json:"name"`
	Cols []string   `json:"cols"`
	Rows [][]string `json:"rows"`
}

type readRequest struct {
	Path string `json:"path"`
}

type importRequest struct {
	Paths []string `json:"paths"`
}

type exportRequest struct {
	Dir         string `json:"dir"`
	Format      string `json:"format"`
	Compression string `json:"compression"`
}

type capabilityRequest struct {
	Args []string `json:"args"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks request bodies that could not be decoded.
var errBadRequest = errors.New("invalid request body")

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := jobContext(r)
	_, err := bridge.Submit(s.dispatcher, "connect", func() (struct{}, error) {
		return struct{}{}, s.store.Connect(ctx, req.Path)
	}).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": s.store.Path()})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := jobContext(r)
	outcome, err := bridge.Submit(s.dispatcher, "query", func() (analystdb.Outcome, error) {
		return s.store.Execute(ctx, req.SQL)
	}).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	ctx := jobContext(r)
	schema, err := bridge.Submit(s.dispatcher, "schema", func() (analystdb.Schema, error) {
		return s.store.Schema(ctx)
	}).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := jobContext(r)
	_, err := bridge.Submit(s.dispatcher, "register", func() (struct{}, error) {
		return struct{}{}, s.store.Register(ctx, req.Name, req.Cols, req.Rows)
	}).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, analystdb.ImportResult{
		Table:  model.Sanitize(req.Name),
		Source: req.Name,
		Rows:   len(req.Rows),
	})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	var req readRequest
	if !decode(w, r, &req) {
		return
	}
	table, err := bridge.Submit(s.dispatcher, "read", func() (*model.Table, error) {
		return model.ReadFile(req.Path)
	}).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := jobContext(r)
	results, err := bridge.Submit(s.dispatcher, "import", func() ([]analystdb.ImportResult, error) {
		importer, err := analystdb.NewImporter(s.store).AddPaths(req.Paths...).Build(ctx)
		if err != nil {
			return nil, err
		}
		return importer.Import(ctx)
	}).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decode(w, r, &req) {
		return
	}
	options, err := s.exportOptions(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	ctx := jobContext(r)
	_, err = bridge.Submit(s.dispatcher, "export", func() (struct{}, error) {
		return struct{}{}, s.store.Dump(ctx, req.Dir, options)
	}).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dir": req.Dir})
}

// exportOptions overlays the request on the configured dump options.
func (s *Server) exportOptions(req exportRequest) (model.DumpOptions, error) {
	options := s.dumpOptions
	if req.Format != "" {
		format, err := model.ParseOutputFormat(req.Format)
		if err != nil {
			return options, err
		}
		options = options.WithFormat(format)
	}
	if req.Compression != "" {
		compression, err := model.ParseCompressionType(req.Compression)
		if err != nil {
			return options, err
		}
		options = options.WithCompression(compression)
	}
	return options, options.Validate()
}

func (s *Server) handleCapability(w http.ResponseWriter, r *http.Request) {
	if s.invoker == nil {
		writeError(w, script.ErrUnknownCapability)
		return
	}
	var req capabilityRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	ctx := jobContext(r)
	output, err := bridge.Submit(s.dispatcher, "capability:"+id, func() (string, error) {
		return s.invoker.Invoke(ctx, id, req.Args...)
	}).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"output": output})
}

// jobContext detaches a job from client disconnects. A started call runs to
// completion even when nobody waits for it anymore.
func jobContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		writeError(w, errBadRequest)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errBadRequest.Error() + ": " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError reports err.Error() unmodified with a status derived from its kind.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, script.ErrUnknownCapability):
		return http.StatusNotFound
	case errors.Is(err, analystdb.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, analystdb.ErrExec),
		errors.Is(err, analystdb.ErrIngest),
		errors.Is(err, analystdb.ErrRowArity),
		errors.Is(err, analystdb.ErrRead),
		errors.Is(err, analystdb.ErrUnsupportedFileType),
		errors.Is(err, analystdb.ErrEmptyData),
		errors.Is(err, analystdb.ErrNoInputs):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
