package server

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/duynguyendang/contentgraph/internal/manager"
	"github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// MaxBinarySize bounds uploaded binary content.
const MaxBinarySize = 32 << 20

// PathResponse describes one path.
type PathResponse struct {
	Path       string `json:"path"`
	Absolute   bool   `json:"absolute"`
	Normalized bool   `json:"normalized"`
	Size       int    `json:"size"`
}

// ValueResponse is a converted value rendered as a string.
type ValueResponse struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// PropertyResponse is a property with its values rendered as strings.
type PropertyResponse struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Values []string `json:"values"`
	Text   string   `json:"text"`
}

// BinaryResponse identifies stored binary content.
type BinaryResponse struct {
	Hash        string `json:"hash"`
	Size        int64  `json:"size"`
	Description string `json:"description"`
}

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}

func workspaceID(c *gin.Context) string {
	if id := c.Query("workspace"); id != "" {
		return id
	}
	return DefaultWorkspace
}

func (s *Server) session(c *gin.Context) (*manager.Session, bool) {
	sess, err := s.manager.Session(workspaceID(c))
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	return sess, true
}

// rawText turns a JSON scalar into the text the value factories parse:
// strings are unquoted, numbers and booleans keep their literal form.
func rawText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	if trimmed == "" || trimmed == "null" || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "", errors.NewAppError(http.StatusBadRequest, "Values must be JSON scalars", nil)
	}
	return trimmed, nil
}

func render(sess *manager.Session, v any) (string, error) {
	return sess.Values.Strings().Create(v)
}

func describePath(sess *manager.Session, p *value.Path) (PathResponse, error) {
	text, err := render(sess, p)
	if err != nil {
		return PathResponse{}, err
	}
	return PathResponse{Path: text, Absolute: p.IsAbsolute(), Normalized: p.IsNormalized(), Size: p.Size()}, nil
}

func (s *Server) parsePath(sess *manager.Session, text string) (*value.Path, error) {
	return sess.Values.Paths().CreateString(text, nil)
}

// handleWorkspaces returns the available workspaces.
func (s *Server) handleWorkspaces(c *gin.Context) {
	workspaces, err := s.manager.ListWorkspaces()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, workspaces)
}

// handleTypes lists the property type names.
func (s *Server) handleTypes(c *gin.Context) {
	types := value.PropertyTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	c.JSON(http.StatusOK, names)
}

// handleNamespaces lists the bindings of a workspace.
func (s *Server) handleNamespaces(c *gin.Context) {
	ws, err := s.manager.Workspace(workspaceID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws.Registry().Namespaces())
}

// handleRegisterNamespace binds a prefix in a workspace and returns the URI it
// was bound to before.
func (s *Server) handleRegisterNamespace(c *gin.Context) {
	var req namespace.Namespace
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	ws, err := s.manager.Workspace(workspaceID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	previous, err := ws.Registry().Register(req.Prefix, req.URI)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"previous": previous})
}

// handleUnregisterNamespace removes the binding of ?uri=.
func (s *Server) handleUnregisterNamespace(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing uri parameter", nil))
		return
	}
	ws, err := s.manager.Workspace(workspaceID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	removed, err := ws.Registry().Unregister(uri)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// handleNormalize returns the normalized form of a path.
func (s *Server) handleNormalize(c *gin.Context) {
	var req struct {
		Path      string `json:"path"`
		Canonical bool   `json:"canonical"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}
	p, err := s.parsePath(sess, req.Path)
	if err != nil {
		handleError(c, err)
		return
	}
	if req.Canonical {
		p, err = p.CanonicalPath()
	} else {
		p, err = p.NormalizedPath()
	}
	if err != nil {
		handleError(c, err)
		return
	}
	resp, err := describePath(sess, p)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleResolve resolves path against base.
func (s *Server) handleResolve(c *gin.Context) {
	var req struct {
		Base string `json:"base" binding:"required"`
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}
	base, err := s.parsePath(sess, req.Base)
	if err != nil {
		handleError(c, err)
		return
	}
	rel, err := s.parsePath(sess, req.Path)
	if err != nil {
		handleError(c, err)
		return
	}
	resolved, err := base.Resolve(rel)
	if err != nil {
		handleError(c, err)
		return
	}
	resp, err := describePath(sess, resolved)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleRelative computes the relative path leading from "from" to "path".
func (s *Server) handleRelative(c *gin.Context) {
	var req struct {
		From string `json:"from" binding:"required"`
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}
	from, err := s.parsePath(sess, req.From)
	if err != nil {
		handleError(c, err)
		return
	}
	target, err := s.parsePath(sess, req.Path)
	if err != nil {
		handleError(c, err)
		return
	}
	rel, err := target.RelativeTo(from)
	if err != nil {
		handleError(c, err)
		return
	}
	resp, err := describePath(sess, rel)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleConvert converts a JSON scalar to a property type.
func (s *Server) handleConvert(c *gin.Context) {
	var req struct {
		Type  string          `json:"type" binding:"required"`
		Value json.RawMessage `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	typ, err := value.ParsePropertyType(req.Type)
	if err != nil {
		handleError(c, err)
		return
	}
	text, err := rawText(req.Value)
	if err != nil {
		handleError(c, err)
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}
	converted, err := sess.Values.Convert(typ, text)
	if err != nil {
		handleError(c, err)
		return
	}
	out, err := render(sess, converted)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ValueResponse{Type: typ.String(), Value: out})
}

// handleProperty builds a property, substituting ${...} references in its
// values.
func (s *Server) handleProperty(c *gin.Context) {
	var req struct {
		Name   string            `json:"name" binding:"required"`
		Type   string            `json:"type"`
		Values []json.RawMessage `json:"values"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	typ := value.TypeString
	if req.Type != "" {
		var err error
		if typ, err = value.ParsePropertyType(req.Type); err != nil {
			handleError(c, err)
			return
		}
	}
	values := make([]any, len(req.Values))
	for i, raw := range req.Values {
		text, err := rawText(raw)
		if err != nil {
			handleError(c, err)
			return
		}
		values[i] = text
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}
	name, err := sess.Values.Names().CreateString(req.Name, nil)
	if err != nil {
		handleError(c, err)
		return
	}
	prop, err := sess.Properties.CreateTyped(name, typ, values...)
	if err != nil {
		handleError(c, err)
		return
	}

	resp := PropertyResponse{
		Type:   prop.Type().String(),
		Values: make([]string, 0, prop.Size()),
		Text:   prop.StringWith(sess.Registry),
	}
	if resp.Name, err = render(sess, name); err != nil {
		handleError(c, err)
		return
	}
	for _, v := range prop.All() {
		out, err := render(sess, v)
		if err != nil {
			handleError(c, err)
			return
		}
		resp.Values = append(resp.Values, out)
	}
	c.JSON(http.StatusOK, resp)
}

// handlePutBinary stores the request body as binary content.
func (s *Server) handlePutBinary(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBinarySize+1))
	if err != nil {
		handleError(c, errors.IOError("read body", err))
		return
	}
	if len(data) > MaxBinarySize {
		handleError(c, errors.NewAppError(http.StatusRequestEntityTooLarge, "Binary too large", nil))
		return
	}
	ws, err := s.manager.Workspace(workspaceID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	b := value.NewInMemoryBinary(data)
	hash, err := ws.Binaries().Put(b)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, BinaryResponse{Hash: hex.EncodeToString(hash), Size: b.Size(), Description: b.String()})
}

// handleGetBinary returns stored binary content.
func (s *Server) handleGetBinary(c *gin.Context) {
	hash, err := hex.DecodeString(c.Param("hash"))
	if err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Malformed hash", err))
		return
	}
	ws, err := s.manager.Workspace(workspaceID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	b, err := ws.Binaries().Get(hash)
	if err != nil {
		handleError(c, err)
		return
	}
	data, err := b.Bytes()
	if err != nil {
		handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}
