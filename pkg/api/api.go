// Package api implements the REST API for stored programs, their runs,
// interactive sessions and one-shot evaluation.
package api

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/golox/pkg/ast"
	"github.com/lemonberrylabs/golox/pkg/lox"
	"github.com/lemonberrylabs/golox/pkg/scanner"
	"github.com/lemonberrylabs/golox/pkg/store"
	"github.com/lemonberrylabs/golox/pkg/types"
)

// Server is the HTTP API server.
type Server struct {
	app   *fiber.App
	store *store.Store
	opts  []lox.Option
}

// New creates a new API server. opts apply to every session it creates.
func New(s *store.Store, opts ...lox.Option) *Server {
	srv := &Server{
		store: s,
		opts:  opts,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	srv.app = app
	srv.Register(app)
	return srv
}

// Register mounts the API routes on app.
func (s *Server) Register(app *fiber.App) {
	// Programs
	app.Post("/v1/programs", s.createProgram)
	app.Get("/v1/programs", s.listPrograms)
	app.Get("/v1/programs/:program", s.getProgram)
	app.Patch("/v1/programs/:program", s.updateProgram)
	app.Delete("/v1/programs/:program", s.deleteProgram)

	// Runs
	app.Post("/v1/programs/:program/runs", s.createRun)
	app.Get("/v1/programs/:program/runs", s.listRuns)
	app.Get("/v1/programs/:program/runs/:run", s.getRun)

	// Sessions
	app.Post("/v1/sessions", s.createSession)
	app.Get("/v1/sessions", s.listSessions)
	app.Post("/v1/sessions/:session\\:exec", s.execSession)
	app.Get("/v1/sessions/:session", s.getSession)
	app.Delete("/v1/sessions/:session", s.deleteSession)

	// One-shot
	app.Post("/v1/eval", s.eval)
	app.Post("/v1/tokens", s.tokenize)
	app.Post("/v1/ast", s.parse)
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// --- Program Handlers ---

type programRequest struct {
	Source      string `json:"source"`
	Description string `json:"description"`
}

func (s *Server) createProgram(c *fiber.Ctx) error {
	programID := c.Query("programId")
	if programID == "" {
		return apiError(c, fiber.StatusBadRequest, "programId query parameter is required")
	}
	if !validProgramID.MatchString(programID) {
		return apiError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid programId %q", programID))
	}

	var req programRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Source == "" {
		return apiError(c, fiber.StatusBadRequest, "source is required")
	}
	if _, diags := lox.Parse(req.Source); len(diags) > 0 {
		return diagnosticsError(c, diags)
	}

	p, err := s.store.CreateProgram(programID, req.Source, req.Description)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(programToJSON(p))
}

func (s *Server) getProgram(c *fiber.Ctx) error {
	p, err := s.store.GetProgram(store.ProgramName(c.Params("program")))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(programToJSON(p))
}

func (s *Server) listPrograms(c *fiber.Ctx) error {
	programs := s.store.ListPrograms()

	items := make([]fiber.Map, len(programs))
	for i, p := range programs {
		items[i] = programToJSON(p)
	}
	return c.JSON(fiber.Map{
		"programs": items,
	})
}

func (s *Server) updateProgram(c *fiber.Ctx) error {
	name := store.ProgramName(c.Params("program"))

	var req programRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	source := req.Source
	if source == "" {
		current, err := s.store.GetProgram(name)
		if err != nil {
			return storeError(c, err)
		}
		source = current.Source
	} else if _, diags := lox.Parse(source); len(diags) > 0 {
		return diagnosticsError(c, diags)
	}

	p, err := s.store.UpdateProgram(name, source, req.Description)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(programToJSON(p))
}

func (s *Server) deleteProgram(c *fiber.Ctx) error {
	if err := s.store.DeleteProgram(store.ProgramName(c.Params("program"))); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{})
}

// --- Run Handlers ---

// createRun executes the program's current source on a fresh interpreter.
// It answers once the run has finished.
func (s *Server) createRun(c *fiber.Ctx) error {
	name := store.ProgramName(c.Params("program"))

	p, err := s.store.GetProgram(name)
	if err != nil {
		return storeError(c, err)
	}
	run, err := s.store.CreateRun(name)
	if err != nil {
		return storeError(c, err)
	}

	run, err = s.store.CompleteRun(run.Name, lox.Run(p.Source, s.opts...))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(runToJSON(run))
}

func (s *Server) getRun(c *fiber.Ctx) error {
	name := store.RunName(store.ProgramName(c.Params("program")), c.Params("run"))

	run, err := s.store.GetRun(name)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(runToJSON(run))
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	name := store.ProgramName(c.Params("program"))
	if _, err := s.store.GetProgram(name); err != nil {
		return storeError(c, err)
	}

	runs := s.store.ListRuns(name)
	items := make([]fiber.Map, len(runs))
	for i, r := range runs {
		items[i] = runToJSON(r)
	}
	return c.JSON(fiber.Map{
		"runs": items,
	})
}

// --- Session Handlers ---

type sourceRequest struct {
	Source     string `json:"source"`
	Expression bool   `json:"expression"`
}

func (s *Server) createSession(c *fiber.Ctx) error {
	sess := s.store.CreateSession(s.opts...)
	return c.JSON(sessionToJSON(sess))
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	sessions := s.store.ListSessions()

	items := make([]fiber.Map, len(sessions))
	for i, sess := range sessions {
		items[i] = sessionToJSON(sess)
	}
	return c.JSON(fiber.Map{
		"sessions": items,
	})
}

func (s *Server) getSession(c *fiber.Ctx) error {
	sess, err := s.store.GetSession(c.Params("session"))
	if err != nil {
		return storeError(c, err)
	}

	result := sessionToJSON(sess)
	result["globals"] = sess.Session.Globals()
	return c.JSON(result)
}

func (s *Server) execSession(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	res, err := s.store.ExecSession(c.Params("session"), req.Source)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(resultToJSON(res))
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	if err := s.store.DeleteSession(c.Params("session")); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{})
}

// --- One-shot Handlers ---

func (s *Server) eval(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	return c.JSON(resultToJSON(lox.Run(req.Source, s.opts...)))
}

func (s *Server) tokenize(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	tokens, diags := lox.Tokens(req.Source)
	return c.JSON(fiber.Map{
		"tokens":      tokensToJSON(tokens),
		"diagnostics": diags.Strings(),
	})
}

func (s *Server) parse(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	if req.Expression {
		expr, diags := lox.ParseExpression(req.Source)
		result := fiber.Map{"diagnostics": diags.Strings()}
		if expr != nil {
			result["ast"] = ast.Print(expr)
		}
		return c.JSON(result)
	}

	stmts, diags := lox.Parse(req.Source)
	return c.JSON(fiber.Map{
		"ast":         ast.PrintProgram(stmts),
		"diagnostics": diags.Strings(),
	})
}

// --- Directory Loading ---

var validProgramID = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// LoadDir stores every .lox file in dir as a program. The file name (sans
// extension, lowercased) becomes the program ID. Files that fail to parse
// are skipped with a warning.
func (s *Server) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading scripts directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".lox" {
			continue
		}

		base := strings.TrimSuffix(name, ext)
		programID := strings.ToLower(base)
		if programID != base {
			log.Printf("Warning: lowercased program ID %q (from file %q)", programID, name)
		}
		if !validProgramID.MatchString(programID) || len(programID) > 128 {
			log.Printf("Warning: skipping file %q, invalid program ID %q", name, programID)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: could not read %q: %v", name, err)
			continue
		}
		if _, diags := lox.Parse(string(data)); len(diags) > 0 {
			log.Printf("Warning: could not parse %q:\n%v", name, diags.ErrorOrNil())
			continue
		}

		if _, err := s.store.CreateProgram(programID, string(data), ""); err != nil {
			log.Printf("Warning: could not store %q: %v", name, err)
			continue
		}
		loaded++
		log.Printf("Loaded program %q from %s", programID, name)
	}

	log.Printf("Loaded %d program(s) from %s", loaded, dir)
	return nil
}

// --- Helpers ---

var statusNames = map[int]string{
	fiber.StatusBadRequest:          "INVALID_ARGUMENT",
	fiber.StatusNotFound:            "NOT_FOUND",
	fiber.StatusConflict:            "ALREADY_EXISTS",
	fiber.StatusInternalServerError: "INTERNAL",
}

func apiError(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
			"status":  statusNames[code],
		},
	})
}

func diagnosticsError(c *fiber.Ctx, diags types.Diagnostics) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{
			"code":        fiber.StatusBadRequest,
			"message":     "invalid program: " + diags.ErrorOrNil().Error(),
			"status":      statusNames[fiber.StatusBadRequest],
			"diagnostics": diags.Strings(),
		},
	})
}

func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apiError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return apiError(c, fiber.StatusConflict, err.Error())
	default:
		return apiError(c, fiber.StatusInternalServerError, err.Error())
	}
}

func programToJSON(p *store.Program) fiber.Map {
	return fiber.Map{
		"name":        p.Name,
		"description": p.Description,
		"source":      p.Source,
		"revisionId":  p.RevisionID,
		"createTime":  p.CreateTime.Format(time.RFC3339),
		"updateTime":  p.UpdateTime.Format(time.RFC3339),
	}
}

func runToJSON(r *store.Run) fiber.Map {
	result := fiber.Map{
		"name":              r.Name,
		"state":             r.State,
		"output":            r.Output,
		"exitCode":          r.ExitCode,
		"programRevisionId": r.ProgramRevisionID,
		"startTime":         r.StartTime.Format(time.RFC3339),
	}
	if len(r.Diagnostics) > 0 {
		result["diagnostics"] = r.Diagnostics
	}
	if r.Error != "" {
		result["error"] = r.Error
	}
	if !r.EndTime.IsZero() {
		result["endTime"] = r.EndTime.Format(time.RFC3339)
	}
	return result
}

func sessionToJSON(sess *store.Session) fiber.Map {
	return fiber.Map{
		"id":         sess.ID,
		"createTime": sess.CreateTime.Format(time.RFC3339),
		"lastUsed":   sess.LastUsed.Format(time.RFC3339),
		"runCount":   sess.RunCount,
	}
}

func resultToJSON(res *lox.Result) fiber.Map {
	result := fiber.Map{
		"output":      res.Output,
		"diagnostics": res.Diagnostics.Strings(),
		"exitCode":    res.ExitCode(),
	}
	if res.RuntimeError != nil {
		result["runtimeError"] = fiber.Map{
			"message": res.RuntimeError.Message,
			"line":    res.RuntimeError.Line,
		}
	}
	return result
}

// tokensToJSON converts tokens to plain maps. Only numbers and strings
// carry a literal.
func tokensToJSON(tokens []scanner.Token) []fiber.Map {
	items := make([]fiber.Map, len(tokens))
	for i, tok := range tokens {
		item := fiber.Map{
			"type":   tok.Type.String(),
			"lexeme": tok.Lexeme,
			"line":   tok.Line,
		}
		if tok.HasLiteral() {
			item["literal"] = tok.Literal.ToGoValue()
		}
		items[i] = item
	}
	return items
}
