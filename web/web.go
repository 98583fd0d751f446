// Package web provides the embedded playground UI: stored programs, their
// runs and a form that evaluates source on the spot.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/golox/pkg/lox"
	"github.com/lemonberrylabs/golox/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	opts    []lox.Option
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler. opts apply to every evaluation.
func New(s *store.Store, opts ...lox.Option) *Handler {
	return &Handler{
		store: s,
		opts:  opts,
		funcMap: template.FuncMap{
			"shortName":  shortName,
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"duration":   duration,
			"stateClass": stateClass,
			"stateIcon":  stateIcon,
			"truncate":   truncate,
			"countLines": countLines,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Each page is parsed with the layout on its own so that the "content"
	// blocks of different pages never collide.
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Post("/ui/eval", h.eval)
	app.Get("/ui/programs/:id", h.programDetail)
	app.Post("/ui/programs/:id/run", h.runProgram)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type programView struct {
	*store.Program
	ID          string
	RunCount    int
	FailedCount int
}

type dashboardContent struct {
	Programs []*programView
	Source   string
	Result   *resultView
}

type resultView struct {
	Output       string
	Diagnostics  []string
	RuntimeError string
	ExitCode     int
}

type programDetailContent struct {
	Program *store.Program
	ID      string
	Runs    []*store.Run
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	return h.render(c, "dashboard.html", "dashboard", h.dashboardData("", nil))
}

func (h *Handler) eval(c *fiber.Ctx) error {
	source := c.FormValue("source")
	res := lox.Run(source, h.opts...)

	view := &resultView{
		Output:      res.Output,
		Diagnostics: res.Diagnostics.Strings(),
		ExitCode:    res.ExitCode(),
	}
	if res.RuntimeError != nil {
		view.RuntimeError = res.RuntimeError.Error()
	}
	return h.render(c, "dashboard.html", "dashboard", h.dashboardData(source, view))
}

func (h *Handler) dashboardData(source string, result *resultView) dashboardContent {
	programs := h.store.ListPrograms()
	sort.SliceStable(programs, func(i, j int) bool {
		return programs[i].UpdateTime.After(programs[j].UpdateTime)
	})

	views := make([]*programView, 0, len(programs))
	for _, p := range programs {
		runs := h.store.ListRuns(p.Name)
		failed := 0
		for _, r := range runs {
			if r.State == store.RunFailed {
				failed++
			}
		}
		views = append(views, &programView{
			Program:     p,
			ID:          shortName(p.Name),
			RunCount:    len(runs),
			FailedCount: failed,
		})
	}

	return dashboardContent{
		Programs: views,
		Source:   source,
		Result:   result,
	}
}

func (h *Handler) programDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	p, err := h.store.GetProgram(store.ProgramName(id))
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Program '%s' not found", id),
		})
	}

	runs := h.store.ListRuns(p.Name)
	// Newest first.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}

	return h.render(c, "program.html", "programs", programDetailContent{
		Program: p,
		ID:      id,
		Runs:    runs,
	})
}

func (h *Handler) runProgram(c *fiber.Ctx) error {
	id := c.Params("id")

	p, err := h.store.GetProgram(store.ProgramName(id))
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Program '%s' not found", id),
		})
	}

	run, err := h.store.CreateRun(p.Name)
	if err != nil {
		return c.Status(500).SendString(err.Error())
	}
	if _, err := h.store.CompleteRun(run.Name, lox.Run(p.Source, h.opts...)); err != nil {
		return c.Status(500).SendString(err.Error())
	}
	return c.Redirect("/ui/programs/" + id)
}

// --- Template Helpers ---

func shortName(fullName string) string {
	parts := strings.Split(fullName, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return fullName
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func duration(start, end time.Time) string {
	if end.IsZero() {
		return "running"
	}
	d := end.Sub(start)
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func stateClass(state store.RunState) string {
	switch state {
	case store.RunActive:
		return "state-active"
	case store.RunSucceeded:
		return "state-succeeded"
	case store.RunFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.RunState) template.HTML {
	switch state {
	case store.RunActive:
		return "&#9654;"
	case store.RunSucceeded:
		return "&#10003;"
	case store.RunFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
