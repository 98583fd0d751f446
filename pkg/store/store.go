// Package store provides in-memory storage for programs, their runs and
// interactive sessions.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lemonberrylabs/golox/pkg/lox"
)

var (
	// ErrNotFound is returned when the named resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a resource whose name is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// RunState represents the state of a program run.
type RunState string

const (
	RunActive    RunState = "ACTIVE"
	RunSucceeded RunState = "SUCCEEDED"
	RunFailed    RunState = "FAILED"
)

// Program is a stored Lox source file.
type Program struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source"`
	RevisionID  string    `json:"revisionId"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`
}

// Run is one execution of a stored program on a fresh interpreter.
type Run struct {
	Name              string    `json:"name"`
	State             RunState  `json:"state"`
	Output            string    `json:"output"`
	Diagnostics       []string  `json:"diagnostics,omitempty"`
	Error             string    `json:"error,omitempty"`
	ExitCode          int       `json:"exitCode"`
	ProgramRevisionID string    `json:"programRevisionId"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime,omitempty"`
}

// Session is a long-lived interpreter addressed by ID.
type Session struct {
	ID         string       `json:"id"`
	Session    *lox.Session `json:"-"`
	CreateTime time.Time    `json:"createTime"`
	LastUsed   time.Time    `json:"lastUsed"`
	RunCount   int          `json:"runCount"`
}

// Store is a thread-safe in-memory storage for programs, runs and sessions.
// Getters return copies, so callers never observe later updates.
type Store struct {
	mu       sync.RWMutex
	programs map[string]*Program
	runs     map[string]*Run
	sessions map[string]*Session

	// Counters for generating unique IDs
	runCounter int64
	revCounter int64
}

// New creates a new empty store.
func New() *Store {
	return &Store{
		programs: make(map[string]*Program),
		runs:     make(map[string]*Run),
		sessions: make(map[string]*Session),
	}
}

// ProgramName returns the resource name for a program ID.
func ProgramName(id string) string {
	return "programs/" + id
}

// RunName returns the resource name of a run under a program.
func RunName(programName, runID string) string {
	return programName + "/runs/" + runID
}

// CreateProgram stores a new program.
func (s *Store) CreateProgram(id, source, description string) (*Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := ProgramName(id)
	if _, exists := s.programs[name]; exists {
		return nil, fmt.Errorf("program '%s' %w", name, ErrAlreadyExists)
	}

	now := time.Now()
	p := &Program{
		Name:        name,
		Description: description,
		Source:      source,
		RevisionID:  s.nextRevision(),
		CreateTime:  now,
		UpdateTime:  now,
	}
	s.programs[name] = p
	cp := *p
	return &cp, nil
}

// GetProgram retrieves a program by its full name.
func (s *Store) GetProgram(name string) (*Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.programs[name]
	if !ok {
		return nil, fmt.Errorf("program '%s' %w", name, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

// ListPrograms returns all programs sorted by name.
func (s *Store) ListPrograms() []*Program {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Program, 0, len(s.programs))
	for _, p := range s.programs {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// UpdateProgram replaces a program's source and bumps its revision. An empty
// description keeps the current one.
func (s *Store) UpdateProgram(name, source, description string) (*Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.programs[name]
	if !ok {
		return nil, fmt.Errorf("program '%s' %w", name, ErrNotFound)
	}

	p.Source = source
	if description != "" {
		p.Description = description
	}
	p.RevisionID = s.nextRevision()
	p.UpdateTime = time.Now()

	cp := *p
	return &cp, nil
}

// DeleteProgram removes a program and its runs.
func (s *Store) DeleteProgram(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.programs[name]; !ok {
		return fmt.Errorf("program '%s' %w", name, ErrNotFound)
	}
	delete(s.programs, name)

	prefix := name + "/runs/"
	for runName := range s.runs {
		if strings.HasPrefix(runName, prefix) {
			delete(s.runs, runName)
		}
	}
	return nil
}

// CreateRun records a new active run of the program's current revision.
func (s *Store) CreateRun(programName string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.programs[programName]
	if !ok {
		return nil, fmt.Errorf("program '%s' %w", programName, ErrNotFound)
	}

	s.runCounter++
	r := &Run{
		Name:              RunName(programName, fmt.Sprintf("run-%d", s.runCounter)),
		State:             RunActive,
		ProgramRevisionID: p.RevisionID,
		StartTime:         time.Now(),
	}
	s.runs[r.Name] = r
	cp := *r
	return &cp, nil
}

// GetRun retrieves a run by name.
func (s *Store) GetRun(name string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[name]
	if !ok {
		return nil, fmt.Errorf("run '%s' %w", name, ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

// ListRuns returns the runs of a program in creation order.
func (s *Store) ListRuns(programName string) []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Run
	prefix := programName + "/runs/"
	for name, r := range s.runs {
		if strings.HasPrefix(name, prefix) {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return runSeq(result[i].Name) < runSeq(result[j].Name)
	})
	return result
}

// CompleteRun records the outcome of a run. Any error in the result marks
// the run FAILED.
func (s *Store) CompleteRun(name string, res *lox.Result) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[name]
	if !ok {
		return nil, fmt.Errorf("run '%s' %w", name, ErrNotFound)
	}

	r.Output = res.Output
	r.Diagnostics = res.Diagnostics.Strings()
	r.ExitCode = res.ExitCode()
	r.EndTime = time.Now()
	r.State = RunSucceeded
	if err := res.Err(); err != nil {
		r.State = RunFailed
		r.Error = err.Error()
	}

	cp := *r
	return &cp, nil
}

// FailRun marks a run as failed without a result.
func (s *Store) FailRun(name string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[name]
	if !ok {
		return fmt.Errorf("run '%s' %w", name, ErrNotFound)
	}
	if r.State != RunActive {
		return fmt.Errorf("run '%s' is not active (state: %s)", name, r.State)
	}

	r.State = RunFailed
	r.Error = err.Error()
	r.EndTime = time.Now()
	return nil
}

// CreateSession starts a new interpreter session.
func (s *Store) CreateSession(opts ...lox.Option) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sess := &Session{
		ID:         uuid.NewString(),
		Session:    lox.NewSession(opts...),
		CreateTime: now,
		LastUsed:   now,
	}
	s.sessions[sess.ID] = sess
	cp := *sess
	return &cp
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session '%s' %w", id, ErrNotFound)
	}
	cp := *sess
	return &cp, nil
}

// ListSessions returns all sessions, oldest first.
func (s *Store) ListSessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp := *sess
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreateTime.Before(result[j].CreateTime)
	})
	return result
}

// ExecSession runs source on the session and records its use.
func (s *Store) ExecSession(id, source string) (*lox.Result, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session '%s' %w", id, ErrNotFound)
	}

	// The session serializes its own runs; the store lock is not held
	// while user code executes.
	res := sess.Session.Run(source)

	s.mu.Lock()
	sess.LastUsed = time.Now()
	sess.RunCount++
	s.mu.Unlock()
	return res, nil
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session '%s' %w", id, ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) nextRevision() string {
	s.revCounter++
	return fmt.Sprintf("%06d-000", s.revCounter)
}

// runSeq extracts N from ".../runs/run-N".
func runSeq(name string) int {
	var n int
	if i := strings.LastIndex(name, "run-"); i >= 0 {
		fmt.Sscanf(name[i+len("run-"):], "%d", &n)
	}
	return n
}
