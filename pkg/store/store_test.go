package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lemonberrylabs/golox/pkg/lox"
)

func TestProgramLifecycle(t *testing.T) {
	s := New()

	p, err := s.CreateProgram("hello", `print "hi";`, "greets")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Name != "programs/hello" || p.RevisionID != "000001-000" {
		t.Errorf("unexpected program: %+v", p)
	}

	if _, err := s.CreateProgram("hello", "", ""); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	updated, err := s.UpdateProgram(p.Name, "print 2;", "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Source != "print 2;" || updated.Description != "greets" || updated.RevisionID == p.RevisionID {
		t.Errorf("unexpected update: %+v", updated)
	}

	got, err := s.GetProgram(p.Name)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Source != "print 2;" {
		t.Errorf("get returned stale source %q", got.Source)
	}

	if err := s.DeleteProgram(p.Name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetProgram(p.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteProgram(p.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListProgramsSorted(t *testing.T) {
	s := New()
	for _, id := range []string{"b", "c", "a"} {
		if _, err := s.CreateProgram(id, "", ""); err != nil {
			t.Fatal(err)
		}
	}

	list := s.ListPrograms()
	var names []string
	for _, p := range list {
		names = append(names, p.Name)
	}
	want := []string{"programs/a", "programs/b", "programs/c"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestRuns(t *testing.T) {
	s := New()
	p, _ := s.CreateProgram("calc", "print 1 + 2;", "")

	run, err := s.CreateRun(p.Name)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if run.State != RunActive || run.ProgramRevisionID != p.RevisionID {
		t.Errorf("unexpected run: %+v", run)
	}

	done, err := s.CompleteRun(run.Name, lox.Run(p.Source))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.State != RunSucceeded || done.Output != "3\n" || done.ExitCode != 0 {
		t.Errorf("unexpected completed run: %+v", done)
	}

	failed, _ := s.CreateRun(p.Name)
	done, err = s.CompleteRun(failed.Name, lox.Run("print x;"))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.State != RunFailed || done.ExitCode != lox.ExitRuntime || done.Error != "Undefined variable 'x'.\n[line 1]" {
		t.Errorf("unexpected failed run: %+v", done)
	}

	static, _ := s.CreateRun(p.Name)
	done, _ = s.CompleteRun(static.Name, lox.Run("print ;"))
	if len(done.Diagnostics) != 1 || done.ExitCode != lox.ExitData {
		t.Errorf("unexpected static failure: %+v", done)
	}

	runs := s.ListRuns(p.Name)
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, r := range runs {
		if want := RunName(p.Name, fmt.Sprintf("run-%d", i+1)); r.Name != want {
			t.Errorf("run %d: got %s, want %s", i, r.Name, want)
		}
	}

	if err := s.DeleteProgram(p.Name); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRun(run.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("runs should be removed with their program, got %v", err)
	}
}

func TestCreateRunUnknownProgram(t *testing.T) {
	if _, err := New().CreateRun("programs/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFailRun(t *testing.T) {
	s := New()
	p, _ := s.CreateProgram("p", "", "")
	run, _ := s.CreateRun(p.Name)

	if err := s.FailRun(run.Name, errors.New("boom")); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, _ := s.GetRun(run.Name)
	if got.State != RunFailed || got.Error != "boom" {
		t.Errorf("unexpected run: %+v", got)
	}
	if err := s.FailRun(run.Name, errors.New("again")); err == nil {
		t.Error("expected an error failing a finished run")
	}
}

func TestSessions(t *testing.T) {
	s := New()
	sess := s.CreateSession()
	if _, err := uuid.Parse(sess.ID); err != nil {
		t.Errorf("session ID is not a uuid: %q", sess.ID)
	}

	if _, err := s.ExecSession(sess.ID, "var a = 40;"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	res, err := s.ExecSession(sess.ID, "print a + 2;")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if res.Output != "42\n" {
		t.Errorf("got %q", res.Output)
	}

	got, err := s.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RunCount != 2 || got.LastUsed.Before(got.CreateTime) {
		t.Errorf("unexpected session bookkeeping: %+v", got)
	}
	if len(s.ListSessions()) != 1 {
		t.Errorf("expected one session")
	}

	if err := s.DeleteSession(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.ExecSession(sess.ID, "print a;"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
