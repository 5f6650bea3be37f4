package msgcat

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got, err := c.Render("button.undo", nil); err != nil || got != "Undo" {
		t.Fatalf("button.undo = %q, %v", got, err)
	}
	got, err := c.Render("menu.skill", map[string]any{"Level": 3})
	if err != nil || got != "Skill level: 3" {
		t.Fatalf("menu.skill = %q, %v", got, err)
	}
	if _, err := c.Render("menu.skill", map[string]any{}); err == nil {
		t.Fatalf("missing template data must fail")
	}
	if _, err := c.Render("nope", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("a.yaml", "button:\n  undo: \"Zurück\"\n")
	write("ignored.txt", "button:\n  undo: nope\n")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.Text("button.undo", "Undo", nil); got != "Zurück" {
		t.Fatalf("override not applied, got %q", got)
	}
	if got := c.Text("menu.quit", "x", nil); got != "Quit" {
		t.Fatalf("defaults must survive overrides, got %q", got)
	}

	write("b.yml", "button:\n  undo: \"Again\"\n")
	if _, err := New(dir); err == nil {
		t.Fatalf("duplicate keys across override files must fail")
	}
}

func TestRejectsNonStringLeaves(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("menu:\n  skill: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected an error for a numeric leaf")
	}
}

func TestTextFallback(t *testing.T) {
	var c *Catalog
	if got := c.Text("button.undo", "Undo", nil); got != "Undo" {
		t.Fatalf("nil catalog must fall back, got %q", got)
	}
}
