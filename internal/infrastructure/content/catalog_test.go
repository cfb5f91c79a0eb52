package content

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "web-basics-challenge", "config.json"),
		`{"id":"web-basics-challenge","name":"Web Basics","description":"d","password":"open"}`)
	writeFile(t, filepath.Join(dir, "web-basics-challenge", "ctfs", "robot-rules", "config.json"),
		`{"id":"robot-rules","title":"Robot Rules","points":40,"photo":null,"links":[],"hints":["robots.txt"],"flag":"FLAG{bots}"}`)
	writeFile(t, filepath.Join(dir, "web-basics-challenge", "ctfs", "cookie-clue", "config.json"),
		`{"title":"Cookie Clue","points":60,"photo":"cookie.png","links":["https://example.test"],"hints":[],"flag":"FLAG{cookie}"}`)
	writeFile(t, filepath.Join(dir, "cryptography-challenge", "config.json"),
		`{"name":"Cryptography","password":""}`)
	if err := os.MkdirAll(filepath.Join(dir, "drafts"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	c, err := LoadCatalog(context.Background(), dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	challenges, _ := c.ListChallenges(context.Background())
	ids := make([]string, 0, len(challenges))
	for _, item := range challenges {
		ids = append(ids, item.ID)
	}
	if !reflect.DeepEqual(ids, []string{"cryptography-challenge", "web-basics-challenge"}) {
		t.Fatalf("unexpected challenges: %v", ids)
	}

	cookie, ok, _ := c.ResolveCTF(context.Background(), "web-basics-challenge", "cookie-clue")
	if !ok || cookie.Points != 60 || cookie.Photo != "cookie.png" {
		t.Fatalf("expected directory name as ctf id, got %+v ok=%v", cookie, ok)
	}
	robots, ok, _ := c.ResolveCTF(context.Background(), "web-basics-challenge", "robot-rules")
	if !ok || robots.Photo != "" || !robots.MatchesFlag("FLAG{bots}") {
		t.Fatalf("unexpected robot rules: %+v", robots)
	}
	if _, ok, _ := c.ResolveCTF(context.Background(), "cryptography-challenge", "robot-rules"); ok {
		t.Fatalf("ctf must be scoped to its challenge")
	}

	if n, m := c.Size(); n != 2 || m != 2 {
		t.Fatalf("unexpected size: %d %d", n, m)
	}
	empty, _ := c.ListCTFs(context.Background(), "cryptography-challenge")
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty ctf list, got %#v", empty)
	}
}

func TestLoadCatalog_InvalidJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken", "config.json"), `{"name":`)

	if _, err := LoadCatalog(context.Background(), dir); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadCatalog_MissingDir(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if n, _ := c.Size(); n != 0 {
		t.Fatalf("expected empty catalog")
	}
}

func TestLoadEvents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.json")
	writeFile(t, path, `[
  {"id":"class-a","name":"Class A","date":"2026-03-01","location":"Lab 1","password":"alpha","description":""},
  {"id":"class-b","name":"Class B","password":"bravo"}
]`)

	dir, err := LoadEvents(path)
	if err != nil {
		t.Fatalf("load events: %v", err)
	}
	got, ok, _ := dir.FindByPassword(context.Background(), "bravo")
	if !ok || got.ID != "class-b" {
		t.Fatalf("unexpected event: %+v ok=%v", got, ok)
	}
	if _, ok, _ := dir.FindByPassword(context.Background(), "Bravo"); ok {
		t.Fatalf("passwords must be case-sensitive")
	}
	if item, ok, _ := dir.GetByID(context.Background(), "class-a"); !ok || item.Location != "Lab 1" {
		t.Fatalf("unexpected event: %+v", item)
	}

	writeFile(t, path, `[{"id":"x"},{"id":"x"}]`)
	if _, err := LoadEvents(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
