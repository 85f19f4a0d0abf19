package theme

import (
	"io"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"css/weblog.css": &fstest.MapFile{Data: []byte("body{}")},
		"img/logo.png":   &fstest.MapFile{Data: []byte{0x89, 'P', 'N', 'G'}},
		"plain.txt":      &fstest.MapFile{Data: []byte("hello")},
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"css/weblog.css", "css/weblog.css"},
		{"/css/weblog.css", "css/weblog.css"},
		{"css//weblog.css", "css/weblog.css"},
		{"css/./weblog.css", "css/weblog.css"},
		{"", ""},
		{"/", ""},
		{"..", ""},
		{"../etc/passwd", ""},
		{"css/../../etc/passwd", ""},
		{"css/../weblog.css", "weblog.css"},
	}
	for _, tt := range tests {
		if got := CleanPath(tt.in); got != tt.want {
			t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestThemeResource(t *testing.T) {
	th := New("basic", testFS())

	r, ok := th.Resource("css/weblog.css")
	if !ok {
		t.Fatal("expected css/weblog.css to resolve")
	}
	if r.ContentType != "text/css; charset=utf-8" {
		t.Errorf("ContentType = %q, want text/css", r.ContentType)
	}

	rc, err := r.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "body{}" {
		t.Errorf("content = %q, want body{}", data)
	}
}

func TestThemeResourceLeadingSlash(t *testing.T) {
	th := New("basic", testFS())

	if _, ok := th.Resource("/css/weblog.css"); !ok {
		t.Error("leading slash should be stripped before lookup")
	}
}

func TestThemeResourceMisses(t *testing.T) {
	th := New("basic", testFS())

	for _, p := range []string{"nope.css", "css", "", "/", "../plain.txt"} {
		if _, ok := th.Resource(p); ok {
			t.Errorf("Resource(%q) should not resolve", p)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Add("basic", testFS())
	r.Add("plain", testFS())

	if _, ok := r.Theme("basic"); !ok {
		t.Error("basic theme should resolve")
	}
	if _, ok := r.Theme("missing"); ok {
		t.Error("missing theme should not resolve")
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "basic" || names[1] != "plain" {
		t.Errorf("Names = %v, want [basic plain]", names)
	}
}

func TestRegistryCustomNeverResolves(t *testing.T) {
	r := NewRegistry()
	r.Add(Custom, testFS())

	if _, ok := r.Theme(Custom); ok {
		t.Error("the custom sentinel must not resolve to a shared bundle")
	}
	if _, ok := r.Theme(""); ok {
		t.Error("the empty theme name must not resolve")
	}
}

func TestLoadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"basic/css/weblog.css": &fstest.MapFile{Data: []byte("body{}")},
		"plain/css/weblog.css": &fstest.MapFile{Data: []byte("body{}")},
		"README.md":            &fstest.MapFile{Data: []byte("ignored")},
	}

	r := NewRegistry()
	if err := r.LoadDir(fsys); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "basic" || names[1] != "plain" {
		t.Errorf("Names = %v, want [basic plain]", names)
	}

	th, ok := r.Theme("basic")
	if !ok {
		t.Fatal("basic theme should resolve after LoadDir")
	}
	if _, ok := th.Resource("css/weblog.css"); !ok {
		t.Error("theme resource should resolve relative to the theme dir")
	}
}
