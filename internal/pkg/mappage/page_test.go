package mappage

import (
	"bytes"
	"strings"
	"testing"
)

func TestRender_Live(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Options{DataURL: "/v1/map", LivePath: "/ws"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "leaflet.js") {
		t.Error("expected the Leaflet script")
	}
	if !containsJSString(out, "DATA_URL", "/v1/map") {
		t.Errorf("expected data URL, got page:\n%s", out)
	}
	if !containsJSString(out, "LIVE_PATH", "/ws") {
		t.Error("expected live path")
	}
	if !strings.Contains(out, "<title>Bemowo: komunikacja miejska</title>") {
		t.Error("expected default title")
	}
}

func TestRender_Static(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Options{Title: "Mapa", DataURL: "map.json"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `const LIVE_PATH = "";`) {
		t.Error("static page must not open a WebSocket")
	}
	if !strings.Contains(out, "<title>Mapa</title>") {
		t.Error("expected custom title")
	}
}

// containsJSString accepts both escaped and plain slashes in the constant.
func containsJSString(page, name, value string) bool {
	plain := "const " + name + ` = "` + value + `";`
	escaped := "const " + name + ` = "` + strings.ReplaceAll(value, "/", `\/`) + `";`
	return strings.Contains(page, plain) || strings.Contains(page, escaped)
}
