package main

import "testing"

func TestParseLocation(t *testing.T) {
	tests := []struct {
		arg       string
		path      string
		line, col uint32
		wantErr   bool
	}{
		{arg: "main.R:3:5", path: "main.R", line: 2, col: 4},
		{arg: "main.R:10", path: "main.R", line: 9, col: 0},
		{arg: `C:\proj\main.R:2:1`, path: `C:\proj\main.R`, line: 1, col: 0},
		{arg: "main.R", wantErr: true},
		{arg: "main.R:0:1", wantErr: true},
	}
	for _, tc := range tests {
		path, line, col, err := parseLocation(tc.arg)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.arg)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.arg, err)
		}
		if path != tc.path || line != tc.line || col != tc.col {
			t.Fatalf("%s: got %q %d %d", tc.arg, path, line, col)
		}
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}
