package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"line\nbreak", 20, "line break"},
		{"héllo wörld", 8, "héllo..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tw := newTable(&buf, "ID", "NAME")
	tw.row("1", "alice")
	tw.row("22", "bob")
	if err := tw.flush(); err != nil {
		t.Fatal(err)
	}
	want := "ID  NAME\n1   alice\n22  bob\n"
	if buf.String() != want {
		t.Errorf("table = %q, want %q", buf.String(), want)
	}
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"status"}, {"start"}, {"stop"}, {"qr"}, {"stats"}, {"contacts"}, {"rooms"},
		{"messages"}, {"rules", "list"}, {"rules", "add"}, {"rules", "rm"},
		{"rules", "enable"}, {"rules", "disable"}, {"knowledge", "add"}, {"watch"},
		{"config", "init"}, {"config", "show"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %q not found: %v", strings.Join(path, " "), err)
		}
	}
}

func TestRulesAddRequiresFlags(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"rules", "add", "--content", "hi"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "keyword") {
		t.Errorf("err = %v, want missing keyword flag", err)
	}
}
