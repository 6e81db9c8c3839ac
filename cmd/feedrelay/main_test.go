package main

import (
	"flag"
	"strings"
	"testing"

	"github.com/njoerd114/feedrelay/internal/model"
)

func TestFormatUser_FullProfile(t *testing.T) {
	u := model.User{
		ID:        3,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "ada",
		Email:     "ada@example.test",
		Address:   "London, England",
	}

	got := formatUser(u)
	for _, want := range []string{"Ada Lovelace (#3)", "username: ada", "email:    ada@example.test", "address:  London, England"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatUser_SparseProfileSkipsEmptyFields(t *testing.T) {
	u := model.User{ID: 9, FirstName: "Grace", LastName: "Hopper"}

	got := formatUser(u)
	if !strings.Contains(got, "Grace Hopper (#9)") {
		t.Errorf("output missing name line:\n%s", got)
	}
	for _, absent := range []string{"username:", "email:", "address:"} {
		if strings.Contains(got, absent) {
			t.Errorf("output contains %q for an empty field:\n%s", absent, got)
		}
	}
}

func TestParseIDArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr bool
	}{
		{"valid id", []string{"7"}, 7, false},
		{"missing arg", []string{}, 0, true},
		{"extra args", []string{"7", "8"}, 0, true},
		{"non-numeric", []string{"seven"}, 0, true},
		{"zero id", []string{"0"}, 0, true},
		{"negative id", []string{"-3"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			got, err := parseIDArg(fs, tt.args, "post")
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for args %v", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIDArg(%v): %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
