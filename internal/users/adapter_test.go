package users

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/njoerd114/feedrelay/internal/httpx"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockClient struct {
	responses map[string]string // path → JSON body
	err       error
}

func (m *mockClient) GetJSON(_ context.Context, path string, _ url.Values, out any) error {
	if m.err != nil {
		return m.err
	}
	body, ok := m.responses[path]
	if !ok {
		return &httpx.StatusError{Code: 404, URL: path}
	}
	return json.Unmarshal([]byte(body), out)
}

func TestResolve_MapsFullResponse(t *testing.T) {
	client := &mockClient{responses: map[string]string{
		"users/3": `{
			"id": 3, "firstName": "Ada", "lastName": "Lovelace",
			"image": "http://img/u3.jpg", "username": "ada",
			"email": "ada@example.test",
			"address": {"city": "London", "state": "England"}
		}`,
	}}
	a := NewAdapterWithClient(client, testLogger())

	u, err := a.Resolve(context.Background(), 3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if u.DisplayName() != "Ada Lovelace" {
		t.Errorf("DisplayName = %q", u.DisplayName())
	}
	if u.Address != "London, England" {
		t.Errorf("Address = %q, want \"London, England\"", u.Address)
	}
	if u.IsPlaceholder() {
		t.Error("a resolved user must not be a placeholder")
	}
}

func TestResolve_NotFoundBecomesPlaceholder(t *testing.T) {
	client := &mockClient{responses: map[string]string{}} // every lookup 404s
	a := NewAdapterWithClient(client, testLogger())

	u, err := a.Resolve(context.Background(), 999)
	if err != nil {
		t.Fatalf("Resolve must not fail on 404: %v", err)
	}
	if !u.IsPlaceholder() {
		t.Errorf("expected placeholder, got %+v", u)
	}
	if u.ID != 999 {
		t.Errorf("placeholder ID = %d, want 999", u.ID)
	}
	if u.DisplayName() != "Unknown User" {
		t.Errorf("DisplayName = %q, want \"Unknown User\"", u.DisplayName())
	}
}

func TestResolve_ServerErrorIsResolutionFailure(t *testing.T) {
	client := &mockClient{err: &httpx.StatusError{Code: 500, URL: "users/5"}}
	a := NewAdapterWithClient(client, testLogger())

	_, err := a.Resolve(context.Background(), 5)
	if !errors.Is(err, ErrResolutionFailed) {
		t.Errorf("expected ErrResolutionFailed in chain, got: %v", err)
	}
}

func TestLookup_NotFoundIsNilNil(t *testing.T) {
	client := &mockClient{responses: map[string]string{}}
	a := NewAdapterWithClient(client, testLogger())

	u, err := a.Lookup(context.Background(), 404)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil user for not-found, got %+v", u)
	}
}

func TestLookup_FoundReturnsUser(t *testing.T) {
	client := &mockClient{responses: map[string]string{
		"users/7": `{"id": 7, "firstName": "Grace", "lastName": "Hopper"}`,
	}}
	a := NewAdapterWithClient(client, testLogger())

	u, err := a.Lookup(context.Background(), 7)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if u == nil || u.ID != 7 {
		t.Fatalf("user = %+v", u)
	}
}

func TestToUser_DefaultsAbsentNameParts(t *testing.T) {
	u := toUser(userResponse{ID: 1})
	if u.FirstName != "Unknown" || u.LastName != "User" {
		t.Errorf("defaults not applied: %+v", u)
	}

	half := toUser(userResponse{ID: 2, FirstName: "Cher"})
	if half.FirstName != "Cher" || half.LastName != "User" {
		t.Errorf("partial default wrong: %+v", half)
	}
}

func TestToUser_AddressVariants(t *testing.T) {
	noAddr := toUser(userResponse{ID: 1, FirstName: "A", LastName: "B"})
	if noAddr.Address != "" {
		t.Errorf("Address = %q, want empty when response omits address", noAddr.Address)
	}

	cityOnly := toUser(userResponse{ID: 2, FirstName: "A", LastName: "B",
		Address: &addressResponse{City: "Austin"}})
	if cityOnly.Address != "Austin" {
		t.Errorf("Address = %q, want \"Austin\"", cityOnly.Address)
	}
}
