package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/tinylink/internal/httpx"
	"github.com/sundayezeilo/tinylink/internal/shortener"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLinkctl_Create(t *testing.T) {
	var gotCode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := httpx.DecodeJSON[shortener.HTTPCreateLinkRequest](r)
		assert.NoError(t, err)
		gotCode = req.Code
		httpx.WriteJSON(w, http.StatusCreated, shortener.LinkResponse{
			Code:     req.Code,
			URL:      req.URL,
			ShortURL: "http://sho.rt/" + req.Code,
		})
	}))
	defer server.Close()

	out, err := run(t, "--server-url", server.URL, "create", "https://example.com", "--code", "promo24")
	require.NoError(t, err)
	assert.Equal(t, "promo24", gotCode)
	assert.Contains(t, out, "http://sho.rt/promo24")
}

func TestLinkctl_DeleteNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "short link doesn't exist", nil)
	}))
	defer server.Close()

	out, err := run(t, "-u", server.URL, "delete", "promo24")
	require.Error(t, err)
	assert.Contains(t, out, `short code "promo24" not found`)
}

func TestLinkctl_ArgValidation(t *testing.T) {
	_, err := run(t, "get")
	assert.Error(t, err)

	_, err = run(t, "list", "extra")
	assert.Error(t, err)
}
