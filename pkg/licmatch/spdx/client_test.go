package spdx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/licenses.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"licenseListVersion":"3.24","licenses":[
			{"licenseId":"MIT","name":"MIT License","isDeprecatedLicenseId":false,"isOsiApproved":true},
			{"licenseId":"GPL-2.0","name":"GNU General Public License v2.0 only","isDeprecatedLicenseId":true}
		]}`))
	})
	mux.HandleFunc("/MIT.json", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "licmatch-test" {
			t.Errorf("user agent = %q", got)
		}
		w.Write([]byte(`{"licenseId":"MIT","name":"MIT License","licenseText":"Permission is hereby granted."}`))
	})
	mux.HandleFunc("/HTML-1.0.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"licenseId":"HTML-1.0","licenseText":"","licenseTextHtml":"<div><p>First  paragraph.</p><p>Second <b>bold</b> one.</p></div>"}`))
	})
	mux.HandleFunc("/Broken.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientList(t *testing.T) {
	srv := newTestServer(t)
	c := &Client{BaseURL: srv.URL + "/", HTTPClient: srv.Client()}

	refs, err := c.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []LicenseRef{
		{LicenseID: "MIT", Name: "MIT License", IsOSIApproved: true},
		{LicenseID: "GPL-2.0", Name: "GNU General Public License v2.0 only", IsDeprecated: true},
	}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Errorf("List (-want +got):\n%s", diff)
	}
}

func TestClientText(t *testing.T) {
	srv := newTestServer(t)
	c := &Client{BaseURL: srv.URL, UserAgent: "licmatch-test", HTTPClient: srv.Client()}

	text, err := c.Text(context.Background(), "MIT")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Permission is hereby granted." {
		t.Errorf("Text = %q", text)
	}
}

func TestClientTextFromHTML(t *testing.T) {
	srv := newTestServer(t)
	c := &Client{BaseURL: srv.URL, HTTPClient: srv.Client()}

	text, err := c.Text(context.Background(), "HTML-1.0")
	if err != nil {
		t.Fatal(err)
	}
	if want := "First  paragraph.\nSecond bold one."; text != want {
		t.Errorf("Text = %q, want %q", text, want)
	}
}

func TestClientErrors(t *testing.T) {
	srv := newTestServer(t)
	c := &Client{BaseURL: srv.URL, HTTPClient: srv.Client()}

	_, err := c.Get(context.Background(), "Missing")
	if !errors.Is(err, internalerr.ErrNotFound) || !errors.Is(err, internalerr.ErrCollaboratorUnavailable) {
		t.Errorf("404 should wrap ErrNotFound and ErrCollaboratorUnavailable, got %v", err)
	}

	_, err = c.Get(context.Background(), "Broken")
	if !errors.Is(err, internalerr.ErrCollaboratorUnavailable) || errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("500 should wrap only ErrCollaboratorUnavailable, got %v", err)
	}

	srv.Close()
	_, err = c.List(context.Background())
	if !errors.Is(err, internalerr.ErrCollaboratorUnavailable) {
		t.Errorf("closed server should wrap ErrCollaboratorUnavailable, got %v", err)
	}
}

func TestHTMLText(t *testing.T) {
	got, err := HTMLText("<p>One</p>\n<ul><li>a</li><li>b</li></ul><script>x()</script>")
	if err != nil {
		t.Fatal(err)
	}
	if want := "One\na\nb"; got != want {
		t.Errorf("HTMLText = %q, want %q", got, want)
	}
}
