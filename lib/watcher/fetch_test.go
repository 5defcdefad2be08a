package watcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Gadget</h1><button>Add to Cart</button></body></html>`))
	}))
	defer server.Close()

	fetcher, err := NewFetcher(server.URL, time.Second*5)
	if err != nil {
		t.Fatal(err)
	}

	page, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, 200, page.StatusCode)
	require.Contains(t, page.Text, "Gadget")
	require.Contains(t, page.Text, "Add to Cart")
}

func TestFetchHttpStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher, err := NewFetcher(server.URL, time.Second*5)
	if err != nil {
		t.Fatal(err)
	}

	_, err = fetcher.Fetch(context.Background())
	require.Error(t, err)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, FetchHttpStatus, ferr.Kind)
	require.Equal(t, 404, ferr.StatusCode)
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond * 300)
	}))
	defer server.Close()

	fetcher, err := NewFetcher(server.URL, time.Millisecond*50)
	if err != nil {
		t.Fatal(err)
	}

	_, err = fetcher.Fetch(context.Background())
	require.Error(t, err)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, FetchTimeout, ferr.Kind)
}

func TestFetchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	fetcher, err := NewFetcher(url, time.Second*5)
	if err != nil {
		t.Fatal(err)
	}

	_, err = fetcher.Fetch(context.Background())
	require.Error(t, err)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, FetchConnection, ferr.Kind)
}

func TestParsePageCombinesControlText(t *testing.T) {
	page, err := ParsePage(200, []byte(`<html><body>
		<p>The latest gadget.</p>
		<a href="/cart">View Cart</a>
		<input type="submit" value="Buy Now">
	</body></html>`))
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, 200, page.StatusCode)
	require.Contains(t, page.Text, "The latest gadget.")
	require.Contains(t, page.Text, "View Cart")
	require.Contains(t, page.Text, "Buy Now")
}
