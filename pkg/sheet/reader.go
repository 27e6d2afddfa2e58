package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrNotFound is returned by a source for a table it does not have.
var ErrNotFound = errors.New("table not found")

const defaultGoogleBase = "https://docs.google.com"

var sheetIDRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// Names holds the table names looked up in a source.
type Names struct {
	Agents string
	Tasks  string
	Crew   string
	Models string
}

// Workbook is the set of tables of one spreadsheet. Crew and Models may have no rows.
type Workbook struct {
	Source string
	Agents *Table
	Tasks  *Table
	Crew   *Table
	Models *Table
}

// Reader loads workbooks from Google Sheets or a local directory.
type Reader struct {
	names      Names
	client     *http.Client
	googleBase string // overridden in tests
}

// NewReader makes a Reader for the given table names. A nil client uses a client with a 30s timeout.
func NewReader(names Names, client *http.Client) *Reader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Reader{names: names, client: client, googleBase: defaultGoogleBase}
}

// Read loads all four tables from source. Agents and Tasks must exist, Crew and Models are optional.
func (r *Reader) Read(ctx context.Context, source string) (*Workbook, error) {
	fetch, err := r.fetcher(source)
	if err != nil {
		return nil, err
	}

	wb := &Workbook{Source: source}
	tables := []struct {
		name     string
		required bool
		dst      **Table
	}{
		{r.names.Agents, true, &wb.Agents},
		{r.names.Tasks, true, &wb.Tasks},
		{r.names.Crew, false, &wb.Crew},
		{r.names.Models, false, &wb.Models},
	}

	for _, tbl := range tables {
		t, err := r.readTable(ctx, fetch, tbl.name)
		switch {
		case errors.Is(err, ErrNotFound) && !tbl.required:
			t = NewTable(tbl.name, nil)
		case err != nil:
			return nil, fmt.Errorf("read %s sheet: %w", tbl.name, err)
		}
		*tbl.dst = t
	}
	return wb, nil
}

type fetchFunc func(ctx context.Context, name string) (io.ReadCloser, error)

func (r *Reader) readTable(ctx context.Context, fetch fetchFunc, name string) (*Table, error) {
	rc, err := fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Parse(name, rc)
}

// fetcher picks the access method for source.
func (r *Reader) fetcher(source string) (fetchFunc, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("empty sheet source")
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		m := sheetIDRe.FindStringSubmatch(source)
		if m == nil {
			return nil, fmt.Errorf("unsupported sheet url %q, expected https://docs.google.com/spreadsheets/d/<id>/...", source)
		}
		id := m[1]
		return func(ctx context.Context, name string) (io.ReadCloser, error) {
			return r.fetchGoogle(ctx, id, name)
		}, nil
	}

	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("sheet source %q is neither a google sheets url nor a directory", source)
	}
	return func(_ context.Context, name string) (io.ReadCloser, error) {
		f, err := os.Open(filepath.Join(source, name+".csv")) //nolint:gosec // user-provided sheet dir
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s.csv: %w", name, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("open %s.csv: %w", name, err)
		}
		return f, nil
	}, nil
}

// fetchGoogle downloads one sheet through the gviz CSV export endpoint.
func (r *Reader) fetchGoogle(ctx context.Context, id, name string) (io.ReadCloser, error) {
	u := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s", r.googleBase, id, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		// gviz answers 400 for an unknown sheet name
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch sheet: unexpected status %d", resp.StatusCode)
	}

	// a private sheet redirects to the sign-in page
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "text/html" {
		resp.Body.Close()
		return nil, errors.New("fetch sheet: got an html page, make sure the sheet is shared as 'anyone with the link'")
	}
	return resp.Body, nil
}
