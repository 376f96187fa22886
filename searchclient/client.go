// Package searchclient queries the catalog search endpoint on behalf of the
// prescription desk. Its searchers plug into a combobox.
//
// Failures follow one rule: transport errors and non-2xx answers are
// returned as errors, a body of the wrong shape is an empty result. No
// request is retried.
package searchclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/lighthospital/combobox"
	"github.com/giygas/lighthospital/logging"
	"golang.org/x/net/publicsuffix"
)

var _ combobox.Searcher = (*Searcher)(nil)

const (
	// DefaultTimeout bounds one search request
	DefaultTimeout = 5 * time.Second

	maxBodyBytes = 1 << 20
	userAgent    = "lighthospital-desk/1.0"
)

// Candidate fields filled from a medicine record
const (
	FieldSpecification = "specification"
	FieldUnit          = "unit"
	FieldPrice         = "price"
	FieldStock         = "stock"
)

// Candidate fields filled from a patient record
const (
	FieldGender = "gender"
	FieldAge    = "age"
	FieldPhone  = "phone"
	FieldPinyin = "pinyin"
)

// Kind names what a searcher looks up
type Kind string

const (
	KindMedicine Kind = "medicine"
	KindPatient  Kind = "patient"
)

// StatusError is returned when the endpoint answers with a non-2xx status
type StatusError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("search endpoint %s returned %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("search endpoint %s returned %d", e.URL, e.StatusCode)
}

// Config locates the search endpoint
type Config struct {
	BaseURL string

	// Client carries the session credentials. A client with
	// DefaultTimeout and no cookie jar is used when nil.
	Client *http.Client
}

// Searcher runs autocomplete lookups of one kind
type Searcher struct {
	kind     Kind
	client   *http.Client
	endpoint string
	param    string
	listKey  string
	fields   []string
}

// NewMedicineSearcher looks up medicines by name, specification or pinyin
func NewMedicineSearcher(cfg Config) *Searcher {
	return newSearcher(cfg, KindMedicine, "/api/medicines/autocomplete", "q", "medicines",
		[]string{FieldSpecification, FieldUnit, FieldPrice, FieldStock})
}

// NewPatientSearcher looks up patients by name, pinyin or phone
func NewPatientSearcher(cfg Config) *Searcher {
	return newSearcher(cfg, KindPatient, "/api/patients", "search", "patients",
		[]string{FieldGender, FieldAge, FieldPhone, FieldPinyin})
}

func newSearcher(cfg Config, kind Kind, path, param, listKey string, fields []string) *Searcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Searcher{
		kind:     kind,
		client:   client,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + path,
		param:    param,
		listKey:  listKey,
		fields:   fields,
	}
}

// NewSessionClient builds an HTTP client that keeps session cookies across
// requests. Logging in is left to the caller.
func NewSessionClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

// Kind returns what the searcher looks up
func (s *Searcher) Kind() Kind {
	return s.kind
}

// Search fetches the candidates for query in server order. A blank query
// returns no candidates without a request.
func (s *Searcher) Search(ctx context.Context, query string) ([]combobox.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []combobox.Candidate{}, nil
	}

	target := s.endpoint + "?" + url.Values{s.param: {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s search request: %w", s.kind, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s search failed: %w", s.kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s search response: %w", s.kind, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        s.endpoint,
			Message:    errorMessage(body),
		}
	}

	candidates, err := s.decode(body)
	if err != nil {
		logging.Warn("Malformed search response treated as empty",
			"kind", string(s.kind), "error", err, "bytes", len(body))
		return []combobox.Candidate{}, nil
	}

	logging.Debug("Search completed", "kind", string(s.kind), "results", len(candidates),
		"duration_ms", time.Since(start).Milliseconds())
	return candidates, nil
}

// decode extracts the candidate list. Records without an ID or a name are skipped.
func (s *Searcher) decode(body []byte) ([]combobox.Candidate, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	raw, ok := envelope[s.listKey]
	if !ok {
		return nil, fmt.Errorf("missing %q list", s.listKey)
	}
	if isNull(raw) {
		return []combobox.Candidate{}, nil
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%q is not a list of records: %w", s.listKey, err)
	}

	candidates := make([]combobox.Candidate, 0, len(records))
	for _, rec := range records {
		id, err := strconv.ParseInt(scalar(rec["id"]), 10, 64)
		name := strings.TrimSpace(scalar(rec["name"]))
		if err != nil || name == "" {
			continue
		}

		c := combobox.Candidate{ID: id, Name: name, Fields: make(map[string]string, len(s.fields))}
		for _, f := range s.fields {
			if v := scalar(rec[f]); v != "" {
				c.Fields[f] = v
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// scalar renders a JSON string, number or boolean as text. Anything else is "".
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[':
		return ""
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// errorMessage pulls the message out of a JSON error body, if any
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
