package searchclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEndpoint(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestMedicineSearch(t *testing.T) {
	srv, _ := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/medicines/autocomplete", r.URL.Path)
		assert.Equal(t, "板蓝", r.URL.Query().Get("q"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"medicines":[
			{"id":5,"name":"板蓝根颗粒","specification":"10g*20袋","unit":"盒","price":18.5,"stock":8},
			{"id":6,"name":"板蓝根片","specification":"0.3g*100片","unit":"瓶","price":"6.00","stock":null}
		]}`))
	})

	s := NewMedicineSearcher(Config{BaseURL: srv.URL + "/"})
	got, err := s.Search(context.Background(), "  板蓝 ")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, "板蓝根颗粒", got[0].Name)
	assert.Equal(t, "10g*20袋", got[0].Field(FieldSpecification))
	assert.Equal(t, "盒", got[0].Field(FieldUnit))
	assert.Equal(t, "18.5", got[0].Field(FieldPrice))
	assert.Equal(t, "8", got[0].Field(FieldStock))
	assert.Equal(t, "5", got[0].Field("id"))

	assert.Equal(t, "板蓝根片", got[1].Name)
	assert.Equal(t, "6.00", got[1].Field(FieldPrice))
	assert.Empty(t, got[1].Field(FieldStock))
	assert.Equal(t, KindMedicine, s.Kind())
}

func TestPatientSearch(t *testing.T) {
	srv, _ := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/patients", r.URL.Path)
		assert.Equal(t, "li hua", r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`{"patients":[{"id":11,"name":"李华","gender":"女","age":28,"phone":"13900139000","pinyin":"lihua"}],"total":1}`))
	})

	got, err := NewPatientSearcher(Config{BaseURL: srv.URL}).Search(context.Background(), "li hua")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "李华", got[0].Name)
	assert.Equal(t, "女", got[0].Field(FieldGender))
	assert.Equal(t, "28", got[0].Field(FieldAge))
	assert.Equal(t, "13900139000", got[0].Field(FieldPhone))
	assert.Equal(t, "lihua", got[0].Field(FieldPinyin))
}

func TestBlankQueryMakesNoRequest(t *testing.T) {
	srv, calls := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"medicines":[]}`))
	})
	s := NewMedicineSearcher(Config{BaseURL: srv.URL})

	for _, q := range []string{"", "   ", "\t\n"} {
		got, err := s.Search(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestNonSuccessStatus(t *testing.T) {
	srv, _ := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Bad Request","message":"input contains invalid characters","code":400}`))
	})

	got, err := NewMedicineSearcher(Config{BaseURL: srv.URL}).Search(context.Background(), "<x>")
	require.Error(t, err)
	assert.Nil(t, got)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "input contains invalid characters", statusErr.Message)
	assert.Contains(t, err.Error(), "400")
}

func TestMalformedBodyIsEmpty(t *testing.T) {
	bodies := map[string]string{
		"not json":       `<html>oops</html>`,
		"wrong list key": `{"items":[{"id":1,"name":"x"}]}`,
		"list not array": `{"medicines":{"id":1}}`,
		"top level list": `[{"id":1,"name":"x"}]`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv, _ := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			got, err := NewMedicineSearcher(Config{BaseURL: srv.URL}).Search(context.Background(), "amo")
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestRecordsWithoutIDOrNameAreSkipped(t *testing.T) {
	srv, _ := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"medicines":[{"name":"no id"},{"id":2,"name":"  "},{"id":3,"name":"布洛芬片"},"junk"]}`))
	})

	got, err := NewMedicineSearcher(Config{BaseURL: srv.URL}).Search(context.Background(), "b")
	require.NoError(t, err)
	assert.Empty(t, got, "a list containing a non-object is malformed")

	srv2, _ := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"medicines":[{"name":"no id"},{"id":2,"name":"  "},{"id":3,"name":"布洛芬片"}]}`))
	})
	got, err = NewMedicineSearcher(Config{BaseURL: srv2.URL}).Search(context.Background(), "b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestNullListIsEmpty(t *testing.T) {
	srv, _ := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"medicines":null}`))
	})

	got, err := NewMedicineSearcher(Config{BaseURL: srv.URL}).Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewMedicineSearcher(Config{BaseURL: base}).Search(context.Background(), "amo")
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestSearchHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := NewMedicineSearcher(Config{BaseURL: srv.URL}).Search(ctx, "amo")
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Search did not return after cancellation")
	}
}

func TestNewSessionClientKeepsCookies(t *testing.T) {
	srv, _ := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			return
		}
		c, err := r.Cookie("session")
		if err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"patients":[{"id":1,"name":"王小明"}]}`))
	})

	client, err := NewSessionClient(time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, client.Timeout)

	resp, err := client.Get(srv.URL + "/api/login")
	require.NoError(t, err)
	resp.Body.Close()

	u, _ := url.Parse(srv.URL)
	require.Len(t, client.Jar.Cookies(u), 1)

	got, err := NewPatientSearcher(Config{BaseURL: srv.URL, Client: client}).Search(context.Background(), "wang")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "王小明", got[0].Name)
}
