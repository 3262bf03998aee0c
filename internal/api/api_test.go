package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"replay/internal/gateway"
)

func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc(pathLogin, func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte("tok-" + creds.Email))
	}).Methods(http.MethodPost)
	r.HandleFunc(pathSignup, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, ok := req["admin_code"]; ok && req["role"] != string(RoleAdmin) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "signup-token"})
	}).Methods(http.MethodPost)
	r.HandleFunc(pathProfile, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"email":"a@b.c","name":"Kim","role":"USER","school_id":3,"club_id":null}`))
	}).Methods(http.MethodGet)
	r.HandleFunc(pathSchools, func(w http.ResponseWriter, r *http.Request) {
		kw := r.URL.Query().Get("keyword")
		if r.URL.Query().Get("page") != "1" || r.URL.Query().Get("size") != "100" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{"items": []School{
				{ID: 1, Name: kw + " University", Region: "Seoul", Code: "S1"},
			}},
		})
	}).Methods(http.MethodGet)
	r.HandleFunc(pathSchools+"/{id}/clubs", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] == "404" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   map[string]string{"code": "NOT_FOUND", "message": "school not found"},
			})
			return
		}
		_, _ = w.Write([]byte(`[{"id":9,"school_id":2,"name":"Drama Club","genre":"theater"}]`))
	}).Methods(http.MethodGet)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *Client {
	srv := newFakeBackend(t)
	return NewClient(gateway.New(gateway.Config{BaseURL: srv.URL}))
}

func TestLoginReturnsBareStringToken(t *testing.T) {
	c := newTestClient(t)
	tok, err := c.Login(context.Background(), Credentials{Email: "kim@replay.kr", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "tok-kim@replay.kr", tok)
}

func TestLoginFailureIsNetworkError(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Login(context.Background(), Credentials{Email: "kim@replay.kr", Password: "nope"})
	var netErr *gateway.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, http.StatusUnauthorized, netErr.Status)
}

func TestSignupAcceptsTokenObject(t *testing.T) {
	c := newTestClient(t)
	tok, err := c.Signup(context.Background(), SignupRequest{
		Email: "a@b.c", Password: "pw", Name: "Kim", Role: RoleUser, SchoolID: 1, ClubID: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "signup-token", tok)
}

func TestProfileDecodesNullableIDs(t *testing.T) {
	c := newTestClient(t)
	p, err := c.Profile(context.Background(), "good")
	require.NoError(t, err)
	require.Equal(t, "Kim", p.Name)
	require.NotNil(t, p.SchoolID)
	require.EqualValues(t, 3, *p.SchoolID)
	require.Nil(t, p.ClubID)

	_, err = c.Profile(context.Background(), "bad")
	require.Error(t, err)
}

func TestSchoolsDecodesEnvelope(t *testing.T) {
	c := newTestClient(t)
	schools, err := c.Schools(context.Background(), ListQuery{Keyword: " seoul "})
	require.NoError(t, err)
	require.Len(t, schools, 1)
	require.Equal(t, "seoul University", schools[0].Name)
}

func TestClubsDecodesBareArrayAndEnvelopeError(t *testing.T) {
	c := newTestClient(t)
	clubs, err := c.Clubs(context.Background(), 2, ListQuery{})
	require.NoError(t, err)
	require.Len(t, clubs, 1)
	require.Equal(t, "Drama Club", clubs[0].Name)

	_, err = c.Clubs(context.Background(), 404, ListQuery{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestTokenFromRejectsEmpty(t *testing.T) {
	_, err := tokenFrom(gateway.Result{Text: "", Value: ""})
	require.ErrorIs(t, err, ErrEmptyToken)
	_, err = tokenFrom(gateway.Result{Text: `{"user":1}`, Value: map[string]any{"user": 1.0}})
	require.ErrorIs(t, err, ErrEmptyToken)
	tok, err := tokenFrom(gateway.Result{Text: `{"data":{"token":"x"}}`, Value: map[string]any{"data": map[string]any{"token": "x"}}})
	require.NoError(t, err)
	require.Equal(t, "x", tok)
}
