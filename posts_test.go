package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func loginAs(t *testing.T, srv string, email string) string {
	t.Helper()
	doRequest(t, "POST", srv+"/auth/signup", "", signupBody(email))
	_, login := doRequest(t, "POST", srv+"/auth/login", "",
		map[string]interface{}{"email": email, "password": "p@ssw0rd"})
	return login["accessToken"].(string)
}

func postBody(needPremium bool) map[string]interface{} {
	return map[string]interface{}{
		"location":    "Lisbon",
		"title":       "Three days on the coast",
		"content":     "Day one: trams and custard tarts.",
		"needPremium": needPremium,
	}
}

func TestCreatePost(t *testing.T) {
	_, srv := newTestServer(t)
	access := loginAs(t, srv.URL, "a@x.com")

	resp, _ := doRequest(t, "POST", srv.URL+"/posts", access, postBody(false))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCreatePostRequiresLogin(t *testing.T) {
	_, srv := newTestServer(t)

	resp, body := doRequest(t, "POST", srv.URL+"/posts", "", postBody(false))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "LOGIN_REQUIRED", body["error_code"])
}

func TestCreatePostValidation(t *testing.T) {
	_, srv := newTestServer(t)
	access := loginAs(t, srv.URL, "a@x.com")

	cases := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"missing location", map[string]interface{}{"title": "t", "content": "c", "needPremium": false}, "location"},
		{"long location", map[string]interface{}{"location": "a-location-name-longer-than-fifteen", "title": "t", "content": "c", "needPremium": false}, "location"},
		{"missing title", map[string]interface{}{"location": "Lisbon", "content": "c", "needPremium": false}, "title"},
		{"missing content", map[string]interface{}{"location": "Lisbon", "title": "t", "needPremium": false}, "content"},
		{"missing needPremium", map[string]interface{}{"location": "Lisbon", "title": "t", "content": "c"}, "needPremium"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doRequest(t, "POST", srv.URL+"/posts", access, tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			validations, ok := body["validations"].(map[string]interface{})
			require.True(t, ok, "expected validations map, got %v", body)
			require.Contains(t, validations, tc.field)
		})
	}
}

func TestPremiumPostWithoutProduct(t *testing.T) {
	_, srv := newTestServer(t)
	access := loginAs(t, srv.URL, "a@x.com")

	resp, body := doRequest(t, "POST", srv.URL+"/posts", access, postBody(true))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "PRODUCT_NOT_FOUND", body["error_code"])
}

func TestPremiumPostWithExpiredProduct(t *testing.T) {
	app, srv := newTestServer(t)
	access := loginAs(t, srv.URL, "a@x.com")

	_, err := app.DB.CreateProduct(1, ProductPremium, time.Now().Add(-48*time.Hour), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	resp, body := doRequest(t, "POST", srv.URL+"/posts", access, postBody(true))
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	require.Equal(t, "PRODUCT_PREMIUM_REQUIRED", body["error_code"])
}

func TestPremiumPostWithBasicProduct(t *testing.T) {
	app, srv := newTestServer(t)
	access := loginAs(t, srv.URL, "a@x.com")

	_, err := app.DB.CreateProduct(1, ProductBasic, time.Now(), time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	resp, body := doRequest(t, "POST", srv.URL+"/posts", access, postBody(true))
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	require.Equal(t, "PRODUCT_PREMIUM_REQUIRED", body["error_code"])
}

func TestPremiumPostWithActivePremium(t *testing.T) {
	app, srv := newTestServer(t)
	access := loginAs(t, srv.URL, "a@x.com")

	_, err := app.DB.CreateProduct(1, ProductPremium, time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	resp, _ := doRequest(t, "POST", srv.URL+"/posts", access, postBody(true))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}
