package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	fakeAuth := func(ctx context.Context, token string) (User, error) {
		switch token {
		case "valid-token":
			return User{ID: "123", Email: "user@example.com"}, nil
		case "other-token":
			return User{ID: "456", Email: "other@example.com"}, nil
		}
		return User{}, assert.AnError
	}

	var gotUser User
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = (&Server{}).getUser(r)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name    string
		auth    authenticator
		allowed []string
		header  string
		code    int
		email   string
	}{
		{"Disabled", nil, nil, "", http.StatusOK, ""},
		{"Missing Header", fakeAuth, nil, "", http.StatusUnauthorized, ""},
		{"Not Bearer", fakeAuth, nil, "Basic abc", http.StatusBadRequest, ""},
		{"Invalid Token", fakeAuth, nil, "Bearer nope", http.StatusUnauthorized, ""},
		{"Valid Token", fakeAuth, nil, "Bearer valid-token", http.StatusOK, "user@example.com"},
		{"Allowed Email", fakeAuth, []string{"user@example.com"}, "Bearer valid-token", http.StatusOK, "user@example.com"},
		{"Email Not Allowed", fakeAuth, []string{"user@example.com"}, "Bearer other-token", http.StatusForbidden, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotUser = User{}
			srv := &Server{authenticate: tc.auth, allowedEmails: tc.allowed}
			req := httptest.NewRequest("GET", "/api/runs", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			srv.authMiddleware(testHandler).ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.email, gotUser.Email)
		})
	}
}
