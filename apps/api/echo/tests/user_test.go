package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/academia-app/academia/apps/api/echo"
	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/user"
	emailsvc "github.com/academia-app/academia/services/email"
)

func Test_userApi_query(t *testing.T) {
	env := setup(t)

	path := func(search string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	usr1 := createUser(t, env.usrRepo, "User", "awe123", "awe@test.cd", "", nil, true, now.Add(1*time.Hour))
	hero := createUser(t, env.usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true, now.Add(2*time.Hour))
	admin := createUser(t, env.usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true, now.Add(3*time.Hour))
	teacher := createUser(t, env.usrRepo, "Teacher", "teach1", "teacher@test.cd", "", []string{user.RoleTeacher}, true, now.Add(4*time.Hour))
	naughty := createUser(t, env.usrRepo, "N Dog", "ndog01", "ndog@test.cd", "", []string{user.RoleStudent}, false, now.Add(5*time.Hour))

	adminToken := getToken(t, admin)
	empty := marshalList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, hero),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken,
			wantData: marshalList(t, usr1, hero, admin, teacher, naughty),
		},
		{name: "search (unknown)", path: path("lol", nil), token: adminToken, wantData: empty},
		{name: "search=her", path: path("her", nil), token: adminToken, wantData: marshalList(t, hero)},
		{name: "role (unknown)", path: path("", nil, "lol"), token: adminToken, wantData: empty},
		{name: "role=admin:", path: path("", nil, user.RoleAdmin), token: adminToken, wantData: marshalList(t, admin)},
		{
			name: "role=teacher:,student:", path: path("", nil, user.RoleTeacher, user.RoleStudent),
			token: adminToken, wantData: marshalList(t, hero, teacher, naughty),
		},
		{
			name: "is_active=true", path: path("", bPtr(true)),
			token: adminToken, wantData: marshalList(t, usr1, hero, admin, teacher),
		},
		{name: "is_active=false", path: path("", bPtr(false)), token: adminToken, wantData: marshalList(t, naughty)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	hero := createUser(t, env.usrRepo, "Hero", "hero01", "hero@test.cd", "LolC@t123", []string{user.RoleStudent}, true)
	createUser(t, env.usrRepo, "N Dog", "ndog01", "ndog@test.cd", "LolC@t123", []string{user.RoleStudent}, false)

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, echoapi.LoginRequest{}),
			wantData: marshalObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, echoapi.LoginRequest{Username: "ghost1", Password: "LolC@t123"}),
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, echoapi.LoginRequest{Username: hero.Username, Password: "nope nope"}),
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     marshalObj(t, echoapi.LoginRequest{Username: "ndog01", Password: "LolC@t123"}),
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login with username", wantCode: http.StatusOK,
			body: marshalObj(t, echoapi.LoginRequest{Username: hero.Username, Password: "LolC@t123"}),
		},
		{
			name: "login with email", wantCode: http.StatusOK,
			body: marshalObj(t, echoapi.LoginRequest{Username: hero.Email, Password: "LolC@t123"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.server.ServeHTTP(rec, req)

			// cannot guess the token; just check that one came back
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)

	naughty := createUser(t, env.usrRepo, "N Dog", "ndog01", "ndog@test.cd", "", []string{user.RoleStudent}, false)
	hero := createUser(t, env.usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   hero.ID,
			Audience:  "Academia",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		IsStudent:    hero.IsStudent(),
		Roles:        hero.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, hero), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_resetPassword(t *testing.T) {
	env := setup(t)

	hero := createUser(t, env.usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	successData := marshalObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	pathRegex, err := regexp.Compile("/password-reset/.+/.+")
	if err != nil {
		t.Fatalf("regexp.Compile(): %v", err)
	}

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marshalObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK,
			body:     marshalObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK,
			body:     marshalObj(t, echoapi.PasswordResetRequest{Email: hero.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: hero.Name, Address: hero.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					msg := emailsvc.SentMessages[0]
					if msg.To[0] != extra.to {
						t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
					}
					if !strings.Contains(msg.TextContent, extra.to.Name) {
						t.Errorf("failed! text content does not contain recipient's name %q", extra.to.Name)
					}
					if !pathRegex.MatchString(msg.TextContent) {
						t.Errorf("failed! text content does not match pathRegex %v", pathRegex)
					}
					if !pathRegex.MatchString(msg.HTMLContent) {
						t.Errorf("failed! HTML content does not match pathRegex %v", pathRegex)
					}
				} else {
					if len(emailsvc.SentMessages) > 0 {
						t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
					}
				}
			}
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	env := setup(t)

	hero := createUser(t, env.usrRepo, "Hero", "hero01", "hero@test.cd", "lol", []string{user.RoleStudent}, true)
	validUID := user.EncodeUID(hero)
	validToken, err := user.MakeToken(hero)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	// generate an expired token
	dayLate := core.Conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := user.MakeToken(hero)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}
	user.NowFunc = time.Now // reset

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"token": reqMsg, "uid": reqMsg, "password": reqMsg, "password_confirm": reqMsg}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "LolC@t123", PasswordConfirm: "lol"}),
			wantData: marshalObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, user.ResetUserPassword{Token: "lol", UID: "???", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marshalObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marshalObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, user.ResetUserPassword{Token: expiredToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marshalObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marshalObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marshalObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: hero.ID})
				if err != nil {
					t.Fatalf("GetUser(): %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, hero.PasswordHash) {
					t.Fatalf("failed to update new password")
				}
			}
		})
	}
}
