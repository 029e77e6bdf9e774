package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ismellshop/shop/api"
	"github.com/ismellshop/shop/config"
	"github.com/ismellshop/shop/core/claims"
	"github.com/ismellshop/shop/core/user"
	"github.com/ismellshop/shop/database"
	"github.com/ismellshop/shop/rate"
	"github.com/ismellshop/shop/validate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminEmail = "admin@test.com"
	AdminPass  = "admin-pass-123"
	UserEmail  = "user@test.com"
	UserPass   = "user-pass-123"
	OtherEmail = "other@test.com"
	OtherPass  = "other-pass-123"
)

var pgHostPort string

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("connecting to docker: %v", err)
	}

	resource, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=postgres",
	})
	if err != nil {
		log.Fatalf("starting postgres container: %v", err)
	}

	pgHostPort = resource.GetHostPort("5432/tcp")

	if err := pool.Retry(func() error {
		db, err := database.Open(adminDB("postgres"))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	}); err != nil {
		log.Fatalf("waiting for postgres: %v", err)
	}

	code := m.Run()

	if err := pool.Purge(resource); err != nil {
		log.Printf("purging postgres container: %v", err)
	}
	os.Exit(code)
}

func adminDB(name string) config.DB {
	return config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       pgHostPort,
		Name:       name,
		DisableTLS: true,
	}
}

type TestEnv struct {
	DB     *sqlx.DB
	Server *httptest.Server
	URL    string
}

// NewTestEnv creates a dedicated database named after the test, migrates
// it, seeds the test accounts and starts an API server on top of it.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	admin, err := database.Open(adminDB("postgres"))
	if err != nil {
		return nil, fmt.Errorf("opening admin connection: %w", err)
	}
	defer admin.Close()

	if _, err := admin.Exec("CREATE DATABASE " + name); err != nil {
		return nil, fmt.Errorf("creating database %q: %w", name, err)
	}

	db, err := database.Open(adminDB(name))
	if err != nil {
		return nil, fmt.Errorf("opening test connection: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	if err := seedAccounts(db); err != nil {
		return nil, fmt.Errorf("seeding test accounts: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	session := scs.New()
	session.Lifetime = 24 * time.Hour

	mux := api.APIMux(api.APIConfig{
		Log:        logger,
		DB:         db,
		Session:    session,
		UploadsDir: t.TempDir(),
		LoginLimit: rate.NewLimiter(100, 100, rate.Every(time.Millisecond)),
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &TestEnv{DB: db, Server: server, URL: server.URL}, nil
}

func seedAccounts(db *sqlx.DB) error {
	accounts := []struct {
		name, email, pass, role string
	}{
		{"Test Admin", AdminEmail, AdminPass, claims.RoleAdmin},
		{"Test User", UserEmail, UserPass, claims.RoleUser},
		{"Other User", OtherEmail, OtherPass, claims.RoleUser},
	}

	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.pass), bcrypt.MinCost)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:           validate.GenerateID(),
			Name:         a.name,
			Email:        a.email,
			Role:         a.role,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := user.Create(context.Background(), db, usr); err != nil {
			return err
		}
	}
	return nil
}

// LoginAs returns a client holding the session cookie of the given account.
func (e *TestEnv) LoginAs(t *testing.T, email string, password string) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	creds := map[string]string{"email": email, "password": password}
	resp := e.request(t, client, http.MethodPost, "/auth/login", creds)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logging in as %s: status code %s", email, resp.Status)
	}
	return client
}

// request sends an optional JSON body and returns the raw response.
func (e *TestEnv) request(t *testing.T, client *http.Client, method string, path string, body any) *http.Response {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, e.URL+path, rd)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := client.Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return w
}

// do sends a request, checks the status code and decodes the response into
// out when it is non-nil.
func (e *TestEnv) do(t *testing.T, client *http.Client, method string, path string, body any, wantStatus int, out any) {
	t.Helper()

	w := e.request(t, client, method, path, body)
	defer w.Body.Close()

	if w.StatusCode != wantStatus {
		b, _ := io.ReadAll(w.Body)
		t.Fatalf("%s %s: status code %s, want %d (body: %s)", method, path, w.Status, wantStatus, b)
	}

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
}
