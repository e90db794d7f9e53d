//go:build e2e

// Package e2e exercises a running server end to end over HTTP.
// Start the server (with Postgres and Redis behind it) and run:
//
//	go test -tags e2e ./tests/e2e/
package e2e

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func baseURL() string {
	if v := os.Getenv("INKPOST_BASE_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8080"
}

// newBrowser returns a client with a cookie jar, behaving like a
// logged-in browser tab.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func getPage(t *testing.T, client *http.Client, path string) (int, string) {
	t.Helper()
	resp, err := client.Get(baseURL() + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp.StatusCode, string(body)
}

func submitForm(t *testing.T, client *http.Client, path string, values url.Values) (int, string) {
	t.Helper()
	resp, err := client.PostForm(baseURL()+path, values)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp.StatusCode, string(body)
}

func registerAndLogin(t *testing.T, client *http.Client, email, password string) {
	t.Helper()

	status, body := submitForm(t, client, "/register", url.Values{
		"email":    {email},
		"password": {password},
	})
	if status != http.StatusOK || !strings.Contains(body, "Account created") {
		t.Fatalf("register: status %d, body misses confirmation", status)
	}

	status, body = submitForm(t, client, "/login", url.Values{
		"email":    {email},
		"password": {password},
	})
	if status != http.StatusOK || !strings.Contains(body, "Log out") {
		t.Fatalf("login: status %d, nav shows no session", status)
	}
}

// createPost publishes a post and returns its page path, located via
// the post's link on the list view the composer redirects to.
func createPost(t *testing.T, client *http.Client, title, content string) string {
	t.Helper()

	resp, err := client.PostForm(baseURL()+"/blogs", url.Values{
		"title":   {title},
		"content": {content},
	})
	if err != nil {
		t.Fatalf("POST /blogs: %v", err)
	}
	defer resp.Body.Close()

	if path := resp.Request.URL.Path; path != "/blogs" {
		t.Fatalf("composer landed on %s, want the list view /blogs", path)
	}

	body, _ := io.ReadAll(resp.Body)
	link := regexp.MustCompile(`href="(/blogs/\d+)">` + regexp.QuoteMeta(title)).
		FindStringSubmatch(string(body))
	if link == nil {
		t.Fatalf("new post %q missing from the list view", title)
	}
	return link[1]
}

func TestE2ESmoke(t *testing.T) {
	probe := http.Client{Timeout: 2 * time.Second}
	if _, err := probe.Get(baseURL() + "/healthz"); err != nil {
		t.Skipf("server not reachable at %s: %v", baseURL(), err)
	}

	run := ulid.Make().String()
	amyEmail := fmt.Sprintf("amy-%s@example.com", strings.ToLower(run))
	bobEmail := fmt.Sprintf("bob-%s@example.com", strings.ToLower(run))
	password := "correct-horse-battery"

	amy := newBrowser(t)
	registerAndLogin(t, amy, amyEmail, password)

	title := "Smoke test " + run
	postPath := createPost(t, amy, title, "First draft.")

	// The post is public.
	anon := newBrowser(t)
	if status, body := getPage(t, anon, postPath); status != http.StatusOK || !strings.Contains(body, title) {
		t.Fatalf("anonymous view: status %d", status)
	}

	// The owner can edit it.
	status, body := submitForm(t, amy, postPath+"/edit", url.Values{
		"title":   {title + " (edited)"},
		"content": {"Second draft."},
	})
	if status != http.StatusOK || !strings.Contains(body, "(edited)") {
		t.Fatalf("edit: status %d, edit not visible", status)
	}

	// Another account cannot touch it.
	bob := newBrowser(t)
	registerAndLogin(t, bob, bobEmail, password)

	if status, _ := getPage(t, bob, postPath+"/edit"); status != http.StatusForbidden {
		t.Fatalf("foreign edit form: status %d, want 403", status)
	}

	// Foreign delete is a silent no-op; the post survives.
	submitForm(t, bob, postPath+"/delete", nil)
	if status, _ := getPage(t, anon, postPath); status != http.StatusOK {
		t.Fatalf("post vanished after foreign delete: status %d", status)
	}

	// Wrong password gets the one generic message.
	stranger := newBrowser(t)
	if _, body := submitForm(t, stranger, "/login", url.Values{
		"email":    {amyEmail},
		"password": {"not-the-password"},
	}); !strings.Contains(body, "Invalid email or password.") {
		t.Fatal("failed login misses the generic message")
	}

	// Owner deletes for real.
	submitForm(t, amy, postPath+"/delete", nil)
	if status, _ := getPage(t, anon, postPath); status != http.StatusNotFound {
		t.Fatalf("deleted post still serves: status %d", status)
	}

	// Logout drops the session.
	if _, body := submitForm(t, amy, "/logout", nil); !strings.Contains(body, "logged out") {
		t.Fatal("logout confirmation missing")
	}
	if status, _ := getPage(t, amy, "/my-posts"); status != http.StatusOK {
		// The gate redirects to the login page, which renders 200.
		t.Fatalf("gated page after logout: status %d", status)
	}
	if _, body := getPage(t, amy, "/my-posts"); strings.Contains(body, "Log out") {
		t.Fatal("session survived logout")
	}
}
