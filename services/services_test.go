package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/medportal/medportalbackend/database"
	"github.com/medportal/medportalbackend/events"
	"github.com/medportal/medportalbackend/models"
	"github.com/medportal/medportalbackend/sessions"
	"github.com/medportal/medportalbackend/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type failingAccountStore struct {
	*database.MemoryAccountStore
	err error
}

func (f failingAccountStore) CreateAccount(context.Context, *models.Account) error { return f.err }
func (f failingAccountStore) FindByUsername(context.Context, string) (*models.Account, error) {
	return nil, f.err
}

type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  int
	puts    int
	deleted []string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte), failOn: -1}
}

func (m *memBlobStore) Put(_ context.Context, objectName, _ string, body io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.puts++ }()
	if m.puts == m.failOn {
		return "", errors.New("bucket unavailable")
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[objectName] = b
	return "https://blobs.test/" + objectName, nil
}

func (m *memBlobStore) Delete(_ context.Context, objectNames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range objectNames {
		delete(m.objects, n)
		m.deleted = append(m.deleted, n)
	}
	return nil
}

type fixture struct {
	accounts  *database.MemoryAccountStore
	sessions  *sessions.Manager
	publisher *recordingPublisher
	auth      *AuthService
	docs      *DocumentService
	blobs     *memBlobStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		accounts:  database.NewMemoryAccountStore(),
		sessions:  sessions.NewManager(sessions.NewMemoryStore(), "test-secret", 0),
		publisher: &recordingPublisher{},
		blobs:     newMemBlobStore(),
	}
	hasher := utils.NewPasswordHasher(bcrypt.MinCost)
	validator := utils.NewFileValidator([]string{".pdf"}, []string{"application/pdf"}, 1<<20)
	f.auth = NewAuthService(f.accounts, hasher, f.sessions, f.publisher, zerolog.Nop())
	f.docs = NewDocumentService(f.accounts, f.blobs, validator, f.publisher, zerolog.Nop())
	return f
}

func (f *fixture) signup(t *testing.T, in SignupInput) *models.Account {
	t.Helper()
	acc, err := f.auth.Signup(context.Background(), in)
	require.NoError(t, err)
	return acc
}

var pdfContent = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

func fileHeaders(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}
