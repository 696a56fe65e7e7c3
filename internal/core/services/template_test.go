package services

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"template-repo-service/internal/core/domain"
	"template-repo-service/internal/testutil"
)

var testPrincipal = domain.Principal{UserRef: "user:default/alice"}

func newTestService(t *testing.T, repo *testutil.MockTemplateRepo) (*TemplateService, string) {
	t.Helper()
	storageDir := filepath.Join(t.TempDir(), "store-templates")
	svc, err := NewTemplateService(repo, storageDir)
	require.NoError(t, err)
	return svc, storageDir
}

func stageTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload-tmp")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func validInput(tempPath string) UploadInput {
	return UploadInput{
		Category:     "backend",
		Title:        "Service Template",
		Description:  "x",
		Owner:        "team-a",
		TempPath:     tempPath,
		OriginalName: "app.py",
		ContentType:  "text/plain",
	}
}

func zipBytes(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUploadNonArchiveBuildsZip(t *testing.T) {
	repo := new(testutil.MockTemplateRepo)
	svc, storageDir := newTestService(t, repo)

	tempPath := stageTempFile(t, []byte("print('hello')\n"))
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Template")).Return(nil)

	tpl, err := svc.Upload(context.Background(), validInput(tempPath), testPrincipal)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, tpl.ID)
	assert.Equal(t, tpl.ID.String()+".zip", tpl.Filename)
	assert.Equal(t, "app.py", tpl.OriginalName)
	assert.Equal(t, "backend", tpl.Category)
	assert.Equal(t, "user:default/alice", tpl.CreatedBy)
	assert.Equal(t, filepath.Join(storageDir, tpl.Filename), tpl.Path)
	assert.False(t, tpl.CreatedAt.IsZero())

	// The archive holds one entry named by the original name.
	zr, err := zip.OpenReader(tpl.Path)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "app.py", zr.File[0].Name)
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte("print('hello')\n"), data)

	// Temp source consumed.
	_, err = os.Stat(tempPath)
	assert.True(t, os.IsNotExist(err))

	repo.AssertExpectations(t)
}

func TestUploadArchiveMovesVerbatim(t *testing.T) {
	repo := new(testutil.MockTemplateRepo)
	svc, _ := newTestService(t, repo)

	original := zipBytes(t, "app.py", []byte("print('hello')\n"))
	tempPath := stageTempFile(t, original)
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Template")).Return(nil)

	in := validInput(tempPath)
	in.OriginalName = "template.zip"
	in.ContentType = "application/zip"

	tpl, err := svc.Upload(context.Background(), in, testPrincipal)
	require.NoError(t, err)

	stored, err := os.ReadFile(tpl.Path)
	require.NoError(t, err)
	assert.Equal(t, original, stored, "archive uploads must not be recompressed")

	_, err = os.Stat(tempPath)
	assert.True(t, os.IsNotExist(err))
}

func TestUploadUniqueIDs(t *testing.T) {
	repo := new(testutil.MockTemplateRepo)
	svc, _ := newTestService(t, repo)
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Template")).Return(nil)

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 5; i++ {
		tpl, err := svc.Upload(context.Background(), validInput(stageTempFile(t, []byte("x"))), testPrincipal)
		require.NoError(t, err)
		assert.False(t, seen[tpl.ID])
		seen[tpl.ID] = true
	}
}

func TestUploadValidation(t *testing.T) {
	repo := new(testutil.MockTemplateRepo)
	svc, _ := newTestService(t, repo)

	cases := []struct {
		name   string
		mutate func(*UploadInput)
		want   error
	}{
		{"category", func(in *UploadInput) { in.Category = "" }, domain.ErrMissingCategory},
		{"title", func(in *UploadInput) { in.Title = "" }, domain.ErrMissingTitle},
		{"description", func(in *UploadInput) { in.Description = "" }, domain.ErrMissingDescription},
		{"owner", func(in *UploadInput) { in.Owner = "" }, domain.ErrMissingOwner},
		{"file", func(in *UploadInput) { in.TempPath = "" }, domain.ErrMissingFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput("/tmp/whatever")
			tc.mutate(&in)
			_, err := svc.Upload(context.Background(), in, testPrincipal)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	repo.AssertNotCalled(t, "Insert")
}

func TestUploadRequiresPrincipal(t *testing.T) {
	repo := new(testutil.MockTemplateRepo)
	svc, _ := newTestService(t, repo)

	_, err := svc.Upload(context.Background(), validInput("/tmp/whatever"), domain.Principal{})
	assert.ErrorIs(t, err, domain.ErrMissingPrincipal)
}

func TestUploadBuilderFailureWritesNothing(t *testing.T) {
	repo := new(testutil.MockTemplateRepo)
	svc, storageDir := newTestService(t, repo)

	// Temp path does not exist; the builder fails before anything is written.
	in := validInput(filepath.Join(t.TempDir(), "missing"))
	_, err := svc.Upload(context.Background(), in, testPrincipal)
	require.Error(t, err)

	entries, err := os.ReadDir(storageDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	repo.AssertNotCalled(t, "Insert")
}

func TestUploadInsertFailureRemovesArchive(t *testing.T) {
	repo := new(testutil.MockTemplateRepo)
	svc, storageDir := newTestService(t, repo)

	tempPath := stageTempFile(t, []byte("data"))
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Template")).Return(assert.AnError)

	_, err := svc.Upload(context.Background(), validInput(tempPath), testPrincipal)
	require.Error(t, err)

	// File-first ordering: the committed archive is rolled back when the
	// metadata insert fails, so no record ever dangles.
	entries, readErr := os.ReadDir(storageDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestGetDelegatesNotFound(t *testing.T) {
	repo := new(testutil.MockTemplateRepo)
	svc, _ := newTestService(t, repo)

	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrTemplateNotFound)

	_, err := svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestListDelegates(t *testing.T) {
	repo := new(testutil.MockTemplateRepo)
	svc, _ := newTestService(t, repo)

	templates := []*domain.Template{{ID: uuid.New()}, {ID: uuid.New()}}
	repo.On("ListAll", mock.Anything).Return(templates, nil)

	result, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, result, 2)
}
