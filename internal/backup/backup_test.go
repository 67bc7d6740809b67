package backup

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cleanquest/cleanquest/internal/database"
	"github.com/cleanquest/cleanquest/internal/model"
	"github.com/cleanquest/cleanquest/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.delErr != nil {
		return nil, m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config: disabled.
	m := NewManager(Config{}, nil, nil, nil, discardLogger())
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	// With S3 config: idle.
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, nil, discardLogger())
	if m2.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m2.Status().State, StateIdle)
	}
}

func TestManagerStopSafety(t *testing.T) {
	m := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic.
	m.Stop()
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, discardLogger())

	m.Start(context.Background()) // no-op while disabled
	m.Stop()
}

func TestManagerCachedKey(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, discardLogger())

	if m.HasCachedKey() {
		t.Error("expected no cached key")
	}
	m.CacheKey("passphrase", []byte("salt1234salt1234"))
	if !m.HasCachedKey() {
		t.Error("expected cached key")
	}
}

func TestUpdateS3Config(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, discardLogger())
	if m.Status().State != StateDisabled {
		t.Fatalf("initial state = %q, want %q", m.Status().State, StateDisabled)
	}

	m.UpdateS3Config(S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret", Region: "us-east-1"})
	if m.Status().State != StateIdle {
		t.Errorf("state after set = %q, want %q", m.Status().State, StateIdle)
	}

	m.UpdateS3Config(S3Config{})
	if m.Status().State != StateDisabled {
		t.Errorf("state after clear = %q, want %q", m.Status().State, StateDisabled)
	}
}

func TestRunNowUploadsDecryptableSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "live.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backups := store.NewBackupStore(db)
	settings := store.NewSettingsStore(db)

	salt, _ := GenerateSalt()
	if err := settings.Set("backup_passphrase_salt", hex.EncodeToString(salt)); err != nil {
		t.Fatalf("set salt: %v", err)
	}

	m := NewManager(Config{
		S3:     S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath: dbPath,
	}, db, backups, settings, discardLogger())
	mock := newMockS3()
	m.client = mock

	id, err := m.RunNow(context.Background(), "hunter2")
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	record, err := backups.GetByID(id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", record.Status)
	}
	if record.SizeBytes == 0 {
		t.Error("size not recorded")
	}

	mock.mu.Lock()
	data, ok := mock.objects[record.S3Key]
	mock.mu.Unlock()
	if !ok {
		t.Fatalf("no object uploaded under %q", record.S3Key)
	}

	// The uploaded object must decrypt back to a SQLite file.
	plain, err := Open(data, "hunter2")
	if err != nil {
		t.Fatalf("decrypt upload: %v", err)
	}
	if !strings.HasPrefix(string(plain), "SQLite format 3") {
		t.Error("decrypted upload is not a SQLite database")
	}

	if !m.HasCachedKey() {
		t.Error("RunNow should cache the passphrase for scheduled runs")
	}
	if m.Status().State != StateIdle {
		t.Errorf("state after backup = %q, want idle", m.Status().State)
	}
}

func TestRunNowWithoutSalt(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "live.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{
		S3:     S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath: dbPath,
	}, db, store.NewBackupStore(db), store.NewSettingsStore(db), discardLogger())
	m.client = newMockS3()

	if _, err := m.RunNow(context.Background(), "hunter2"); err == nil {
		t.Fatal("expected error when passphrase salt is not configured")
	}
}

func TestCleanupRemovesOldBackups(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "live.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backups := store.NewBackupStore(db)
	old, err := backups.Create("backup-old.db.enc", "backups/backup-old.db.enc")
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	// Only completed backups are swept; age this one beyond retention.
	if _, err := db.Exec(`UPDATE backups SET status = 'completed', created_at = ? WHERE id = ?`,
		time.Now().UTC().AddDate(0, 0, -90), old.ID); err != nil {
		t.Fatalf("age record: %v", err)
	}

	m := NewManager(Config{
		S3:     S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath: dbPath,
	}, db, backups, store.NewSettingsStore(db), discardLogger())
	mock := newMockS3()
	mock.objects["backups/backup-old.db.enc"] = []byte("x")
	m.client = mock

	if err := m.Cleanup(context.Background(), 30); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	mock.mu.Lock()
	_, exists := mock.objects["backups/backup-old.db.enc"]
	mock.mu.Unlock()
	if exists {
		t.Error("old S3 object not deleted")
	}

	record, err := backups.GetByID(old.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record != nil {
		t.Error("old record not deleted")
	}
}
