package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/storage/db"
	"github.com/yeisme/photovault/pkg/retry"
)

var errConnReset = errors.New("connection reset by peer")

// memObjects 内存对象存储，可注入错误.
type memObjects struct {
	mu    sync.Mutex
	blobs map[string]model.BlobInfo
	data  map[string][]byte

	putErr     error
	countErr   error
	deleteErr  error
	deleteFail map[string]bool

	puts    int
	gets    int
	deletes int
}

func newMemObjects() *memObjects {
	return &memObjects{
		blobs:      map[string]model.BlobInfo{},
		data:       map[string][]byte{},
		deleteFail: map[string]bool{},
	}
}

func (m *memObjects) Bucket() string { return "photoapp-test" }

func (m *memObjects) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.putErr != nil {
		return m.putErr
	}

	m.put(key, data, time.Now())

	return nil
}

func (m *memObjects) put(key string, data []byte, modified time.Time) {
	m.blobs[key] = model.BlobInfo{Key: key, Size: int64(len(data)), LastModified: modified}
	m.data[key] = slices.Clone(data)
}

func (m *memObjects) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets++

	d, ok := m.data[key]
	if !ok {
		return nil, errors.New("object not found")
	}

	return slices.Clone(d), nil
}

func (m *memObjects) DeleteBatch(_ context.Context, keys []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deletes++

	var failed []string

	for _, k := range keys {
		if m.deleteFail[k] {
			failed = append(failed, k)
			continue
		}

		delete(m.blobs, k)
		delete(m.data, k)
	}

	if len(failed) > 0 {
		return failed, m.deleteErr
	}

	return nil, nil
}

func (m *memObjects) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countErr != nil {
		return 0, m.countErr
	}

	return int64(len(m.blobs)), nil
}

func (m *memObjects) List(_ context.Context) ([]model.BlobInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.BlobInfo, 0, len(m.blobs))
	for _, b := range m.blobs {
		out = append(out, b)
	}

	return out, nil
}

func (m *memObjects) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}

// fakeDetector 按顺序返回 errs 中的错误，用尽后返回 labels.
type fakeDetector struct {
	mu     sync.Mutex
	labels []model.DetectedLabel
	errs   []error
	calls  int
	refs   []model.BlobRef
}

func (f *fakeDetector) Detect(_ context.Context, ref model.BlobRef) ([]model.DetectedLabel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.refs = append(f.refs, ref)

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]

		if err != nil {
			return nil, err
		}
	}

	return f.labels, nil
}

func (f *fakeDetector) setLabels(labels ...model.DetectedLabel) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.labels = labels
}

type fixture struct {
	svc      *service.AssetService
	db       *db.Client
	objects  *memObjects
	detector *fakeDetector
}

const (
	userAlice int64 = 80001
	userBob   int64 = 80002
)

func testPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, MinWait: time.Millisecond, MaxWait: 2 * time.Millisecond, Multiplier: 2}
}

func openTestDB(t *testing.T) *db.Client {
	t.Helper()

	client, err := db.New(context.Background(), configs.DBConfig{
		Type:          configs.SQLite,
		Database:      filepath.Join(t.TempDir(), "photoapp"),
		MaxOpenConns:  1,
		MaxIdleConns:  1,
		AutoMigrate:   true,
		SlowThreshold: "1s",
	}, db.Options{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	for _, u := range []model.User{
		{UserID: userAlice, Username: "alice", GivenName: "Alice", FamilyName: "Liddell"},
		{UserID: userBob, Username: "bob", GivenName: "Bob", FamilyName: "Builder"},
	} {
		if err := client.CreateUser(context.Background(), &u); err != nil {
			t.Fatalf("seed user %s: %v", u.Username, err)
		}
	}

	return client
}

func newFixture(t *testing.T, deps ...func(*service.Deps)) *fixture {
	t.Helper()

	f := &fixture{
		db:       openTestDB(t),
		objects:  newMemObjects(),
		detector: &fakeDetector{},
	}

	d := service.Deps{Meta: f.db, Objects: f.objects, Detector: f.detector}
	for _, fn := range deps {
		fn(&d)
	}

	f.svc = service.New(d, testPolicy(), service.Options{})

	return f
}

func transient(err error) error {
	return errs.Transient("test", err)
}
