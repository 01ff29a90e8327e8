package db_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/storage/db"
)

func openSQLite(t *testing.T) *db.Client {
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
		t.Fatalf("open: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	if client.Dialect() != db.DialectSQLite {
		t.Fatalf("unexpected dialect %s", client.Dialect())
	}

	if err := client.CreateUser(context.Background(), &model.User{
		UserID: 80001, Username: "alice", GivenName: "Alice", FamilyName: "Liddell",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return client
}

func insertAsset(t *testing.T, c *db.Client, key string) int64 {
	t.Helper()

	ctx := context.Background()
	if err := c.InsertAsset(ctx, 80001, "x.jpg", key); err != nil {
		t.Fatalf("insert %s: %v", key, err)
	}

	ids, err := c.AssetIDsByBucketKey(ctx, key)
	if err != nil || len(ids) != 1 {
		t.Fatalf("resolve %s: %v %v", key, ids, err)
	}

	return ids[0]
}

func TestLookupUsernames(t *testing.T) {
	c := openSQLite(t)

	names, err := c.LookupUsernames(context.Background(), 80001)
	if err != nil || len(names) != 1 || names[0] != "alice" {
		t.Fatalf("want [alice], got %v (%v)", names, err)
	}

	names, err = c.LookupUsernames(context.Background(), 1)
	if err != nil || len(names) != 0 {
		t.Fatalf("want no rows, got %v (%v)", names, err)
	}
}

func TestDuplicateBucketKeyRejected(t *testing.T) {
	c := openSQLite(t)
	insertAsset(t, c, "alice/k-x.jpg")

	if err := c.InsertAsset(context.Background(), 80001, "x.jpg", "alice/k-x.jpg"); err == nil {
		t.Fatal("duplicate bucket key must be rejected")
	}

	assets, err := c.ListAssets(context.Background(), nil)
	if err != nil || len(assets) != 1 {
		t.Fatalf("failed insert must roll back, got %d assets (%v)", len(assets), err)
	}
}

func TestSearchLabelsEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t)
	id := insertAsset(t, c, "alice/k-x.jpg")

	err := c.InsertLabels(ctx, []model.Label{
		{AssetID: id, Label: "100% Cotton", Confidence: 90},
		{AssetID: id, Label: "Cotton_Candy", Confidence: 80},
		{AssetID: id, Label: "Cottonwood", Confidence: 70},
	})
	if err != nil {
		t.Fatalf("insert labels: %v", err)
	}

	got, err := c.SearchLabels(ctx, "% c")
	if err != nil || len(got) != 1 || got[0].Label != "100% Cotton" {
		t.Fatalf("want only the literal %% match, got %+v (%v)", got, err)
	}

	got, err = c.SearchLabels(ctx, "n_c")
	if err != nil || len(got) != 1 || got[0].Label != "Cotton_Candy" {
		t.Fatalf("want only the literal _ match, got %+v (%v)", got, err)
	}

	got, err = c.SearchLabels(ctx, "COTTON")
	if err != nil || len(got) != 3 {
		t.Fatalf("want 3 case-insensitive matches, got %+v (%v)", got, err)
	}
}

func TestPurgeAssets(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t)

	for _, k := range []string{"alice/1", "alice/2", "alice/3"} {
		id := insertAsset(t, c, k)
		if err := c.InsertLabels(ctx, []model.Label{{AssetID: id, Label: "Animal", Confidence: 99}}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.PurgeAssets(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}

	if n != 3 {
		t.Fatalf("want 3 purged, got %d", n)
	}

	keys, err := c.BucketKeys(ctx)
	if err != nil || len(keys) != 0 {
		t.Fatalf("assets must be empty, got %v (%v)", keys, err)
	}

	labels, err := c.SearchLabels(ctx, "")
	if err != nil || len(labels) != 0 {
		t.Fatalf("labels must be empty, got %v (%v)", labels, err)
	}

	users, err := c.CountUsers(ctx)
	if err != nil || users != 1 {
		t.Fatalf("users must be kept, got %d (%v)", users, err)
	}

	if id := insertAsset(t, c, "alice/4"); id != 1 {
		t.Fatalf("asset id sequence must restart, got %d", id)
	}
}

func TestTables(t *testing.T) {
	c := openSQLite(t)

	stats, err := c.Tables(context.Background())
	if err != nil {
		t.Fatalf("tables: %v", err)
	}

	rows := map[string]int64{}
	for _, s := range stats {
		rows[s.Name] = s.Rows
	}

	if rows["users"] != 1 || rows["assets"] != 0 || rows["labels"] != 0 {
		t.Fatalf("unexpected table stats %+v", stats)
	}
}

func TestAssetRequiresExistingUser(t *testing.T) {
	c := openSQLite(t)

	if err := c.InsertAsset(context.Background(), 99999, "x.jpg", "ghost/k-x.jpg"); err == nil {
		t.Fatal("asset with unknown userid must be rejected")
	}

	assets, err := c.ListAssets(context.Background(), nil)
	if err != nil || len(assets) != 0 {
		t.Fatalf("want no assets, got %v (%v)", assets, err)
	}

	if err := c.CreateUser(context.Background(), &model.User{
		UserID: 80002, Username: "bob", GivenName: "Bob", FamilyName: "Builder",
	}); err != nil {
		t.Fatalf("second user: %v", err)
	}
}

func TestPurgeFailureKeepsRows(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t)

	id := insertAsset(t, c, "alice/1")
	if err := c.InsertLabels(ctx, []model.Label{{AssetID: id, Label: "Animal", Confidence: 99}}); err != nil {
		t.Fatal(err)
	}

	// labels 已删除之后，删除 assets 时失败
	err := c.Exec("CREATE TRIGGER keep_assets BEFORE DELETE ON assets BEGIN SELECT RAISE(ABORT, 'assets locked'); END").Error
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := c.PurgeAssets(ctx); err == nil {
		t.Fatal("purge must fail")
	}

	keys, err := c.BucketKeys(ctx)
	if err != nil || len(keys) != 1 {
		t.Fatalf("assets must be kept, got %v (%v)", keys, err)
	}

	labels, err := c.ListLabels(ctx, id)
	if err != nil || len(labels) != 1 {
		t.Fatalf("labels must be rolled back, got %v (%v)", labels, err)
	}
}

func TestMySQLPurgePlan(t *testing.T) {
	plan := db.PurgePlanFor(db.DialectMySQL)

	if plan.DisableFK == "" || plan.EnableFK == "" {
		t.Fatalf("foreign key checks must be toggled, got %+v", plan)
	}

	for _, stmt := range plan.Statements {
		if strings.Contains(stmt.SQL, "ALTER TABLE") || strings.Contains(stmt.SQL, "FOREIGN_KEY_CHECKS") {
			t.Errorf("statement %q must not run inside the purge transaction", stmt.SQL)
		}
	}

	if !strings.Contains(plan.ResetSequence, "AUTO_INCREMENT") {
		t.Errorf("sequence reset = %q", plan.ResetSequence)
	}

	if db.PurgePlanFor(db.DialectSQLite).DisableFK != "" {
		t.Error("sqlite purge must not toggle foreign key checks")
	}
}
