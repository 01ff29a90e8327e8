package service_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/storage/mq"
	"github.com/yeisme/photovault/pkg/queue"
)

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

func TestUploadDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.detector.setLabels(
		model.DetectedLabel{Name: "Animal", Confidence: 70},
		model.DetectedLabel{Name: "Rodent", Confidence: 80.4},
		model.DetectedLabel{Name: "Animal", Confidence: 99.6},
	)

	res, err := f.svc.Upload(ctx, userAlice, "degu.jpg", jpeg)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if res.LabelStatus != service.LabelsStored || res.LabelCount != 2 {
		t.Fatalf("unexpected label result %+v", res)
	}

	if !strings.HasPrefix(res.BucketKey, "alice/") || !strings.HasSuffix(res.BucketKey, "-degu.jpg") {
		t.Fatalf("unexpected bucket key %q", res.BucketKey)
	}

	got, err := f.svc.Download(ctx, res.AssetID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}

	if !bytes.Equal(got.Data, jpeg) {
		t.Fatal("downloaded bytes differ from uploaded bytes")
	}

	if got.Asset.LocalName != "degu.jpg" || got.Asset.UserID != userAlice || got.Asset.BucketKey != res.BucketKey {
		t.Fatalf("unexpected asset %+v", got.Asset)
	}

	labels, err := f.svc.GetLabels(ctx, res.AssetID)
	if err != nil {
		t.Fatalf("get labels: %v", err)
	}

	want := []model.Label{
		{AssetID: res.AssetID, Label: "Animal", Confidence: 100},
		{AssetID: res.AssetID, Label: "Rodent", Confidence: 80},
	}
	if len(labels) != len(want) {
		t.Fatalf("want %d labels, got %+v", len(want), labels)
	}

	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("label %d: want %+v, got %+v", i, want[i], labels[i])
		}
	}

	if ref := f.detector.refs[0]; ref.Bucket != f.objects.Bucket() || ref.Key != res.BucketKey {
		t.Fatalf("detector called with %+v", ref)
	}
}

func TestUploadFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	path := filepath.Join(t.TempDir(), "sailboat.jpg")
	if err := os.WriteFile(path, jpeg, 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.UploadFile(ctx, userBob, path)
	if err != nil {
		t.Fatalf("upload file: %v", err)
	}

	if !strings.HasPrefix(res.BucketKey, "bob/") || !strings.HasSuffix(res.BucketKey, "-sailboat.jpg") {
		t.Fatalf("unexpected bucket key %q", res.BucketKey)
	}

	_, err = f.svc.UploadFile(ctx, userBob, filepath.Join(t.TempDir(), "missing.jpg"))
	if !errs.IsValidation(err) {
		t.Fatalf("missing local file must be a validation error, got %v", err)
	}
}

func TestUploadUnknownUserPerformsNoWrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Upload(ctx, 424242, "degu.jpg", jpeg)
	if !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}

	if !strings.Contains(err.Error(), "no such userid") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if f.objects.puts != 0 || len(f.objects.keys()) != 0 {
		t.Fatal("object store must not be written for an unknown user")
	}

	assets, err := f.svc.ListAssets(ctx, nil)
	if err != nil {
		t.Fatalf("list assets: %v", err)
	}

	if len(assets) != 0 {
		t.Fatalf("metadata store must not be written, got %d assets", len(assets))
	}

	if f.detector.calls != 0 {
		t.Fatal("detector must not be called")
	}
}

func TestUploadInvalidLocalName(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"", "..", "a/b.jpg"} {
		if _, err := f.svc.Upload(context.Background(), userAlice, name, jpeg); !errs.IsValidation(err) {
			t.Fatalf("%q: want validation error, got %v", name, err)
		}
	}
}

func TestUploadObjectStoreFailureLeavesNoMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.objects.putErr = transient(errConnReset)

	_, err := f.svc.Upload(ctx, userAlice, "degu.jpg", jpeg)
	if !errs.IsTransient(err) {
		t.Fatalf("want transient error after exhausting retries, got %v", err)
	}

	if f.objects.puts != 3 {
		t.Fatalf("want 3 put attempts, got %d", f.objects.puts)
	}

	assets, _ := f.svc.ListAssets(ctx, nil)
	if len(assets) != 0 {
		t.Fatalf("no asset row may exist, got %d", len(assets))
	}
}

// lostAckMeta 第一次 InsertAsset 写入成功后仍返回暂时性错误，模拟提交确认丢失.
type lostAckMeta struct {
	service.MetadataStore
	inserts int
}

func (m *lostAckMeta) InsertAsset(ctx context.Context, userID int64, localName, bucketKey string) error {
	m.inserts++
	if err := m.MetadataStore.InsertAsset(ctx, userID, localName, bucketKey); err != nil {
		return err
	}

	if m.inserts == 1 {
		return transient(errConnReset)
	}

	return nil
}

func TestUploadInsertRetryAfterLostAck(t *testing.T) {
	ctx := context.Background()

	var meta *lostAckMeta

	f := newFixture(t, func(d *service.Deps) {
		meta = &lostAckMeta{MetadataStore: d.Meta}
		d.Meta = meta
	})

	res, err := f.svc.Upload(ctx, userAlice, "degu.jpg", jpeg)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if meta.inserts != 1 {
		t.Fatalf("committed row must not be inserted again, got %d inserts", meta.inserts)
	}

	assets, err := f.svc.ListAssets(ctx, nil)
	if err != nil || len(assets) != 1 || assets[0].AssetID != res.AssetID {
		t.Fatalf("want exactly the uploaded asset, got %+v (%v)", assets, err)
	}
}

func TestUploadRetriesTransientDetectorErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.detector.errs = []error{transient(errConnReset), transient(errConnReset)}
	f.detector.setLabels(model.DetectedLabel{Name: "Sailboat", Confidence: 91.2})

	res, err := f.svc.Upload(ctx, userAlice, "boat.jpg", jpeg)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if f.detector.calls != 3 {
		t.Fatalf("want 3 detector calls, got %d", f.detector.calls)
	}

	if res.LabelStatus != service.LabelsStored || res.LabelCount != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUploadLabelFailureIsPartialSuccess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mq.New(ctx, configs.MQConfig{
		Type:      configs.MQTypeGoChannel,
		GoChannel: configs.MQGoChannelConfig{OutputBuffer: 16},
	}, mq.Options{})
	if err != nil {
		t.Fatalf("mq: %v", err)
	}
	defer client.Close()

	failed, err := client.Subscribe(ctx, queue.TopicAssetLabelFailed)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	f := newFixture(t, func(d *service.Deps) { d.Events = client.Publisher() })
	f.detector.errs = []error{errors.New("InvalidImageFormatException")}

	res, err := f.svc.Upload(ctx, userAlice, "broken.jpg", jpeg)
	if err != nil {
		t.Fatalf("label failure must not fail the upload: %v", err)
	}

	if res.AssetID == 0 || res.LabelStatus != service.LabelsFailed || res.LabelError == "" {
		t.Fatalf("unexpected result %+v", res)
	}

	if f.detector.calls != 1 {
		t.Fatalf("non-transient detector error must not be retried, calls=%d", f.detector.calls)
	}

	labels, err := f.svc.GetLabels(ctx, res.AssetID)
	if err != nil {
		t.Fatalf("asset must remain queryable: %v", err)
	}

	if len(labels) != 0 {
		t.Fatalf("want no labels, got %+v", labels)
	}

	select {
	case msg := <-failed:
		msg.Ack()

		env, err := queue.ParseAssetLabelFailed(msg)
		if err != nil {
			t.Fatalf("parse event: %v", err)
		}

		if env.Payload.Asset.AssetID != res.AssetID || env.Payload.Step != "detectLabels" {
			t.Fatalf("unexpected event %+v", env.Payload)
		}

		if env.Header.Producer != configs.AppName {
			t.Fatalf("unexpected producer %q", env.Header.Producer)
		}
	case <-ctx.Done():
		t.Fatal("label failed event not published")
	}
}

func TestUploadPublishesStoredEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mq.New(ctx, configs.MQConfig{
		Type:      configs.MQTypeGoChannel,
		GoChannel: configs.MQGoChannelConfig{OutputBuffer: 16},
	}, mq.Options{})
	if err != nil {
		t.Fatalf("mq: %v", err)
	}
	defer client.Close()

	stored, err := client.Subscribe(ctx, queue.TopicAssetStored)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	f := newFixture(t, func(d *service.Deps) { d.Events = client.Publisher() })

	res, err := f.svc.Upload(ctx, userBob, "degu.jpg", jpeg)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	var msg *message.Message
	select {
	case msg = <-stored:
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("stored event not published")
	}

	env, err := queue.ParseAssetStored(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	p := env.Payload
	if p.Asset.AssetID != res.AssetID || p.Asset.BucketKey != res.BucketKey || p.Size != int64(len(jpeg)) {
		t.Fatalf("unexpected payload %+v", p)
	}

	if p.ContentType != "image/jpeg" {
		t.Fatalf("unexpected content type %q", p.ContentType)
	}
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.detector.setLabels(model.DetectedLabel{Name: "Animal", Confidence: 99})

	first, err := f.svc.Upload(ctx, userAlice, "a.jpg", jpeg)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Upload(ctx, userBob, "b.jpg", jpeg); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}

	if res.Assets != 2 || res.BlobsDeleted != 2 || len(res.BlobsFailed) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	assets, err := f.svc.ListAssets(ctx, nil)
	if err != nil || len(assets) != 0 {
		t.Fatalf("assets must be empty, got %d (%v)", len(assets), err)
	}

	if keys := f.objects.keys(); len(keys) != 0 {
		t.Fatalf("blobs must be deleted, got %v", keys)
	}

	if _, err := f.svc.GetLabels(ctx, first.AssetID); !errs.IsValidation(err) {
		t.Fatalf("labels of a purged asset must be a validation error, got %v", err)
	}

	labels, err := f.svc.SearchByLabel(ctx, "animal")
	if err != nil || len(labels) != 0 {
		t.Fatalf("labels table must be empty, got %+v (%v)", labels, err)
	}

	users, err := f.svc.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("users must be kept, got %d (%v)", len(users), err)
	}

	again, err := f.svc.Upload(ctx, userAlice, "c.jpg", jpeg)
	if err != nil {
		t.Fatalf("upload after purge: %v", err)
	}

	if again.AssetID != 1 {
		t.Fatalf("asset ids restart after purge, got %d", again.AssetID)
	}
}

func TestDeleteAllReportsBlobFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.Upload(ctx, userAlice, "stuck.jpg", jpeg)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Upload(ctx, userAlice, "ok.jpg", jpeg); err != nil {
		t.Fatal(err)
	}

	f.objects.deleteFail[res.BucketKey] = true
	f.objects.deleteErr = errors.New("AccessDenied")

	out, err := f.svc.DeleteAll(ctx)
	if errs.KindOf(err) != errs.KindPartial {
		t.Fatalf("want partial failure, got %v", err)
	}

	if out.Assets != 2 || out.BlobsDeleted != 1 || len(out.BlobsFailed) != 1 || out.BlobsFailed[0] != res.BucketKey {
		t.Fatalf("unexpected result %+v", out)
	}

	if f.objects.deletes != 1 {
		t.Fatalf("non-transient delete failure must not be retried, deletes=%d", f.objects.deletes)
	}

	assets, _ := f.svc.ListAssets(ctx, nil)
	if len(assets) != 0 {
		t.Fatal("metadata must stay cleared after a blob deletion failure")
	}

	if _, err := f.svc.Upload(ctx, userAlice, "next.jpg", jpeg); err != nil {
		t.Fatalf("orphaned blobs must not block later uploads: %v", err)
	}
}

func TestPingPartialAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.objects.countErr = transient(errConnReset)

	res := f.svc.Ping(ctx)

	if res.M.OK() || !strings.Contains(res.M.Err, "connection reset") {
		t.Fatalf("object store slot must carry the error, got %+v", res.M)
	}

	if !res.N.OK() || res.N.Count != 2 {
		t.Fatalf("metadata slot must hold the user count, got %+v", res.N)
	}

	f.objects.countErr = nil

	if _, err := f.svc.Upload(ctx, userAlice, "a.jpg", jpeg); err != nil {
		t.Fatal(err)
	}

	res = f.svc.Ping(ctx)
	if !res.M.OK() || res.M.Count != 1 || !res.N.OK() || res.N.Count != 2 {
		t.Fatalf("unexpected ping %+v", res)
	}
}

func TestSearchByLabel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.detector.setLabels(
		model.DetectedLabel{Name: "Oat", Confidence: 60},
		model.DetectedLabel{Name: "Boat", Confidence: 90},
		model.DetectedLabel{Name: "Water", Confidence: 95},
	)

	a, err := f.svc.Upload(ctx, userAlice, "lake.jpg", jpeg)
	if err != nil {
		t.Fatal(err)
	}

	f.detector.setLabels(
		model.DetectedLabel{Name: "Goat", Confidence: 88},
		model.DetectedLabel{Name: "Animal", Confidence: 97},
	)

	b, err := f.svc.Upload(ctx, userBob, "farm.jpg", jpeg)
	if err != nil {
		t.Fatal(err)
	}

	want := []model.Label{
		{AssetID: a.AssetID, Label: "Boat", Confidence: 90},
		{AssetID: a.AssetID, Label: "Oat", Confidence: 60},
		{AssetID: b.AssetID, Label: "Goat", Confidence: 88},
	}

	for _, pattern := range []string{"oat", "OAT"} {
		got, err := f.svc.SearchByLabel(ctx, pattern)
		if err != nil {
			t.Fatalf("search %q: %v", pattern, err)
		}

		if len(got) != len(want) {
			t.Fatalf("search %q: want %+v, got %+v", pattern, want, got)
		}

		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("search %q row %d: want %+v, got %+v", pattern, i, want[i], got[i])
			}
		}
	}

	got, err := f.svc.SearchByLabel(ctx, "%")
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 0 {
		t.Fatalf("%% must match literally, got %+v", got)
	}
}

func TestGetLabelsEmptyAndUnknown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.Upload(ctx, userAlice, "blank.jpg", jpeg)
	if err != nil {
		t.Fatal(err)
	}

	if res.LabelStatus != service.LabelsStored || res.LabelCount != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	labels, err := f.svc.GetLabels(ctx, res.AssetID)
	if err != nil {
		t.Fatalf("get labels: %v", err)
	}

	if labels == nil || len(labels) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", labels)
	}

	if _, err := f.svc.GetLabels(ctx, res.AssetID+100); !errs.IsValidation(err) {
		t.Fatalf("unknown assetid must be a validation error, got %v", err)
	}

	if _, err := f.svc.Download(ctx, res.AssetID+100); !errs.IsValidation(err) {
		t.Fatalf("download of unknown assetid must be a validation error, got %v", err)
	}
}

func TestListAssetsByUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, u := range []int64{userAlice, userBob, userAlice} {
		if _, err := f.svc.Upload(ctx, u, "x.jpg", jpeg); err != nil {
			t.Fatal(err)
		}
	}

	alice := userAlice

	assets, err := f.svc.ListAssets(ctx, &alice)
	if err != nil {
		t.Fatal(err)
	}

	if len(assets) != 2 || assets[0].AssetID >= assets[1].AssetID {
		t.Fatalf("want alice's 2 assets in order, got %+v", assets)
	}

	unknown := int64(7)

	assets, err = f.svc.ListAssets(ctx, &unknown)
	if err != nil || len(assets) != 0 {
		t.Fatalf("unknown user must yield empty list, got %+v (%v)", assets, err)
	}

	users, err := f.svc.ListUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if len(users) != 2 || users[0].UserID != userAlice || users[1].UserID != userBob {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestSweepOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	kept, err := f.svc.Upload(ctx, userAlice, "kept.jpg", jpeg)
	if err != nil {
		t.Fatal(err)
	}

	old := time.Now().Add(-48 * time.Hour)
	f.objects.put("alice/old-orphan.jpg", jpeg, old)
	f.objects.put("alice/fresh-orphan.jpg", jpeg, time.Now())

	res, err := f.svc.SweepOrphans(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if res.Scanned != 3 || len(res.Deleted) != 1 || res.Deleted[0] != "alice/old-orphan.jpg" {
		t.Fatalf("unexpected result %+v", res)
	}

	keys := f.objects.keys()
	if len(keys) != 2 {
		t.Fatalf("want kept asset and fresh orphan to remain, got %v", keys)
	}

	if _, err := f.svc.Download(ctx, kept.AssetID); err != nil {
		t.Fatalf("referenced blob must survive: %v", err)
	}
}
