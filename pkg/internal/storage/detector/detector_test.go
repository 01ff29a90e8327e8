package detector_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/storage/detector"
)

type fakeLabelsAPI struct {
	in  *rekognition.DetectLabelsInput
	out *rekognition.DetectLabelsOutput
	err error
}

func (f *fakeLabelsAPI) DetectLabels(_ context.Context, in *rekognition.DetectLabelsInput, _ ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestRekognitionDetect(t *testing.T) {
	api := &fakeLabelsAPI{out: &rekognition.DetectLabelsOutput{Labels: []types.Label{
		{Name: aws.String("Boat"), Confidence: aws.Float32(91.4)},
		{Confidence: aws.Float32(50)},
		{Name: aws.String("Water"), Confidence: aws.Float32(88)},
	}}}

	d := detector.NewRekognitionWithAPI(api, configs.DetectorConfig{MaxLabels: 10, MinConfidence: 80})

	labels, err := d.Detect(context.Background(), model.BlobRef{Bucket: "photoapp", Key: "alice/x-boat.jpg"})
	if err != nil {
		t.Fatal(err)
	}

	if len(labels) != 2 || labels[0].Name != "Boat" || labels[1].Name != "Water" {
		t.Fatalf("labels = %+v", labels)
	}

	obj := api.in.Image.S3Object
	if aws.ToString(obj.Bucket) != "photoapp" || aws.ToString(obj.Name) != "alice/x-boat.jpg" {
		t.Errorf("s3 object = %s/%s", aws.ToString(obj.Bucket), aws.ToString(obj.Name))
	}

	if aws.ToInt32(api.in.MaxLabels) != 10 || aws.ToFloat32(api.in.MinConfidence) != 80 {
		t.Errorf("max labels %d, min confidence %v", aws.ToInt32(api.in.MaxLabels), aws.ToFloat32(api.in.MinConfidence))
	}
}

func TestRekognitionErrorKinds(t *testing.T) {
	throttled := &fakeLabelsAPI{err: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}}

	_, err := detector.NewRekognitionWithAPI(throttled, configs.DetectorConfig{}).Detect(context.Background(), model.BlobRef{})
	if !errs.IsTransient(err) {
		t.Fatalf("throttling should be transient, got %v", err)
	}

	badImage := &fakeLabelsAPI{err: &smithy.GenericAPIError{Code: "InvalidImageFormatException"}}

	_, err = detector.NewRekognitionWithAPI(badImage, configs.DetectorConfig{}).Detect(context.Background(), model.BlobRef{})
	if err == nil || errs.IsTransient(err) {
		t.Fatalf("invalid image should fail permanently, got %v", err)
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "InvalidImageFormatException" {
		t.Errorf("api error not preserved: %v", err)
	}
}

func TestNewByType(t *testing.T) {
	d, err := detector.New(context.Background(), configs.DetectorConfig{Type: configs.DetectorNone})
	if err != nil {
		t.Fatal(err)
	}

	labels, err := d.Detect(context.Background(), model.BlobRef{Key: "k"})
	if err != nil || labels == nil || len(labels) != 0 {
		t.Fatalf("none detector = %v, %v", labels, err)
	}

	if _, err := detector.New(context.Background(), configs.DetectorConfig{Type: "vision"}); err == nil {
		t.Fatal("expected unsupported type error")
	}
}
