package detector

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/model"
	nlog "github.com/yeisme/photovault/pkg/log"
)

// LabelsAPI 是 Rekognition 客户端中用到的方法.
type LabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Rekognition 基于 AWS Rekognition 的 Detector.
type Rekognition struct {
	api           LabelsAPI
	maxLabels     int32
	minConfidence float32
}

// NewRekognition 加载 AWS 配置并创建 Rekognition 客户端.
// SDK 自带的重试被关闭，重试统一由调用方的重试策略负责.
func NewRekognition(ctx context.Context, cfg configs.DetectorConfig) (*Rekognition, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := rekognition.NewFromConfig(awsCfg, func(o *rekognition.Options) {
		o.Retryer = aws.NopRetryer{}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	nlog.Logger().Info().Str("region", awsCfg.Region).Msg("rekognition client ready")

	return NewRekognitionWithAPI(client, cfg), nil
}

// NewRekognitionWithAPI 使用给定的 API 实现构造 Detector.
func NewRekognitionWithAPI(api LabelsAPI, cfg configs.DetectorConfig) *Rekognition {
	return &Rekognition{api: api, maxLabels: cfg.MaxLabels, minConfidence: cfg.MinConfidence}
}

// Detect 识别对象存储中 ref 指向的图片.
func (r *Rekognition) Detect(ctx context.Context, ref model.BlobRef) ([]model.DetectedLabel, error) {
	in := &rekognition.DetectLabelsInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(ref.Bucket),
				Name:   aws.String(ref.Key),
			},
		},
	}

	if r.maxLabels > 0 {
		in.MaxLabels = aws.Int32(r.maxLabels)
	}

	if r.minConfidence > 0 {
		in.MinConfidence = aws.Float32(r.minConfidence)
	}

	out, err := r.api.DetectLabels(ctx, in)
	if err != nil {
		if IsTransient(err) {
			return nil, errs.Transient("rekognition.detectLabels", err)
		}

		return nil, &errs.Error{Kind: errs.KindInternal, Op: "rekognition.detectLabels", Err: err}
	}

	labels := make([]model.DetectedLabel, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name == nil {
			continue
		}

		labels = append(labels, model.DetectedLabel{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}

	return labels, nil
}

// IsTransient 判断 Rekognition 错误是否为暂时性故障.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "ProvisionedThroughputExceededException",
			"InternalServerError", "ServiceUnavailableException", "LimitExceededException":
			return true
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() >= http.StatusInternalServerError {
		return true
	}

	return errs.IsNetwork(err)
}

func init() {
	RegisterFactory(configs.DetectorRekognition, func(ctx context.Context, cfg configs.DetectorConfig) (Detector, error) {
		return NewRekognition(ctx, cfg)
	})
}
