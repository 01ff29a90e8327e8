// Package detector 调用图片标签识别服务.
//
// 支持的实现：
//   - rekognition: AWS Rekognition DetectLabels，直接读取对象存储中的图片
//   - none:        不识别，返回空标签集，用于本地开发与没有识别服务的部署
package detector

import (
	"context"
	"fmt"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/internal/model"
)

// Detector 为对象存储中的图片识别标签.
type Detector interface {
	Detect(ctx context.Context, ref model.BlobRef) ([]model.DetectedLabel, error)
}

// Factory 创建识别服务客户端.
type Factory func(ctx context.Context, cfg configs.DetectorConfig) (Detector, error)

var factories = map[configs.DetectorType]Factory{}

// RegisterFactory 注册指定类型的工厂.
func RegisterFactory(t configs.DetectorType, f Factory) {
	factories[t] = f
}

// New 按配置创建识别服务客户端.
func New(ctx context.Context, cfg configs.DetectorConfig) (Detector, error) {
	f, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported detector type: %s", cfg.Type)
	}

	return f(ctx, cfg)
}

// None 不做识别的 Detector.
type None struct{}

func (None) Detect(context.Context, model.BlobRef) ([]model.DetectedLabel, error) {
	return []model.DetectedLabel{}, nil
}

func init() {
	RegisterFactory(configs.DetectorNone, func(context.Context, configs.DetectorConfig) (Detector, error) {
		return None{}, nil
	})
}
