package configs

import (
	"github.com/spf13/viper"
)

// DetectorType 标签识别服务类型.
type DetectorType string

const (
	// DetectorRekognition 使用 AWS Rekognition DetectLabels.
	DetectorRekognition DetectorType = "rekognition"
	// DetectorNone 不识别标签，每张图片得到空标签集.
	DetectorNone DetectorType = "none"

	DefaultDetectorType      = DetectorNone
	DefaultDetectorRegion    = "us-east-2"
	DefaultDetectorMaxLabels = 100
	DefaultDetectorMinConf   = 80.0
)

// DetectorConfig 标签识别服务配置.
// Rekognition 直接读取对象存储中的图片，因此需要与 s3.bucket_name 指向同一个桶.
type DetectorConfig struct {
	Type            DetectorType `mapstructure:"type"              rule:"oneof=rekognition none"`
	Region          string       `mapstructure:"region"`
	Profile         string       `mapstructure:"profile"`
	AccessKeyID     string       `mapstructure:"access_key_id"`
	SecretAccessKey string       `mapstructure:"secret_access_key"`
	// Endpoint 自定义服务端点，用于本地模拟器，留空使用 AWS 默认端点.
	Endpoint      string  `mapstructure:"endpoint"`
	MaxLabels     int32   `mapstructure:"max_labels"     rule:"min=1,max=1000"`
	MinConfidence float32 `mapstructure:"min_confidence" rule:"min=0,max=100"`
}

// setDefaults 设置识别服务配置的默认值.
func (c *DetectorConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("detector.type", DefaultDetectorType)
	v.SetDefault("detector.region", DefaultDetectorRegion)
	v.SetDefault("detector.profile", "")
	v.SetDefault("detector.access_key_id", "")
	v.SetDefault("detector.secret_access_key", "")
	v.SetDefault("detector.endpoint", "")
	v.SetDefault("detector.max_labels", DefaultDetectorMaxLabels)
	v.SetDefault("detector.min_confidence", DefaultDetectorMinConf)
}
