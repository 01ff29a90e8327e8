// Package model 定义元数据存储中的表结构.
package model

import "time"

// User 图片所有者. 核心流程只读取 users 表，从不创建用户.
type User struct {
	UserID     int64  `gorm:"column:userid;primaryKey;autoIncrement" json:"userid"`
	Username   string `gorm:"column:username;size:64;not null;uniqueIndex" json:"username"`
	GivenName  string `gorm:"column:givenname;size:64;not null" json:"givenname"`
	FamilyName string `gorm:"column:familyname;size:64;not null" json:"familyname"`

	// 外键建在 assets.userid 上，删除仍有图片的用户会被拒绝.
	Assets []Asset `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
}

func (User) TableName() string { return "users" }

// Asset 一张已上传的图片. BucketKey 唯一，并且指向对象存储中的内容.
type Asset struct {
	AssetID   int64  `gorm:"column:assetid;primaryKey;autoIncrement" json:"assetid"`
	UserID    int64  `gorm:"column:userid;not null;index" json:"userid"`
	LocalName string `gorm:"column:localname;size:128;not null" json:"localname"`
	BucketKey string `gorm:"column:bucketkey;size:256;not null;uniqueIndex" json:"bucketkey"`

	Labels []Label `gorm:"foreignKey:AssetID;references:AssetID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Asset) TableName() string { return "assets" }

// Label 识别服务为图片打出的一个标签，置信度为 0..100 的整数.
type Label struct {
	AssetID    int64  `gorm:"column:assetid;primaryKey;autoIncrement:false" json:"assetid"`
	Label      string `gorm:"column:label;primaryKey;size:128" json:"label"`
	Confidence int    `gorm:"column:confidence;not null" json:"confidence"`
}

func (Label) TableName() string { return "labels" }

// BlobRef 标识对象存储中的一个对象.
type BlobRef struct {
	Bucket string
	Key    string
}

// DetectedLabel 识别服务返回的标签，尚未与资产关联.
type DetectedLabel struct {
	Name       string
	Confidence float64
}

// BlobInfo 对象存储列举结果中的一项.
type BlobInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}
