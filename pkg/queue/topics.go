package queue

// 主题命名规范：pv.<域>.<动作>[.<状态>].
const (
	// TopicAssetStored 对象已上传且资产记录已写入元数据库.
	TopicAssetStored = "pv.asset.stored"
	// TopicAssetLabeled 标签识别完成并已写入元数据库.
	TopicAssetLabeled = "pv.asset.labeled"
	// TopicAssetLabelFailed 标签识别或写入失败，资产本身保留.
	TopicAssetLabelFailed = "pv.asset.label.failed"
	// TopicAssetsPurged 所有资产已被清空.
	TopicAssetsPurged = "pv.assets.purged"
	// TopicOrphansSwept 孤儿对象清理完成.
	TopicOrphansSwept = "pv.orphans.swept"
)

// AssetTopics 资产相关主题集合，便于订阅端批量订阅.
var AssetTopics = []string{
	TopicAssetStored,
	TopicAssetLabeled,
	TopicAssetLabelFailed,
	TopicAssetsPurged,
	TopicOrphansSwept,
}
