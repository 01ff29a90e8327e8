package queue

import "github.com/ThreeDotsLabs/watermill/message"

// publish 构造并发布一条事件.
func publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// PublishAssetStored 发布 pv.asset.stored 事件.
func PublishAssetStored(pub message.Publisher, payload AssetStoredPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicAssetStored, payload, opts...)
}

// PublishAssetLabeled 发布 pv.asset.labeled 事件.
func PublishAssetLabeled(pub message.Publisher, payload AssetLabeledPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicAssetLabeled, payload, opts...)
}

// PublishAssetLabelFailed 发布 pv.asset.label.failed 事件.
func PublishAssetLabelFailed(pub message.Publisher, payload AssetLabelFailedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicAssetLabelFailed, payload, opts...)
}

// PublishAssetsPurged 发布 pv.assets.purged 事件.
func PublishAssetsPurged(pub message.Publisher, payload AssetsPurgedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicAssetsPurged, payload, opts...)
}

// PublishOrphansSwept 发布 pv.orphans.swept 事件.
func PublishOrphansSwept(pub message.Publisher, payload OrphansSweptPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicOrphansSwept, payload, opts...)
}

// ParseAssetStored 将 Watermill 消息解析为 AssetStoredPayload 信封.
func ParseAssetStored(msg *message.Message) (Message[AssetStoredPayload], error) {
	return ParseWatermillMessage[AssetStoredPayload](msg)
}

// ParseAssetLabelFailed 将 Watermill 消息解析为 AssetLabelFailedPayload 信封.
func ParseAssetLabelFailed(msg *message.Message) (Message[AssetLabelFailedPayload], error) {
	return ParseWatermillMessage[AssetLabelFailedPayload](msg)
}
