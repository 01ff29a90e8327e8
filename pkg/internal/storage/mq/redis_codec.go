package mq

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

// redisEnvelope Redis PUBLISH 不携带元数据，因此把 UUID 与 Metadata 和 payload 一起编码.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

func encodeRedisMessage(msg *message.Message) ([]byte, error) {
	return sonic.Marshal(redisEnvelope{
		UUID:     msg.UUID,
		Metadata: msg.Metadata,
		Payload:  msg.Payload,
	})
}

func decodeRedisMessage(b []byte) (*message.Message, error) {
	var env redisEnvelope
	if err := sonic.Unmarshal(b, &env); err != nil {
		return nil, err
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg, nil
}
