package broker

import (
	"fmt"

	"wahook/internal/config"
	"wahook/internal/constants"
	"wahook/internal/logger"
)

func NewProducer(cfg config.SessionConfig, log logger.Logger) (Producer, error) {
	switch cfg.Type {
	case constants.SessionTypeKafka:
		return NewKafkaProducer(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unknown session type: %s", cfg.Type)
	}
}

func NewConsumer(cfg config.SessionConfig, log logger.Logger) (Consumer, error) {
	switch cfg.Type {
	case constants.SessionTypeKafka:
		return NewKafkaConsumer(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unknown session type: %s", cfg.Type)
	}
}
