package service

import (
	"basegraph.app/autoreply/internal/mapper"
	"basegraph.app/autoreply/internal/queue"
)

type Services struct {
	stores    StoreProvider
	txRunner  TxRunner
	mapper    mapper.WebhookMapper
	producer  queue.Producer
	ingestCfg EventIngestConfig
}

// NewServices wires the services over one set of stores. A nil producer
// selects inline processing.
func NewServices(stores StoreProvider, txRunner TxRunner, producer queue.Producer, ingestCfg EventIngestConfig) *Services {
	return &Services{
		stores:    stores,
		txRunner:  txRunner,
		mapper:    mapper.NewMetaWebhookMapper(),
		producer:  producer,
		ingestCfg: ingestCfg,
	}
}

func (s *Services) Recorder() *OutcomeRecorder {
	return NewOutcomeRecorder(s.stores, s.txRunner)
}

func (s *Services) EventIngest(processor EventProcessor) EventIngestService {
	return NewEventIngestService(s.mapper, processor, s.producer, s.ingestCfg)
}
