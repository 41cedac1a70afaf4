// Package events consumes transaction and customer streams from Kafka and
// feeds them through the compliance engine.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/config"
	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/engine"
)

type ComplianceConsumer struct {
	consumerGroup    sarama.ConsumerGroup
	engine           *engine.Engine
	transactionTopic string
	customerTopic    string
	logger           *zap.Logger
}

func NewComplianceConsumer(cfg config.KafkaConfig, eng *engine.Engine, logger *zap.Logger) (*ComplianceConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Version = sarama.V2_8_0_0

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &ComplianceConsumer{
		consumerGroup:    consumerGroup,
		engine:           eng,
		transactionTopic: cfg.TransactionTopic,
		customerTopic:    cfg.CustomerTopic,
		logger:           logger,
	}, nil
}

// Start consumes until the context is canceled, backing off on broker errors.
func (c *ComplianceConsumer) Start(ctx context.Context) error {
	handler := &complianceHandler{
		engine:           c.engine,
		transactionTopic: c.transactionTopic,
		customerTopic:    c.customerTopic,
		logger:           c.logger,
	}

	topics := []string{c.transactionTopic, c.customerTopic}
	for {
		if err := c.consumerGroup.Consume(ctx, topics, handler); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("error from consumer", zap.Error(err))
			time.Sleep(5 * time.Second)
		}
	}
}

func (c *ComplianceConsumer) Close() error {
	return c.consumerGroup.Close()
}

type complianceHandler struct {
	engine           *engine.Engine
	transactionTopic string
	customerTopic    string
	logger           *zap.Logger
}

func (h *complianceHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *complianceHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *complianceHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		h.processMessage(session.Context(), message)
		session.MarkMessage(message, "")
	}
	return nil
}

func (h *complianceHandler) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) {
	switch msg.Topic {
	case h.transactionTopic:
		h.processTransaction(ctx, msg)
	case h.customerTopic:
		h.processCustomer(ctx, msg)
	default:
		h.logger.Warn("message from unexpected topic", zap.String("topic", msg.Topic))
	}
}

// processTransaction runs the monitoring and CTR checks. Engine results carry
// errors in-band, so a message is retried only when the underlying store
// failed; decision outcomes are just logged.
func (h *complianceHandler) processTransaction(ctx context.Context, msg *sarama.ConsumerMessage) {
	var tx domain.Transaction
	if err := json.Unmarshal(msg.Value, &tx); err != nil {
		h.logger.Error("failed to unmarshal transaction", zap.Error(err))
		return // skip malformed
	}

	sarResult := h.engine.MonitorTransaction(ctx, &tx)
	if sarResult.Error != "" {
		h.logger.Error("transaction monitoring failed",
			zap.String("transaction_id", tx.TransactionID),
			zap.String("error", sarResult.Error),
		)
	} else if sarResult.SARRequired {
		h.logger.Info("SAR filed from transaction stream",
			zap.String("transaction_id", tx.TransactionID),
			zap.String("sar_id", sarResult.SARID.String()),
			zap.Strings("indicators", sarResult.Indicators),
		)
	}

	ctrResult := h.engine.EvaluateCTR(ctx, &tx)
	if ctrResult.Error != "" {
		h.logger.Error("ctr evaluation failed",
			zap.String("transaction_id", tx.TransactionID),
			zap.String("error", ctrResult.Error),
		)
	} else if ctrResult.CTRRequired {
		h.logger.Info("CTR filed from transaction stream",
			zap.String("transaction_id", tx.TransactionID),
			zap.String("ctr_id", ctrResult.CTRID.String()),
			zap.String("aggregated_amount", ctrResult.AggregatedAmount.String()),
		)
	}
}

// processCustomer runs the identification workflow for onboarding events.
func (h *complianceHandler) processCustomer(ctx context.Context, msg *sarama.ConsumerMessage) {
	var data domain.CustomerData
	if err := json.Unmarshal(msg.Value, &data); err != nil {
		h.logger.Error("failed to unmarshal customer data", zap.Error(err))
		return
	}

	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		result := h.engine.IdentifyCustomer(ctx, &data)
		if result.Error == "" {
			if !result.CompliancePassed {
				h.logger.Warn("customer failed compliance checks",
					zap.String("customer_id", result.CustomerID),
					zap.String("risk_level", string(result.RiskLevel)),
				)
			}
			return
		}
		h.logger.Error("customer identification failed",
			zap.String("customer_id", data.CustomerID),
			zap.String("error", result.Error),
			zap.Int("retry", i+1),
		)
		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}
	h.logger.Error("dropping customer event after retries", zap.String("customer_id", data.CustomerID))
}
