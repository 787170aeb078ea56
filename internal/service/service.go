// Package service implements circle, mood and journal use cases on top of the store.
package service

import (
	"go.uber.org/zap"

	"github.com/xiaot623/serenai/internal/policy"
	"github.com/xiaot623/serenai/internal/repository"
)

type Service struct {
	store        repository.Store
	policyEngine *policy.Engine
	logger       *zap.Logger
}

func New(store repository.Store, policyEngine *policy.Engine, logger *zap.Logger) *Service {
	return &Service{
		store:        store,
		policyEngine: policyEngine,
		logger:       logger.Named("service"),
	}
}
