package llm

import "voice-journal/backend/internal/llm/contract"

type Provider = contract.Provider

type ProviderConfig = contract.ProviderConfig

type HealthCheckResult = contract.HealthCheckResult

type UsageStats = contract.UsageStats

type UsageRecord = contract.UsageRecord

type Task = contract.Task
