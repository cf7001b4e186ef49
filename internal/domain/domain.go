package domain

import (
	"github.com/yungbote/refyne-backend/internal/domain/knowledge"
)

const (
	ProjectStatusActive   = knowledge.ProjectStatusActive
	ProjectStatusArchived = knowledge.ProjectStatusArchived

	DocumentStatusUploaded   = knowledge.DocumentStatusUploaded
	DocumentStatusExtracting = knowledge.DocumentStatusExtracting
	DocumentStatusExtracted  = knowledge.DocumentStatusExtracted
	DocumentStatusProcessing = knowledge.DocumentStatusProcessing
	DocumentStatusProcessed  = knowledge.DocumentStatusProcessed
	DocumentStatusError      = knowledge.DocumentStatusError

	ChunkStatusPendingReview = knowledge.ChunkStatusPendingReview
	ChunkStatusApproved      = knowledge.ChunkStatusApproved
	ChunkStatusRejected      = knowledge.ChunkStatusRejected

	RunStatusIdle       = knowledge.RunStatusIdle
	RunStatusProcessing = knowledge.RunStatusProcessing
	RunStatusDone       = knowledge.RunStatusDone
)

type Project = knowledge.Project
type Document = knowledge.Document
type Chunk = knowledge.Chunk
type Tag = knowledge.Tag
type ChunkTag = knowledge.ChunkTag

type ChunkFilter = knowledge.ChunkFilter
type ChunkUpdate = knowledge.ChunkUpdate
type CategoryCount = knowledge.CategoryCount
type ReviewStats = knowledge.ReviewStats
type AdjacentChunks = knowledge.AdjacentChunks

type ProcessingRun = knowledge.ProcessingRun
type RunError = knowledge.RunError

type Decomposition = knowledge.Decomposition
type DecomposedChunk = knowledge.DecomposedChunk

var (
	EstimateTokens        = knowledge.EstimateTokens
	NormalizeTagName      = knowledge.NormalizeTagName
	CanTransitionDocument = knowledge.CanTransitionDocument
	DocumentSourcesFor    = knowledge.DocumentSourcesFor
	IdleRun               = knowledge.IdleRun
	IsValidChunkStatus    = knowledge.IsValidChunkStatus
	IsValidProjectStatus  = knowledge.IsValidProjectStatus
)
