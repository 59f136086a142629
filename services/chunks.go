package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/krshsl/intervue/models"
)

// ChunkInput is one pre-split piece of a document. Embeddings are produced
// elsewhere and are optional.
type ChunkInput struct {
	Text       string          `json:"text"`
	ChunkIndex *int            `json:"chunk_index,omitempty"`
	StartToken *int            `json:"start_token,omitempty"`
	EndToken   *int            `json:"end_token,omitempty"`
	Embedding  []float32       `json:"embedding,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

type AddChunksRequest struct {
	Chunks []ChunkInput `json:"chunks"`
}

// validate checks c and returns its position, defaulting to i.
func (c ChunkInput) validate(i int) (int, error) {
	if strings.TrimSpace(c.Text) == "" {
		return 0, fmt.Errorf("%w: chunk %d has no text", errBadRequest, i)
	}
	if len(c.Metadata) > 0 {
		var obj map[string]interface{}
		if err := json.Unmarshal(c.Metadata, &obj); err != nil {
			return 0, fmt.Errorf("%w: chunk %d metadata must be an object", errBadRequest, i)
		}
	}
	if err := models.ValidateEmbedding(models.NewEmbedding(c.Embedding)); err != nil {
		return 0, fmt.Errorf("chunk %d: %w", i, err)
	}
	if c.ChunkIndex != nil {
		return *c.ChunkIndex, nil
	}
	return i, nil
}

func (req AddChunksRequest) check() error {
	if len(req.Chunks) == 0 {
		return fmt.Errorf("%w: at least one chunk is required", errBadRequest)
	}
	return nil
}

func resumeChunks(resume *models.Resume, in []ChunkInput) ([]models.ResumeChunk, error) {
	out := make([]models.ResumeChunk, 0, len(in))
	for i, c := range in {
		index, err := c.validate(i)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ResumeChunk{
			ResumeID:   resume.ID,
			ProfileID:  resume.ProfileID,
			Text:       c.Text,
			ChunkIndex: index,
			StartToken: c.StartToken,
			EndToken:   c.EndToken,
			Embedding:  models.NewEmbedding(c.Embedding),
			Metadata:   datatypes.JSON(c.Metadata),
		})
	}
	return out, nil
}

func companyDocChunks(postingID string, companyID *string, in []ChunkInput) ([]models.CompanyDocChunk, error) {
	out := make([]models.CompanyDocChunk, 0, len(in))
	for i, c := range in {
		index, err := c.validate(i)
		if err != nil {
			return nil, err
		}
		out = append(out, models.CompanyDocChunk{
			JobPostingID: postingID,
			CompanyID:    companyID,
			Text:         c.Text,
			ChunkIndex:   index,
			Embedding:    models.NewEmbedding(c.Embedding),
			Metadata:     datatypes.JSON(c.Metadata),
		})
	}
	return out, nil
}
