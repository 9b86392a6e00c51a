package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionChapterEmbeddings 章节整体向量集合
	CollectionChapterEmbeddings = "chapter_embeddings"

	fieldChapterID   = "chapter_id"
	fieldNovelID     = "novel_id"
	fieldContentHash = "content_hash"
	fieldModel       = "model"
	fieldVector      = "vector"
)

// ChapterEmbeddingsSchema 章节向量 Collection Schema
func ChapterEmbeddingsSchema(dimension int) *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionChapterEmbeddings,
		Description:    "Whole-chapter embeddings for similarity screening",
		Fields: []*entity.Field{
			{
				Name:       fieldChapterID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     fieldNovelID,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     fieldContentHash,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     fieldModel,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     fieldVector,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dimension),
				},
			},
		},
	}
}

var outputFields = []string{fieldChapterID, fieldNovelID, fieldContentHash, fieldModel, fieldVector}
