package service

import (
	"context"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/config"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/es"
)

// SearchService 提供聊天历史的全文检索。
type SearchService interface {
	SearchMessages(ctx context.Context, profileID, query string, size int) ([]model.EsMessageDoc, error)
}

type searchService struct{}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService() SearchService {
	return &searchService{}
}

// SearchMessages 在 Elasticsearch 中检索某个角色的历史消息。
func (s *searchService) SearchMessages(ctx context.Context, profileID, query string, size int) ([]model.EsMessageDoc, error) {
	return es.SearchMessages(ctx, config.Conf.Elasticsearch.IndexName, profileID, query, size)
}
