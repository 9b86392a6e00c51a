package callback

import (
	einocb "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

// NewHandler 构建 Embedding 组件回调，供 EinoProvider 注入
func NewHandler() einocb.Handler {
	return cbtemplate.NewHandlerHelper().
		Embedding(newEmbeddingCallbackHandler()).
		Handler()
}
