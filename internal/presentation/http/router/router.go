package router

import (
	"net/http"

	"grammar-api-app/internal/presentation/di"
	"grammar-api-app/internal/presentation/http/middleware"
)

// NewRouter 新しいルーターを作成
func NewRouter(container *di.Container) http.Handler {
	mux := http.NewServeMux()

	// Grammar API ハンドラー
	grammarHandler := container.GrammarHandler()
	mux.HandleFunc("/api/v1/grammar/correct", grammarHandler.HandleCorrect)
	mux.HandleFunc("/api/v1/grammar/profanity", grammarHandler.HandleProfanity)
	mux.HandleFunc("/api/v1/grammar/history", grammarHandler.HandleHistory)

	// Health check
	mux.Handle("/healthz", container.HealthHandler())

	// ミドルウェアの適用
	var h http.Handler = mux
	h = middleware.Recovery(h)
	h = middleware.Logger(h)

	return h
}
