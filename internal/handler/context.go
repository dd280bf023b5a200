package handler

import (
	"net/http"

	"github.com/rotadesk/backend/internal/domain"
)

type ContextKey string

var (
	SubCtxKey   ContextKey = "sub"
	ActorCtxKey ContextKey = "actor"
	IDCtxKey    ContextKey = "id"
)

func actorFrom(r *http.Request) domain.Actor {
	return r.Context().Value(ActorCtxKey).(domain.Actor)
}

func idFrom(r *http.Request) int64 {
	return r.Context().Value(IDCtxKey).(int64)
}
