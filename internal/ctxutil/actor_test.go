package ctxutil

import (
	"context"
	"testing"
)

func TestActorFromContext(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Error("expected no actor on a bare context")
	}
	if _, ok := ActorFromContext(WithActor(context.Background(), Actor{Email: "a@x.io"})); ok {
		t.Error("an actor without user id should not count")
	}

	ctx := WithActor(context.Background(), Actor{UserID: "u1", Email: "a@x.io"})
	got, ok := ActorFromContext(ctx)
	if !ok || got.UserID != "u1" || got.Email != "a@x.io" {
		t.Errorf("ActorFromContext() = %+v, %v", got, ok)
	}
}
