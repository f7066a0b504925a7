package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

type presignStub struct {
	keys []string
	ttl  time.Duration
	err  error
}

func (s *presignStub) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.keys = append(s.keys, key)
	s.ttl = ttl
	if s.err != nil {
		return "", s.err
	}
	return "https://cdn.test/" + key + "?sig=1", nil
}

func TestResolvePassesAbsoluteURLsThrough(t *testing.T) {
	stub := &presignStub{}
	resolver := NewImageResolver(stub, time.Minute, nil)

	got := resolver.Resolve(context.Background(), "https://images.example.com/rex.jpg")
	if got != "https://images.example.com/rex.jpg" {
		t.Fatalf("unexpected url: %s", got)
	}
	if len(stub.keys) != 0 {
		t.Fatalf("absolute urls must not be presigned")
	}
}

func TestResolvePresignsObjectKeys(t *testing.T) {
	stub := &presignStub{}
	resolver := NewImageResolver(stub, 2*time.Minute, nil)

	got := resolver.Resolve(context.Background(), "/pets/p1/0.jpg")
	if got != "https://cdn.test/pets/p1/0.jpg?sig=1" {
		t.Fatalf("unexpected url: %s", got)
	}
	if stub.ttl != 2*time.Minute {
		t.Fatalf("unexpected ttl: %s", stub.ttl)
	}
}

func TestResolveDegradesOnPresignError(t *testing.T) {
	resolver := NewImageResolver(&presignStub{err: errors.New("boom")}, time.Minute, nil)
	if got := resolver.Resolve(context.Background(), "pets/p1/0.jpg"); got != "" {
		t.Fatalf("expected empty url, got %s", got)
	}
}

func TestResolveWithoutSignerDropsKeys(t *testing.T) {
	var resolver *ImageResolver
	if got := resolver.Resolve(context.Background(), "pets/p1/0.jpg"); got != "" {
		t.Fatalf("expected empty url, got %s", got)
	}
}
