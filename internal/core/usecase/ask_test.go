package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/chattydoc/chattydoc/internal/core/domain"
)

func newAskFixture(publisher *fakePublisher) *AskUseCase {
	ingestor := newIngestFixture(newFakeCache(), &fakeConverter{}, 0)
	builder := NewRetrieverBuilder(
		&fakeLexicalBuilder{index: &fakeLexicalIndex{hits: []domain.RetrievedChunk{retrieved("a.txt", "alpha")}}},
		&fakeEmbedder{},
		&fakeVectorIndex{hits: []domain.RetrievedChunk{retrieved("a.txt", "alpha")}},
		RetrieverConfig{},
		nil,
	)
	return NewAskUseCase(ingestor, builder, NewRetrieverCache(), &fakeGenerator{}, publisher, nil)
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	uc := newAskFixture(&fakePublisher{})

	_, err := uc.Ask(context.Background(), "   ", []domain.FileBlob{{Name: "a.txt", Data: []byte("alpha")}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAskRejectsBatchWithoutContent(t *testing.T) {
	uc := newAskFixture(&fakePublisher{})

	_, err := uc.Ask(context.Background(), "question?", nil)
	if !domain.IsKind(err, domain.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestAskDraftsVerifiesAndPublishes(t *testing.T) {
	publisher := &fakePublisher{}
	uc := newAskFixture(publisher)

	files := []domain.FileBlob{{Name: "a.txt", Data: []byte("alpha")}}
	answer, err := uc.Ask(context.Background(), "question?", files)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Draft != "draft: question?" {
		t.Fatalf("unexpected draft %q", answer.Draft)
	}
	if answer.Verification != "verified: draft: question?" {
		t.Fatalf("unexpected verification %q", answer.Verification)
	}
	if len(answer.Sources) == 0 {
		t.Fatalf("expected sources on answer")
	}
	if answer.ID == "" || answer.CreatedAt.IsZero() {
		t.Fatalf("expected populated answer identity, got %+v", answer)
	}
	if len(publisher.batches) != 1 || len(publisher.answers) != 1 {
		t.Fatalf("expected one batch and one answer event, got %d/%d", len(publisher.batches), len(publisher.answers))
	}
	if publisher.answers[0].SourceCount != len(answer.Sources) {
		t.Fatalf("answer event source count mismatch")
	}
}

func TestAskReusedBatchSkipsBatchEvent(t *testing.T) {
	publisher := &fakePublisher{}
	uc := newAskFixture(publisher)

	files := []domain.FileBlob{{Name: "a.txt", Data: []byte("alpha")}}
	if _, err := uc.Ask(context.Background(), "first?", files); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if _, err := uc.Ask(context.Background(), "second?", files); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if len(publisher.batches) != 1 {
		t.Fatalf("reused batch must not publish another batch event, got %d", len(publisher.batches))
	}
	if len(publisher.answers) != 2 {
		t.Fatalf("expected 2 answer events, got %d", len(publisher.answers))
	}
}

func TestAskPublisherFailureDoesNotFailAnswer(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("nats down")}
	uc := newAskFixture(publisher)

	files := []domain.FileBlob{{Name: "a.txt", Data: []byte("alpha")}}
	answer, err := uc.Ask(context.Background(), "question?", files)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Verification == "" {
		t.Fatalf("expected complete answer despite publish failure")
	}
}

func TestAskPropagatesGeneratorError(t *testing.T) {
	ingestor := newIngestFixture(newFakeCache(), &fakeConverter{}, 0)
	builder := NewRetrieverBuilder(
		&fakeLexicalBuilder{index: &fakeLexicalIndex{}},
		&fakeEmbedder{},
		&fakeVectorIndex{},
		RetrieverConfig{},
		nil,
	)
	uc := NewAskUseCase(ingestor, builder, NewRetrieverCache(), &fakeGenerator{draftErr: errors.New("llm down")}, &fakePublisher{}, nil)

	_, err := uc.Ask(context.Background(), "question?", []domain.FileBlob{{Name: "a.txt", Data: []byte("alpha")}})
	if err == nil {
		t.Fatalf("expected generator error")
	}
}
